package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fentz26/taskmaster/internal/audit"
	"github.com/fentz26/taskmaster/internal/models"
)

// Repository loads the task collection for a pass and writes it back.
// Load receives the pass date so tasks that only give times of day can default
// to it. Save is called at most once per pass.
type Repository interface {
	Load(ctx context.Context, today time.Time) ([]*models.Task, error)
	Save(ctx context.Context, tasks []*models.Task) error
}

// Dispatcher delivers one reminder. Retrying is its own business.
type Dispatcher interface {
	Dispatch(ctx context.Context, r models.Reminder) error
}

// Recorder writes an audit entry for each firing. audit.PDRWriter satisfies it.
type Recorder interface {
	Record(action string, inputs interface{}, outcome, taskID, details string) (*models.PDREntry, error)
}

// History keeps a row per pass.
type History interface {
	SaveRun(ctx context.Context, run models.Run) error
}

// Firing is one matched candidate during a pass.
type Firing struct {
	Index    int
	Reminder models.Reminder
	Err      error
}

// Update is a last-reminded change for the task at Index.
type Update struct {
	Index        int
	LastReminded time.Time
}

// Result summarizes a pass.
type Result struct {
	RunID      string
	Tasks      int
	Firings    []Firing
	Updates    []Update
	AnyChanged bool
}

// Failed counts the firings whose dispatch returned an error.
func (r Result) Failed() int {
	n := 0
	for _, f := range r.Firings {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Option configures a Processor.
type Option func(*Processor)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithRecorder enables a decision record per firing.
func WithRecorder(r Recorder) Option {
	return func(p *Processor) { p.recorder = r }
}

// WithHistory enables run bookkeeping.
func WithHistory(h History) Option {
	return func(p *Processor) { p.history = h }
}

// WithNow replaces the clock source. Use it to pin the time zone.
func WithNow(now func() time.Time) Option {
	return func(p *Processor) { p.now = now }
}

// WithDryRun reports matches without dispatching or saving.
func WithDryRun(dry bool) Option {
	return func(p *Processor) { p.dryRun = dry }
}

// Processor runs dispatch passes over a task repository.
type Processor struct {
	repo       Repository
	dispatcher Dispatcher
	recorder   Recorder
	history    History
	logger     *zap.Logger
	now        func() time.Time
	dryRun     bool
}

// New creates a processor.
func New(repo Repository, dispatcher Dispatcher, opts ...Option) *Processor {
	p := &Processor{
		repo:       repo,
		dispatcher: dispatcher,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs one full pass: sample the clock, load, evaluate every task,
// and save if any task fired. A load error aborts before anything is sent.
func (p *Processor) Process(ctx context.Context) (Result, error) {
	started := p.now()
	c := NewClock(started)
	run := models.Run{ID: uuid.New().String(), StartedAt: started}

	res, err := p.process(ctx, c)
	res.RunID = run.ID

	run.EndedAt = p.now()
	run.Tasks = res.Tasks
	run.Fired = len(res.Firings)
	run.Changed = res.AnyChanged
	if err != nil {
		run.Error = err.Error()
	}
	if p.history != nil && !p.dryRun {
		if herr := p.history.SaveRun(ctx, run); herr != nil {
			p.logger.Warn("failed to record run", zap.String("run_id", run.ID), zap.Error(herr))
		}
	}

	p.logger.Info("pass complete",
		zap.String("run_id", run.ID),
		zap.Int("tasks", res.Tasks),
		zap.Int("fired", len(res.Firings)),
		zap.Int("failed", res.Failed()),
		zap.Bool("changed", res.AnyChanged),
		zap.Bool("dry_run", p.dryRun),
	)
	return res, err
}

func (p *Processor) process(ctx context.Context, c Clock) (Result, error) {
	tasks, err := p.repo.Load(ctx, c.Today)
	if err != nil {
		return Result{}, fmt.Errorf("load tasks: %w", err)
	}

	res, err := p.Run(ctx, tasks, c)
	if err != nil {
		return res, err
	}

	if res.AnyChanged && !p.dryRun {
		if err := p.repo.Save(ctx, tasks); err != nil {
			return res, fmt.Errorf("save tasks: %w", err)
		}
	}
	return res, nil
}

// Run evaluates tasks against c. Matching tasks are dispatched and their
// LastReminded set to c.Now in place, whether or not dispatch succeeded.
// At most one ad hoc nudge fires per pass, and none if any task was
// already reminded today.
func (p *Processor) Run(ctx context.Context, tasks []*models.Task, c Clock) (Result, error) {
	res := Result{Tasks: len(tasks)}

	shouldNudge := true
	for _, t := range tasks {
		if c.IsToday(t.LastReminded) {
			shouldNudge = false
			break
		}
	}

	for i, t := range tasks {
		if why := Check(t, c); why != NotSuppressed {
			p.logger.Debug("suppressed", zap.String("task", t.Name), zap.String("reason", string(why)))
			continue
		}

		exp, err := Expand(t, c)
		if err != nil {
			return res, err
		}

		freq := exp.Frequency
		instants := exp.Instants
		nudge := false
		if len(instants) == 0 && !t.Recurring && shouldNudge {
			instants = []time.Time{c.Now}
			freq = models.FrequencyNudge
			nudge = true
		}

		if !inWindow(instants, c.Now) {
			continue
		}

		r := models.Reminder{TaskID: t.ID, Name: t.Name, URL: t.URL, Frequency: freq, FiredAt: c.Now}
		f := Firing{Index: i, Reminder: r}
		if !p.dryRun {
			f.Err = p.dispatch(ctx, r)
			t.LastReminded = c.Now
		}
		res.Firings = append(res.Firings, f)
		res.Updates = append(res.Updates, Update{Index: i, LastReminded: c.Now})
		res.AnyChanged = true

		if nudge {
			shouldNudge = false
		}
	}

	return res, nil
}

func (p *Processor) dispatch(ctx context.Context, r models.Reminder) error {
	err := p.dispatcher.Dispatch(ctx, r)

	outcome, details := "sent", fmt.Sprintf("%s reminder for %q", r.Frequency, r.Name)
	if err != nil {
		outcome, details = "failed", err.Error()
		p.logger.Warn("dispatch failed", zap.String("task", r.Name), zap.String("frequency", string(r.Frequency)), zap.Error(err))
	} else {
		p.logger.Info("reminder sent", zap.String("task", r.Name), zap.String("frequency", string(r.Frequency)))
	}

	if p.recorder != nil {
		if _, rerr := p.recorder.Record(audit.ActionDispatch, map[string]interface{}{
			"task_id":   r.TaskID,
			"name":      r.Name,
			"frequency": r.Frequency,
			"fired_at":  r.FiredAt.Unix(),
		}, outcome, r.TaskID, details); rerr != nil {
			p.logger.Warn("failed to write decision record", zap.String("task", r.Name), zap.Error(rerr))
		}
	}
	return err
}

// inWindow reports whether some candidate lies strictly less than
// WindowSeconds from now. Scanning stops at the first match.
func inWindow(instants []time.Time, now time.Time) bool {
	for _, at := range instants {
		d := at.Unix() - now.Unix()
		if d < 0 {
			d = -d
		}
		if d < WindowSeconds {
			return true
		}
	}
	return false
}
