// Package controlplane provides the HTTP API and service layer for TaskMaster.
package controlplane

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fentz26/taskmaster/internal/audit"
	"github.com/fentz26/taskmaster/internal/engine"
	"github.com/fentz26/taskmaster/internal/models"
	"github.com/fentz26/taskmaster/internal/task"
)

// Catalog is the task collection as seen by people rather than by the
// dispatch loop. store.Store and csvfile.File both satisfy it.
type Catalog interface {
	CreateTask(in task.Input, today time.Time) (*models.Task, error)
	GetTask(id string) (*task.Input, error)
	ListTasks() ([]task.Input, error)
	SearchTasks(term string) ([]task.Input, error)
	DeleteTask(id string) error
}

// Runner triggers a pass. scheduler.Scheduler satisfies it.
type Runner interface {
	RunNow(ctx context.Context) (engine.Result, error)
}

// InboxReader lists filed reminders.
type InboxReader interface {
	ListReminders(group string, limit int) ([]models.InboxItem, error)
}

// RunReader lists past passes.
type RunReader interface {
	ListRuns(limit int) ([]models.Run, error)
}

// TaskView is a stored task plus its rendered schedule. Invalid holds the
// validation error for a row that would fail the next load.
type TaskView struct {
	task.Input
	Schedule string `json:"schedule,omitempty"`
	Invalid  string `json:"invalid,omitempty"`
}

// FiringView is one entry of a pass report.
type FiringView struct {
	TaskID    string `json:"task_id,omitempty"`
	Name      string `json:"name"`
	Frequency string `json:"frequency,omitempty"`
	Error     string `json:"error,omitempty"`
}

// PassReport summarizes a pass started through the API.
type PassReport struct {
	RunID   string       `json:"run_id"`
	Tasks   int          `json:"tasks"`
	Changed bool         `json:"changed"`
	Fired   []FiringView `json:"fired"`
}

// Service provides the control plane business logic.
type Service struct {
	catalog Catalog
	pdr     *audit.PDRWriter
	runner  Runner
	inbox   InboxReader
	runs    RunReader
	loc     *time.Location
	logger  *zap.Logger
}

// NewService creates a new control plane service. loc is the zone used to
// decide "today" for new tasks.
func NewService(c Catalog, pdr *audit.PDRWriter, r Runner, loc *time.Location) *Service {
	if loc == nil {
		loc = time.Local
	}
	return &Service{
		catalog: c,
		pdr:     pdr,
		runner:  r,
		loc:     loc,
		logger:  zap.NewNop(),
	}
}

// WithLogger sets the logger for audit write failures.
func (s *Service) WithLogger(l *zap.Logger) *Service {
	if l != nil {
		s.logger = l
	}
	return s
}

// WithInbox enables the reminders listing.
func (s *Service) WithInbox(i InboxReader) *Service {
	s.inbox = i
	return s
}

// WithRuns enables the pass history listing.
func (s *Service) WithRuns(r RunReader) *Service {
	s.runs = r
	return s
}

func (s *Service) today() time.Time {
	now := time.Now().In(s.loc)
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.loc)
}

func (s *Service) record(action string, inputs interface{}, outcome, taskID, details string) {
	if s.pdr == nil {
		return
	}
	if _, err := s.pdr.Record(action, inputs, outcome, taskID, details); err != nil {
		s.logger.Warn("failed to write decision record", zap.String("action", action), zap.Error(err))
	}
}

// --- Task Operations ---

// CreateTask validates and stores a new task.
func (s *Service) CreateTask(in task.Input) (*TaskView, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}

	t, err := s.catalog.CreateTask(in, s.today())
	if err != nil {
		s.record(audit.ActionTaskCreate, in, "rejected", "", err.Error())
		return nil, err
	}

	s.record(audit.ActionTaskCreate, in, "success", t.ID, t.Name)
	return &TaskView{Input: task.ToInput(t), Schedule: task.DescribeSchedule(t)}, nil
}

// GetTask retrieves a task by ID.
func (s *Service) GetTask(id string) (*TaskView, error) {
	in, err := s.catalog.GetTask(id)
	if err != nil {
		return nil, err
	}
	v := s.view(*in)
	return &v, nil
}

// ListTasks returns every task ordered by name.
func (s *Service) ListTasks() ([]TaskView, error) {
	inputs, err := s.catalog.ListTasks()
	if err != nil {
		return nil, err
	}
	return s.views(inputs), nil
}

// SearchTasks returns tasks whose name contains q.
func (s *Service) SearchTasks(q string) ([]TaskView, error) {
	if strings.TrimSpace(q) == "" {
		return nil, fmt.Errorf("%w: search term is required", ErrInvalidRequest)
	}
	inputs, err := s.catalog.SearchTasks(q)
	if err != nil {
		return nil, err
	}
	return s.views(inputs), nil
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(id string) error {
	if err := s.catalog.DeleteTask(id); err != nil {
		return err
	}
	s.record(audit.ActionTaskDelete, map[string]string{"id": id}, "success", id, "")
	return nil
}

func (s *Service) views(inputs []task.Input) []TaskView {
	out := make([]TaskView, 0, len(inputs))
	for _, in := range inputs {
		out = append(out, s.view(in))
	}
	return out
}

func (s *Service) view(in task.Input) TaskView {
	v := TaskView{Input: in}
	t, err := task.New(in, s.today())
	if err != nil {
		v.Invalid = err.Error()
		return v
	}
	v.Schedule = task.DescribeSchedule(t)
	return v
}

// --- Pass Operations ---

// Process runs a pass now and reports what fired.
func (s *Service) Process(ctx context.Context) (*PassReport, error) {
	if s.runner == nil {
		return nil, fmt.Errorf("process: %w", ErrNotConfigured)
	}
	res, err := s.runner.RunNow(ctx)
	if err != nil {
		s.record(audit.ActionProcess, map[string]string{"trigger": "api"}, "failed", "", err.Error())
		return nil, err
	}
	s.record(audit.ActionProcess, map[string]string{"trigger": "api"}, "success", "",
		fmt.Sprintf("run %s: %d fired", res.RunID, len(res.Firings)))

	report := &PassReport{RunID: res.RunID, Tasks: res.Tasks, Changed: res.AnyChanged, Fired: []FiringView{}}
	for _, f := range res.Firings {
		fv := FiringView{TaskID: f.Reminder.TaskID, Name: f.Reminder.Name, Frequency: string(f.Reminder.Frequency)}
		if f.Err != nil {
			fv.Error = f.Err.Error()
		}
		report.Fired = append(report.Fired, fv)
	}
	return report, nil
}

// ListRuns returns recent passes.
func (s *Service) ListRuns(limit int) ([]models.Run, error) {
	if s.runs == nil {
		return nil, fmt.Errorf("runs: %w", ErrNotConfigured)
	}
	return s.runs.ListRuns(limit)
}

// ListReminders returns filed reminders, newest first.
func (s *Service) ListReminders(group string, limit int) ([]models.InboxItem, error) {
	if s.inbox == nil {
		return nil, fmt.Errorf("inbox: %w", ErrNotConfigured)
	}
	return s.inbox.ListReminders(group, limit)
}
