package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/taskmaster/internal/dayspec"
	"github.com/fentz26/taskmaster/internal/models"
	"github.com/fentz26/taskmaster/internal/task"
)

// Thursday.
var now = time.Date(2030, 3, 14, 10, 7, 23, 0, time.UTC)

func mustTask(t *testing.T, in task.Input, at time.Time) *models.Task {
	t.Helper()
	c := NewClock(at)
	tk, err := task.New(in, c.Today)
	require.NoError(t, err)
	return tk
}

type fakeRepo struct {
	tasks   []*models.Task
	loadErr error
	saves   int
}

func (r *fakeRepo) Load(_ context.Context, _ time.Time) ([]*models.Task, error) {
	return r.tasks, r.loadErr
}

func (r *fakeRepo) Save(_ context.Context, _ []*models.Task) error {
	r.saves++
	return nil
}

type fakeDispatcher struct {
	sent []models.Reminder
	err  error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, r models.Reminder) error {
	d.sent = append(d.sent, r)
	return d.err
}

type fakeRecorder struct {
	outcomes []string
}

func (f *fakeRecorder) Record(action string, _ interface{}, outcome, _, _ string) (*models.PDREntry, error) {
	f.outcomes = append(f.outcomes, action+":"+outcome)
	return &models.PDREntry{Action: action, Outcome: outcome}, nil
}

type fakeHistory struct {
	runs []models.Run
}

func (h *fakeHistory) SaveRun(_ context.Context, run models.Run) error {
	h.runs = append(h.runs, run)
	return nil
}

func TestNewClock(t *testing.T) {
	c := NewClock(time.Date(2030, 2, 17, 23, 59, 59, 999, time.UTC))

	assert.Equal(t, time.Date(2030, 2, 17, 0, 0, 0, 0, time.UTC), c.Today)
	assert.Equal(t, 7, c.Weekday, "Sunday is 7")
	assert.Equal(t, 28, c.DaysInMonth)
	assert.Equal(t, 0, c.Now.Nanosecond())
	assert.True(t, c.IsToday(time.Date(2030, 2, 17, 1, 0, 0, 0, time.UTC)))
	assert.False(t, c.IsToday(time.Time{}))

	assert.Equal(t, 29, NewClock(time.Date(2032, 2, 1, 0, 0, 0, 0, time.UTC)).DaysInMonth)
}

func TestExpandScenarioA(t *testing.T) {
	tk := mustTask(t, task.Input{Name: "stretch", Recurring: true, DaysOfWeek: "*"}, now)

	exp, err := Expand(tk, NewClock(now))
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyDaily, exp.Frequency)
	assert.Equal(t, []time.Time{time.Date(2030, 3, 14, 10, 7, 0, 0, time.UTC)}, exp.Instants)

	d := &fakeDispatcher{}
	res, err := New(&fakeRepo{}, d).Run(context.Background(), []*models.Task{tk}, NewClock(now))
	require.NoError(t, err)
	assert.True(t, res.AnyChanged)
	require.Len(t, d.sent, 1)
	assert.Equal(t, models.FrequencyDaily, d.sent[0].Frequency)
}

func TestExpandScenarioB(t *testing.T) {
	at := time.Date(2030, 2, 15, 9, 0, 0, 0, time.UTC)
	tk := mustTask(t, task.Input{Name: "rent", Recurring: true, DaysOfMonth: "30-31", TimesOfDay: "08:00"}, at)

	exp, err := Expand(tk, NewClock(at))
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyMonthly, exp.Frequency)
	assert.Equal(t, []time.Time{time.Date(2030, 2, 28, 8, 0, 0, 0, time.UTC)}, exp.Instants)
}

func TestExpandClampsToMonthLength(t *testing.T) {
	at := time.Date(2030, 4, 3, 9, 0, 0, 0, time.UTC)
	tk := mustTask(t, task.Input{Name: "bills", Recurring: true, DaysOfMonth: "31", TimesOfDay: "12:00"}, at)

	exp, err := Expand(tk, NewClock(at))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{time.Date(2030, 4, 30, 12, 0, 0, 0, time.UTC)}, exp.Instants)
}

func TestExpandDaysOfYear(t *testing.T) {
	c := NewClock(now)

	tk := mustTask(t, task.Input{Name: "anniversary", Recurring: true, DaysOfYear: "06-15|2031-01-02", TimesOfDay: "09:00|18:30"}, now)
	exp, err := Expand(tk, c)
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyNone, exp.Frequency)
	assert.Equal(t, []time.Time{
		time.Date(2030, 6, 15, 9, 0, 0, 0, time.UTC),
		time.Date(2030, 6, 15, 18, 30, 0, 0, time.UTC),
		time.Date(2031, 1, 2, 9, 0, 0, 0, time.UTC),
		time.Date(2031, 1, 2, 18, 30, 0, 0, time.UTC),
	}, exp.Instants)

	leap := mustTask(t, task.Input{Name: "leap", Recurring: true, DaysOfYear: "02-29", TimesOfDay: "09:00"}, now)
	exp, err = Expand(leap, c)
	require.NoError(t, err)
	assert.Empty(t, exp.Instants)

	exp, err = Expand(leap, NewClock(time.Date(2032, 1, 1, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)
	assert.Equal(t, []time.Time{time.Date(2032, 2, 29, 9, 0, 0, 0, time.UTC)}, exp.Instants)
}

func TestExpandWeekdays(t *testing.T) {
	c := NewClock(now)

	tests := []struct {
		days     string
		freq     models.Frequency
		matching bool
	}{
		{"1-5", models.FrequencyWeekdays, true},
		{"1|2|3-5", models.FrequencyWeekdays, true},
		{"6-7", models.FrequencyWeekends, false},
		{"4", models.FrequencyWeekly, true},
		{"1|3", models.FrequencyWeekly, false},
		{"1-4", models.FrequencyWeekly, true},
	}

	for _, tt := range tests {
		t.Run(tt.days, func(t *testing.T) {
			tk := mustTask(t, task.Input{Name: "x", Recurring: true, DaysOfWeek: tt.days, TimesOfDay: "10:00"}, now)
			exp, err := Expand(tk, c)
			require.NoError(t, err)
			assert.Equal(t, tt.freq, exp.Frequency)
			if tt.matching {
				assert.Equal(t, []time.Time{time.Date(2030, 3, 14, 10, 0, 0, 0, time.UTC)}, exp.Instants)
			} else {
				assert.Empty(t, exp.Instants)
			}
		})
	}
}

func TestExpandNoDayType(t *testing.T) {
	tk := mustTask(t, task.Input{Name: "call back"}, now)

	exp, err := Expand(tk, NewClock(now))
	require.NoError(t, err)
	assert.Equal(t, models.FrequencyNone, exp.Frequency)
	assert.Empty(t, exp.Instants)
}

func TestExpandIsDeterministic(t *testing.T) {
	tk := mustTask(t, task.Input{Name: "x", Recurring: true, DaysOfMonth: "1-31", TimesOfDay: "07:00|19:00"}, now)
	c := NewClock(now)

	first, err := Expand(tk, c)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := Expand(tk, c)
		require.NoError(t, err)
		assert.Equal(t, first, again)
		assert.Equal(t, Check(tk, c), Check(tk, c))
	}
	assert.Len(t, first.Instants, 62)
}

func TestExpandMalformedCandidate(t *testing.T) {
	tk := &models.Task{
		Name:       "broken",
		Recurring:  true,
		DaysOfYear: dayspec.Set{dayspec.Date(2030, 2, 30)},
	}

	_, err := Expand(tk, NewClock(now))
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "broken", perr.TaskName)
	assert.Equal(t, "2030-02-30 10:07:00", perr.Candidate)

	_, err = New(&fakeRepo{}, &fakeDispatcher{}).Run(context.Background(), []*models.Task{tk}, NewClock(now))
	assert.ErrorAs(t, err, &perr)
}

func TestGate(t *testing.T) {
	c := NewClock(now)

	t.Run("spacing", func(t *testing.T) {
		tk := mustTask(t, task.Input{Name: "x", Recurring: true, DaysOfWeek: "*", TimesOfDay: "10:00"}, now)
		tk.LastReminded = now.Add(-1800 * time.Second)
		assert.Equal(t, SuppressedSpacing, Check(tk, c))
		assert.False(t, MayFire(tk, c))

		tk.LastReminded = now.Add(-MinSpacingSeconds * time.Second)
		assert.True(t, MayFire(tk, c))
	})

	t.Run("same day without times", func(t *testing.T) {
		tk := mustTask(t, task.Input{Name: "x", Recurring: true, DaysOfWeek: "*"}, now)
		tk.LastReminded = now.Add(-2 * time.Hour)
		assert.Equal(t, SuppressedSameDay, Check(tk, c))

		tk.LastReminded = now.Add(-24 * time.Hour)
		assert.True(t, MayFire(tk, c))

		star := mustTask(t, task.Input{Name: "y", Recurring: true, DaysOfWeek: "*", TimesOfDay: "*"}, now)
		star.LastReminded = now.Add(-2 * time.Hour)
		assert.Equal(t, SuppressedSameDay, Check(star, c))
	})

	t.Run("scenario D", func(t *testing.T) {
		at := time.Date(2029, 12, 31, 10, 0, 0, 0, time.UTC)
		tk := mustTask(t, task.Input{Name: "x", Recurring: true, DaysOfWeek: "*", ActiveFrom: "2030-01-01"}, at)
		assert.Equal(t, SuppressedEarly, Check(tk, NewClock(at)))

		d := &fakeDispatcher{}
		res, err := New(&fakeRepo{}, d).Run(context.Background(), []*models.Task{tk}, NewClock(at))
		require.NoError(t, err)
		assert.False(t, res.AnyChanged)
		assert.Empty(t, d.sent)
	})

	t.Run("active range is inclusive", func(t *testing.T) {
		tk := mustTask(t, task.Input{Name: "x", Recurring: true, DaysOfWeek: "*", ActiveFrom: "2030-03-14", ActiveUntil: "2030-03-14"}, now)
		assert.True(t, MayFire(tk, c))

		late := NewClock(time.Date(2030, 3, 15, 0, 0, 1, 0, time.UTC))
		assert.Equal(t, SuppressedLate, Check(tk, late))
	})
}

func TestFiringWindow(t *testing.T) {
	tests := []struct {
		name  string
		at    time.Time
		fires bool
	}{
		{"839s after", time.Date(2030, 3, 14, 10, 13, 59, 0, time.UTC), true},
		{"840s after", time.Date(2030, 3, 14, 10, 14, 0, 0, time.UTC), false},
		{"839s before", time.Date(2030, 3, 14, 9, 46, 1, 0, time.UTC), true},
		{"840s before", time.Date(2030, 3, 14, 9, 46, 0, 0, time.UTC), false},
		{"exact", time.Date(2030, 3, 14, 10, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tk := mustTask(t, task.Input{Name: "standup", Recurring: true, DaysOfWeek: "1-5", TimesOfDay: "10:00"}, tt.at)
			d := &fakeDispatcher{}

			res, err := New(&fakeRepo{}, d).Run(context.Background(), []*models.Task{tk}, NewClock(tt.at))
			require.NoError(t, err)
			assert.Equal(t, tt.fires, res.AnyChanged)
			assert.Equal(t, tt.fires, len(d.sent) == 1)
		})
	}
}

func TestRunScenarioC(t *testing.T) {
	first := mustTask(t, task.Input{Name: "reply to Sam"}, now)
	second := mustTask(t, task.Input{Name: "order filters"}, now)
	d := &fakeDispatcher{}

	res, err := New(&fakeRepo{}, d).Run(context.Background(), []*models.Task{first, second}, NewClock(now))
	require.NoError(t, err)

	require.Len(t, d.sent, 1)
	assert.Equal(t, "reply to Sam", d.sent[0].Name)
	assert.True(t, d.sent[0].IsNudge())
	assert.Equal(t, NewClock(now).Now, first.LastReminded)
	assert.True(t, second.LastReminded.IsZero())
	assert.Equal(t, []Update{{Index: 0, LastReminded: NewClock(now).Now}}, res.Updates)
}

func TestRunNudgeCapAcrossManyTasks(t *testing.T) {
	var tasks []*models.Task
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		tasks = append(tasks, mustTask(t, task.Input{Name: name}, now))
	}
	d := &fakeDispatcher{}

	_, err := New(&fakeRepo{}, d).Run(context.Background(), tasks, NewClock(now))
	require.NoError(t, err)
	assert.Len(t, d.sent, 1)
}

func TestRunNoNudgeWhenSomethingFiredToday(t *testing.T) {
	other := mustTask(t, task.Input{Name: "water plants", Recurring: true, DaysOfWeek: "*", TimesOfDay: "07:00"}, now)
	other.LastReminded = time.Date(2030, 3, 14, 7, 0, 0, 0, time.UTC)
	adHoc := mustTask(t, task.Input{Name: "reply to Sam"}, now)
	d := &fakeDispatcher{}

	res, err := New(&fakeRepo{}, d).Run(context.Background(), []*models.Task{other, adHoc}, NewClock(now))
	require.NoError(t, err)
	assert.False(t, res.AnyChanged)
	assert.Empty(t, d.sent)
}

func TestRunNudgeOnlyForOneOffs(t *testing.T) {
	// A recurring weekly task on the wrong day never falls back to a nudge.
	tk := mustTask(t, task.Input{Name: "trash", Recurring: true, DaysOfWeek: "1", TimesOfDay: "10:00"}, now)
	d := &fakeDispatcher{}

	_, err := New(&fakeRepo{}, d).Run(context.Background(), []*models.Task{tk}, NewClock(now))
	require.NoError(t, err)
	assert.Empty(t, d.sent)
}

func TestRunDispatchFailureStillUpdates(t *testing.T) {
	tk := mustTask(t, task.Input{Name: "x", Recurring: true, DaysOfWeek: "*"}, now)
	d := &fakeDispatcher{err: errors.New("smtp: connection refused")}
	rec := &fakeRecorder{}

	res, err := New(&fakeRepo{}, d, WithRecorder(rec)).Run(context.Background(), []*models.Task{tk}, NewClock(now))
	require.NoError(t, err)
	assert.True(t, res.AnyChanged)
	assert.Equal(t, 1, res.Failed())
	assert.Equal(t, NewClock(now).Now, tk.LastReminded)
	assert.Equal(t, []string{"reminder.dispatch:failed"}, rec.outcomes)
}

func TestRunFirstMatchWins(t *testing.T) {
	tk := mustTask(t, task.Input{Name: "x", Recurring: true, DaysOfWeek: "*", TimesOfDay: "10:00|10:05|10:10"}, now)
	d := &fakeDispatcher{}

	_, err := New(&fakeRepo{}, d).Run(context.Background(), []*models.Task{tk}, NewClock(now))
	require.NoError(t, err)
	assert.Len(t, d.sent, 1)
}

func TestProcess(t *testing.T) {
	due := mustTask(t, task.Input{ID: "1", Name: "due", Recurring: true, DaysOfWeek: "*"}, now)
	idle := mustTask(t, task.Input{ID: "2", Name: "idle", Recurring: true, DaysOfWeek: "1", TimesOfDay: "08:00"}, now)

	t.Run("saves when changed", func(t *testing.T) {
		repo := &fakeRepo{tasks: []*models.Task{due, idle}}
		hist := &fakeHistory{}
		p := New(repo, &fakeDispatcher{}, WithHistory(hist), WithNow(func() time.Time { return now }))

		res, err := p.Process(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 2, res.Tasks)
		assert.Equal(t, 1, repo.saves)
		require.Len(t, hist.runs, 1)
		assert.Equal(t, res.RunID, hist.runs[0].ID)
		assert.Equal(t, 1, hist.runs[0].Fired)
		assert.True(t, hist.runs[0].Changed)
	})

	t.Run("no save when nothing fired", func(t *testing.T) {
		repo := &fakeRepo{tasks: []*models.Task{idle}}
		p := New(repo, &fakeDispatcher{}, WithNow(func() time.Time { return now }))

		res, err := p.Process(context.Background())
		require.NoError(t, err)
		assert.False(t, res.AnyChanged)
		assert.Zero(t, repo.saves)
	})

	t.Run("dry run", func(t *testing.T) {
		fresh := mustTask(t, task.Input{Name: "fresh", Recurring: true, DaysOfWeek: "*"}, now)
		repo := &fakeRepo{tasks: []*models.Task{fresh}}
		d := &fakeDispatcher{}
		p := New(repo, d, WithDryRun(true), WithNow(func() time.Time { return now }))

		res, err := p.Process(context.Background())
		require.NoError(t, err)
		assert.Len(t, res.Firings, 1)
		assert.Empty(t, d.sent)
		assert.Zero(t, repo.saves)
		assert.True(t, fresh.LastReminded.IsZero())
	})

	t.Run("load error aborts", func(t *testing.T) {
		repo := &fakeRepo{loadErr: errors.New("bad row")}
		d := &fakeDispatcher{}
		hist := &fakeHistory{}
		p := New(repo, d, WithHistory(hist), WithNow(func() time.Time { return now }))

		_, err := p.Process(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "load tasks")
		assert.Empty(t, d.sent)
		require.Len(t, hist.runs, 1)
		assert.Contains(t, hist.runs[0].Error, "bad row")
	})
}
