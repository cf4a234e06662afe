// Package task builds validated task records from raw schedule fields.
package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/fentz26/taskmaster/internal/dayspec"
	"github.com/fentz26/taskmaster/internal/models"
)

// DateLayout is the layout of active-range bounds and full dates.
const DateLayout = "2006-01-02"

// Input carries a task exactly as it was stored or typed: schedule fields are
// pipe-delimited strings and bounds are YYYY-MM-DD or empty.
type Input struct {
	ID           string    `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string    `json:"name" yaml:"name"`
	URL          string    `json:"url,omitempty" yaml:"url,omitempty"`
	Recurring    bool      `json:"recurring" yaml:"recurring"`
	ActiveFrom   string    `json:"active_from,omitempty" yaml:"active_from,omitempty"`
	ActiveUntil  string    `json:"active_until,omitempty" yaml:"active_until,omitempty"`
	DaysOfYear   string    `json:"days_of_year,omitempty" yaml:"days_of_year,omitempty"`
	DaysOfMonth  string    `json:"days_of_month,omitempty" yaml:"days_of_month,omitempty"`
	DaysOfWeek   string    `json:"days_of_week,omitempty" yaml:"days_of_week,omitempty"`
	TimesOfDay   string    `json:"times_of_day,omitempty" yaml:"times_of_day,omitempty"`
	LastReminded time.Time `json:"last_reminded,omitempty" yaml:"last_reminded,omitempty"`
	CreatedAt    time.Time `json:"-" yaml:"-"`
}

// New validates in and returns the task record. today supplies the date used
// when only times are given and the location of the active-range bounds.
//
// Checks run in order: name, field syntax, day-type count, time defaulting,
// recurring needs a day-type, one-off dates must be full, active range.
func New(in Input, today time.Time) (*models.Task, error) {
	name := strings.Join(strings.Fields(in.Name), " ")
	if name == "" {
		return nil, &ValidationError{Err: ErrNameRequired}
	}
	fail := func(err error) (*models.Task, error) {
		return nil, &ValidationError{Task: name, Err: err}
	}

	t := &models.Task{
		ID:           in.ID,
		Name:         name,
		URL:          strings.TrimSpace(in.URL),
		Recurring:    in.Recurring,
		LastReminded: in.LastReminded,
		CreatedAt:    in.CreatedAt,
	}

	var err error
	if t.DaysOfYear, err = dayspec.Parse(in.DaysOfYear, dayspec.DayOfYear); err != nil {
		return fail(err)
	}
	if t.DaysOfMonth, err = dayspec.Parse(in.DaysOfMonth, dayspec.DayOfMonth); err != nil {
		return fail(err)
	}
	if t.DaysOfWeek, err = dayspec.Parse(in.DaysOfWeek, dayspec.DayOfWeek); err != nil {
		return fail(err)
	}
	if t.TimesOfDay, err = dayspec.Parse(in.TimesOfDay, dayspec.TimeOfDay); err != nil {
		return fail(err)
	}

	dayTypes := DayTypeCount(t)
	if dayTypes > 1 {
		return fail(ErrDayTypeConflict)
	}

	if dayTypes == 0 && HasTimes(t) {
		y, m, d := today.Date()
		t.DaysOfYear = dayspec.Set{dayspec.Date(y, int(m), d)}
		t.DefaultedDay = true
		dayTypes = 1
	}

	if t.Recurring && dayTypes == 0 {
		return fail(ErrNoDayType)
	}

	if !t.Recurring {
		for _, tok := range t.DaysOfYear {
			if tok.Kind != dayspec.FullDate {
				return fail(fmt.Errorf("%w: %s", ErrPartialDate, tok))
			}
		}
	}

	if t.ActiveFrom, err = parseBound(in.ActiveFrom, today.Location()); err != nil {
		return fail(fmt.Errorf("active from: %w", err))
	}
	if t.ActiveUntil, err = parseBound(in.ActiveUntil, today.Location()); err != nil {
		return fail(fmt.Errorf("active until: %w", err))
	}
	if !t.Recurring && (t.ActiveFrom != nil || t.ActiveUntil != nil) {
		return fail(ErrBoundsOnOneOff)
	}
	if t.ActiveFrom != nil && t.ActiveUntil != nil && t.ActiveUntil.Before(*t.ActiveFrom) {
		return fail(fmt.Errorf("%w: %s to %s", ErrBadActiveRange,
			t.ActiveFrom.Format(DateLayout), t.ActiveUntil.Format(DateLayout)))
	}

	return t, nil
}

func parseBound(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return nil, fmt.Errorf("%w %q", ErrBadDate, s)
	}
	return &d, nil
}

// DayTypeCount returns how many of the three day fields are set.
func DayTypeCount(t *models.Task) int {
	n := 0
	for _, s := range []dayspec.Set{t.DaysOfYear, t.DaysOfMonth, t.DaysOfWeek} {
		if !s.IsEmpty() {
			n++
		}
	}
	return n
}

// HasTimes reports whether the task names explicit times; "*" does not count.
func HasTimes(t *models.Task) bool {
	return !t.TimesOfDay.IsEmpty() && !t.TimesOfDay.IsWildcard()
}

// ToInput converts a record back to its stored field form.
func ToInput(t *models.Task) Input {
	in := Input{
		ID:           t.ID,
		Name:         t.Name,
		URL:          t.URL,
		Recurring:    t.Recurring,
		DaysOfYear:   t.DaysOfYear.String(),
		DaysOfMonth:  t.DaysOfMonth.String(),
		DaysOfWeek:   t.DaysOfWeek.String(),
		TimesOfDay:   t.TimesOfDay.String(),
		LastReminded: t.LastReminded,
		CreatedAt:    t.CreatedAt,
	}
	if t.ActiveFrom != nil {
		in.ActiveFrom = t.ActiveFrom.Format(DateLayout)
	}
	if t.ActiveUntil != nil {
		in.ActiveUntil = t.ActiveUntil.Format(DateLayout)
	}
	return in
}

// CheckUnique rejects a collection that uses the same name twice.
func CheckUnique(tasks []*models.Task) error {
	seen := make(map[string]bool, len(tasks))
	for _, t := range tasks {
		if seen[t.Name] {
			return &ValidationError{Task: t.Name, Err: ErrDuplicateName}
		}
		seen[t.Name] = true
	}
	return nil
}
