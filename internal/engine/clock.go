// Package engine decides which tasks are due and dispatches their reminders.
//
// A pass samples the clock once, loads the task collection, runs every task
// through the reminder gate and the occurrence expander, fires the ones whose
// candidate instants fall inside the firing window, and saves the collection
// only if some task's last-reminded time changed.
package engine

import "time"

// Clock is the pass-wide view of "now". It is computed once per pass so every
// task is evaluated against the same instant.
type Clock struct {
	Now         time.Time
	Today       time.Time // local midnight of Now
	Year        int
	Month       time.Month
	Weekday     int // 1 (Monday) through 7 (Sunday)
	DaysInMonth int
}

// NewClock derives the pass fields from now, in now's location, at whole-second
// precision.
func NewClock(now time.Time) Clock {
	now = now.Truncate(time.Second)
	y, m, d := now.Date()
	loc := now.Location()

	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}

	return Clock{
		Now:         now,
		Today:       time.Date(y, m, d, 0, 0, 0, 0, loc),
		Year:        y,
		Month:       m,
		Weekday:     weekday,
		DaysInMonth: time.Date(y, m+1, 0, 0, 0, 0, 0, loc).Day(),
	}
}

// Location is the single process-wide zone the pass runs in.
func (c Clock) Location() *time.Location { return c.Now.Location() }

// IsToday reports whether t falls on the pass's calendar date.
func (c Clock) IsToday(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	y1, m1, d1 := t.In(c.Location()).Date()
	y2, m2, d2 := c.Today.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
