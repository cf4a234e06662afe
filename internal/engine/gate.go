package engine

import (
	"github.com/fentz26/taskmaster/internal/models"
)

const (
	// MinSpacingSeconds is the least time between two reminders for one task.
	// One minute short of an hour leaves slack for an hourly trigger that runs a
	// little early.
	MinSpacingSeconds = 59 * 60

	// WindowSeconds is the exclusive half-width of the firing window.
	WindowSeconds = 14 * 60
)

// Suppression names the gate rule that rejected a task.
type Suppression string

const (
	NotSuppressed     Suppression = ""
	SuppressedSpacing Suppression = "reminded less than 59 minutes ago"
	SuppressedSameDay Suppression = "already reminded today and no time of day set"
	SuppressedEarly   Suppression = "before active range"
	SuppressedLate    Suppression = "after active range"
)

// MayFire reports whether the task may be reminded at all during this pass.
// It runs before expansion so most tasks are rejected cheaply.
func MayFire(t *models.Task, c Clock) bool {
	return Check(t, c) == NotSuppressed
}

// Check applies the gate rules in order and returns the first that rejects.
func Check(t *models.Task, c Clock) Suppression {
	if !t.LastReminded.IsZero() {
		if c.Now.Unix()-t.LastReminded.Unix() < MinSpacingSeconds {
			return SuppressedSpacing
		}
		noTimes := t.TimesOfDay.IsEmpty() || t.TimesOfDay.IsWildcard()
		if noTimes && c.IsToday(t.LastReminded) {
			return SuppressedSameDay
		}
	}

	if t.Recurring {
		// Bounds are local midnights, so comparing against today keeps both ends inclusive.
		if t.ActiveFrom != nil && c.Today.Before(*t.ActiveFrom) {
			return SuppressedEarly
		}
		if t.ActiveUntil != nil && c.Today.After(*t.ActiveUntil) {
			return SuppressedLate
		}
	}

	return NotSuppressed
}
