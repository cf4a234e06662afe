// Package models defines the core domain types for TaskMaster.
package models

import (
	"time"

	"github.com/fentz26/taskmaster/internal/dayspec"
)

// Frequency classifies a firing for message framing. It never affects scheduling.
type Frequency string

const (
	FrequencyNone     Frequency = ""
	FrequencyNudge    Frequency = "nudge"
	FrequencyDaily    Frequency = "daily"
	FrequencyWeekdays Frequency = "weekdays"
	FrequencyWeekends Frequency = "weekends"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyMonthly  Frequency = "monthly"
)

// Label is the word used in reminder subjects ("Weekday Reminder: ...").
func (f Frequency) Label() string {
	switch f {
	case FrequencyNudge:
		return "Nudge"
	case FrequencyDaily:
		return "Daily"
	case FrequencyWeekdays:
		return "Weekday"
	case FrequencyWeekends:
		return "Weekend"
	case FrequencyWeekly:
		return "Weekly"
	case FrequencyMonthly:
		return "Monthly"
	default:
		return ""
	}
}

// Task is one validated reminder schedule plus its last-reminded state.
// Build it with task.New; LastReminded is the only field a pass mutates.
type Task struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url,omitempty"`
	Recurring bool   `json:"recurring"`

	// ActiveFrom and ActiveUntil are local midnights; nil means unbounded.
	ActiveFrom  *time.Time `json:"active_from,omitempty"`
	ActiveUntil *time.Time `json:"active_until,omitempty"`

	DaysOfYear  dayspec.Set `json:"-"`
	DaysOfMonth dayspec.Set `json:"-"`
	DaysOfWeek  dayspec.Set `json:"-"`
	TimesOfDay  dayspec.Set `json:"-"`

	// DefaultedDay is set when DaysOfYear was filled with the construction date
	// because only times were given. The filled date is what gets persisted.
	DefaultedDay bool `json:"-"`

	// LastReminded is the zero time when the task never fired.
	LastReminded time.Time `json:"last_reminded,omitempty"`

	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Reminder is what the dispatch collaborator receives for one firing.
type Reminder struct {
	TaskID    string    `json:"task_id"`
	Name      string    `json:"name"`
	URL       string    `json:"url,omitempty"`
	Frequency Frequency `json:"frequency"`
	FiredAt   time.Time `json:"fired_at"`
}

// IsNudge reports whether the firing was the daily ad-hoc nudge.
func (r Reminder) IsNudge() bool { return r.Frequency == FrequencyNudge }

// InboxItem is a fired reminder stored as a to-do entry in a group.
type InboxItem struct {
	ID        string    `json:"id"`
	GroupID   string    `json:"group_id"`
	Group     string    `json:"group"`
	Title     string    `json:"title"`
	Details   string    `json:"details"`
	DueDate   string    `json:"due_date"`
	CreatedAt time.Time `json:"created_at"`
}

// PDREntry represents a Process Decision Record for audit.
type PDREntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	TaskID     string    `json:"task_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Run records one dispatch pass.
type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`
	Tasks     int       `json:"tasks"`
	Fired     int       `json:"fired"`
	Changed   bool      `json:"changed"`
	Error     string    `json:"error,omitempty"`
}
