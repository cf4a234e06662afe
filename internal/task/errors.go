package task

import "errors"

// Sentinel causes wrapped by ValidationError.
var (
	ErrNameRequired    = errors.New("task name is required")
	ErrDayTypeConflict = errors.New("only one of days of year, days of month or days of week may be set")
	ErrNoDayType       = errors.New("recurring tasks must specify days of year, days of month, days of week or times of day")
	ErrPartialDate     = errors.New("non-recurring tasks that specify a date must use full YYYY-MM-DD days of year")
	ErrBadDate         = errors.New("bad date")
	ErrBadActiveRange  = errors.New("bad active date range")
	ErrBoundsOnOneOff  = errors.New("non-recurring tasks must not specify an active from or until date")
	ErrDuplicateName   = errors.New("duplicate task name")
	ErrNotFound        = errors.New("task not found")
)

// ValidationError attributes a construction failure to the task it came from.
type ValidationError struct {
	Task string
	Err  error
}

func (e *ValidationError) Error() string {
	if e.Task == "" {
		return e.Err.Error()
	}
	return e.Task + ": " + e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }
