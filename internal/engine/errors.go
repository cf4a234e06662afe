package engine

import "fmt"

// ParseError reports a candidate instant the expander could not build. It
// means the expander produced a malformed date, never bad user input, and it
// aborts the pass.
type ParseError struct {
	TaskName  string
	Candidate string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: malformed candidate instant %q", e.TaskName, e.Candidate)
}
