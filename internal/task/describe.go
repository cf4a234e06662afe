package task

import (
	"strings"

	"github.com/fentz26/taskmaster/internal/dayspec"
	"github.com/fentz26/taskmaster/internal/models"
)

var weekdayNames = [...]string{"", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday"}

func weekdayName(n int, short bool) string {
	if n < 1 || n > 7 {
		return "?"
	}
	if short {
		return weekdayNames[n][:3]
	}
	return weekdayNames[n]
}

// WeekdayNames renders weekday tokens for display: "Monday", "Monday to Friday", "*".
func WeekdayNames(days dayspec.Set) []string {
	out := make([]string, 0, len(days))
	for _, tok := range days {
		switch tok.Kind {
		case dayspec.Single:
			out = append(out, weekdayName(tok.Lo, false))
		case dayspec.Range:
			out = append(out, weekdayName(tok.Lo, false)+" to "+weekdayName(tok.Hi, false))
		default:
			out = append(out, tok.String())
		}
	}
	return out
}

// DescribeSchedule summarizes a task's schedule in one line, for example
// "Every Mon, Wed-Fri at 09:00 starting 2030-01-01".
func DescribeSchedule(t *models.Task) string {
	var parts []string

	switch {
	case !t.DaysOfWeek.IsEmpty():
		if t.DaysOfWeek.IsWildcard() {
			parts = append(parts, "Daily")
			break
		}
		days := make([]string, 0, len(t.DaysOfWeek))
		for _, tok := range t.DaysOfWeek {
			if tok.Kind == dayspec.Range {
				days = append(days, weekdayName(tok.Lo, true)+"-"+weekdayName(tok.Hi, true))
			} else {
				days = append(days, weekdayName(tok.Lo, true))
			}
		}
		parts = append(parts, "Every "+strings.Join(days, ", "))
	case !t.DaysOfMonth.IsEmpty():
		if t.DaysOfMonth.IsWildcard() {
			parts = append(parts, "Daily")
			break
		}
		parts = append(parts, "Monthly on day(s): "+strings.Join(t.DaysOfMonth.Strings(), ", "))
	case !t.DaysOfYear.IsEmpty():
		if t.DaysOfYear.IsWildcard() {
			parts = append(parts, "Daily")
			break
		}
		if t.DefaultedDay {
			parts = append(parts, "Today")
			break
		}
		prefix := "Yearly on: "
		if !t.Recurring {
			prefix = "On: "
		}
		parts = append(parts, prefix+strings.Join(t.DaysOfYear.Strings(), ", "))
	default:
		parts = append(parts, "Once, when next nudged")
	}

	if HasTimes(t) {
		parts = append(parts, "at "+strings.Join(t.TimesOfDay.Strings(), ", "))
	}
	if t.ActiveFrom != nil {
		parts = append(parts, "starting "+t.ActiveFrom.Format(DateLayout))
	}
	if t.ActiveUntil != nil {
		parts = append(parts, "until "+t.ActiveUntil.Format(DateLayout))
	}

	return strings.Join(parts, " ")
}
