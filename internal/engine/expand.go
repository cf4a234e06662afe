package engine

import (
	"fmt"
	"time"

	"github.com/fentz26/taskmaster/internal/dayspec"
	"github.com/fentz26/taskmaster/internal/models"
)

// Expansion is the outcome of expanding one task against the pass clock.
type Expansion struct {
	Frequency models.Frequency
	Instants  []time.Time
}

type civilDate struct {
	year, month, day int
}

func (d civilDate) String() string { return fmt.Sprintf("%04d-%02d-%02d", d.year, d.month, d.day) }

// Expand turns the task's day field into this period's concrete dates and
// crosses them with its times of day. Exactly one day field is consulted, in
// the order days of year, days of month, days of week. A task with no day field
// yields no instants and no frequency.
func Expand(t *models.Task, c Clock) (Expansion, error) {
	var (
		exp   Expansion
		dates []civilDate
	)
	today := civilDate{c.Today.Year(), int(c.Today.Month()), c.Today.Day()}

	switch {
	case !t.DaysOfYear.IsEmpty():
		for _, tok := range t.DaysOfYear {
			switch tok.Kind {
			case dayspec.Wildcard:
				dates = append(dates, today)
				exp.Frequency = models.FrequencyDaily
			case dayspec.YearDate:
				// No Feb 29 this year: stay silent rather than roll over to Mar 1.
				if tok.Month == 2 && tok.Day == 29 && !isLeap(c.Year) {
					continue
				}
				dates = append(dates, civilDate{c.Year, tok.Month, tok.Day})
			case dayspec.FullDate:
				dates = append(dates, civilDate{tok.Year, tok.Month, tok.Day})
			default:
				return Expansion{}, &ParseError{TaskName: t.Name, Candidate: tok.String()}
			}
		}

	case !t.DaysOfMonth.IsEmpty():
		for _, tok := range t.DaysOfMonth {
			if tok.Kind == dayspec.Wildcard {
				dates = append(dates, today)
				exp.Frequency = models.FrequencyDaily
				continue
			}
			for _, day := range tok.Values() {
				dates = append(dates, civilDate{c.Year, int(c.Month), min(day, c.DaysInMonth)})
			}
			exp.Frequency = models.FrequencyMonthly
		}

	case !t.DaysOfWeek.IsEmpty():
		if t.DaysOfWeek.IsWildcard() {
			dates = append(dates, today)
			exp.Frequency = models.FrequencyDaily
			break
		}
		days := t.DaysOfWeek.Numbers()
		if days[c.Weekday] {
			dates = append(dates, today)
		}
		exp.Frequency = classifyWeekdays(days)

	default:
		return exp, nil
	}

	instants, err := addTimes(t, uniqueDates(dates), c)
	if err != nil {
		return Expansion{}, err
	}
	exp.Instants = instants
	return exp, nil
}

func classifyWeekdays(days map[int]bool) models.Frequency {
	if sameDays(days, 1, 2, 3, 4, 5) {
		return models.FrequencyWeekdays
	}
	if sameDays(days, 6, 7) {
		return models.FrequencyWeekends
	}
	return models.FrequencyWeekly
}

func sameDays(days map[int]bool, want ...int) bool {
	if len(days) != len(want) {
		return false
	}
	for _, d := range want {
		if !days[d] {
			return false
		}
	}
	return true
}

func uniqueDates(dates []civilDate) []civilDate {
	seen := make(map[civilDate]bool, len(dates))
	out := dates[:0:0]
	for _, d := range dates {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	return out
}

// addTimes crosses dates (outer) with times (inner). No times, or "*", means
// the minute the pass is running.
func addTimes(t *models.Task, dates []civilDate, c Clock) ([]time.Time, error) {
	clocks := []dayspec.Token(t.TimesOfDay)
	if len(clocks) == 0 || t.TimesOfDay.IsWildcard() {
		clocks = []dayspec.Token{dayspec.At(c.Now.Hour(), c.Now.Minute())}
	}

	out := make([]time.Time, 0, len(dates)*len(clocks))
	for _, d := range dates {
		for _, tod := range clocks {
			at, ok := instant(d, tod, c.Location())
			if !ok {
				return nil, &ParseError{TaskName: t.Name, Candidate: fmt.Sprintf("%s %s:00", d, tod)}
			}
			out = append(out, at)
		}
	}
	return out, nil
}

// instant builds a local datetime at second zero. time.Date silently
// normalizes out-of-range fields, so the date must come back unchanged.
func instant(d civilDate, tod dayspec.Token, loc *time.Location) (time.Time, bool) {
	if tod.Kind != dayspec.Clock || tod.Hour > 23 || tod.Minute > 59 {
		return time.Time{}, false
	}
	at := time.Date(d.year, time.Month(d.month), d.day, tod.Hour, tod.Minute, 0, 0, loc)
	y, m, day := at.Date()
	return at, y == d.year && int(m) == d.month && day == d.day
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
