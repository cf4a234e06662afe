// Package dayspec parses the pipe-delimited schedule fields of a task
// ("1|3|5-7", "06-15|2030-01-01", "09:00|17:30", "*") into validated token sets.
package dayspec

import (
	"fmt"
	"strings"
)

// Kind tags the variant held by a Token.
type Kind int

const (
	// Wildcard matches every day (or, for times, "whenever the pass runs").
	Wildcard Kind = iota
	// Single is one day number: day of month 1-31 or weekday 1-7.
	Single
	// Range is an inclusive span of day numbers with Lo < Hi.
	Range
	// YearDate is a month and day that repeats every year (MM-DD).
	YearDate
	// FullDate is one calendar date (YYYY-MM-DD).
	FullDate
	// Clock is a time of day (HH:MM).
	Clock
)

func (k Kind) String() string {
	switch k {
	case Wildcard:
		return "wildcard"
	case Single:
		return "single"
	case Range:
		return "range"
	case YearDate:
		return "year-date"
	case FullDate:
		return "full-date"
	case Clock:
		return "clock"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Token is one normalized element of a schedule field. Only the fields that
// belong to its Kind are set; the zero value of the rest keeps Token comparable.
type Token struct {
	Kind Kind

	Lo, Hi int // Single (Lo == Hi) and Range

	Year, Month, Day int // YearDate (Year == 0) and FullDate

	Hour, Minute int // Clock
}

// Any is the wildcard token.
var Any = Token{Kind: Wildcard}

// Day returns a single day-number token.
func Day(n int) Token { return Token{Kind: Single, Lo: n, Hi: n} }

// Span returns a day-number range token; equal bounds collapse to a single day.
func Span(lo, hi int) Token {
	if lo == hi {
		return Day(lo)
	}
	return Token{Kind: Range, Lo: lo, Hi: hi}
}

// Annual returns a month/day token that repeats every year.
func Annual(month, day int) Token { return Token{Kind: YearDate, Month: month, Day: day} }

// Date returns a full calendar date token.
func Date(year, month, day int) Token {
	return Token{Kind: FullDate, Year: year, Month: month, Day: day}
}

// At returns a time-of-day token.
func At(hour, minute int) Token { return Token{Kind: Clock, Hour: hour, Minute: minute} }

// Values expands a Single or Range token into its day numbers.
func (t Token) Values() []int {
	switch t.Kind {
	case Single:
		return []int{t.Lo}
	case Range:
		out := make([]int, 0, t.Hi-t.Lo+1)
		for n := t.Lo; n <= t.Hi; n++ {
			out = append(out, n)
		}
		return out
	default:
		return nil
	}
}

func (t Token) String() string {
	switch t.Kind {
	case Wildcard:
		return "*"
	case Single:
		return fmt.Sprintf("%d", t.Lo)
	case Range:
		return fmt.Sprintf("%d-%d", t.Lo, t.Hi)
	case YearDate:
		return fmt.Sprintf("%02d-%02d", t.Month, t.Day)
	case FullDate:
		return fmt.Sprintf("%04d-%02d-%02d", t.Year, t.Month, t.Day)
	case Clock:
		return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
	default:
		return "?"
	}
}

// less orders tokens numerically field by field, which matches a natural sort
// of their string forms ("2" < "10", "06-15" < "2024-01-01").
func (t Token) less(o Token) bool {
	a := [...]int{t.Year, t.Month, t.Day, t.Hour, t.Minute, t.Lo, t.Hi}
	b := [...]int{o.Year, o.Month, o.Day, o.Hour, o.Minute, o.Lo, o.Hi}
	for i := range a {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return false
}

// Set is an ordered, deduplicated list of tokens from one field.
type Set []Token

// IsEmpty reports whether the field was blank.
func (s Set) IsEmpty() bool { return len(s) == 0 }

// IsWildcard reports whether the field normalized to "*".
func (s Set) IsWildcard() bool { return len(s) == 1 && s[0].Kind == Wildcard }

// Numbers returns the union of the day numbers covered by Single and Range tokens.
func (s Set) Numbers() map[int]bool {
	out := make(map[int]bool)
	for _, t := range s {
		for _, n := range t.Values() {
			out[n] = true
		}
	}
	return out
}

// Strings returns the canonical string form of each token.
func (s Set) Strings() []string {
	out := make([]string, len(s))
	for i, t := range s {
		out[i] = t.String()
	}
	return out
}

// String joins the set back into field form; Parse accepts the result.
func (s Set) String() string { return strings.Join(s.Strings(), "|") }
