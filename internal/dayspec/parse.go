package dayspec

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrInvalid is matched by every parse failure.
var ErrInvalid = errors.New("invalid schedule field")

// TokenError names the field and the token that failed validation.
type TokenError struct {
	Domain string
	Field  string
	Token  string
	Reason string
}

func (e *TokenError) Error() string {
	return fmt.Sprintf("%s %q: bad token %q: %s", e.Domain, e.Field, e.Token, e.Reason)
}

// Is makes errors.Is(err, ErrInvalid) hold for every TokenError.
func (e *TokenError) Is(target error) bool { return target == ErrInvalid }

// Domain describes one schedule dimension: which strings are valid tokens and
// whether "a-b" ranges are allowed.
type Domain struct {
	Name       string
	AllowRange bool
	pattern    *regexp.Regexp
	convert    func(string) (Token, string)
}

// Valid reports whether s is a single valid token of the domain.
func (d Domain) Valid(s string) bool {
	_, reason := d.bound(s)
	return reason == ""
}

func (d Domain) bound(s string) (Token, string) {
	if !d.pattern.MatchString(s) {
		return Token{}, fmt.Sprintf("does not match %s", d.pattern)
	}
	return d.convert(s)
}

var (
	// DayOfYear accepts MM-DD and YYYY-MM-DD. Ranges are not supported; the
	// dash belongs to the date itself.
	DayOfYear = Domain{
		Name:    "days of year",
		pattern: regexp.MustCompile(`^(\d{4}-)?\d{2}-\d{2}$`),
		convert: convertDate,
	}

	// DayOfMonth accepts 1-31 and ranges such as 10-20.
	DayOfMonth = Domain{
		Name:       "days of month",
		AllowRange: true,
		pattern:    regexp.MustCompile(`^([1-9]|[12]\d|3[01])$`),
		convert:    convertNumber,
	}

	// DayOfWeek accepts 1 (Monday) through 7 (Sunday) and ranges such as 1-5.
	DayOfWeek = Domain{
		Name:       "days of week",
		AllowRange: true,
		pattern:    regexp.MustCompile(`^[1-7]$`),
		convert:    convertNumber,
	}

	// TimeOfDay accepts HH:MM on a 24 hour clock.
	TimeOfDay = Domain{
		Name:    "times of day",
		pattern: regexp.MustCompile(`^\d{2}:\d{2}$`),
		convert: convertClock,
	}
)

func convertNumber(s string) (Token, string) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return Token{}, err.Error()
	}
	return Day(n), ""
}

func convertDate(s string) (Token, string) {
	if len(s) == len("2006-01-02") {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			return Token{}, "not a calendar date"
		}
		return Date(d.Year(), int(d.Month()), d.Day()), ""
	}
	// Validate MM-DD against a leap year so 02-29 is accepted.
	d, err := time.Parse("2006-01-02", "2000-"+s)
	if err != nil {
		return Token{}, "not a calendar date"
	}
	return Annual(int(d.Month()), d.Day()), ""
}

func convertClock(s string) (Token, string) {
	hour, _ := strconv.Atoi(s[:2])
	minute, _ := strconv.Atoi(s[3:])
	if hour > 23 || minute > 59 {
		return Token{}, "not a time of day"
	}
	return At(hour, minute), ""
}

// Segments splits a field on "|", trimming whitespace and dropping empty parts.
func Segments(field string) []string {
	var out []string
	for _, part := range strings.Split(field, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Parse validates a field against the domain and returns its normalized tokens.
// A "*" anywhere in the field makes the whole field the wildcard. The result is
// deduplicated and sorted, so Parse(s.String()) yields s again.
func Parse(field string, d Domain) (Set, error) {
	segments := Segments(field)
	for _, seg := range segments {
		if seg == "*" {
			return Set{Any}, nil
		}
	}

	seen := make(map[Token]bool, len(segments))
	out := make(Set, 0, len(segments))
	for _, seg := range segments {
		tok, reason := d.token(seg)
		if reason != "" {
			return nil, &TokenError{Domain: d.Name, Field: field, Token: seg, Reason: reason}
		}
		if seen[tok] {
			continue
		}
		seen[tok] = true
		out = append(out, tok)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out, nil
}

func (d Domain) token(seg string) (Token, string) {
	if !d.AllowRange || !strings.Contains(seg, "-") {
		return d.bound(seg)
	}

	bounds := strings.SplitN(seg, "-", 2)
	loStr, hiStr := strings.TrimSpace(bounds[0]), strings.TrimSpace(bounds[1])
	if loStr == "" || hiStr == "" {
		return Token{}, "incomplete range"
	}
	lo, reason := d.bound(loStr)
	if reason != "" {
		return Token{}, "range start " + reason
	}
	hi, reason := d.bound(hiStr)
	if reason != "" {
		return Token{}, "range end " + reason
	}
	if lo.Lo > hi.Lo {
		return Token{}, "range start is after range end"
	}
	return Span(lo.Lo, hi.Lo), ""
}
