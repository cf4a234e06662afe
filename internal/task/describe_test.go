package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fentz26/taskmaster/internal/dayspec"
)

func TestWeekdayNames(t *testing.T) {
	set, err := dayspec.Parse("7|1-5", dayspec.DayOfWeek)
	require.NoError(t, err)
	assert.Equal(t, []string{"Monday to Friday", "Sunday"}, WeekdayNames(set))

	assert.Equal(t, []string{"*"}, WeekdayNames(dayspec.Set{dayspec.Any}))
	assert.Empty(t, WeekdayNames(nil))
}

func TestDescribeSchedule(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want string
	}{
		{"weekly", Input{Name: "x", Recurring: true, DaysOfWeek: "1|3-5", TimesOfDay: "09:00", ActiveFrom: "2030-01-01"},
			"Every Mon, Wed-Fri at 09:00 starting 2030-01-01"},
		{"any weekday", Input{Name: "x", Recurring: true, DaysOfWeek: "*"}, "Daily"},
		{"monthly", Input{Name: "x", Recurring: true, DaysOfMonth: "15|1", ActiveUntil: "2031-01-01"},
			"Monthly on day(s): 1, 15 until 2031-01-01"},
		{"yearly", Input{Name: "x", Recurring: true, DaysOfYear: "06-15", TimesOfDay: "08:00|20:00"},
			"Yearly on: 06-15 at 08:00, 20:00"},
		{"one date", Input{Name: "x", DaysOfYear: "2030-06-15"}, "On: 2030-06-15"},
		{"defaulted", Input{Name: "x", TimesOfDay: "11:30"}, "Today at 11:30"},
		{"ad hoc", Input{Name: "x"}, "Once, when next nudged"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := New(tt.in, today)
			require.NoError(t, err)
			assert.Equal(t, tt.want, DescribeSchedule(got))
		})
	}
}
