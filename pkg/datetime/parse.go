// Package datetime provides date and time utility functions.
package datetime

import (
	"strings"
	"time"

	"github.com/iwvelando/payoff-planner/pkg/constants"
)

const (
	// DateTimeLayout is the format expected in config files and is also the output
	// date format.
	DateTimeLayout = constants.DateTimeLayout
)

// MustParseTime parses a date string using the given layout and panics on error.
// This is intended for use in tests where the date string is known to be valid.
func MustParseTime(layout, dateStr string) time.Time {
	t, err := time.Parse(layout, dateStr)
	if err != nil {
		panic(err)
	}
	return t
}

// ParseMonth parses a YYYY-MM string into the first day of that month in UTC.
func ParseMonth(value string) (time.Time, error) {
	return time.Parse(DateTimeLayout, strings.TrimSpace(value))
}

// MonthStart truncates t to the first day of its month in UTC.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// MonthsBetween returns the number of whole calendar months from start to end.
// The result is negative when end is before start.
func MonthsBetween(start, end time.Time) int {
	return (end.Year()-start.Year())*12 + int(end.Month()) - int(start.Month())
}

// MonthNotAfter reports whether date falls in the same month as limit or earlier.
func MonthNotAfter(date, limit time.Time) bool {
	return MonthsBetween(date, limit) >= 0
}

// FormatMonth formats t with DateTimeLayout; a nil time formats as "never".
func FormatMonth(t *time.Time) string {
	if t == nil {
		return "never"
	}
	return t.Format(DateTimeLayout)
}
