package utils

import (
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// DaysPerWeek is the length of a report window, both ends inclusive.
const DaysPerWeek = 7

// DateOnly truncates t to midnight UTC of its UTC calendar day.
func DateOnly(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// StartOfWeek returns the Monday of the week containing t.
func StartOfWeek(t time.Time) time.Time {
	d := DateOnly(t)
	// Sunday is 0; step back six days to reach Monday.
	daysToSubtract := int(d.Weekday()) - 1
	if daysToSubtract < 0 {
		daysToSubtract = 6
	}
	return d.AddDate(0, 0, -daysToSubtract)
}

// WeekEnd returns the last (inclusive) day of the week starting at weekStart.
func WeekEnd(weekStart time.Time) time.Time {
	return DateOnly(weekStart).AddDate(0, 0, DaysPerWeek-1)
}

// ParseWeekStart parses a YYYY-MM-DD week start. An empty string resolves to the
// Monday of the week containing now. A given date is used as is.
func ParseWeekStart(value string, now time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return StartOfWeek(now), nil
	}
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid week start date %q: expected YYYY-MM-DD", value)
	}
	return d, nil
}

// FormatDate formats t as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}
