package core

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is day/month/year; one- or two-digit day and month parse.
const DateLayout = "2/1/2006"

// ParseDate parses a ledger date. Dates carry no timezone; UTC is used.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t, nil
}

// WeekLabel returns the ISO-8601 week label of t, e.g. "2025-W03".
// Weeks start on Monday and belong to the ISO week-year.
func WeekLabel(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}
