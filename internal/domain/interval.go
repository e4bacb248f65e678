package domain

import (
	"fmt"
	"strings"
	"time"
)

type IntervalUnit string

const (
	IntervalDay   IntervalUnit = "day"
	IntervalWeek  IntervalUnit = "week"
	IntervalMonth IntervalUnit = "month"
	IntervalYear  IntervalUnit = "year"
)

// ParseIntervalUnit accepts the unit names case-insensitively.
func ParseIntervalUnit(s string) (IntervalUnit, error) {
	switch u := IntervalUnit(strings.ToLower(strings.TrimSpace(s))); u {
	case IntervalDay, IntervalWeek, IntervalMonth, IntervalYear:
		return u, nil
	}
	return "", fmt.Errorf("unknown interval unit %q (day|week|month|year)", s)
}

// referenceHour pins planned dates to midday so calendar arithmetic never
// crosses a day boundary when rendered in a local zone.
const referenceHour = 12

// Snap moves t back to the canonical start of its unit.
func (u IntervalUnit) Snap(t time.Time) time.Time {
	y, m, d := t.Date()
	switch u {
	case IntervalYear:
		m, d = time.January, 1
	case IntervalMonth:
		d = 1
	case IntervalWeek:
		// ISO weeks start on Monday.
		offset := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-offset, referenceHour, 0, 0, 0, time.UTC)
	}
	return time.Date(y, m, d, referenceHour, 0, 0, 0, time.UTC)
}

// Add advances t by n units.
func (u IntervalUnit) Add(t time.Time, n int) time.Time {
	switch u {
	case IntervalYear:
		return t.AddDate(n, 0, 0)
	case IntervalMonth:
		return t.AddDate(0, n, 0)
	case IntervalWeek:
		return t.AddDate(0, 0, 7*n)
	default:
		return t.AddDate(0, 0, n)
	}
}

// CountBetween returns how many buckets of u starting at start are needed to
// include end. Both dates are compared by calendar day.
func (u IntervalUnit) CountBetween(start, end time.Time) int {
	sy, sm, _ := start.Date()
	ey, em, _ := end.Date()
	switch u {
	case IntervalYear:
		return ey - sy + 1
	case IntervalMonth:
		return (ey*12 + int(em)) - (sy*12 + int(sm)) + 1
	}
	days := daysBetween(start, end)
	if days < 0 {
		return 0
	}
	if u == IntervalWeek {
		return days/7 + 1
	}
	return days + 1
}

func daysBetween(a, b time.Time) int {
	return int(Day(b).Sub(Day(a)).Hours() / 24)
}
