package domain

import (
	"fmt"
	"time"
)

// DateLayout is the storage format of calendar days.
const DateLayout = "2006-01-02"

// Contribution is one ledger line: a collaborator spent DurationID hundredths
// of a unit on a leaf task on a given day.
type Contribution struct {
	ContributorID string
	TaskID        string
	Date          time.Time
	DurationID    int64
	CreatedAt     time.Time
}

// Day truncates a time to its calendar day in UTC.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(s string) (time.Time, error) {
	d, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return d, nil
}

// Key identifies the contribution in the ledger.
func (c *Contribution) Key() string {
	return c.ContributorID + "/" + c.TaskID + "/" + c.Date.Format(DateLayout)
}

// ContributionSums is a ledger aggregate.
type ContributionSums struct {
	ConsumedSum        int64
	ContributionsCount int
}

func (s ContributionSums) Add(o ContributionSums) ContributionSums {
	return ContributionSums{
		ConsumedSum:        s.ConsumedSum + o.ConsumedSum,
		ContributionsCount: s.ContributionsCount + o.ContributionsCount,
	}
}
