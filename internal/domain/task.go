package domain

import (
	"strings"
	"time"
)

// Task is a node of the task forest. Amounts are hundredths of a time unit.
type Task struct {
	ID                string
	Path              string
	Number            int
	Code              string
	Name              string
	Comment           string
	Budget            int64
	InitiallyConsumed int64
	Todo              int64
	Closed            bool
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FullPath identifies the task within the forest.
func (t *Task) FullPath() string {
	return FullPath(t.Path, t.Number)
}

// Depth is 1 for root-level tasks.
func (t *Task) Depth() int {
	return Depth(t.FullPath())
}

// IsRootLevel reports whether the task has no parent.
func (t *Task) IsRootLevel() bool {
	return t.Path == ""
}

// HasAmounts reports whether any of budget, initially consumed or todo is set.
func (t *Task) HasAmounts() bool {
	return t.Budget != 0 || t.InitiallyConsumed != 0 || t.Todo != 0
}

// SamePosition reports whether other sits at the same (path, number).
func (t *Task) SamePosition(other *Task) bool {
	return t.Path == other.Path && t.Number == other.Number
}

// Validate checks the fields a caller controls directly.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Code) == "" {
		return NewModelError(ErrTaskCodeRequired, "task code is required")
	}
	if strings.TrimSpace(t.Name) == "" {
		return NewModelError(ErrTaskNameRequired, "task name is required")
	}
	if t.Budget < 0 || t.InitiallyConsumed < 0 || t.Todo < 0 {
		return NewModelError(ErrInvalidAmount, "task %s: amounts must not be negative", t.Code)
	}
	return nil
}

// ApplyContribution lowers the estimate to complete by a newly logged
// amount, never below zero.
func (t *Task) ApplyContribution(amount int64, now time.Time) {
	t.Todo -= amount
	if t.Todo < 0 {
		t.Todo = 0
	}
	t.UpdatedAt = now
}

// RevertContribution gives back an amount removed from the ledger.
func (t *Task) RevertContribution(amount int64, now time.Time) {
	t.Todo += amount
	t.UpdatedAt = now
}
