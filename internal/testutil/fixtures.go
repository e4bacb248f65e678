package testutil

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/google/uuid"
)

var testLoginCounter atomic.Int64

// Task options
type TaskOption func(*domain.Task)

// WithParent places the task under parent at the given sibling number.
func WithParent(parent *domain.Task, number int) TaskOption {
	return func(t *domain.Task) {
		t.Path = parent.FullPath()
		t.Number = number
	}
}

// WithNumber sets the sibling number, keeping the current path.
func WithNumber(number int) TaskOption {
	return func(t *domain.Task) {
		t.Number = number
	}
}

func WithName(name string) TaskOption {
	return func(t *domain.Task) {
		t.Name = name
	}
}

func WithBudget(h int64) TaskOption {
	return func(t *domain.Task) {
		t.Budget = h
	}
}

func WithInitiallyConsumed(h int64) TaskOption {
	return func(t *domain.Task) {
		t.InitiallyConsumed = h
	}
}

func WithTodo(h int64) TaskOption {
	return func(t *domain.Task) {
		t.Todo = h
	}
}

func WithClosed() TaskOption {
	return func(t *domain.Task) {
		t.Closed = true
	}
}

// NewTestTask builds a root-level task numbered 1. The name defaults to the
// code.
func NewTestTask(code string, opts ...TaskOption) *domain.Task {
	now := time.Now().UTC().Truncate(time.Second)
	t := &domain.Task{
		ID:        uuid.New().String(),
		Number:    1,
		Code:      code,
		Name:      code,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Collaborator options
type CollaboratorOption func(*domain.Collaborator)

func WithLogin(login string) CollaboratorOption {
	return func(c *domain.Collaborator) {
		c.Login = login
	}
}

func WithInactive() CollaboratorOption {
	return func(c *domain.Collaborator) {
		c.IsActive = false
	}
}

func NewTestCollaborator(firstName, lastName string, opts ...CollaboratorOption) *domain.Collaborator {
	now := time.Now().UTC().Truncate(time.Second)
	c := &domain.Collaborator{
		ID:        uuid.New().String(),
		Login:     fmt.Sprintf("user%02d", testLoginCounter.Add(1)),
		FirstName: firstName,
		LastName:  lastName,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewTestDuration builds an active catalog entry of h hundredths.
func NewTestDuration(h int64) *domain.Duration {
	return &domain.Duration{ID: h, IsActive: true}
}

// NewTestContribution builds a ledger line for the given day.
func NewTestContribution(contributorID, taskID string, day time.Time, duration int64) *domain.Contribution {
	return &domain.Contribution{
		ContributorID: contributorID,
		TaskID:        taskID,
		Date:          domain.Day(day),
		DurationID:    duration,
		CreatedAt:     time.Now().UTC().Truncate(time.Second),
	}
}

// Day returns the UTC midnight of the given calendar date.
func Day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
