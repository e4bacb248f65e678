package repository

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/timetree/internal/domain"
)

// ErrNotFound is wrapped by every lookup that matches no row.
var ErrNotFound = errors.New("not found")

// ErrConflictingSelectors is returned when a TaskSumsSelector names more than
// one scope. It is a programming error, never a user-facing fault.
var ErrConflictingSelectors = errors.New("task sums selector: task id, parent path and path prefix are mutually exclusive")

// TaskOrder names the supported orderings of TaskRepo.Select.
type TaskOrder string

const (
	OrderByPosition TaskOrder = "position"
	OrderByCode     TaskOrder = "code"
	OrderByName     TaskOrder = "name"
)

// TaskFilter selects tasks by attribute. Nil / empty fields do not filter.
type TaskFilter struct {
	IDs        []string
	Path       *string // exact parent path
	PathPrefix *string // strictly below this full path
	Code       *string
	CodeLike   string // SQL LIKE pattern
	NameLike   string // SQL LIKE pattern
	Closed     *bool
	OrderBy    TaskOrder
	Limit      int
}

// TaskSumsSelector scopes a sums query. Exactly one field must be set.
type TaskSumsSelector struct {
	TaskID     *string
	ParentPath *string // direct children of the task with this full path, "" for root level
	PathPrefix *string // every task strictly below this full path
}

func (s TaskSumsSelector) Validate() error {
	n := 0
	for _, set := range []bool{s.TaskID != nil, s.ParentPath != nil, s.PathPrefix != nil} {
		if set {
			n++
		}
	}
	if n > 1 {
		return ErrConflictingSelectors
	}
	if n == 0 {
		return errors.New("task sums selector: no scope given")
	}
	return nil
}

// ContributionFilter scopes ledger queries. Nil fields do not filter.
type ContributionFilter struct {
	ContributorID *string
	TaskID        *string
	SubtreeOf     *string // full path; matches the task at that path and all descendants
	DurationID    *int64
	From          *time.Time // inclusive
	To            *time.Time // inclusive
}

type TaskRepo interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	GetByPathAndNumber(ctx context.Context, path string, number int) (*domain.Task, error)
	GetByPathAndCode(ctx context.Context, path, code string) (*domain.Task, error)
	ListChildren(ctx context.Context, path string) ([]*domain.Task, error)
	ListSubtree(ctx context.Context, fullPath string) ([]*domain.Task, error)
	Select(ctx context.Context, f TaskFilter) ([]*domain.Task, error)
	CountChildren(ctx context.Context, path string) (int, error)
	MaxNumber(ctx context.Context, path string) (int, error)
	Update(ctx context.Context, t *domain.Task) error
	UpdatePosition(ctx context.Context, id, path string, number int) error
	RebaseSubtree(ctx context.Context, oldPrefix, newPrefix string) (int64, error)
	DeleteSubtree(ctx context.Context, fullPath string) (int64, error)
	Delete(ctx context.Context, id string) error
	Sums(ctx context.Context, sel TaskSumsSelector) ([]*domain.TaskSums, error)
}

type ContributionRepo interface {
	Create(ctx context.Context, c *domain.Contribution) error
	Get(ctx context.Context, contributorID, taskID string, day time.Time) (*domain.Contribution, error)
	UpdateDuration(ctx context.Context, c *domain.Contribution) error
	Delete(ctx context.Context, c *domain.Contribution) error
	List(ctx context.Context, f ContributionFilter) ([]*domain.Contribution, error)
	Sum(ctx context.Context, f ContributionFilter) (domain.ContributionSums, error)
	SumByTask(ctx context.Context, f ContributionFilter) (map[string]domain.ContributionSums, error)
	SubtreeSums(ctx context.Context, sel TaskSumsSelector, f ContributionFilter) (map[string]domain.ContributionSums, error)
	DateRange(ctx context.Context, pathPrefix string) (first, last *time.Time, err error)
}

type DurationRepo interface {
	Create(ctx context.Context, d *domain.Duration) error
	GetByID(ctx context.Context, id int64) (*domain.Duration, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Duration, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
}

type CollaboratorRepo interface {
	Create(ctx context.Context, c *domain.Collaborator) error
	GetByID(ctx context.Context, id string) (*domain.Collaborator, error)
	GetByLogin(ctx context.Context, login string) (*domain.Collaborator, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Collaborator, error)
	Update(ctx context.Context, c *domain.Collaborator) error
	Delete(ctx context.Context, id string) error
}
