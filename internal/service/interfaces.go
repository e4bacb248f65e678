package service

import (
	"context"
	"time"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
)

// TaskService owns every structural change of the task forest. Mutations
// take the caller's copy of a task and fail with PATH_UPDATE_DETECTED when
// its path or number no longer match the stored row.
type TaskService interface {
	CreateTask(ctx context.Context, parentID *string, draft *domain.Task) (*domain.Task, error)
	UpdateTask(ctx context.Context, task *domain.Task) (*domain.Task, error)
	UpdateEtc(ctx context.Context, taskID string, todo int64) (*domain.Task, error)
	MoveUpTask(ctx context.Context, task *domain.Task) (*domain.Task, error)
	MoveDownTask(ctx context.Context, task *domain.Task) (*domain.Task, error)
	MoveTaskUpOrDown(ctx context.Context, task *domain.Task, newNumber int) (*domain.Task, error)
	MoveTask(ctx context.Context, task *domain.Task, newParentID *string) (*domain.Task, error)
	RemoveTask(ctx context.Context, task *domain.Task) error

	GetByID(ctx context.Context, id string) (*domain.Task, error)
	GetByCodePath(ctx context.Context, parentID *string, codePath string) (*domain.Task, error)
	CodePath(ctx context.Context, task *domain.Task) (string, error)
	ListChildren(ctx context.Context, parentID *string) ([]*domain.Task, error)
	Parent(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Select(ctx context.Context, filter repository.TaskFilter) ([]*domain.Task, error)
}

// ContributionService writes the ledger. With updateEtc the task's todo
// follows the logged amounts.
type ContributionService interface {
	Create(ctx context.Context, c *domain.Contribution, updateEtc bool) error
	Update(ctx context.Context, c *domain.Contribution, updateEtc bool) error
	ChangeTask(ctx context.Context, c *domain.Contribution, newTaskID string) (*domain.Contribution, error)
	Remove(ctx context.Context, c *domain.Contribution, updateEtc bool) error
	List(ctx context.Context, filter repository.ContributionFilter) ([]*domain.Contribution, error)
	Sum(ctx context.Context, filter repository.ContributionFilter) (domain.ContributionSums, error)
	SumByTask(ctx context.Context, filter repository.ContributionFilter) (map[string]domain.ContributionSums, error)
}

// SumsService computes subtree aggregates over an optional closed date
// window. Either bound may be nil.
type SumsService interface {
	GetTaskSums(ctx context.Context, taskID string, from, to *time.Time) (*domain.TaskSums, error)
	GetSubTasksSums(ctx context.Context, parentID *string, from, to *time.Time) ([]*domain.TaskSums, error)
	GetSubtreeSums(ctx context.Context, pathPrefix string, from, to *time.Time) ([]*domain.TaskSums, error)
}

type DurationService interface {
	Create(ctx context.Context, d *domain.Duration) error
	List(ctx context.Context, activeOnly bool) ([]*domain.Duration, error)
	SetActive(ctx context.Context, id int64, active bool) error
	Remove(ctx context.Context, id int64) error
}

type CollaboratorService interface {
	Create(ctx context.Context, c *domain.Collaborator) error
	Update(ctx context.Context, c *domain.Collaborator) error
	GetByID(ctx context.Context, id string) (*domain.Collaborator, error)
	GetByLogin(ctx context.Context, login string) (*domain.Collaborator, error)
	List(ctx context.Context, activeOnly bool) ([]*domain.Collaborator, error)
	Remove(ctx context.Context, id string) error
}

type ReportPlanner interface {
	Plan(ctx context.Context, req ReportRequest) (*ReportPlan, error)
}

type ReportService interface {
	Build(ctx context.Context, req ReportRequest) (*Report, error)
}
