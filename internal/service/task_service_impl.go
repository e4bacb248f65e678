package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timetree/internal/db"
	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
	"github.com/google/uuid"
)

type taskService struct {
	tasks    repository.TaskRepo
	uow      db.UnitOfWork
	lock     *TreeLock
	observer UseCaseObserver
}

func NewTaskService(
	tasks repository.TaskRepo,
	uow db.UnitOfWork,
	lock *TreeLock,
	observers ...UseCaseObserver,
) TaskService {
	return &taskService{
		tasks:    tasks,
		uow:      uow,
		lock:     lock,
		observer: useCaseObserverOrNoop(observers),
	}
}

// mutate runs fn under the tree lock inside one transaction.
func (s *taskService) mutate(ctx context.Context, fn func(ctx context.Context, tree *treeTx) error) error {
	return s.lock.Do(func() error {
		return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			return fn(ctx, newTreeTx(tx))
		})
	})
}

func (s *taskService) CreateTask(ctx context.Context, parentID *string, draft *domain.Task) (task *domain.Task, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"code": draft.Code}
	defer observe(ctx, s.observer, "create-task", startedAt, fields, &err)

	err = s.mutate(ctx, func(ctx context.Context, tree *treeTx) error {
		parent, path, err := tree.resolveParent(ctx, parentID)
		if err != nil {
			return err
		}
		if err := tree.acceptsSubtasks(ctx, parent); err != nil {
			return err
		}

		created := *draft
		created.Code = strings.TrimSpace(created.Code)
		if err := created.Validate(); err != nil {
			return err
		}
		if err := tree.checkCodeFree(ctx, path, created.Code, ""); err != nil {
			return err
		}
		number, err := tree.nextNumber(ctx, path)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if created.ID == "" {
			created.ID = uuid.New().String()
		}
		created.Path = path
		created.Number = number
		created.CreatedAt = now
		created.UpdatedAt = now
		if err := tree.tasks.Create(ctx, &created); err != nil {
			return err
		}
		task = &created
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["full_path"] = task.FullPath()
	return task, nil
}

func (s *taskService) UpdateTask(ctx context.Context, task *domain.Task) (updated *domain.Task, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"task_id": task.ID}
	defer observe(ctx, s.observer, "update-task", startedAt, fields, &err)

	err = s.mutate(ctx, func(ctx context.Context, tree *treeTx) error {
		stored, err := tree.checkPosition(ctx, task)
		if err != nil {
			return err
		}
		next := *stored
		next.Code = strings.TrimSpace(task.Code)
		next.Name = task.Name
		next.Comment = task.Comment
		next.Budget = task.Budget
		next.InitiallyConsumed = task.InitiallyConsumed
		next.Todo = task.Todo
		next.Closed = task.Closed
		if err := next.Validate(); err != nil {
			return err
		}
		if next.Code != stored.Code {
			if err := tree.checkCodeFree(ctx, next.Path, next.Code, next.ID); err != nil {
				return err
			}
		}
		if next.HasAmounts() {
			n, err := tree.tasks.CountChildren(ctx, next.FullPath())
			if err != nil {
				return err
			}
			if n > 0 {
				return domain.NewModelError(domain.ErrTaskWithSubtasksCannotHaveAmounts,
					"task %s has sub-tasks, its budget, initially consumed and todo must stay zero", next.Code)
			}
		}
		next.UpdatedAt = time.Now().UTC()
		if err := tree.tasks.Update(ctx, &next); err != nil {
			return err
		}
		updated = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *taskService) UpdateEtc(ctx context.Context, taskID string, todo int64) (task *domain.Task, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"task_id": taskID, "todo": todo}
	defer observe(ctx, s.observer, "update-etc", startedAt, fields, &err)

	if todo < 0 {
		return nil, domain.NewModelError(domain.ErrInvalidAmount, "todo must not be negative")
	}
	err = s.mutate(ctx, func(ctx context.Context, tree *treeTx) error {
		stored, err := tree.load(ctx, taskID)
		if err != nil {
			return err
		}
		n, err := tree.tasks.CountChildren(ctx, stored.FullPath())
		if err != nil {
			return err
		}
		if n > 0 && todo != 0 {
			return domain.NewModelError(domain.ErrTaskWithSubtasksCannotHaveAmounts,
				"task %s has sub-tasks, its todo must stay zero", stored.Code)
		}
		stored.Todo = todo
		stored.UpdatedAt = time.Now().UTC()
		if err := tree.tasks.Update(ctx, stored); err != nil {
			return err
		}
		task = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (s *taskService) MoveUpTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	return s.moveBy(ctx, "move-up-task", task, -1)
}

func (s *taskService) MoveDownTask(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	return s.moveBy(ctx, "move-down-task", task, +1)
}

func (s *taskService) moveBy(ctx context.Context, name string, task *domain.Task, delta int) (moved *domain.Task, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"task_id": task.ID, "from": task.FullPath()}
	defer observe(ctx, s.observer, name, startedAt, fields, &err)

	err = s.mutate(ctx, func(ctx context.Context, tree *treeTx) error {
		stored, err := tree.checkPosition(ctx, task)
		if err != nil {
			return err
		}
		if err := tree.step(ctx, stored, delta); err != nil {
			return err
		}
		moved = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	fields["to"] = moved.FullPath()
	return moved, nil
}

func (s *taskService) MoveTaskUpOrDown(ctx context.Context, task *domain.Task, newNumber int) (moved *domain.Task, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"task_id": task.ID, "from": task.FullPath(), "new_number": newNumber}
	defer observe(ctx, s.observer, "move-task-up-or-down", startedAt, fields, &err)

	err = s.mutate(ctx, func(ctx context.Context, tree *treeTx) error {
		stored, err := tree.checkPosition(ctx, task)
		if err != nil {
			return err
		}
		count, err := tree.tasks.CountChildren(ctx, stored.Path)
		if err != nil {
			return err
		}
		if newNumber < 1 || newNumber > count {
			return domain.NewModelError(domain.ErrInvalidTaskNumber,
				"task number must be between 1 and %d, got %d", count, newNumber)
		}
		for stored.Number != newNumber {
			delta := 1
			if newNumber < stored.Number {
				delta = -1
			}
			if err := tree.step(ctx, stored, delta); err != nil {
				return err
			}
		}
		moved = stored
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

func (s *taskService) MoveTask(ctx context.Context, task *domain.Task, newParentID *string) (moved *domain.Task, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"task_id": task.ID, "from": task.FullPath()}
	defer observe(ctx, s.observer, "move-task", startedAt, fields, &err)

	err = s.mutate(ctx, func(ctx context.Context, tree *treeTx) error {
		stored, err := tree.checkPosition(ctx, task)
		if err != nil {
			return err
		}
		parent, newPath, err := tree.resolveParent(ctx, newParentID)
		if err != nil {
			return err
		}
		if parent != nil && (parent.ID == stored.ID || domain.IsDescendantPath(parent.FullPath(), stored.FullPath())) {
			return domain.NewModelError(domain.ErrTaskCannotBeMovedUnderItself,
				"task %s cannot be moved under itself or one of its sub-tasks", stored.Code)
		}
		if newPath == stored.Path {
			moved = stored
			return nil
		}
		if err := tree.checkCodeFree(ctx, newPath, stored.Code, stored.ID); err != nil {
			return err
		}
		if err := tree.acceptsSubtasks(ctx, parent); err != nil {
			return err
		}
		number, err := tree.nextNumber(ctx, newPath)
		if err != nil {
			return err
		}

		oldPath, oldFull := stored.Path, stored.FullPath()
		if err := tree.tasks.UpdatePosition(ctx, stored.ID, newPath, number); err != nil {
			return err
		}
		if _, err := tree.tasks.RebaseSubtree(ctx, oldFull, domain.FullPath(newPath, number)); err != nil {
			return err
		}
		if err := tree.renumber(ctx, oldPath); err != nil {
			return err
		}
		// Renumbering the old siblings can shift the new parent's own path.
		moved, err = tree.load(ctx, stored.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	fields["to"] = moved.FullPath()
	return moved, nil
}

func (s *taskService) RemoveTask(ctx context.Context, task *domain.Task) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"task_id": task.ID, "full_path": task.FullPath()}
	defer observe(ctx, s.observer, "remove-task", startedAt, fields, &err)

	return s.mutate(ctx, func(ctx context.Context, tree *treeTx) error {
		stored, err := tree.checkPosition(ctx, task)
		if err != nil {
			return err
		}
		full := stored.FullPath()
		sums, err := tree.contribs.Sum(ctx, repository.ContributionFilter{SubtreeOf: &full})
		if err != nil {
			return err
		}
		if sums.ContributionsCount > 0 {
			return domain.NewModelError(domain.ErrTaskHasContributions,
				"task %s has %d contributions in its subtree and cannot be removed", stored.Code, sums.ContributionsCount)
		}
		n, err := tree.tasks.DeleteSubtree(ctx, full)
		if err != nil {
			return err
		}
		fields["descendants"] = n
		if err := tree.tasks.Delete(ctx, stored.ID); err != nil {
			return err
		}
		return tree.renumber(ctx, stored.Path)
	})
}

func (s *taskService) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

// GetByCodePath resolves a slash separated code path such as "/DEV/API"
// below parentID, or from the root level when parentID is nil.
func (s *taskService) GetByCodePath(ctx context.Context, parentID *string, codePath string) (*domain.Task, error) {
	path := ""
	if parentID != nil {
		parent, err := s.tasks.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		path = parent.FullPath()
	}
	var task *domain.Task
	for _, code := range strings.Split(codePath, "/") {
		if code == "" {
			continue
		}
		t, err := s.tasks.GetByPathAndCode(ctx, path, code)
		if err != nil {
			return nil, fmt.Errorf("resolving %q at %q: %w", codePath, code, err)
		}
		task, path = t, t.FullPath()
	}
	if task == nil {
		return nil, fmt.Errorf("resolving %q: empty code path", codePath)
	}
	return task, nil
}

// CodePath renders the codes of task and its ancestors as "/A/B/C".
func (s *taskService) CodePath(ctx context.Context, task *domain.Task) (string, error) {
	ancestors, err := domain.Ancestors(task.FullPath())
	if err != nil {
		return "", err
	}
	var b strings.Builder
	for _, full := range ancestors[:len(ancestors)-1] {
		parentPath, err := domain.ParentPath(full)
		if err != nil {
			return "", err
		}
		number, err := domain.LastNumber(full)
		if err != nil {
			return "", err
		}
		a, err := s.tasks.GetByPathAndNumber(ctx, parentPath, number)
		if err != nil {
			return "", fmt.Errorf("resolving ancestor %s: %w", full, err)
		}
		b.WriteString("/" + a.Code)
	}
	b.WriteString("/" + task.Code)
	return b.String(), nil
}

func (s *taskService) ListChildren(ctx context.Context, parentID *string) ([]*domain.Task, error) {
	if parentID == nil {
		return s.tasks.ListChildren(ctx, "")
	}
	parent, err := s.tasks.GetByID(ctx, *parentID)
	if err != nil {
		return nil, err
	}
	return s.tasks.ListChildren(ctx, parent.FullPath())
}

// Parent returns nil for root-level tasks.
func (s *taskService) Parent(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task.IsRootLevel() {
		return nil, nil
	}
	parentPath, err := domain.ParentPath(task.Path)
	if err != nil {
		return nil, err
	}
	number, err := domain.LastNumber(task.Path)
	if err != nil {
		return nil, err
	}
	parent, err := s.tasks.GetByPathAndNumber(ctx, parentPath, number)
	if err != nil {
		return nil, fmt.Errorf("parent of %s: %w", task.FullPath(), err)
	}
	return parent, nil
}

func (s *taskService) Select(ctx context.Context, filter repository.TaskFilter) ([]*domain.Task, error) {
	return s.tasks.Select(ctx, filter)
}
