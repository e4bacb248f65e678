package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/timetree/internal/db"
	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
)

type contributionService struct {
	contribs repository.ContributionRepo
	uow      db.UnitOfWork
	lock     *TreeLock
	observer UseCaseObserver
}

func NewContributionService(
	contribs repository.ContributionRepo,
	uow db.UnitOfWork,
	lock *TreeLock,
	observers ...UseCaseObserver,
) ContributionService {
	return &contributionService{
		contribs: contribs,
		uow:      uow,
		lock:     lock,
		observer: useCaseObserverOrNoop(observers),
	}
}

// ledgerTx holds the repositories a ledger write checks against.
type ledgerTx struct {
	*treeTx
	collaborators repository.CollaboratorRepo
	durations     repository.DurationRepo
}

func (s *contributionService) write(ctx context.Context, fn func(ctx context.Context, l *ledgerTx) error) error {
	return s.lock.Do(func() error {
		return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
			return fn(ctx, &ledgerTx{
				treeTx:        newTreeTx(tx),
				collaborators: repository.NewSQLiteCollaboratorRepo(tx),
				durations:     repository.NewSQLiteDurationRepo(tx),
			})
		})
	})
}

// acceptingTask loads a task that may receive contributions: a leaf that is
// not closed.
func (l *ledgerTx) acceptingTask(ctx context.Context, taskID string) (*domain.Task, error) {
	task, err := l.load(ctx, taskID)
	if err != nil {
		return nil, err
	}
	n, err := l.tasks.CountChildren(ctx, task.FullPath())
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, domain.NewModelError(domain.ErrTaskWithSubtaskCannotAcceptContrib,
			"task %s has sub-tasks and cannot accept contributions", task.Code)
	}
	if task.Closed {
		return nil, domain.NewModelError(domain.ErrTaskClosed, "task %s is closed", task.Code)
	}
	return task, nil
}

func (l *ledgerTx) activeCollaborator(ctx context.Context, id string) error {
	c, err := l.collaborators.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewModelError(domain.ErrUnknownCollaborator, "collaborator %s does not exist", id)
	}
	if err != nil {
		return err
	}
	if !c.IsActive {
		return domain.NewModelError(domain.ErrCollaboratorInactive, "collaborator %s is not active", c.Login)
	}
	return nil
}

func (l *ledgerTx) activeDuration(ctx context.Context, id int64) error {
	d, err := l.durations.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewModelError(domain.ErrUnknownDuration, "duration %s does not exist", domain.FormatAmount(id))
	}
	if err != nil {
		return err
	}
	if !d.IsActive {
		return domain.NewModelError(domain.ErrDurationInactive, "duration %s is not active", domain.FormatAmount(id))
	}
	return nil
}

func (l *ledgerTx) checkNotLogged(ctx context.Context, c *domain.Contribution) error {
	_, err := l.contribs.Get(ctx, c.ContributorID, c.TaskID, c.Date)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	}
	return domain.NewModelError(domain.ErrDuplicateContribution,
		"a contribution already exists for this collaborator, task and day (%s)", c.Date.Format(domain.DateLayout))
}

func (l *ledgerTx) existing(ctx context.Context, c *domain.Contribution) (*domain.Contribution, error) {
	stored, err := l.contribs.Get(ctx, c.ContributorID, c.TaskID, domain.Day(c.Date))
	if err != nil {
		return nil, fmt.Errorf("contribution %s: %w", c.Key(), err)
	}
	return stored, nil
}

// adjustEtc lowers the task's todo by delta hundredths, or raises it for a
// negative delta. Todo never drops below zero.
func (l *ledgerTx) adjustEtc(ctx context.Context, taskID string, delta int64) error {
	if delta == 0 {
		return nil
	}
	task, err := l.load(ctx, taskID)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if delta > 0 {
		task.ApplyContribution(delta, now)
	} else {
		task.RevertContribution(-delta, now)
	}
	return l.tasks.Update(ctx, task)
}

func (s *contributionService) Create(ctx context.Context, c *domain.Contribution, updateEtc bool) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"task_id": c.TaskID, "contributor_id": c.ContributorID, "duration": c.DurationID}
	defer observe(ctx, s.observer, "create-contribution", startedAt, fields, &err)

	c.Date = domain.Day(c.Date)
	return s.write(ctx, func(ctx context.Context, l *ledgerTx) error {
		if _, err := l.acceptingTask(ctx, c.TaskID); err != nil {
			return err
		}
		if err := l.activeCollaborator(ctx, c.ContributorID); err != nil {
			return err
		}
		if err := l.activeDuration(ctx, c.DurationID); err != nil {
			return err
		}
		if err := l.checkNotLogged(ctx, c); err != nil {
			return err
		}
		if c.CreatedAt.IsZero() {
			c.CreatedAt = time.Now().UTC()
		}
		if err := l.contribs.Create(ctx, c); err != nil {
			return err
		}
		if updateEtc {
			return l.adjustEtc(ctx, c.TaskID, c.DurationID)
		}
		return nil
	})
}

// Update changes the duration of an existing contribution.
func (s *contributionService) Update(ctx context.Context, c *domain.Contribution, updateEtc bool) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"task_id": c.TaskID, "contributor_id": c.ContributorID, "duration": c.DurationID}
	defer observe(ctx, s.observer, "update-contribution", startedAt, fields, &err)

	c.Date = domain.Day(c.Date)
	return s.write(ctx, func(ctx context.Context, l *ledgerTx) error {
		stored, err := l.existing(ctx, c)
		if err != nil {
			return err
		}
		if stored.DurationID == c.DurationID {
			return nil
		}
		if _, err := l.acceptingTask(ctx, c.TaskID); err != nil {
			return err
		}
		if err := l.activeDuration(ctx, c.DurationID); err != nil {
			return err
		}
		if err := l.contribs.UpdateDuration(ctx, c); err != nil {
			return err
		}
		if updateEtc {
			return l.adjustEtc(ctx, c.TaskID, c.DurationID-stored.DurationID)
		}
		return nil
	})
}

// ChangeTask moves a contribution to another leaf task, keeping its
// collaborator, day and duration.
func (s *contributionService) ChangeTask(ctx context.Context, c *domain.Contribution, newTaskID string) (moved *domain.Contribution, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"task_id": c.TaskID, "new_task_id": newTaskID, "contributor_id": c.ContributorID}
	defer observe(ctx, s.observer, "change-contribution-task", startedAt, fields, &err)

	err = s.write(ctx, func(ctx context.Context, l *ledgerTx) error {
		stored, err := l.existing(ctx, c)
		if err != nil {
			return err
		}
		if stored.TaskID == newTaskID {
			moved = stored
			return nil
		}
		if _, err := l.acceptingTask(ctx, newTaskID); err != nil {
			return err
		}
		next := *stored
		next.TaskID = newTaskID
		if err := l.checkNotLogged(ctx, &next); err != nil {
			return err
		}
		if err := l.contribs.Delete(ctx, stored); err != nil {
			return err
		}
		if err := l.contribs.Create(ctx, &next); err != nil {
			return err
		}
		moved = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}

func (s *contributionService) Remove(ctx context.Context, c *domain.Contribution, updateEtc bool) (err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"task_id": c.TaskID, "contributor_id": c.ContributorID}
	defer observe(ctx, s.observer, "remove-contribution", startedAt, fields, &err)

	return s.write(ctx, func(ctx context.Context, l *ledgerTx) error {
		stored, err := l.existing(ctx, c)
		if err != nil {
			return err
		}
		if err := l.contribs.Delete(ctx, stored); err != nil {
			return err
		}
		if updateEtc {
			return l.adjustEtc(ctx, stored.TaskID, -stored.DurationID)
		}
		return nil
	})
}

func (s *contributionService) List(ctx context.Context, filter repository.ContributionFilter) ([]*domain.Contribution, error) {
	return s.contribs.List(ctx, filter)
}

func (s *contributionService) Sum(ctx context.Context, filter repository.ContributionFilter) (domain.ContributionSums, error) {
	return s.contribs.Sum(ctx, filter)
}

func (s *contributionService) SumByTask(ctx context.Context, filter repository.ContributionFilter) (map[string]domain.ContributionSums, error) {
	return s.contribs.SumByTask(ctx, filter)
}
