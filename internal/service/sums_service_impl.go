package service

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/timetree/internal/db"
	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
)

type sumsService struct {
	uow db.UnitOfWork
}

// NewSumsService builds the aggregator. Every query runs in one transaction so
// the stored totals and the ledger corrections read the same snapshot.
func NewSumsService(uow db.UnitOfWork) SumsService {
	return &sumsService{uow: uow}
}

func (s *sumsService) GetTaskSums(ctx context.Context, taskID string, from, to *time.Time) (*domain.TaskSums, error) {
	rows, err := s.query(ctx, repository.TaskSumsSelector{TaskID: &taskID}, from, to)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("task %s: %w", taskID, repository.ErrNotFound)
	}
	return rows[0], nil
}

// GetSubTasksSums returns the sums of the direct children of parentID, or of
// the root-level tasks when it is nil.
func (s *sumsService) GetSubTasksSums(ctx context.Context, parentID *string, from, to *time.Time) (result []*domain.TaskSums, err error) {
	if err := checkWindow(from, to); err != nil {
		return nil, err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		path := ""
		if parentID != nil {
			parent, err := repository.NewSQLiteTaskRepo(tx).GetByID(ctx, *parentID)
			if err != nil {
				return err
			}
			path = parent.FullPath()
		}
		result, err = aggregate(ctx, tx, repository.TaskSumsSelector{ParentPath: &path}, from, to)
		return err
	})
	return result, err
}

// GetSubtreeSums returns the sums of every task strictly below pathPrefix.
func (s *sumsService) GetSubtreeSums(ctx context.Context, pathPrefix string, from, to *time.Time) ([]*domain.TaskSums, error) {
	if err := domain.ValidatePath(pathPrefix); err != nil {
		return nil, err
	}
	return s.query(ctx, repository.TaskSumsSelector{PathPrefix: &pathPrefix}, from, to)
}

func (s *sumsService) query(ctx context.Context, sel repository.TaskSumsSelector, from, to *time.Time) (result []*domain.TaskSums, err error) {
	if err := checkWindow(from, to); err != nil {
		return nil, err
	}
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		result, err = aggregate(ctx, tx, sel, from, to)
		return err
	})
	return result, err
}

func checkWindow(from, to *time.Time) error {
	if from != nil && to != nil && domain.Day(*from).After(domain.Day(*to)) {
		return domain.NewModelError(domain.ErrInvalidInterval, "interval start %s is after its end %s",
			from.Format(domain.DateLayout), to.Format(domain.DateLayout))
	}
	return nil
}

// aggregate merges the stored subtree totals with the ledger sums of the
// window [from, to]. Contributions before from are folded into initially
// consumed and contributions after to into todo, so that
// budget - initiallyConsumed - consumed - todo stays the same for any window.
func aggregate(ctx context.Context, tx db.DBTX, sel repository.TaskSumsSelector, from, to *time.Time) ([]*domain.TaskSums, error) {
	tasks := repository.NewSQLiteTaskRepo(tx)
	contribs := repository.NewSQLiteContributionRepo(tx)

	rows, err := tasks.Sums(ctx, sel)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return rows, nil
	}

	var window repository.ContributionFilter
	if from != nil {
		window.From = dayPtr(*from, 0)
	}
	if to != nil {
		window.To = dayPtr(*to, 0)
	}
	inWindow, err := contribs.SubtreeSums(ctx, sel, window)
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		r.Contributions = inWindow[r.Task.ID]
	}

	if from != nil {
		before, err := contribs.SubtreeSums(ctx, sel, repository.ContributionFilter{To: dayPtr(*from, -1)})
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			r.InitiallyConsumedSum += before[r.Task.ID].ConsumedSum
		}
	}
	if to != nil {
		after, err := contribs.SubtreeSums(ctx, sel, repository.ContributionFilter{From: dayPtr(*to, 1)})
		if err != nil {
			return nil, err
		}
		for _, r := range rows {
			r.TodoSum += after[r.Task.ID].ConsumedSum
		}
	}
	return rows, nil
}

func dayPtr(t time.Time, offsetDays int) *time.Time {
	d := domain.Day(t).AddDate(0, 0, offsetDays)
	return &d
}
