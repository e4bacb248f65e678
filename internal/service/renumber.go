package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/alexanderramin/timetree/internal/db"
	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
)

// treeTx holds the repositories of one structural mutation, all bound to the
// same transaction.
type treeTx struct {
	tasks    repository.TaskRepo
	contribs repository.ContributionRepo
}

func newTreeTx(tx db.DBTX) *treeTx {
	return &treeTx{
		tasks:    repository.NewSQLiteTaskRepo(tx),
		contribs: repository.NewSQLiteContributionRepo(tx),
	}
}

// checkPosition re-reads task and fails when the caller's path or number
// have drifted from the stored row.
func (t *treeTx) checkPosition(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	stored, err := t.load(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	if !stored.SamePosition(task) {
		return nil, domain.NewModelError(domain.ErrPathUpdateDetected,
			"task %s moved from %s to %s, reload it and retry", task.Code, task.FullPath(), stored.FullPath())
	}
	return stored, nil
}

// load fetches a task by id, mapping a missing row to UNKNOWN_TASK.
func (t *treeTx) load(ctx context.Context, id string) (*domain.Task, error) {
	task, err := t.tasks.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, domain.NewModelError(domain.ErrUnknownTask, "task %s does not exist", id)
	}
	return task, err
}

// resolveParent returns the parent task and the path its children carry.
// A nil id designates the root level.
func (t *treeTx) resolveParent(ctx context.Context, parentID *string) (*domain.Task, string, error) {
	if parentID == nil {
		return nil, "", nil
	}
	parent, err := t.load(ctx, *parentID)
	if err != nil {
		return nil, "", err
	}
	return parent, parent.FullPath(), nil
}

// acceptsSubtasks fails when parent holds amounts or is a leaf with
// contributions of its own. A task that already has children always accepts
// another one.
func (t *treeTx) acceptsSubtasks(ctx context.Context, parent *domain.Task) error {
	if parent == nil {
		return nil
	}
	if parent.HasAmounts() {
		return domain.NewModelError(domain.ErrTaskWithAmountsCannotAcceptSubtasks,
			"task %s has budget, initially consumed or todo set and cannot accept sub-tasks", parent.Code)
	}
	children, err := t.tasks.CountChildren(ctx, parent.FullPath())
	if err != nil {
		return err
	}
	if children > 0 {
		return nil
	}
	sums, err := t.contribs.Sum(ctx, repository.ContributionFilter{TaskID: &parent.ID})
	if err != nil {
		return err
	}
	if sums.ContributionsCount > 0 {
		return domain.NewModelError(domain.ErrTaskUsedByContributions,
			"task %s is used by %d contributions and cannot accept sub-tasks", parent.Code, sums.ContributionsCount)
	}
	return nil
}

// checkCodeFree fails when a sibling under path other than selfID already
// uses code.
func (t *treeTx) checkCodeFree(ctx context.Context, path, code, selfID string) error {
	other, err := t.tasks.GetByPathAndCode(ctx, path, code)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID == selfID:
		return nil
	}
	return domain.NewModelError(domain.ErrTaskCodeAlreadyInUse, "code %s is already used by task %s", code, other.Name)
}

// nextNumber returns the number a new child of path receives.
func (t *treeTx) nextNumber(ctx context.Context, path string) (int, error) {
	maxNumber, err := t.tasks.MaxNumber(ctx, path)
	if err != nil {
		return 0, err
	}
	if maxNumber >= domain.MaxSiblings {
		return 0, domain.NewModelError(domain.ErrTooManySubtasks,
			"a task cannot have more than %d sub-tasks", domain.MaxSiblings)
	}
	return maxNumber + 1, nil
}

// setNumber moves task to another number under the same parent and rewrites
// the paths of its descendants.
func (t *treeTx) setNumber(ctx context.Context, task *domain.Task, number int) error {
	oldFull := task.FullPath()
	if err := t.tasks.UpdatePosition(ctx, task.ID, task.Path, number); err != nil {
		return err
	}
	if _, err := t.tasks.RebaseSubtree(ctx, oldFull, domain.FullPath(task.Path, number)); err != nil {
		return err
	}
	task.Number = number
	return nil
}

// swap exchanges the numbers of two siblings. a is parked in slot 00 first so
// no two siblings ever share a number.
func (t *treeTx) swap(ctx context.Context, a, b *domain.Task) error {
	if a.Path != b.Path {
		return fmt.Errorf("swapping %s and %s: not siblings", a.FullPath(), b.FullPath())
	}
	na, nb := a.Number, b.Number
	if err := t.setNumber(ctx, a, domain.ParkingNumber); err != nil {
		return err
	}
	if err := t.setNumber(ctx, b, na); err != nil {
		return err
	}
	return t.setNumber(ctx, a, nb)
}

// step swaps task with its sibling at number+delta.
func (t *treeTx) step(ctx context.Context, task *domain.Task, delta int) error {
	sibling, err := t.tasks.GetByPathAndNumber(ctx, task.Path, task.Number+delta)
	if errors.Is(err, repository.ErrNotFound) {
		return domain.NewModelError(domain.ErrCannotMove, "task %s has no sibling at number %d", task.Code, task.Number+delta)
	}
	if err != nil {
		return err
	}
	return t.swap(ctx, task, sibling)
}

// renumber closes the gaps among the children of path so their numbers run
// 1..N again, preserving order.
func (t *treeTx) renumber(ctx context.Context, path string) error {
	children, err := t.tasks.ListChildren(ctx, path)
	if err != nil {
		return err
	}
	for i, child := range children {
		if child.Number == i+1 {
			continue
		}
		if err := t.setNumber(ctx, child, i+1); err != nil {
			return fmt.Errorf("renumbering %s: %w", child.FullPath(), err)
		}
	}
	return nil
}
