package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/alexanderramin/timetree/internal/db"
	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
	"github.com/google/uuid"
)

type durationService struct {
	durations repository.DurationRepo
	uow       db.UnitOfWork
	observer  UseCaseObserver
}

func NewDurationService(durations repository.DurationRepo, uow db.UnitOfWork, observers ...UseCaseObserver) DurationService {
	return &durationService{durations: durations, uow: uow, observer: useCaseObserverOrNoop(observers)}
}

func (s *durationService) Create(ctx context.Context, d *domain.Duration) (err error) {
	startedAt := time.Now().UTC()
	defer observe(ctx, s.observer, "create-duration", startedAt, map[string]any{"duration": d.ID}, &err)

	if d.ID <= 0 {
		return domain.NewModelError(domain.ErrInvalidDuration, "duration must be positive, got %s", domain.FormatAmount(d.ID))
	}
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		durations := repository.NewSQLiteDurationRepo(tx)
		_, err := durations.GetByID(ctx, d.ID)
		if err == nil {
			return domain.NewModelError(domain.ErrDurationAlreadyExists, "duration %s already exists", domain.FormatAmount(d.ID))
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		return durations.Create(ctx, d)
	})
}

func (s *durationService) List(ctx context.Context, activeOnly bool) ([]*domain.Duration, error) {
	return s.durations.List(ctx, activeOnly)
}

func (s *durationService) SetActive(ctx context.Context, id int64, active bool) error {
	return s.durations.SetActive(ctx, id, active)
}

func (s *durationService) Remove(ctx context.Context, id int64) (err error) {
	startedAt := time.Now().UTC()
	defer observe(ctx, s.observer, "remove-duration", startedAt, map[string]any{"duration": id}, &err)

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sums, err := repository.NewSQLiteContributionRepo(tx).Sum(ctx, repository.ContributionFilter{DurationID: &id})
		if err != nil {
			return err
		}
		if sums.ContributionsCount > 0 {
			return domain.NewModelError(domain.ErrDurationInUse,
				"duration %s is used by %d contributions", domain.FormatAmount(id), sums.ContributionsCount)
		}
		return repository.NewSQLiteDurationRepo(tx).Delete(ctx, id)
	})
}

type collaboratorService struct {
	collaborators repository.CollaboratorRepo
	uow           db.UnitOfWork
	observer      UseCaseObserver
}

func NewCollaboratorService(collaborators repository.CollaboratorRepo, uow db.UnitOfWork, observers ...UseCaseObserver) CollaboratorService {
	return &collaboratorService{collaborators: collaborators, uow: uow, observer: useCaseObserverOrNoop(observers)}
}

func (s *collaboratorService) Create(ctx context.Context, c *domain.Collaborator) (err error) {
	startedAt := time.Now().UTC()
	defer observe(ctx, s.observer, "create-collaborator", startedAt, map[string]any{"login": c.Login}, &err)

	c.Login = strings.TrimSpace(c.Login)
	if c.Login == "" {
		return domain.NewModelError(domain.ErrLoginRequired, "login is required")
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	c.CreatedAt, c.UpdatedAt = now, now
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		collaborators := repository.NewSQLiteCollaboratorRepo(tx)
		if err := checkLoginFree(ctx, collaborators, c.Login, c.ID); err != nil {
			return err
		}
		return collaborators.Create(ctx, c)
	})
}

func (s *collaboratorService) Update(ctx context.Context, c *domain.Collaborator) (err error) {
	startedAt := time.Now().UTC()
	defer observe(ctx, s.observer, "update-collaborator", startedAt, map[string]any{"collaborator_id": c.ID}, &err)

	c.Login = strings.TrimSpace(c.Login)
	if c.Login == "" {
		return domain.NewModelError(domain.ErrLoginRequired, "login is required")
	}
	c.UpdatedAt = time.Now().UTC()
	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		collaborators := repository.NewSQLiteCollaboratorRepo(tx)
		if err := checkLoginFree(ctx, collaborators, c.Login, c.ID); err != nil {
			return err
		}
		return collaborators.Update(ctx, c)
	})
}

func checkLoginFree(ctx context.Context, collaborators repository.CollaboratorRepo, login, selfID string) error {
	other, err := collaborators.GetByLogin(ctx, login)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return nil
	case err != nil:
		return err
	case other.ID == selfID:
		return nil
	}
	return domain.NewModelError(domain.ErrLoginAlreadyInUse, "login %s is already in use", login)
}

func (s *collaboratorService) GetByID(ctx context.Context, id string) (*domain.Collaborator, error) {
	return s.collaborators.GetByID(ctx, id)
}

func (s *collaboratorService) GetByLogin(ctx context.Context, login string) (*domain.Collaborator, error) {
	return s.collaborators.GetByLogin(ctx, login)
}

func (s *collaboratorService) List(ctx context.Context, activeOnly bool) ([]*domain.Collaborator, error) {
	return s.collaborators.List(ctx, activeOnly)
}

func (s *collaboratorService) Remove(ctx context.Context, id string) (err error) {
	startedAt := time.Now().UTC()
	defer observe(ctx, s.observer, "remove-collaborator", startedAt, map[string]any{"collaborator_id": id}, &err)

	return s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		sums, err := repository.NewSQLiteContributionRepo(tx).Sum(ctx, repository.ContributionFilter{ContributorID: &id})
		if err != nil {
			return err
		}
		if sums.ContributionsCount > 0 {
			return domain.NewModelError(domain.ErrCollaboratorHasContributions,
				"collaborator has %d contributions and cannot be removed", sums.ContributionsCount)
		}
		return repository.NewSQLiteCollaboratorRepo(tx).Delete(ctx, id)
	})
}
