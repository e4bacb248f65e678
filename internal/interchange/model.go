package interchange

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
	"github.com/alexanderramin/timetree/internal/service"
)

// Services are the use cases the interchange formats read and write through.
type Services struct {
	Tasks         service.TaskService
	Contributions service.ContributionService
	Durations     service.DurationService
	Collaborators service.CollaboratorService
}

// ImportResult counts what ImportModel created.
type ImportResult struct {
	Durations     int
	Collaborators int
	Tasks         int
	Contributions int
}

// ExportModel snapshots the whole database as a model document.
func ExportModel(ctx context.Context, s Services) (*Model, error) {
	m := &Model{}

	durations, err := s.Durations.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("listing durations: %w", err)
	}
	for _, d := range durations {
		m.Durations = append(m.Durations, DurationXML{Value: domain.FormatAmount(d.ID), Active: d.IsActive})
	}

	collaborators, err := s.Collaborators.List(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("listing collaborators: %w", err)
	}
	logins := make(map[string]string, len(collaborators))
	for _, c := range collaborators {
		logins[c.ID] = c.Login
		m.Collaborators = append(m.Collaborators, CollaboratorXML{
			Login:     c.Login,
			FirstName: c.FirstName,
			LastName:  c.LastName,
			Active:    c.IsActive,
		})
	}

	codePaths := make(map[string]string)
	if m.Tasks, err = exportTasks(ctx, s.Tasks, nil, "", codePaths); err != nil {
		return nil, err
	}

	contributions, err := s.Contributions.List(ctx, repository.ContributionFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing contributions: %w", err)
	}
	for _, c := range contributions {
		m.Contributions = append(m.Contributions, ContributionXML{
			Login:    logins[c.ContributorID],
			Task:     codePaths[c.TaskID],
			Date:     c.Date.Format(domain.DateLayout),
			Duration: domain.FormatAmount(c.DurationID),
		})
	}
	return m, nil
}

func exportTasks(ctx context.Context, tasks service.TaskService, parentID *string, parentCodePath string, codePaths map[string]string) ([]TaskXML, error) {
	children, err := tasks.ListChildren(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("listing tasks under %q: %w", parentCodePath, err)
	}
	out := make([]TaskXML, 0, len(children))
	for _, t := range children {
		codePath := parentCodePath + "/" + t.Code
		codePaths[t.ID] = codePath
		sub, err := exportTasks(ctx, tasks, &t.ID, codePath, codePaths)
		if err != nil {
			return nil, err
		}
		out = append(out, TaskXML{
			Code:              t.Code,
			Name:              t.Name,
			Comment:           t.Comment,
			Budget:            amountText(t.Budget),
			InitiallyConsumed: amountText(t.InitiallyConsumed),
			Todo:              amountText(t.Todo),
			Closed:            t.Closed,
			Tasks:             sub,
		})
	}
	return out, nil
}

func amountText(h int64) string {
	if h == 0 {
		return ""
	}
	return domain.FormatAmount(h)
}

// ImportModel validates m and replays it through the services: catalogs,
// then tasks top-down, then the ledger. Closed tasks and inactive catalog
// entries are created open and switched off once the ledger is loaded, since
// the ledger guards refuse them. Root-level task codes must not already be
// in use.
func ImportModel(ctx context.Context, s Services, m *Model) (*ImportResult, error) {
	if errs := ValidateModel(m); len(errs) > 0 {
		return nil, fmt.Errorf("invalid model: %w", errors.Join(errs...))
	}
	res := &ImportResult{}

	var inactiveDurations []int64
	for _, d := range m.Durations {
		v, _ := domain.ParseAmount(d.Value)
		if err := s.Durations.Create(ctx, &domain.Duration{ID: v, IsActive: true}); err != nil {
			return res, fmt.Errorf("creating duration %s: %w", d.Value, err)
		}
		res.Durations++
		if !d.Active {
			inactiveDurations = append(inactiveDurations, v)
		}
	}

	byLogin := make(map[string]*domain.Collaborator, len(m.Collaborators))
	var inactive []*domain.Collaborator
	for _, cx := range m.Collaborators {
		c := &domain.Collaborator{
			Login:     strings.TrimSpace(cx.Login),
			FirstName: cx.FirstName,
			LastName:  cx.LastName,
			IsActive:  true,
		}
		if err := s.Collaborators.Create(ctx, c); err != nil {
			return res, fmt.Errorf("creating collaborator %s: %w", cx.Login, err)
		}
		res.Collaborators++
		byLogin[c.Login] = c
		if !cx.Active {
			inactive = append(inactive, c)
		}
	}

	ids := make(map[string]string)
	var closed []string
	if err := importTasks(ctx, s.Tasks, nil, "", m.Tasks, ids, &closed, res); err != nil {
		return res, err
	}

	for i, cx := range m.Contributions {
		day, _ := domain.ParseDay(cx.Date)
		v, _ := domain.ParseAmount(cx.Duration)
		c := &domain.Contribution{
			ContributorID: byLogin[strings.TrimSpace(cx.Login)].ID,
			TaskID:        ids[cx.Task],
			Date:          day,
			DurationID:    v,
		}
		if err := s.Contributions.Create(ctx, c, false); err != nil {
			return res, fmt.Errorf("contributions[%d]: %w", i, err)
		}
		res.Contributions++
	}

	for _, id := range closed {
		t, err := s.Tasks.GetByID(ctx, id)
		if err != nil {
			return res, err
		}
		t.Closed = true
		if _, err := s.Tasks.UpdateTask(ctx, t); err != nil {
			return res, fmt.Errorf("closing task %s: %w", t.Code, err)
		}
	}
	for _, c := range inactive {
		c.IsActive = false
		if err := s.Collaborators.Update(ctx, c); err != nil {
			return res, fmt.Errorf("deactivating collaborator %s: %w", c.Login, err)
		}
	}
	for _, v := range inactiveDurations {
		if err := s.Durations.SetActive(ctx, v, false); err != nil {
			return res, fmt.Errorf("deactivating duration %s: %w", domain.FormatAmount(v), err)
		}
	}
	return res, nil
}

func importTasks(ctx context.Context, tasks service.TaskService, parentID *string, parentCodePath string, list []TaskXML, ids map[string]string, closed *[]string, res *ImportResult) error {
	for _, tx := range list {
		draft := &domain.Task{
			Code:    strings.TrimSpace(tx.Code),
			Name:    tx.Name,
			Comment: tx.Comment,
		}
		draft.Budget, _ = domain.ParseAmount(tx.Budget)
		draft.InitiallyConsumed, _ = domain.ParseAmount(tx.InitiallyConsumed)
		draft.Todo, _ = domain.ParseAmount(tx.Todo)

		codePath := parentCodePath + "/" + draft.Code
		created, err := tasks.CreateTask(ctx, parentID, draft)
		if err != nil {
			return fmt.Errorf("creating task %s: %w", codePath, err)
		}
		res.Tasks++
		ids[codePath] = created.ID
		if tx.Closed {
			*closed = append(*closed, created.ID)
		}
		if err := importTasks(ctx, tasks, &created.ID, codePath, tx.Tasks, ids, closed, res); err != nil {
			return err
		}
	}
	return nil
}
