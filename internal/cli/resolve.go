package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/google/uuid"
)

// resolveTask resolves a task reference which can be:
//   - A task UUID
//   - A code path such as "/DEV/API" or "DEV/API"
func resolveTask(ctx context.Context, app *App, input string) (*domain.Task, error) {
	if input == "" {
		return nil, fmt.Errorf("task reference is required")
	}
	if _, err := uuid.Parse(input); err == nil {
		task, err := app.Tasks.GetByID(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", input, err)
		}
		return task, nil
	}
	task, err := app.Tasks.GetByCodePath(ctx, nil, input)
	if err != nil {
		return nil, fmt.Errorf("task %q not found: %w", input, err)
	}
	return task, nil
}

// resolveTaskID is resolveTask for optional references; "" means the root
// level and yields nil.
func resolveTaskID(ctx context.Context, app *App, input string) (*string, error) {
	if input == "" {
		return nil, nil
	}
	task, err := resolveTask(ctx, app, input)
	if err != nil {
		return nil, err
	}
	return &task.ID, nil
}

// resolveCollaborator accepts a login or a collaborator UUID.
func resolveCollaborator(ctx context.Context, app *App, input string) (*domain.Collaborator, error) {
	if input == "" {
		return nil, fmt.Errorf("collaborator login is required")
	}
	if _, err := uuid.Parse(input); err == nil {
		return app.Collaborators.GetByID(ctx, input)
	}
	c, err := app.Collaborators.GetByLogin(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("collaborator %q not found: %w", input, err)
	}
	return c, nil
}
