package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/timetree/internal/cli/formatter"
	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
	"github.com/spf13/cobra"
)

func newContribCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "contrib",
		Aliases: []string{"log"},
		Short:   "Log and manage time contributions",
	}

	cmd.AddCommand(
		newContribAddCmd(app),
		newContribListCmd(app),
		newContribUpdateCmd(app),
		newContribMoveCmd(app),
		newContribRemoveCmd(app),
	)

	return cmd
}

// contribKey collects the flags identifying one ledger entry.
type contribKey struct {
	login string
	task  string
	date  dateFlag
}

func (k *contribKey) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&k.login, "login", "", "Collaborator login")
	cmd.Flags().StringVar(&k.task, "task", "", "Leaf task (code path or ID)")
	cmd.Flags().Var(&k.date, "date", "Day of the contribution (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("login")
	_ = cmd.MarkFlagRequired("task")
	_ = cmd.MarkFlagRequired("date")
}

func (k *contribKey) resolve(ctx context.Context, app *App) (*domain.Contribution, *domain.Task, error) {
	collaborator, err := resolveCollaborator(ctx, app, k.login)
	if err != nil {
		return nil, nil, err
	}
	task, err := resolveTask(ctx, app, k.task)
	if err != nil {
		return nil, nil, err
	}
	return &domain.Contribution{
		ContributorID: collaborator.ID,
		TaskID:        task.ID,
		Date:          domain.Day(*k.date.Ptr()),
	}, task, nil
}

func newContribAddCmd(app *App) *cobra.Command {
	var key contribKey
	var duration amountFlag
	var keepEtc bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Log time on a leaf task",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c, task, err := key.resolve(ctx, app)
			if err != nil {
				return err
			}
			c.DurationID = duration.value
			if err := app.Contributions.Create(ctx, c, !keepEtc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged %s on %s for %s\n",
				domain.FormatAmount(c.DurationID), task.Code, c.Date.Format(domain.DateLayout))
			return nil
		},
	}

	key.register(cmd)
	cmd.Flags().Var(&duration, "duration", "Logged amount; must be in the duration catalog")
	cmd.Flags().BoolVar(&keepEtc, "keep-etc", false, "Leave the task's todo untouched")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}

func newContribListCmd(app *App) *cobra.Command {
	var login, task string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List contributions, optionally by collaborator, subtree and window",
	}
	from, to := windowFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		filter := repository.ContributionFilter{From: from.Ptr(), To: to.Ptr()}
		if login != "" {
			c, err := resolveCollaborator(ctx, app, login)
			if err != nil {
				return err
			}
			filter.ContributorID = &c.ID
		}
		if task != "" {
			t, err := resolveTask(ctx, app, task)
			if err != nil {
				return err
			}
			full := t.FullPath()
			filter.SubtreeOf = &full
		}

		contribs, err := app.Contributions.List(ctx, filter)
		if err != nil {
			return err
		}
		labels, err := contributionLabels(ctx, app, contribs)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatContributions(contribs, labels))
		return nil
	}

	cmd.Flags().StringVar(&login, "login", "", "Only this collaborator")
	cmd.Flags().StringVar(&task, "task", "", "Only this task and its subtree")

	return cmd
}

// contributionLabels resolves code paths and logins for display.
func contributionLabels(ctx context.Context, app *App, contribs []*domain.Contribution) (formatter.ContributionLabels, error) {
	labels := formatter.ContributionLabels{Tasks: map[string]string{}, Collaborators: map[string]string{}}

	collaborators, err := app.Collaborators.List(ctx, false)
	if err != nil {
		return labels, err
	}
	for _, c := range collaborators {
		labels.Collaborators[c.ID] = c.Login
	}

	for _, c := range contribs {
		if _, ok := labels.Tasks[c.TaskID]; ok {
			continue
		}
		task, err := app.Tasks.GetByID(ctx, c.TaskID)
		if err != nil {
			return labels, err
		}
		codePath, err := app.Tasks.CodePath(ctx, task)
		if err != nil {
			return labels, err
		}
		labels.Tasks[c.TaskID] = codePath
	}
	return labels, nil
}

func newContribUpdateCmd(app *App) *cobra.Command {
	var key contribKey
	var duration amountFlag
	var keepEtc bool

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change the logged amount of a contribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c, task, err := key.resolve(ctx, app)
			if err != nil {
				return err
			}
			c.DurationID = duration.value
			if err := app.Contributions.Update(ctx, c, !keepEtc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Contribution on %s now %s\n", task.Code, domain.FormatAmount(c.DurationID))
			return nil
		},
	}

	key.register(cmd)
	cmd.Flags().Var(&duration, "duration", "New logged amount")
	cmd.Flags().BoolVar(&keepEtc, "keep-etc", false, "Leave the task's todo untouched")
	_ = cmd.MarkFlagRequired("duration")

	return cmd
}

func newContribMoveCmd(app *App) *cobra.Command {
	var key contribKey
	var to string

	cmd := &cobra.Command{
		Use:   "move",
		Short: "Reassign a contribution to another leaf task",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c, _, err := key.resolve(ctx, app)
			if err != nil {
				return err
			}
			target, err := resolveTask(ctx, app, to)
			if err != nil {
				return err
			}
			if _, err := app.Contributions.ChangeTask(ctx, c, target.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Contribution moved to %s\n", target.Code)
			return nil
		},
	}

	key.register(cmd)
	cmd.Flags().StringVar(&to, "to", "", "Target leaf task (code path or ID)")
	_ = cmd.MarkFlagRequired("to")

	return cmd
}

func newContribRemoveCmd(app *App) *cobra.Command {
	var key contribKey
	var keepEtc bool

	cmd := &cobra.Command{
		Use:   "rm",
		Short: "Remove a contribution",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c, task, err := key.resolve(ctx, app)
			if err != nil {
				return err
			}
			if err := app.Contributions.Remove(ctx, c, !keepEtc); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed contribution on %s for %s\n", task.Code, c.Date.Format(domain.DateLayout))
			return nil
		},
	}

	key.register(cmd)
	cmd.Flags().BoolVar(&keepEtc, "keep-etc", false, "Leave the task's todo untouched")

	return cmd
}
