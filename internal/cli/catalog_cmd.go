package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/timetree/internal/cli/formatter"
	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/spf13/cobra"
)

func newDurationCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "duration",
		Short: "Manage the catalog of loggable durations",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "add VALUE",
			Short: "Add a duration to the catalog",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := domain.ParseAmount(args[0])
				if err != nil {
					return err
				}
				if err := app.Durations.Create(context.Background(), &domain.Duration{ID: value, IsActive: true}); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added duration %s\n", domain.FormatAmount(value))
				return nil
			},
		},
		newDurationListCmd(app),
		newDurationToggleCmd(app, "enable", true),
		newDurationToggleCmd(app, "disable", false),
		&cobra.Command{
			Use:   "rm VALUE",
			Short: "Remove a duration no contribution uses",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				value, err := domain.ParseAmount(args[0])
				if err != nil {
					return err
				}
				if err := app.Durations.Remove(context.Background(), value); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed duration %s\n", domain.FormatAmount(value))
				return nil
			},
		},
	)

	return cmd
}

func newDurationListCmd(app *App) *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List durations",
		RunE: func(cmd *cobra.Command, args []string) error {
			durations, err := app.Durations.List(context.Background(), activeOnly)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatDurations(durations))
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only active durations")

	return cmd
}

func newDurationToggleCmd(app *App, use string, active bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " VALUE",
		Short: fmt.Sprintf("%s a duration for new contributions", use),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			value, err := domain.ParseAmount(args[0])
			if err != nil {
				return err
			}
			if err := app.Durations.SetActive(context.Background(), value, active); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Duration %s %sd\n", domain.FormatAmount(value), use)
			return nil
		},
	}
}

func newCollaboratorCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "collaborator",
		Aliases: []string{"collab"},
		Short:   "Manage collaborators",
	}

	cmd.AddCommand(
		newCollaboratorAddCmd(app),
		newCollaboratorListCmd(app),
		newCollaboratorUpdateCmd(app),
		&cobra.Command{
			Use:   "rm LOGIN",
			Short: "Remove a collaborator without contributions",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx := context.Background()
				c, err := resolveCollaborator(ctx, app, args[0])
				if err != nil {
					return err
				}
				if err := app.Collaborators.Remove(ctx, c.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed collaborator %s\n", c.Login)
				return nil
			},
		},
	)

	return cmd
}

func newCollaboratorAddCmd(app *App) *cobra.Command {
	var firstName, lastName string

	cmd := &cobra.Command{
		Use:   "add LOGIN",
		Short: "Add a collaborator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := &domain.Collaborator{
				Login:     args[0],
				FirstName: firstName,
				LastName:  lastName,
				IsActive:  true,
			}
			if err := app.Collaborators.Create(context.Background(), c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added collaborator %s (%s)\n", c.Login, c.DisplayName())
			return nil
		},
	}

	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")

	return cmd
}

func newCollaboratorListCmd(app *App) *cobra.Command {
	var activeOnly bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List collaborators",
		RunE: func(cmd *cobra.Command, args []string) error {
			collaborators, err := app.Collaborators.List(context.Background(), activeOnly)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatCollaborators(collaborators))
			return nil
		},
	}

	cmd.Flags().BoolVar(&activeOnly, "active", false, "Only active collaborators")

	return cmd
}

func newCollaboratorUpdateCmd(app *App) *cobra.Command {
	var login, firstName, lastName string
	var active, inactive bool

	cmd := &cobra.Command{
		Use:   "update LOGIN",
		Short: "Edit a collaborator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			c, err := resolveCollaborator(ctx, app, args[0])
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("login") {
				c.Login = login
			}
			if cmd.Flags().Changed("first-name") {
				c.FirstName = firstName
			}
			if cmd.Flags().Changed("last-name") {
				c.LastName = lastName
			}
			switch {
			case active:
				c.IsActive = true
			case inactive:
				c.IsActive = false
			}
			if err := app.Collaborators.Update(ctx, c); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated collaborator %s\n", c.Login)
			return nil
		},
	}

	cmd.Flags().StringVar(&login, "login", "", "New login")
	cmd.Flags().StringVar(&firstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "Last name")
	cmd.Flags().BoolVar(&active, "activate", false, "Allow new contributions")
	cmd.Flags().BoolVar(&inactive, "deactivate", false, "Refuse new contributions")
	cmd.MarkFlagsMutuallyExclusive("activate", "deactivate")

	return cmd
}
