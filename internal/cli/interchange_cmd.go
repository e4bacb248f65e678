package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alexanderramin/timetree/internal/interchange"
	"github.com/spf13/cobra"
)

func (app *App) interchangeServices() interchange.Services {
	return interchange.Services{
		Tasks:         app.Tasks,
		Contributions: app.Contributions,
		Durations:     app.Durations,
		Collaborators: app.Collaborators,
	}
}

// withOutput calls fn with the file at path, or stdout for "-".
func withOutput(cmd *cobra.Command, path string, fn func(w io.Writer) error) error {
	if path == "-" {
		return fn(cmd.OutOrStdout())
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// withInput calls fn with the file at path, or stdin for "-".
func withInput(cmd *cobra.Command, path string, fn func(r io.Reader) error) error {
	if path == "-" {
		return fn(cmd.InOrStdin())
	}
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return fn(f)
}

func newExportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the database or a task subtree to a file",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "model FILE",
			Short: "Export durations, collaborators, tasks and contributions as XML (- for stdout)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				m, err := interchange.ExportModel(context.Background(), app.interchangeServices())
				if err != nil {
					return err
				}
				return withOutput(cmd, args[0], func(w io.Writer) error {
					return interchange.WriteModel(w, m)
				})
			},
		},
		newExportTasksCmd(app),
	)

	return cmd
}

func newExportTasksCmd(app *App) *cobra.Command {
	var root string

	cmd := &cobra.Command{
		Use:   "tasks FILE",
		Short: "Export a task subtree as a CSV sheet (- for stdout)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			rootID, err := resolveTaskID(ctx, app, root)
			if err != nil {
				return err
			}
			return withOutput(cmd, args[0], func(w io.Writer) error {
				return interchange.ExportTasksCSV(ctx, app.Tasks, rootID, w)
			})
		},
	}

	cmd.Flags().StringVar(&root, "root", "", "Only the tasks below this one (code path or ID)")

	return cmd
}

func newImportCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load a model document or a task sheet",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "model FILE",
			Short: "Import an XML model document (- for stdin)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				var m *interchange.Model
				var err error
				if args[0] == "-" {
					m, err = interchange.ReadModel(cmd.InOrStdin())
				} else {
					m, err = interchange.LoadModel(args[0])
				}
				if err != nil {
					return err
				}
				res, err := interchange.ImportModel(context.Background(), app.interchangeServices(), m)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d durations, %d collaborators, %d tasks, %d contributions\n",
					res.Durations, res.Collaborators, res.Tasks, res.Contributions)
				return nil
			},
		},
		newImportTasksCmd(app),
	)

	return cmd
}

func newImportTasksCmd(app *App) *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "tasks FILE",
		Short: "Create tasks from a CSV sheet (- for stdin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			parentID, err := resolveTaskID(ctx, app, parent)
			if err != nil {
				return err
			}
			return withInput(cmd, args[0], func(r io.Reader) error {
				n, err := interchange.ImportTasksCSV(ctx, app.Tasks, parentID, r)
				if err != nil {
					return fmt.Errorf("imported %d tasks before failing: %w", n, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tasks\n", n)
				return nil
			})
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Create the sheet below this task (code path or ID)")

	return cmd
}
