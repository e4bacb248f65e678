package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/alexanderramin/timetree/internal/cli/formatter"
	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
	"github.com/spf13/cobra"
)

func newTaskCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "task",
		Short: "Manage the task tree",
	}

	cmd.AddCommand(
		newTaskAddCmd(app),
		newTaskListCmd(app),
		newTaskTreeCmd(app),
		newTaskShowCmd(app),
		newTaskUpdateCmd(app),
		newTaskEtcCmd(app),
		newTaskUpCmd(app),
		newTaskDownCmd(app),
		newTaskRenumberCmd(app),
		newTaskMoveCmd(app),
		newTaskRemoveCmd(app),
	)

	return cmd
}

func newTaskAddCmd(app *App) *cobra.Command {
	var parent, name, comment string
	var closed bool
	var budget, initiallyConsumed, todo amountFlag

	cmd := &cobra.Command{
		Use:   "add CODE",
		Short: "Create a task, at the root level or under --parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			parentID, err := resolveTaskID(ctx, app, parent)
			if err != nil {
				return err
			}

			task, err := app.Tasks.CreateTask(ctx, parentID, &domain.Task{
				Code:              args[0],
				Name:              name,
				Comment:           comment,
				Budget:            budget.value,
				InitiallyConsumed: initiallyConsumed.value,
				Todo:              todo.value,
				Closed:            closed,
			})
			if err != nil {
				return err
			}

			codePath, err := app.Tasks.CodePath(ctx, task)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s (%s) [%s]\n", codePath, task.Name, task.FullPath())
			return nil
		},
	}

	cmd.Flags().StringVar(&parent, "parent", "", "Parent task (code path or ID)")
	cmd.Flags().StringVar(&name, "name", "", "Task name")
	cmd.Flags().StringVar(&comment, "comment", "", "Free-form comment")
	cmd.Flags().Var(&budget, "budget", "Budget in time units (e.g. 12.5)")
	cmd.Flags().Var(&initiallyConsumed, "initially-consumed", "Time consumed before tracking started")
	cmd.Flags().Var(&todo, "todo", "Estimated time left")
	cmd.Flags().BoolVar(&closed, "closed", false, "Create the task closed")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newTaskListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list [PARENT]",
		Short: "List the direct children of a task, or the root-level tasks",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			var parentID *string
			if len(args) == 1 {
				id, err := resolveTaskID(ctx, app, args[0])
				if err != nil {
					return err
				}
				parentID = id
			}
			tasks, err := app.Tasks.ListChildren(ctx, parentID)
			if err != nil {
				return err
			}
			if len(tasks) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tasks found.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTaskList(tasks))
			return nil
		},
	}
}

func newTaskTreeCmd(app *App) *cobra.Command {
	var openOnly bool

	cmd := &cobra.Command{
		Use:   "tree [ROOT]",
		Short: "Show the task forest, or the subtree below ROOT",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			filter := repository.TaskFilter{OrderBy: repository.OrderByPosition}
			title := "Tasks"
			var root *domain.Task
			if len(args) == 1 {
				var err error
				root, err = resolveTask(ctx, app, args[0])
				if err != nil {
					return err
				}
				prefix := root.FullPath()
				filter.PathPrefix = &prefix
				title = root.Code
			}
			if openOnly {
				open := false
				filter.Closed = &open
			}
			tasks, err := app.Tasks.Select(ctx, filter)
			if err != nil {
				return err
			}
			if root != nil {
				tasks = append([]*domain.Task{root}, tasks...)
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTaskTree(title, tasks))
			return nil
		},
	}

	cmd.Flags().BoolVar(&openOnly, "open", false, "Hide closed tasks")

	return cmd
}

func newTaskShowCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show TASK",
		Short: "Show a task with its subtree sums",
		Args:  cobra.ExactArgs(1),
	}
	from, to := windowFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		task, err := resolveTask(ctx, app, args[0])
		if err != nil {
			return err
		}
		codePath, err := app.Tasks.CodePath(ctx, task)
		if err != nil {
			return err
		}
		sums, err := app.Sums.GetTaskSums(ctx, task.ID, from.Ptr(), to.Ptr())
		if err != nil {
			return err
		}
		children, err := app.Tasks.ListChildren(ctx, &task.ID)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatTaskDetail(formatter.TaskDetailData{
			Task:     task,
			CodePath: codePath,
			Sums:     sums,
			Children: children,
		}))
		return nil
	}

	return cmd
}

func newTaskUpdateCmd(app *App) *cobra.Command {
	var code, name, comment string
	var closed, open bool
	var budget, initiallyConsumed, todo amountFlag

	cmd := &cobra.Command{
		Use:   "update TASK",
		Short: "Edit a task's code, name, comment, amounts or state",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			task, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}

			if cmd.Flags().Changed("code") {
				task.Code = code
			}
			if cmd.Flags().Changed("name") {
				task.Name = name
			}
			if cmd.Flags().Changed("comment") {
				task.Comment = comment
			}
			if cmd.Flags().Changed("budget") {
				task.Budget = budget.value
			}
			if cmd.Flags().Changed("initially-consumed") {
				task.InitiallyConsumed = initiallyConsumed.value
			}
			if cmd.Flags().Changed("todo") {
				task.Todo = todo.value
			}
			switch {
			case closed:
				task.Closed = true
			case open:
				task.Closed = false
			}

			updated, err := app.Tasks.UpdateTask(ctx, task)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s (%s)\n", updated.Code, updated.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&code, "code", "", "Task code, unique among siblings")
	cmd.Flags().StringVar(&name, "name", "", "Task name")
	cmd.Flags().StringVar(&comment, "comment", "", "Free-form comment")
	cmd.Flags().Var(&budget, "budget", "Budget in time units")
	cmd.Flags().Var(&initiallyConsumed, "initially-consumed", "Time consumed before tracking started")
	cmd.Flags().Var(&todo, "todo", "Estimated time left")
	cmd.Flags().BoolVar(&closed, "close", false, "Close the task")
	cmd.Flags().BoolVar(&open, "reopen", false, "Reopen the task")
	cmd.MarkFlagsMutuallyExclusive("close", "reopen")

	return cmd
}

func newTaskEtcCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "etc TASK TODO",
		Short: "Set the estimated time left on a leaf task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			task, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			todo, err := domain.ParseAmount(args[1])
			if err != nil {
				return err
			}
			updated, err := app.Tasks.UpdateEtc(ctx, task.ID, todo)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Todo of %s set to %s\n", updated.Code, domain.FormatAmount(updated.Todo))
			return nil
		},
	}
}

// newTaskMoveByCmd builds the commands that shift a task among its siblings.
func newTaskMoveByCmd(use, short string, move func(ctx context.Context, task *domain.Task) (*domain.Task, error), app *App) *cobra.Command {
	return &cobra.Command{
		Use:   use + " TASK",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			task, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			moved, err := move(ctx, task)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now number %d\n", moved.Code, moved.Number)
			return nil
		},
	}
}

func newTaskUpCmd(app *App) *cobra.Command {
	return newTaskMoveByCmd("up", "Swap a task with its previous sibling", func(ctx context.Context, task *domain.Task) (*domain.Task, error) {
		return app.Tasks.MoveUpTask(ctx, task)
	}, app)
}

func newTaskDownCmd(app *App) *cobra.Command {
	return newTaskMoveByCmd("down", "Swap a task with its next sibling", func(ctx context.Context, task *domain.Task) (*domain.Task, error) {
		return app.Tasks.MoveDownTask(ctx, task)
	}, app)
}

func newTaskRenumberCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "renumber-to TASK NUMBER",
		Short: "Move a task to another position among its siblings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			task, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			number, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid task number %q: %w", args[1], err)
			}
			moved, err := app.Tasks.MoveTaskUpOrDown(ctx, task, number)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now number %d\n", moved.Code, moved.Number)
			return nil
		},
	}
}

func newTaskMoveCmd(app *App) *cobra.Command {
	var to string
	var toRoot bool

	cmd := &cobra.Command{
		Use:   "move TASK",
		Short: "Move a task and its subtree under another parent",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if to == "" && !toRoot {
				return fmt.Errorf("one of --to or --root is required")
			}
			ctx := context.Background()
			task, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			parentID, err := resolveTaskID(ctx, app, to)
			if err != nil {
				return err
			}
			moved, err := app.Tasks.MoveTask(ctx, task, parentID)
			if err != nil {
				return err
			}
			codePath, err := app.Tasks.CodePath(ctx, moved)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Moved task to %s\n", codePath)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "", "New parent task (code path or ID)")
	cmd.Flags().BoolVar(&toRoot, "root", false, "Move to the root level")
	cmd.MarkFlagsMutuallyExclusive("to", "root")

	return cmd
}

func newTaskRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "rm TASK",
		Short: "Remove a task and its subtree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			task, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Tasks.RemoveTask(ctx, task); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed task %s\n", task.Code)
			return nil
		},
	}
}
