package cli

import (
	"context"
	"fmt"

	"github.com/alexanderramin/timetree/internal/cli/formatter"
	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/interchange"
	"github.com/alexanderramin/timetree/internal/service"
	"github.com/spf13/cobra"
)

func newSumsCmd(app *App) *cobra.Command {
	var subtree bool

	cmd := &cobra.Command{
		Use:   "sums [PARENT]",
		Short: "Show budget, consumed, todo and delta per task",
		Long: `Show subtree sums for the children of PARENT, or the root-level tasks.
With --subtree every task below PARENT gets its own row.
--from and --to restrict consumed to a window; earlier contributions count
as initially consumed.`,
		Args: cobra.MaximumNArgs(1),
	}
	from, to := windowFlags(cmd.Flags())

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		title := "Sums"
		var parent *domain.Task
		if len(args) == 1 {
			t, err := resolveTask(ctx, app, args[0])
			if err != nil {
				return err
			}
			parent, title = t, t.Code
		}

		var sums []*domain.TaskSums
		var err error
		switch {
		case subtree:
			prefix := ""
			if parent != nil {
				prefix = parent.FullPath()
			}
			sums, err = app.Sums.GetSubtreeSums(ctx, prefix, from.Ptr(), to.Ptr())
		case parent != nil:
			sums, err = app.Sums.GetSubTasksSums(ctx, &parent.ID, from.Ptr(), to.Ptr())
		default:
			sums, err = app.Sums.GetSubTasksSums(ctx, nil, from.Ptr(), to.Ptr())
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatSums(title, sums))
		return nil
	}

	cmd.Flags().BoolVar(&subtree, "subtree", false, "One row per task of the whole subtree")

	return cmd
}

func newReportCmd(app *App) *cobra.Command {
	var unit, root string
	var count int
	var planOnly, csvOut bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Consumed time per task and interval",
		Long: `Build a grid of consumed time: one row per child of --root (or per
root-level task), one column per interval. Start and count default to the
span of the ledger.`,
		Args: cobra.NoArgs,
	}
	start := &dateFlag{}
	cmd.Flags().Var(start, "start", "First interval, snapped to the unit (YYYY-MM-DD)")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		u, err := domain.ParseIntervalUnit(unit)
		if err != nil {
			return err
		}
		rootID, err := resolveTaskID(ctx, app, root)
		if err != nil {
			return err
		}
		req := service.ReportRequest{
			Start:            start.Ptr(),
			Unit:             u,
			RootTaskID:       rootID,
			MaxIntervalCount: app.Config.ReportMaxColumns,
		}
		if cmd.Flags().Changed("count") {
			req.Count = &count
		}

		if planOnly {
			plan, err := app.Planner.Plan(ctx, req)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatReportPlan(plan))
			return nil
		}

		report, err := app.Reports.Build(ctx, req)
		if err != nil {
			return err
		}
		if csvOut {
			return interchange.WriteReportCSV(cmd.OutOrStdout(), report)
		}
		fmt.Fprintln(cmd.OutOrStdout(), formatter.FormatReport(report))
		return nil
	}

	cmd.Flags().StringVar(&unit, "unit", string(domain.IntervalMonth), "Interval unit: day, week, month or year")
	cmd.Flags().IntVar(&count, "count", 0, "Number of intervals")
	cmd.Flags().StringVar(&root, "root", "", "Report on the children of this task (code path or ID)")
	cmd.Flags().BoolVar(&planOnly, "plan", false, "Only print the interval grid")
	cmd.Flags().BoolVar(&csvOut, "csv", false, "Write CSV instead of a table")

	return cmd
}
