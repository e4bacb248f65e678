package cli

import (
	"github.com/alexanderramin/timetree/internal/config"
	"github.com/alexanderramin/timetree/internal/service"
	"github.com/spf13/cobra"
)

// App holds references to all service interfaces used by CLI commands.
type App struct {
	Tasks         service.TaskService
	Contributions service.ContributionService
	Sums          service.SumsService
	Planner       service.ReportPlanner
	Reports       service.ReportService
	Durations     service.DurationService
	Collaborators service.CollaboratorService

	Config config.Config
}

// NewRootCmd creates the top-level "timetree" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "timetree",
		Short:         "Hierarchical task budgets and time tracking",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newTaskCmd(app),
		newContribCmd(app),
		newSumsCmd(app),
		newReportCmd(app),
		newDurationCmd(app),
		newCollaboratorCmd(app),
		newExportCmd(app),
		newImportCmd(app),
		newServeCmd(app),
	)

	return root
}
