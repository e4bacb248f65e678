package main

import (
	"fmt"
	"os"

	"github.com/alexanderramin/timetree/internal/cli"
	"github.com/alexanderramin/timetree/internal/config"
	"github.com/alexanderramin/timetree/internal/db"
	"github.com/alexanderramin/timetree/internal/repository"
	"github.com/alexanderramin/timetree/internal/service"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(config.DefaultPath())
	if err != nil {
		return err
	}

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Wire repositories
	taskRepo := repository.NewSQLiteTaskRepo(database)
	contribRepo := repository.NewSQLiteContributionRepo(database)
	durationRepo := repository.NewSQLiteDurationRepo(database)
	collaboratorRepo := repository.NewSQLiteCollaboratorRepo(database)

	// Wire unit of work and the lock serializing tree mutations
	uow := db.NewSQLiteUnitOfWork(database)
	lock := service.NewTreeLock()

	var observer service.UseCaseObserver = service.NoopUseCaseObserver{}
	if cfg.LogUseCases {
		observer = service.NewLogUseCaseObserver(os.Stderr)
	}

	planner := service.NewReportPlanner(taskRepo, contribRepo)
	app := &cli.App{
		Tasks:         service.NewTaskService(taskRepo, uow, lock, observer),
		Contributions: service.NewContributionService(contribRepo, uow, lock, observer),
		Sums:          service.NewSumsService(uow),
		Planner:       planner,
		Reports:       service.NewReportService(uow),
		Durations:     service.NewDurationService(durationRepo, uow, observer),
		Collaborators: service.NewCollaboratorService(collaboratorRepo, uow, observer),
		Config:        cfg,
	}

	// Plain output when piped, so exports and reports stay free of escapes.
	if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
		lipgloss.SetColorProfile(termenv.Ascii)
	}

	rootCmd := cli.NewRootCmd(app)
	return rootCmd.Execute()
}
