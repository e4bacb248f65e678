package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
	"github.com/alexanderramin/timetree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testEnv wires every service against one in-memory database.
type testEnv struct {
	db            *sql.DB
	taskRepo      *repository.SQLiteTaskRepo
	contribRepo   *repository.SQLiteContributionRepo
	tasks         TaskService
	contributions ContributionService
	sums          SumsService
	durations     DurationService
	collaborators CollaboratorService
	planner       ReportPlanner
	reports       ReportService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	lock := NewTreeLock()
	taskRepo := repository.NewSQLiteTaskRepo(database)
	contribRepo := repository.NewSQLiteContributionRepo(database)
	planner := NewReportPlanner(taskRepo, contribRepo)
	return &testEnv{
		db:            database,
		taskRepo:      taskRepo,
		contribRepo:   contribRepo,
		tasks:         NewTaskService(taskRepo, uow, lock),
		contributions: NewContributionService(contribRepo, uow, lock),
		sums:          NewSumsService(uow),
		durations:     NewDurationService(repository.NewSQLiteDurationRepo(database), uow),
		collaborators: NewCollaboratorService(repository.NewSQLiteCollaboratorRepo(database), uow),
		planner:       planner,
		reports:       NewReportService(uow),
	}
}

// addTask creates a task named code under parent (root level when nil).
func (e *testEnv) addTask(t *testing.T, parent *domain.Task, code string, opts ...testutil.TaskOption) *domain.Task {
	t.Helper()
	var parentID *string
	if parent != nil {
		parentID = &parent.ID
	}
	draft := testutil.NewTestTask(code, opts...)
	draft.ID = ""
	task, err := e.tasks.CreateTask(context.Background(), parentID, draft)
	require.NoError(t, err)
	return task
}

// reload fetches the stored copy of task.
func (e *testEnv) reload(t *testing.T, task *domain.Task) *domain.Task {
	t.Helper()
	fresh, err := e.taskRepo.GetByID(context.Background(), task.ID)
	require.NoError(t, err)
	return fresh
}

func (e *testEnv) addCollaborator(t *testing.T, login string) *domain.Collaborator {
	t.Helper()
	c := testutil.NewTestCollaborator(login, "Test", testutil.WithLogin(login))
	c.ID = ""
	require.NoError(t, e.collaborators.Create(context.Background(), c))
	return c
}

func (e *testEnv) addDurations(t *testing.T, hundredths ...int64) {
	t.Helper()
	for _, h := range hundredths {
		require.NoError(t, e.durations.Create(context.Background(), testutil.NewTestDuration(h)))
	}
}

func (e *testEnv) logTime(t *testing.T, who *domain.Collaborator, task *domain.Task, day time.Time, h int64) {
	t.Helper()
	c := testutil.NewTestContribution(who.ID, task.ID, day, h)
	require.NoError(t, e.contributions.Create(context.Background(), c, false))
}

// assertTreeInvariants checks every stored task: siblings are numbered 1..N,
// every non-root path names an existing parent, and containers hold neither
// amounts nor contributions.
func (e *testEnv) assertTreeInvariants(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	all, err := e.taskRepo.Select(ctx, repository.TaskFilter{})
	require.NoError(t, err)

	byFullPath := make(map[string]*domain.Task, len(all))
	children := make(map[string][]int)
	for _, task := range all {
		_, dup := byFullPath[task.FullPath()]
		require.False(t, dup, "duplicate full path %s", task.FullPath())
		byFullPath[task.FullPath()] = task
		children[task.Path] = append(children[task.Path], task.Number)
	}

	for path, numbers := range children {
		for i, n := range numbers {
			assert.Equal(t, i+1, n, "children of %q are not numbered 1..N: %v", path, numbers)
		}
		if path == "" {
			continue
		}
		parent, ok := byFullPath[path]
		if !assert.True(t, ok, "path %s has no parent task", path) {
			continue
		}
		assert.False(t, parent.HasAmounts(), "container %s holds amounts", parent.Code)
		own, err := e.contribRepo.Sum(ctx, repository.ContributionFilter{TaskID: &parent.ID})
		require.NoError(t, err)
		assert.Zero(t, own.ContributionsCount, "container %s holds contributions", parent.Code)
	}
}
