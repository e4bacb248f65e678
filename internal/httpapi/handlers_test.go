package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
	"github.com/alexanderramin/timetree/internal/service"
	"github.com/alexanderramin/timetree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type apiEnv struct {
	t       *testing.T
	handler *Handler
	server  http.Handler
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	lock := service.NewTreeLock()
	taskRepo := repository.NewSQLiteTaskRepo(database)
	contribRepo := repository.NewSQLiteContributionRepo(database)
	planner := service.NewReportPlanner(taskRepo, contribRepo)
	h := &Handler{
		Tasks:            service.NewTaskService(taskRepo, uow, lock),
		Contributions:    service.NewContributionService(contribRepo, uow, lock),
		Sums:             service.NewSumsService(uow),
		Planner:          planner,
		Reports:          service.NewReportService(uow),
		Durations:        service.NewDurationService(repository.NewSQLiteDurationRepo(database), uow),
		Collaborators:    service.NewCollaboratorService(repository.NewSQLiteCollaboratorRepo(database), uow),
		MaxReportColumns: 24,
	}
	return &apiEnv{t: t, handler: h, server: NewRouter(h, []string{"*"})}
}

// do sends a JSON request and decodes the response into out when non-nil.
func (e *apiEnv) do(method, target string, body any, out any) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	if out != nil {
		require.NoError(e.t, json.Unmarshal(rec.Body.Bytes(), out), rec.Body.String())
	}
	return rec
}

func (e *apiEnv) createTask(parentID *string, code string, budget string) TaskDTO {
	e.t.Helper()
	var dto TaskDTO
	rec := e.do(http.MethodPost, "/api/tasks", TaskRequest{ParentID: parentID, Code: code, Name: code, Budget: budget}, &dto)
	require.Equal(e.t, http.StatusCreated, rec.Code, rec.Body.String())
	return dto
}

func TestTaskEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	root := env.createTask(nil, "R", "")
	t1 := env.createTask(&root.ID, "T1", "")
	t2 := env.createTask(&root.ID, "T2", "2.5")
	assert.Equal(t, "0102", t2.FullPath)
	assert.Equal(t, "2.50", t2.Budget)

	var children []TaskDTO
	rec := env.do(http.MethodGet, "/api/tasks?parent="+root.ID, nil, &children)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, children, 2)

	var moved TaskDTO
	rec = env.do(http.MethodPost, "/api/tasks/"+t2.ID+"/move-up", MoveRequest{Path: &t2.Path, Number: &t2.Number}, &moved)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, moved.Number)

	// t1 still believes it is number 1.
	var errResp ErrorResponse
	rec = env.do(http.MethodPut, "/api/tasks/"+t1.ID, TaskRequest{Path: &t1.Path, Number: &t1.Number, Code: "T1", Name: "renamed"}, &errResp)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(domain.ErrPathUpdateDetected), errResp.Code)

	var fresh TaskDTO
	env.do(http.MethodGet, "/api/tasks/"+t1.ID, nil, &fresh)
	assert.Equal(t, 2, fresh.Number)
	rec = env.do(http.MethodPut, "/api/tasks/"+t1.ID, TaskRequest{Path: &fresh.Path, Number: &fresh.Number, Code: "T1", Name: "renamed"}, &fresh)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "renamed", fresh.Name)

	rec = env.do(http.MethodPost, "/api/tasks/"+t1.ID+"/move", MoveRequest{}, &moved)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "", moved.Path)
	assert.Equal(t, 2, moved.Number)

	rec = env.do(http.MethodDelete, "/api/tasks/"+moved.ID+"?path=&number=2", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(http.MethodGet, "/api/tasks/"+moved.ID, nil, &errResp)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTaskEndpoints_Errors(t *testing.T) {
	env := newAPIEnv(t)
	leaf := env.createTask(nil, "LEAF", "1")

	var errResp ErrorResponse
	rec := env.do(http.MethodPost, "/api/tasks", TaskRequest{ParentID: &leaf.ID, Code: "C", Name: "c"}, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(domain.ErrTaskWithAmountsCannotAcceptSubtasks), errResp.Code)

	rec = env.do(http.MethodPost, "/api/tasks", TaskRequest{Code: "LEAF", Name: "dup"}, &errResp)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPost, "/api/tasks", TaskRequest{Code: "X", Name: "x", Budget: "1.234"}, &errResp)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/tasks", bytes.NewBufferString(`{"unknown": 1}`))
	rec = httptest.NewRecorder()
	env.server.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPost, "/api/tasks/"+leaf.ID+"/move-up", nil, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(domain.ErrCannotMove), errResp.Code)
}

func TestContributionAndSumsEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()
	require.NoError(t, env.handler.Durations.Create(ctx, &domain.Duration{ID: 150, IsActive: true}))
	alice := &domain.Collaborator{Login: "alice", IsActive: true}
	require.NoError(t, env.handler.Collaborators.Create(ctx, alice))

	root := env.createTask(nil, "R", "")
	leaf := env.createTask(&root.ID, "L", "10")
	env.do(http.MethodPut, "/api/tasks/"+leaf.ID+"/etc", EtcRequest{Todo: "4"}, nil)

	var errResp ErrorResponse
	rec := env.do(http.MethodPost, "/api/contributions", ContributionRequest{
		ContributionDTO: ContributionDTO{ContributorID: alice.ID, TaskID: root.ID, Date: "2025-02-03", Duration: "1.5"},
	}, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(domain.ErrTaskWithSubtaskCannotAcceptContrib), errResp.Code)

	for _, day := range []string{"2025-02-03", "2025-03-10"} {
		rec = env.do(http.MethodPost, "/api/contributions", ContributionRequest{
			ContributionDTO: ContributionDTO{ContributorID: alice.ID, TaskID: leaf.ID, Date: day, Duration: "1.5"},
			UpdateEtc:       true,
		}, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	var list []ContributionDTO
	env.do(http.MethodGet, "/api/contributions?task="+leaf.ID+"&from=2025-03-01", nil, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "2025-03-10", list[0].Date)

	var sums TaskSumsDTO
	rec = env.do(http.MethodGet, "/api/tasks/"+root.ID+"/sums?from=2025-03-01", nil, &sums)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "10.00", sums.Budget)
	assert.Equal(t, "1.50", sums.InitiallyConsumed)
	assert.Equal(t, "1.50", sums.Consumed)
	assert.Equal(t, "1.00", sums.Todo)
	assert.Equal(t, "6.00", sums.Delta)

	var rows []TaskSumsDTO
	env.do(http.MethodGet, "/api/sums", nil, &rows)
	require.Len(t, rows, 1)
	assert.Equal(t, "3.00", rows[0].Consumed)

	rec = env.do(http.MethodGet, "/api/tasks/"+root.ID+"/sums?from=2025-03-01&to=2025-01-01", nil, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(domain.ErrInvalidInterval), errResp.Code)

	rec = env.do(http.MethodDelete, "/api/contributions?contributor="+alice.ID+"&task="+leaf.ID+"&date=2025-03-10&updateEtc=true", nil, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	var after TaskDTO
	env.do(http.MethodGet, "/api/tasks/"+leaf.ID, nil, &after)
	assert.Equal(t, "2.50", after.Todo)
}

func TestReportEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()

	var errResp ErrorResponse
	rec := env.do(http.MethodGet, "/api/report/plan?unit=week", nil, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(domain.ErrNoContributions), errResp.Code)

	require.NoError(t, env.handler.Durations.Create(ctx, &domain.Duration{ID: 100, IsActive: true}))
	bob := &domain.Collaborator{Login: "bob", IsActive: true}
	require.NoError(t, env.handler.Collaborators.Create(ctx, bob))
	a := env.createTask(nil, "A", "")
	b := env.createTask(nil, "B", "")
	for _, c := range []ContributionDTO{
		{ContributorID: bob.ID, TaskID: a.ID, Date: "2025-01-15", Duration: "1"},
		{ContributorID: bob.ID, TaskID: b.ID, Date: "2025-03-02", Duration: "1"},
	} {
		rec = env.do(http.MethodPost, "/api/contributions", ContributionRequest{ContributionDTO: c}, nil)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	}

	var plan ReportPlanDTO
	rec = env.do(http.MethodGet, "/api/report/plan", nil, &plan)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "2025-01-01", plan.Start)
	assert.Equal(t, 3, plan.Count)
	assert.Equal(t, "2025-03-31", plan.Buckets[2].End)

	var report ReportDTO
	rec = env.do(http.MethodGet, "/api/report?unit=month", nil, &report)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Len(t, report.Rows, 2)
	assert.Equal(t, []string{"1.00", "0.00", "0.00"}, report.Rows[0].Values)
	assert.Equal(t, []string{"0.00", "0.00", "1.00"}, report.Rows[1].Values)

	rec = env.do(http.MethodGet, "/api/report/plan?unit=day", nil, &errResp)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, string(domain.ErrTooManyColumns), errResp.Code)

	rec = env.do(http.MethodGet, "/api/report/plan?start=yesterday", nil, &errResp)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCatalogEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	ctx := context.Background()
	require.NoError(t, env.handler.Durations.Create(ctx, &domain.Duration{ID: 25, IsActive: true}))
	require.NoError(t, env.handler.Durations.Create(ctx, &domain.Duration{ID: 50, IsActive: true}))
	require.NoError(t, env.handler.Durations.SetActive(ctx, 50, false))
	require.NoError(t, env.handler.Collaborators.Create(ctx, &domain.Collaborator{Login: "carol", IsActive: true}))

	var durations []DurationDTO
	env.do(http.MethodGet, "/api/durations?active=true", nil, &durations)
	assert.Equal(t, []DurationDTO{{Value: "0.25", Active: true}}, durations)

	var collaborators []CollaboratorDTO
	env.do(http.MethodGet, "/api/collaborators", nil, &collaborators)
	require.Len(t, collaborators, 1)
	assert.Equal(t, "carol", collaborators[0].Login)
}
