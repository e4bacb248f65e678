package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
	"github.com/alexanderramin/timetree/internal/service"
	"github.com/go-chi/chi/v5"
)

// Handler holds the services the HTTP endpoints delegate to.
type Handler struct {
	Tasks         service.TaskService
	Contributions service.ContributionService
	Sums          service.SumsService
	Planner       service.ReportPlanner
	Reports       service.ReportService
	Durations     service.DurationService
	Collaborators service.CollaboratorService

	// MaxReportColumns caps report plans; zero means unlimited.
	MaxReportColumns int
}

// errBadRequest marks client input the handlers could not parse.
var errBadRequest = errors.New("bad request")

func badRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errBadRequest, fmt.Sprintf(format, args...))
}

// ---- tasks ----

// ListTasks returns the children of ?parent, or the root-level tasks.
func (h *Handler) ListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.Tasks.ListChildren(r.Context(), optionalQuery(r, "parent"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTOs(tasks))
}

func (h *Handler) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.Tasks.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

func (h *Handler) CreateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	draft, err := taskFromRequest(&req)
	if err != nil {
		writeError(w, err)
		return
	}
	task, err := h.Tasks.CreateTask(r.Context(), req.ParentID, draft)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toTaskDTO(task))
}

func (h *Handler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var req TaskRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.Path == nil || req.Number == nil {
		writeError(w, badRequest("path and number are required"))
		return
	}
	task, err := taskFromRequest(&req)
	if err != nil {
		writeError(w, err)
		return
	}
	task.ID = chi.URLParam(r, "id")
	task.Path, task.Number = *req.Path, *req.Number
	updated, err := h.Tasks.UpdateTask(r.Context(), task)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(updated))
}

func (h *Handler) UpdateEtc(w http.ResponseWriter, r *http.Request) {
	var req EtcRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	todo, err := domain.ParseAmount(req.Todo)
	if err != nil {
		writeError(w, badRequest("todo: %v", err))
		return
	}
	task, err := h.Tasks.UpdateEtc(r.Context(), chi.URLParam(r, "id"), todo)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskDTO(task))
}

// MoveTask serves every structural move; the action comes from the route.
func (h *Handler) MoveTask(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MoveRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, err)
			return
		}
		task, err := h.clientCopy(r, req.Path, req.Number)
		if err != nil {
			writeError(w, err)
			return
		}

		var moved *domain.Task
		switch action {
		case "up":
			moved, err = h.Tasks.MoveUpTask(r.Context(), task)
		case "down":
			moved, err = h.Tasks.MoveDownTask(r.Context(), task)
		case "renumber":
			moved, err = h.Tasks.MoveTaskUpOrDown(r.Context(), task, req.NewNumber)
		case "reparent":
			moved, err = h.Tasks.MoveTask(r.Context(), task, req.ParentID)
		default:
			err = badRequest("unknown move %q", action)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toTaskDTO(moved))
	}
}

// DeleteTask removes a task and its empty subtree. ?path and ?number carry
// the position the client last saw.
func (h *Handler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	var number *int
	if v := r.URL.Query().Get("number"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, badRequest("number: %v", err))
			return
		}
		number = &n
	}
	path := optionalQuery(r, "path")
	if path == nil && r.URL.Query().Has("path") {
		path = new(string)
	}
	task, err := h.clientCopy(r, path, number)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Tasks.RemoveTask(r.Context(), task); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clientCopy loads the task named in the URL and overlays the position the
// client reported, so a stale client trips the concurrent-modification check.
func (h *Handler) clientCopy(r *http.Request, path *string, number *int) (*domain.Task, error) {
	task, err := h.Tasks.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		return nil, err
	}
	if path != nil {
		task.Path = *path
	}
	if number != nil {
		task.Number = *number
	}
	return task, nil
}

func taskFromRequest(req *TaskRequest) (*domain.Task, error) {
	t := &domain.Task{
		Code:    req.Code,
		Name:    req.Name,
		Comment: req.Comment,
		Closed:  req.Closed,
	}
	var err error
	if t.Budget, err = domain.ParseAmount(req.Budget); err != nil {
		return nil, badRequest("budget: %v", err)
	}
	if t.InitiallyConsumed, err = domain.ParseAmount(req.InitiallyConsumed); err != nil {
		return nil, badRequest("initiallyConsumed: %v", err)
	}
	if t.Todo, err = domain.ParseAmount(req.Todo); err != nil {
		return nil, badRequest("todo: %v", err)
	}
	return t, nil
}

// ---- sums ----

func (h *Handler) GetTaskSums(w http.ResponseWriter, r *http.Request) {
	from, to, err := window(r)
	if err != nil {
		writeError(w, err)
		return
	}
	sums, err := h.Sums.GetTaskSums(r.Context(), chi.URLParam(r, "id"), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toTaskSumsDTO(sums))
}

// GetSubTasksSums returns the sums of the children of ?parent, or of the
// root-level tasks.
func (h *Handler) GetSubTasksSums(w http.ResponseWriter, r *http.Request) {
	from, to, err := window(r)
	if err != nil {
		writeError(w, err)
		return
	}
	rows, err := h.Sums.GetSubTasksSums(r.Context(), optionalQuery(r, "parent"), from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]TaskSumsDTO, len(rows))
	for i, s := range rows {
		out[i] = toTaskSumsDTO(s)
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- contributions ----

func (h *Handler) ListContributions(w http.ResponseWriter, r *http.Request) {
	from, to, err := window(r)
	if err != nil {
		writeError(w, err)
		return
	}
	filter := repository.ContributionFilter{
		ContributorID: optionalQuery(r, "contributor"),
		TaskID:        optionalQuery(r, "task"),
		From:          from,
		To:            to,
	}
	list, err := h.Contributions.List(r.Context(), filter)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]ContributionDTO, len(list))
	for i, c := range list {
		out[i] = toContributionDTO(c)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) CreateContribution(w http.ResponseWriter, r *http.Request) {
	var req ContributionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	c, err := contributionFromDTO(req.ContributionDTO)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.Contributions.Create(r.Context(), c, req.UpdateEtc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toContributionDTO(c))
}

// DeleteContribution removes the ledger line named by ?contributor, ?task and
// ?date. ?updateEtc=true gives the amount back to the task's todo.
func (h *Handler) DeleteContribution(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	day, err := domain.ParseDay(q.Get("date"))
	if err != nil {
		writeError(w, badRequest("%v", err))
		return
	}
	updateEtc, _ := strconv.ParseBool(q.Get("updateEtc"))
	c := &domain.Contribution{ContributorID: q.Get("contributor"), TaskID: q.Get("task"), Date: day}
	if err := h.Contributions.Remove(r.Context(), c, updateEtc); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func contributionFromDTO(dto ContributionDTO) (*domain.Contribution, error) {
	day, err := domain.ParseDay(dto.Date)
	if err != nil {
		return nil, badRequest("%v", err)
	}
	duration, err := domain.ParseAmount(dto.Duration)
	if err != nil {
		return nil, badRequest("duration: %v", err)
	}
	return &domain.Contribution{
		ContributorID: dto.ContributorID,
		TaskID:        dto.TaskID,
		Date:          day,
		DurationID:    duration,
		CreatedAt:     time.Now().UTC(),
	}, nil
}

// ---- reports ----

func (h *Handler) PlanReport(w http.ResponseWriter, r *http.Request) {
	req, err := h.reportRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	plan, err := h.Planner.Plan(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportPlanDTO(plan))
}

func (h *Handler) BuildReport(w http.ResponseWriter, r *http.Request) {
	req, err := h.reportRequest(r)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := h.Reports.Build(r.Context(), req)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toReportDTO(report))
}

// reportRequest reads ?unit (default month), ?start, ?count and ?root.
func (h *Handler) reportRequest(r *http.Request) (service.ReportRequest, error) {
	q := r.URL.Query()
	req := service.ReportRequest{
		Unit:             domain.IntervalMonth,
		RootTaskID:       optionalQuery(r, "root"),
		MaxIntervalCount: h.MaxReportColumns,
	}
	if v := q.Get("unit"); v != "" {
		req.Unit = domain.IntervalUnit(v)
	}
	if v := q.Get("start"); v != "" {
		d, err := domain.ParseDay(v)
		if err != nil {
			return req, badRequest("start: %v", err)
		}
		req.Start = &d
	}
	if v := q.Get("count"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return req, badRequest("count: %v", err)
		}
		req.Count = &n
	}
	return req, nil
}

// ---- catalogs ----

func (h *Handler) ListDurations(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	list, err := h.Durations.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]DurationDTO, len(list))
	for i, d := range list {
		out[i] = DurationDTO{Value: domain.FormatAmount(d.ID), Active: d.IsActive}
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) ListCollaborators(w http.ResponseWriter, r *http.Request) {
	activeOnly, _ := strconv.ParseBool(r.URL.Query().Get("active"))
	list, err := h.Collaborators.List(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]CollaboratorDTO, len(list))
	for i, c := range list {
		out[i] = CollaboratorDTO{ID: c.ID, Login: c.Login, FirstName: c.FirstName, LastName: c.LastName, Active: c.IsActive}
	}
	writeJSON(w, http.StatusOK, out)
}

// ---- helpers ----

func optionalQuery(r *http.Request, key string) *string {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return nil
	}
	return &v
}

// window reads the optional ?from and ?to days.
func window(r *http.Request) (from, to *time.Time, err error) {
	for key, dst := range map[string]**time.Time{"from": &from, "to": &to} {
		v := r.URL.Query().Get(key)
		if v == "" {
			continue
		}
		d, err := domain.ParseDay(v)
		if err != nil {
			return nil, nil, badRequest("%s: %v", key, err)
		}
		*dst = &d
	}
	return from, to, nil
}

// decodeJSON reads the request body into dst. An empty body leaves dst as is.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		return badRequest("invalid JSON body: %v", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := classify(err)
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
}

// classify maps an error to an HTTP status and, for model errors, its code.
func classify(err error) (int, string) {
	var me *domain.ModelError
	switch {
	case errors.As(err, &me):
		switch me.Code {
		case domain.ErrPathUpdateDetected, domain.ErrDuplicateContribution, domain.ErrTaskCodeAlreadyInUse,
			domain.ErrLoginAlreadyInUse, domain.ErrDurationAlreadyExists:
			return http.StatusConflict, string(me.Code)
		case domain.ErrUnknownTask, domain.ErrUnknownCollaborator, domain.ErrUnknownDuration:
			return http.StatusNotFound, string(me.Code)
		}
		return http.StatusUnprocessableEntity, string(me.Code)
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, ""
	case errors.Is(err, errBadRequest), errors.Is(err, domain.ErrMalformedPath):
		return http.StatusBadRequest, ""
	}
	return http.StatusInternalServerError, ""
}
