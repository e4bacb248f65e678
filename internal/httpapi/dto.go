package httpapi

import (
	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/service"
)

// Amounts travel as decimal unit strings ("12.50"); dates as YYYY-MM-DD.

type TaskDTO struct {
	ID                string `json:"id"`
	Path              string `json:"path"`
	Number            int    `json:"number"`
	FullPath          string `json:"fullPath"`
	Code              string `json:"code"`
	Name              string `json:"name"`
	Comment           string `json:"comment,omitempty"`
	Budget            string `json:"budget"`
	InitiallyConsumed string `json:"initiallyConsumed"`
	Todo              string `json:"todo"`
	Closed            bool   `json:"closed"`
}

// TaskRequest creates or edits a task. Path and Number carry the position
// the client last saw; they are required on edits.
type TaskRequest struct {
	ParentID          *string `json:"parentId,omitempty"`
	Path              *string `json:"path,omitempty"`
	Number            *int    `json:"number,omitempty"`
	Code              string  `json:"code"`
	Name              string  `json:"name"`
	Comment           string  `json:"comment"`
	Budget            string  `json:"budget"`
	InitiallyConsumed string  `json:"initiallyConsumed"`
	Todo              string  `json:"todo"`
	Closed            bool    `json:"closed"`
}

// MoveRequest drives the structural endpoints. Path and Number are the
// position the client last saw; the stored position is used when omitted.
type MoveRequest struct {
	Path      *string `json:"path,omitempty"`
	Number    *int    `json:"number,omitempty"`
	NewNumber int     `json:"newNumber,omitempty"`
	ParentID  *string `json:"parentId,omitempty"`
}

type EtcRequest struct {
	Todo string `json:"todo"`
}

type TaskSumsDTO struct {
	Task               TaskDTO `json:"task"`
	IsLeaf             bool    `json:"isLeaf"`
	Budget             string  `json:"budget"`
	InitiallyConsumed  string  `json:"initiallyConsumed"`
	Consumed           string  `json:"consumed"`
	Todo               string  `json:"todo"`
	Delta              string  `json:"delta"`
	ContributionsCount int     `json:"contributionsCount"`
}

type ContributionDTO struct {
	ContributorID string `json:"contributorId"`
	TaskID        string `json:"taskId"`
	Date          string `json:"date"`
	Duration      string `json:"duration"`
}

type ContributionRequest struct {
	ContributionDTO
	UpdateEtc bool `json:"updateEtc"`
}

type BucketDTO struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type ReportPlanDTO struct {
	Start   string      `json:"start"`
	Count   int         `json:"count"`
	Unit    string      `json:"unit"`
	Buckets []BucketDTO `json:"buckets"`
	Root    *TaskDTO    `json:"root,omitempty"`
}

type ReportRowDTO struct {
	Task   TaskDTO  `json:"task"`
	Values []string `json:"values"`
	Total  string   `json:"total"`
}

type ReportDTO struct {
	Plan ReportPlanDTO  `json:"plan"`
	Rows []ReportRowDTO `json:"rows"`
}

type DurationDTO struct {
	Value  string `json:"value"`
	Active bool   `json:"active"`
}

type CollaboratorDTO struct {
	ID        string `json:"id"`
	Login     string `json:"login"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Active    bool   `json:"active"`
}

// ErrorResponse carries the ModelError code when there is one.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func toTaskDTO(t *domain.Task) TaskDTO {
	return TaskDTO{
		ID:                t.ID,
		Path:              t.Path,
		Number:            t.Number,
		FullPath:          t.FullPath(),
		Code:              t.Code,
		Name:              t.Name,
		Comment:           t.Comment,
		Budget:            domain.FormatAmount(t.Budget),
		InitiallyConsumed: domain.FormatAmount(t.InitiallyConsumed),
		Todo:              domain.FormatAmount(t.Todo),
		Closed:            t.Closed,
	}
}

func toTaskDTOs(tasks []*domain.Task) []TaskDTO {
	out := make([]TaskDTO, len(tasks))
	for i, t := range tasks {
		out[i] = toTaskDTO(t)
	}
	return out
}

func toTaskSumsDTO(s *domain.TaskSums) TaskSumsDTO {
	return TaskSumsDTO{
		Task:               toTaskDTO(s.Task),
		IsLeaf:             s.IsLeaf,
		Budget:             domain.FormatAmount(s.BudgetSum),
		InitiallyConsumed:  domain.FormatAmount(s.InitiallyConsumedSum),
		Consumed:           domain.FormatAmount(s.Contributions.ConsumedSum),
		Todo:               domain.FormatAmount(s.TodoSum),
		Delta:              domain.FormatAmount(s.Delta()),
		ContributionsCount: s.Contributions.ContributionsCount,
	}
}

func toContributionDTO(c *domain.Contribution) ContributionDTO {
	return ContributionDTO{
		ContributorID: c.ContributorID,
		TaskID:        c.TaskID,
		Date:          c.Date.Format(domain.DateLayout),
		Duration:      domain.FormatAmount(c.DurationID),
	}
}

func toReportPlanDTO(p *service.ReportPlan) ReportPlanDTO {
	dto := ReportPlanDTO{
		Start:   p.Start.Format(domain.DateLayout),
		Count:   p.Count,
		Unit:    string(p.Unit),
		Buckets: make([]BucketDTO, len(p.Buckets)),
	}
	for i, b := range p.Buckets {
		dto.Buckets[i] = BucketDTO{Start: b.Start.Format(domain.DateLayout), End: b.End.Format(domain.DateLayout)}
	}
	if p.RootTask != nil {
		root := toTaskDTO(p.RootTask)
		dto.Root = &root
	}
	return dto
}

func toReportDTO(r *service.Report) ReportDTO {
	dto := ReportDTO{Plan: toReportPlanDTO(r.Plan), Rows: make([]ReportRowDTO, len(r.Rows))}
	for i, row := range r.Rows {
		values := make([]string, len(row.Values))
		for j, v := range row.Values {
			values[j] = domain.FormatAmount(v)
		}
		dto.Rows[i] = ReportRowDTO{Task: toTaskDTO(row.Task), Values: values, Total: domain.FormatAmount(row.Total)}
	}
	return dto
}
