package service

import (
	"context"
	"errors"
	"time"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
)

// ReportRequest describes an interval grid. Start and Count are inferred
// from the ledger when nil. MaxIntervalCount caps the bucket count when
// positive.
type ReportRequest struct {
	Start            *time.Time
	Unit             domain.IntervalUnit
	Count            *int
	RootTaskID       *string
	MaxIntervalCount int
}

// Bucket is one column of a report. End is the last day it covers.
type Bucket struct {
	Start time.Time
	End   time.Time
}

type ReportPlan struct {
	Start    time.Time
	Count    int
	Unit     domain.IntervalUnit
	Buckets  []Bucket
	RootTask *domain.Task
}

type reportPlanner struct {
	tasks    repository.TaskRepo
	contribs repository.ContributionRepo
}

func NewReportPlanner(tasks repository.TaskRepo, contribs repository.ContributionRepo) ReportPlanner {
	return &reportPlanner{tasks: tasks, contribs: contribs}
}

func (p *reportPlanner) Plan(ctx context.Context, req ReportRequest) (*ReportPlan, error) {
	unit, err := domain.ParseIntervalUnit(string(req.Unit))
	if err != nil {
		return nil, domain.NewModelError(domain.ErrInvalidInterval, "%s", err.Error())
	}

	plan := &ReportPlan{Unit: unit}
	scope := ""
	if req.RootTaskID != nil {
		root, err := p.tasks.GetByID(ctx, *req.RootTaskID)
		if errors.Is(err, repository.ErrNotFound) {
			return nil, domain.NewModelError(domain.ErrUnknownTask, "task %s does not exist", *req.RootTaskID)
		}
		if err != nil {
			return nil, err
		}
		plan.RootTask = root
		scope = root.FullPath()
	}

	var last *time.Time
	if req.Start == nil || req.Count == nil {
		var first *time.Time
		first, last, err = p.contribs.DateRange(ctx, scope)
		if err != nil {
			return nil, err
		}
		if first == nil {
			return nil, domain.NewModelError(domain.ErrNoContributions, "no contributions to report on")
		}
		if req.Start == nil {
			req.Start = first
		}
	}
	plan.Start = unit.Snap(*req.Start)

	if req.Count != nil {
		plan.Count = *req.Count
	} else {
		plan.Count = unit.CountBetween(plan.Start, *last)
	}
	if plan.Count <= 0 {
		return nil, domain.NewModelError(domain.ErrInvalidInterval, "interval count must be positive, got %d", plan.Count)
	}
	if req.MaxIntervalCount > 0 && plan.Count > req.MaxIntervalCount {
		return nil, domain.NewModelError(domain.ErrTooManyColumns,
			"%d %s intervals requested, at most %d are allowed", plan.Count, unit, req.MaxIntervalCount)
	}

	plan.Buckets = make([]Bucket, plan.Count)
	for i := range plan.Buckets {
		start := unit.Add(plan.Start, i)
		plan.Buckets[i] = Bucket{
			Start: start,
			End:   unit.Add(plan.Start, i+1).AddDate(0, 0, -1),
		}
	}
	return plan, nil
}
