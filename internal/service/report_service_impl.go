package service

import (
	"context"

	"github.com/alexanderramin/timetree/internal/db"
	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
)

// ReportRow holds the consumed amounts of one task subtree per bucket.
type ReportRow struct {
	Task   *domain.Task
	Values []int64
	Total  int64
}

type Report struct {
	Plan *ReportPlan
	Rows []ReportRow
}

type reportService struct {
	uow db.UnitOfWork
}

func NewReportService(uow db.UnitOfWork) ReportService {
	return &reportService{uow: uow}
}

// Build plans the grid, then sums the ledger of every row's subtree per
// bucket, all in one transaction. Rows are the children of the root task,
// the root itself when it is a leaf, or the root-level tasks when no root is
// given.
func (s *reportService) Build(ctx context.Context, req ReportRequest) (report *Report, err error) {
	err = s.uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		report, err = buildReport(ctx, repository.NewSQLiteTaskRepo(tx), repository.NewSQLiteContributionRepo(tx), req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func buildReport(ctx context.Context, taskRepo repository.TaskRepo, contribRepo repository.ContributionRepo, req ReportRequest) (*Report, error) {
	plan, err := NewReportPlanner(taskRepo, contribRepo).Plan(ctx, req)
	if err != nil {
		return nil, err
	}

	var sel repository.TaskSumsSelector
	switch {
	case plan.RootTask == nil:
		sel.ParentPath = new(string)
	default:
		full := plan.RootTask.FullPath()
		n, err := taskRepo.CountChildren(ctx, full)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			sel.TaskID = &plan.RootTask.ID
		} else {
			sel.ParentPath = &full
		}
	}

	tasks, err := taskRepo.Sums(ctx, sel)
	if err != nil {
		return nil, err
	}
	report := &Report{Plan: plan, Rows: make([]ReportRow, len(tasks))}
	for i, t := range tasks {
		report.Rows[i] = ReportRow{Task: t.Task, Values: make([]int64, len(plan.Buckets))}
	}

	for b, bucket := range plan.Buckets {
		from, to := domain.Day(bucket.Start), domain.Day(bucket.End)
		sums, err := contribRepo.SubtreeSums(ctx, sel, repository.ContributionFilter{From: &from, To: &to})
		if err != nil {
			return nil, err
		}
		for i := range report.Rows {
			v := sums[report.Rows[i].Task.ID].ConsumedSum
			report.Rows[i].Values[b] = v
			report.Rows[i].Total += v
		}
	}
	return report, nil
}
