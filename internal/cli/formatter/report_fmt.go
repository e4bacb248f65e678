package formatter

import (
	"fmt"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/service"
)

// FormatSums renders subtree aggregates, one task per row. A total line is
// added when the rows are siblings, since nested rows already overlap.
func FormatSums(title string, sums []*domain.TaskSums) string {
	if len(sums) == 0 {
		return RenderBox(title, Dim("No tasks"))
	}
	headers := []string{"CODE", "NAME", "BUDGET", "INIT", "CONSUMED", "TODO", "DELTA", "PROGRESS"}
	rows := make([][]string, 0, len(sums)+1)
	total := &domain.TaskSums{}
	siblings := true
	for _, s := range sums {
		siblings = siblings && s.Task.Path == sums[0].Task.Path
		progress := Dim("--")
		if pct, ok := Completion(s); ok {
			progress = RenderProgress(pct, 10)
		}
		rows = append(rows, []string{
			Bold(s.Task.Code),
			s.Task.Name,
			Amount(s.BudgetSum),
			Amount(s.InitiallyConsumedSum),
			Amount(s.Contributions.ConsumedSum),
			Amount(s.TodoSum),
			Delta(s.Delta()),
			progress,
		})
		total = total.Plus(s)
	}
	if siblings && len(sums) > 1 {
		rows = append(rows, []string{
			StyleHeader.Render("TOTAL"), "",
			Amount(total.BudgetSum),
			Amount(total.InitiallyConsumedSum),
			Amount(total.Contributions.ConsumedSum),
			Amount(total.TodoSum),
			Delta(total.Delta()),
			"",
		})
	}
	return RenderBox(title, RenderTable(headers, rows, 2, 3, 4, 5, 6))
}

// FormatReportPlan lists the buckets of a planned report.
func FormatReportPlan(plan *service.ReportPlan) string {
	headers := []string{"#", "START", "END"}
	rows := make([][]string, len(plan.Buckets))
	for i, bucket := range plan.Buckets {
		rows[i] = []string{Dim(fmt.Sprint(i + 1)), Day(bucket.Start), Day(bucket.End)}
	}
	return RenderBox(reportTitle(plan), RenderTable(headers, rows, 0))
}

// FormatReport renders consumed amounts per task and bucket.
func FormatReport(r *service.Report) string {
	headers := make([]string, 0, len(r.Plan.Buckets)+2)
	headers = append(headers, "TASK")
	right := make([]int, 0, len(r.Plan.Buckets)+1)
	for i, bucket := range r.Plan.Buckets {
		headers = append(headers, bucketLabel(r.Plan.Unit, bucket))
		right = append(right, i+1)
	}
	headers = append(headers, "TOTAL")
	right = append(right, len(headers)-1)

	rows := make([][]string, 0, len(r.Rows)+1)
	totals := make([]int64, len(r.Plan.Buckets))
	var grand int64
	for _, row := range r.Rows {
		cells := []string{Bold(row.Task.Code) + " " + row.Task.Name}
		for i, v := range row.Values {
			cells = append(cells, Amount(v))
			totals[i] += v
		}
		cells = append(cells, StyleBold.Render(domain.FormatAmount(row.Total)))
		grand += row.Total
		rows = append(rows, cells)
	}
	footer := []string{StyleHeader.Render("TOTAL")}
	for _, v := range totals {
		footer = append(footer, Amount(v))
	}
	footer = append(footer, StyleBold.Render(domain.FormatAmount(grand)))
	rows = append(rows, footer)

	return RenderBox(reportTitle(r.Plan), RenderTable(headers, rows, right...))
}

func reportTitle(plan *service.ReportPlan) string {
	title := fmt.Sprintf("%d × %s from %s", plan.Count, plan.Unit, Day(plan.Start))
	if plan.RootTask != nil {
		title = plan.RootTask.Code + " · " + title
	}
	return title
}

func bucketLabel(unit domain.IntervalUnit, b service.Bucket) string {
	switch unit {
	case domain.IntervalMonth:
		return b.Start.Format("Jan 2006")
	case domain.IntervalYear:
		return b.Start.Format("2006")
	default:
		return b.Start.Format("01-02")
	}
}
