package formatter

import (
	"testing"
	"time"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/service"
	"github.com/stretchr/testify/assert"
)

func task(path string, number int, code, name string) *domain.Task {
	return &domain.Task{ID: code + "-id", Path: path, Number: number, Code: code, Name: name}
}

func TestTaskTreeItems_Connectors(t *testing.T) {
	tasks := []*domain.Task{
		task("", 2, "B", "Beta"),
		task("0102", 1, "X", "Deep"),
		task("", 1, "A", "Alpha"),
		task("01", 2, "A2", "Two"),
		task("01", 1, "A1", "One"),
	}

	got := stripANSI(RenderTree(TaskTreeItems(tasks)))
	want := "A Alpha\n" +
		"├─ A1 One\n" +
		"└─ A2 Two\n" +
		"   └─ X Deep\n" +
		"B Beta\n"
	assert.Equal(t, want, got)
}

func TestTaskTreeItems_RelativeLevels(t *testing.T) {
	items := TaskTreeItems([]*domain.Task{
		task("0101", 1, "C1", "Child"),
		task("0101", 2, "C2", "Child"),
	})
	assert.Equal(t, 0, items[0].Level)
	assert.False(t, items[0].IsLast)
	assert.True(t, items[1].IsLast)
}

func TestRenderTree_ClosedAndDetail(t *testing.T) {
	closed := task("", 1, "A", "Alpha")
	closed.Closed = true
	leaf := task("", 2, "B", "Beta")
	leaf.Budget = 1000
	leaf.Todo = 250

	got := stripANSI(RenderTree(TaskTreeItems([]*domain.Task{closed, leaf})))
	assert.Contains(t, got, "✔ A Alpha")
	assert.Contains(t, got, "[ budget 10.00 · todo 2.50 ]")
}

func TestFormatTaskTree_Empty(t *testing.T) {
	assert.Contains(t, FormatTaskTree("Tasks", nil), "No tasks")
}

func TestFormatTaskDetail(t *testing.T) {
	tk := task("", 1, "A", "Alpha")
	tk.Comment = "first phase"
	tk.UpdatedAt = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	got := stripANSI(FormatTaskDetail(TaskDetailData{
		Task:     tk,
		CodePath: "/A",
		Sums: &domain.TaskSums{
			Task:          tk,
			BudgetSum:     1000,
			TodoSum:       400,
			Contributions: domain.ContributionSums{ConsumedSum: 700, ContributionsCount: 2},
		},
		Children: []*domain.Task{task("01", 1, "A1", "One")},
	}))

	assert.Contains(t, got, "Alpha")
	assert.Contains(t, got, "/A")
	assert.Contains(t, got, "first phase")
	assert.Contains(t, got, "(2 contributions)")
	assert.Contains(t, got, "-1.00", "1000 - 700 - 400")
	assert.Contains(t, got, "A1 One")
}

func TestFormatSums_TotalOnlyForSiblings(t *testing.T) {
	a, b := task("", 1, "A", "Alpha"), task("", 2, "B", "Beta")
	siblings := []*domain.TaskSums{
		{Task: a, BudgetSum: 100},
		{Task: b, BudgetSum: 250},
	}
	got := stripANSI(FormatSums("Sums", siblings))
	assert.Contains(t, got, "TOTAL")
	assert.Contains(t, got, "3.50")

	nested := []*domain.TaskSums{
		{Task: a, BudgetSum: 100},
		{Task: task("01", 1, "A1", "One"), BudgetSum: 100},
	}
	assert.NotContains(t, stripANSI(FormatSums("Sums", nested)), "TOTAL")
}

func TestFormatReport(t *testing.T) {
	start := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	plan := &service.ReportPlan{
		Start: start,
		Count: 2,
		Unit:  domain.IntervalMonth,
		Buckets: []service.Bucket{
			{Start: start, End: start.AddDate(0, 1, -1)},
			{Start: start.AddDate(0, 1, 0), End: start.AddDate(0, 2, -1)},
		},
	}
	report := &service.Report{Plan: plan, Rows: []service.ReportRow{
		{Task: task("", 1, "A", "Alpha"), Values: []int64{100, 200}, Total: 300},
		{Task: task("", 2, "B", "Beta"), Values: []int64{0, 50}, Total: 50},
	}}

	got := stripANSI(FormatReport(report))
	assert.Contains(t, got, "2 × month from 2025-06-01")
	assert.Contains(t, got, "Jun 2025")
	assert.Contains(t, got, "Jul 2025")
	assert.Contains(t, got, "3.50", "grand total")
	assert.Contains(t, got, "2.50", "second bucket total")

	planned := stripANSI(FormatReportPlan(plan))
	assert.Contains(t, planned, "2025-06-30")
	assert.Contains(t, planned, "2025-07-31")
}

func TestFormatCatalogs(t *testing.T) {
	durations := stripANSI(FormatDurations([]*domain.Duration{{ID: 50, IsActive: true}, {ID: 100}}))
	assert.Contains(t, durations, "0.50")
	assert.Contains(t, durations, "Inactive")

	collaborators := stripANSI(FormatCollaborators([]*domain.Collaborator{
		{ID: "c1", Login: "alice", FirstName: "Alice", LastName: "Liddell", IsActive: true},
		{ID: "c2", Login: "bob"},
	}))
	assert.Contains(t, collaborators, "Alice Liddell")
	assert.Contains(t, collaborators, "bob")

	assert.Contains(t, FormatDurations(nil), "No durations")
}

func TestFormatContributions(t *testing.T) {
	day := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	got := stripANSI(FormatContributions([]*domain.Contribution{
		{ContributorID: "c1", TaskID: "t1", Date: day, DurationID: 150},
		{ContributorID: "c2", TaskID: "t1", Date: day, DurationID: 50},
	}, ContributionLabels{
		Tasks:         map[string]string{"t1": "/A/A1"},
		Collaborators: map[string]string{"c1": "alice"},
	}))
	assert.Contains(t, got, "alice")
	assert.Contains(t, got, "/A/A1")
	assert.Contains(t, got, "c2")
	assert.Contains(t, got, "2.00")
}
