package formatter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/alexanderramin/timetree/internal/domain"
)

// FormatTaskTree renders tasks as a forest. Tasks may arrive in any order;
// they are laid out by full path with levels relative to the shallowest one.
func FormatTaskTree(title string, tasks []*domain.Task) string {
	if len(tasks) == 0 {
		return RenderBox(title, Dim("No tasks"))
	}
	return RenderBox(title, RenderTree(TaskTreeItems(tasks)))
}

// TaskTreeItems converts tasks to tree items in pre-order.
func TaskTreeItems(tasks []*domain.Task) []TreeItem {
	sorted := make([]*domain.Task, len(tasks))
	copy(sorted, tasks)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].FullPath() < sorted[j].FullPath()
	})

	base := sorted[0].Depth()
	for _, t := range sorted {
		base = min(base, t.Depth())
	}

	items := make([]TreeItem, len(sorted))
	for i, t := range sorted {
		items[i] = TreeItem{
			Title:  t.Name,
			Code:   t.Code,
			Level:  t.Depth() - base,
			Closed: t.Closed,
			Detail: taskDetail(t),
		}
	}
	for i := range items {
		items[i].IsLast = true
		for j := i + 1; j < len(items); j++ {
			if items[j].Level < items[i].Level {
				break
			}
			if items[j].Level == items[i].Level {
				items[i].IsLast = false
				break
			}
		}
	}
	return items
}

func taskDetail(t *domain.Task) string {
	if !t.HasAmounts() {
		return ""
	}
	return fmt.Sprintf("budget %s · todo %s", domain.FormatAmount(t.Budget), domain.FormatAmount(t.Todo))
}

// FormatTaskList renders tasks as a flat table.
func FormatTaskList(tasks []*domain.Task) string {
	headers := []string{"CODE", "NAME", "BUDGET", "INIT", "TODO", "STATE", "ID"}
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, []string{
			Bold(t.Code),
			t.Name,
			Amount(t.Budget),
			Amount(t.InitiallyConsumed),
			Amount(t.Todo),
			StatePill(t.Closed),
			TruncID(t.ID),
		})
	}
	return RenderBox("Tasks", RenderTable(headers, rows, 2, 3, 4))
}

// TaskDetailData is everything the task show view renders.
type TaskDetailData struct {
	Task     *domain.Task
	CodePath string
	Sums     *domain.TaskSums
	Children []*domain.Task
}

// FormatTaskDetail renders one task with its subtree sums.
func FormatTaskDetail(data TaskDetailData) string {
	t := data.Task
	var b strings.Builder

	b.WriteString(StyleBold.Render(t.Name) + "  " + StatePill(t.Closed) + "\n")
	b.WriteString(Dim(data.CodePath) + "\n\n")

	field := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s  %s\n", StyleDim.Render(fmt.Sprintf("%-8s", label)), value))
	}
	field("ID", t.ID)
	field("PATH", t.FullPath())
	if t.Comment != "" {
		field("COMMENT", t.Comment)
	}
	field("UPDATED", HumanDate(t.UpdatedAt))

	if s := data.Sums; s != nil {
		b.WriteString("\n" + Header("Sums") + "\n")
		field("BUDGET", Amount(s.BudgetSum))
		field("INIT", Amount(s.InitiallyConsumedSum))
		field("CONSUMED", fmt.Sprintf("%s %s", Amount(s.Contributions.ConsumedSum),
			Dim(fmt.Sprintf("(%d contributions)", s.Contributions.ContributionsCount))))
		field("TODO", Amount(s.TodoSum))
		field("DELTA", Delta(s.Delta()))
		if pct, ok := Completion(s); ok {
			field("PROGRESS", RenderProgress(pct, 16))
		}
	}

	if len(data.Children) > 0 {
		b.WriteString("\n" + Header("Subtasks") + "\n")
		b.WriteString(RenderTree(TaskTreeItems(data.Children)))
	}

	return RenderBox("", strings.TrimRight(b.String(), "\n"))
}
