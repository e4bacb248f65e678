package interchange

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/service"
)

// TaskColumns is the column order of task sheets. path is the code path of
// the row's parent relative to the import root, empty for direct children.
var TaskColumns = []string{"path", "code", "name", "budget", "initiallyConsumed", "todo", "comment"}

const (
	colPath = iota
	colCode
	colName
	colBudget
	colInitiallyConsumed
	colTodo
	colComment
)

// ImportTasksCSV creates one task per row under parentID (root level when
// nil), in row order. A leading header row and blank rows are skipped.
// Returns the number of tasks created; rows before a failing one stay
// created.
func ImportTasksCSV(ctx context.Context, tasks service.TaskService, parentID *string, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	// relative code path -> task id
	known := map[string]*string{"": parentID}
	created := 0
	first := true
	for line := 1; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return created, nil
		}
		if err != nil {
			return created, fmt.Errorf("reading task sheet: %w", err)
		}
		if blankRecord(record) {
			continue
		}
		if first {
			first = false
			if isTaskHeader(record) {
				continue
			}
		}
		for len(record) < len(TaskColumns) {
			record = append(record, "")
		}

		draft, err := taskFromRecord(record)
		if err != nil {
			return created, fmt.Errorf("row %d: %w", line, err)
		}
		rel := normalizeCodePath(record[colPath])
		parent, ok := known[rel]
		if !ok {
			t, err := tasks.GetByCodePath(ctx, parentID, rel)
			if err != nil {
				return created, fmt.Errorf("row %d: parent %q: %w", line, rel, err)
			}
			parent = &t.ID
			known[rel] = parent
		}
		task, err := tasks.CreateTask(ctx, parent, draft)
		if err != nil {
			return created, fmt.Errorf("row %d: %w", line, err)
		}
		created++
		known[rel+"/"+task.Code] = &task.ID
	}
}

func taskFromRecord(record []string) (*domain.Task, error) {
	t := &domain.Task{
		Code:    strings.TrimSpace(record[colCode]),
		Name:    strings.TrimSpace(record[colName]),
		Comment: strings.TrimSpace(record[colComment]),
	}
	var err error
	if t.Budget, err = domain.ParseAmount(record[colBudget]); err != nil {
		return nil, fmt.Errorf("budget: %w", err)
	}
	if t.InitiallyConsumed, err = domain.ParseAmount(record[colInitiallyConsumed]); err != nil {
		return nil, fmt.Errorf("initiallyConsumed: %w", err)
	}
	if t.Todo, err = domain.ParseAmount(record[colTodo]); err != nil {
		return nil, fmt.Errorf("todo: %w", err)
	}
	return t, nil
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func isTaskHeader(record []string) bool {
	return len(record) > colCode &&
		strings.EqualFold(strings.TrimSpace(record[colPath]), TaskColumns[colPath]) &&
		strings.EqualFold(strings.TrimSpace(record[colCode]), TaskColumns[colCode])
}

// normalizeCodePath turns "A/B", "/A/B/" and " /A/ B" into "/A/B".
func normalizeCodePath(p string) string {
	var b strings.Builder
	for _, code := range strings.Split(p, "/") {
		if code = strings.TrimSpace(code); code != "" {
			b.WriteString("/" + code)
		}
	}
	return b.String()
}

// ExportTasksCSV writes the subtree below parentID (every task when nil) in
// the sheet format ImportTasksCSV reads, parents before children.
func ExportTasksCSV(ctx context.Context, tasks service.TaskService, parentID *string, w io.Writer) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(TaskColumns); err != nil {
		return err
	}
	if err := exportTaskRows(ctx, tasks, writer, parentID, ""); err != nil {
		return err
	}
	writer.Flush()
	return writer.Error()
}

func exportTaskRows(ctx context.Context, tasks service.TaskService, writer *csv.Writer, parentID *string, rel string) error {
	children, err := tasks.ListChildren(ctx, parentID)
	if err != nil {
		return fmt.Errorf("listing tasks under %q: %w", rel, err)
	}
	for _, t := range children {
		row := []string{rel, t.Code, t.Name, amountText(t.Budget), amountText(t.InitiallyConsumed), amountText(t.Todo), t.Comment}
		if err := writer.Write(row); err != nil {
			return err
		}
		if err := exportTaskRows(ctx, tasks, writer, &t.ID, rel+"/"+t.Code); err != nil {
			return err
		}
	}
	return nil
}
