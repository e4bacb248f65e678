package interchange

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const taskSheet = `path,code,name,budget,initiallyConsumed,todo,comment
,WEB,Website,,,,
/WEB,UI,User interface,"12,5",1,3.25,mockups first

/WEB,API,Backend,8,,,
WEB/,DB,Schema,2,,,
,OPS,Operations,1.5,,,
`

func TestImportTasksCSV(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	n, err := ImportTasksCSV(ctx, s.Tasks, nil, strings.NewReader(taskSheet))
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	web, err := s.Tasks.GetByCodePath(ctx, nil, "/WEB")
	require.NoError(t, err)
	children, err := s.Tasks.ListChildren(ctx, &web.ID)
	require.NoError(t, err)
	require.Len(t, children, 3)
	assert.Equal(t, []string{"UI", "API", "DB"}, []string{children[0].Code, children[1].Code, children[2].Code})

	ui := children[0]
	assert.Equal(t, int64(1250), ui.Budget)
	assert.Equal(t, int64(100), ui.InitiallyConsumed)
	assert.Equal(t, int64(325), ui.Todo)
	assert.Equal(t, "mockups first", ui.Comment)

	ops, err := s.Tasks.GetByCodePath(ctx, nil, "/OPS")
	require.NoError(t, err)
	assert.Equal(t, 2, ops.Number)
}

func TestImportTasksCSV_UnderParent(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	parent, err := s.Tasks.CreateTask(ctx, nil, &domain.Task{Code: "ROOT", Name: "root"})
	require.NoError(t, err)

	_, err = ImportTasksCSV(ctx, s.Tasks, &parent.ID, strings.NewReader(",A,a task\n"))
	require.NoError(t, err)

	a, err := s.Tasks.GetByCodePath(ctx, &parent.ID, "A")
	require.NoError(t, err)
	assert.Equal(t, parent.FullPath(), a.Path)
}

func TestImportTasksCSV_Errors(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		sheet   string
		created int
		want    string
	}{
		{"bad amount", ",A,a,abc\n", 0, "row 1: budget"},
		{"unknown parent", ",A,a\n/B,C,c\n", 1, `row 2: parent "/B"`},
		{"missing name", "path,code,name\n,A,\n", 0, "row 2: TASK_NAME_REQUIRED"},
		{"container with amounts", ",A,a,1\n/A,B,b\n", 1, "row 2: TASK_WITH_AMOUNTS_CANNOT_ACCEPT_SUBTASKS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newServices(t)
			n, err := ImportTasksCSV(ctx, s.Tasks, nil, strings.NewReader(tt.sheet))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
			assert.Equal(t, tt.created, n)
		})
	}
}

func TestExportTasksCSV_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newServices(t)
	_, err := ImportTasksCSV(ctx, src.Tasks, nil, strings.NewReader(taskSheet))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ExportTasksCSV(ctx, src.Tasks, nil, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, strings.Join(TaskColumns, ","), lines[0])
	assert.Equal(t, ",WEB,Website,,,,", lines[1])
	assert.Equal(t, "/WEB,UI,User interface,12.50,1.00,3.25,mockups first", lines[2])
	assert.Equal(t, ",OPS,Operations,1.50,,,", lines[5])

	dst := newServices(t)
	n, err := ImportTasksCSV(ctx, dst.Tasks, nil, &buf)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
}

func TestWriteReportCSV(t *testing.T) {
	june := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	report := &service.Report{
		Plan: &service.ReportPlan{
			Start: june,
			Count: 2,
			Unit:  domain.IntervalMonth,
			Buckets: []service.Bucket{
				{Start: june, End: june.AddDate(0, 1, -1)},
				{Start: june.AddDate(0, 1, 0), End: june.AddDate(0, 2, -1)},
			},
		},
		Rows: []service.ReportRow{
			{Task: &domain.Task{Code: "A", Name: "Alpha"}, Values: []int64{150, 0}, Total: 150},
			{Task: &domain.Task{Code: "B", Name: "Beta, Inc"}, Values: []int64{25, 100}, Total: 125},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteReportCSV(&buf, report))
	assert.Equal(t,
		"code,name,2025-06-01,2025-07-01,total\n"+
			"A,Alpha,1.50,0.00,1.50\n"+
			"B,\"Beta, Inc\",0.25,1.00,1.25\n",
		buf.String())
}
