package interchange

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/repository"
	"github.com/alexanderramin/timetree/internal/service"
	"github.com/alexanderramin/timetree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServices(t *testing.T) Services {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)
	lock := service.NewTreeLock()
	return Services{
		Tasks:         service.NewTaskService(repository.NewSQLiteTaskRepo(database), uow, lock),
		Contributions: service.NewContributionService(repository.NewSQLiteContributionRepo(database), uow, lock),
		Durations:     service.NewDurationService(repository.NewSQLiteDurationRepo(database), uow),
		Collaborators: service.NewCollaboratorService(repository.NewSQLiteCollaboratorRepo(database), uow),
	}
}

const sampleModel = `<?xml version="1.0" encoding="UTF-8"?>
<model>
  <durations>
    <duration value="0.50" active="true"></duration>
    <duration value="1.00" active="false"></duration>
  </durations>
  <collaborators>
    <collaborator login="alice" active="true"><firstName>Alice</firstName></collaborator>
    <collaborator login="bob" active="false"></collaborator>
  </collaborators>
  <tasks>
    <task code="PRJ">
      <name>Project</name>
      <task code="DEV">
        <name>Development</name>
        <budget>10.00</budget>
        <todo>4.00</todo>
      </task>
      <task code="DOC" closed="true">
        <name>Documentation</name>
        <comment>user guide</comment>
      </task>
    </task>
  </tasks>
  <contributions>
    <contribution login="alice" task="/PRJ/DEV" date="2025-03-03" duration="0.50"></contribution>
    <contribution login="bob" task="/PRJ/DOC" date="2025-03-04" duration="1.00"></contribution>
  </contributions>
</model>
`

func TestImportModel(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)

	m, err := ReadModel(strings.NewReader(sampleModel))
	require.NoError(t, err)
	res, err := ImportModel(ctx, s, m)
	require.NoError(t, err)
	assert.Equal(t, &ImportResult{Durations: 2, Collaborators: 2, Tasks: 3, Contributions: 2}, res)

	dev, err := s.Tasks.GetByCodePath(ctx, nil, "/PRJ/DEV")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), dev.Budget)
	assert.Equal(t, int64(400), dev.Todo, "import does not touch the estimate")
	assert.Equal(t, "0101", dev.FullPath())

	doc, err := s.Tasks.GetByCodePath(ctx, nil, "/PRJ/DOC")
	require.NoError(t, err)
	assert.True(t, doc.Closed)
	assert.Equal(t, "user guide", doc.Comment)

	bob, err := s.Collaborators.GetByLogin(ctx, "bob")
	require.NoError(t, err)
	assert.False(t, bob.IsActive)
	active, err := s.Durations.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, int64(50), active[0].ID)

	sums, err := s.Contributions.Sum(ctx, repository.ContributionFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(150), sums.ConsumedSum)
}

func TestExportModel_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newServices(t)
	m, err := ReadModel(strings.NewReader(sampleModel))
	require.NoError(t, err)
	_, err = ImportModel(ctx, src, m)
	require.NoError(t, err)

	exported, err := ExportModel(ctx, src)
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteModel(&buf, exported))
	assert.True(t, strings.HasPrefix(buf.String(), "<?xml"))

	reread, err := ReadModel(&buf)
	require.NoError(t, err)
	require.Len(t, reread.Tasks, 1)
	prj := reread.Tasks[0]
	assert.Equal(t, "PRJ", prj.Code)
	require.Len(t, prj.Tasks, 2)
	assert.Equal(t, "DEV", prj.Tasks[0].Code)
	assert.Equal(t, "10.00", prj.Tasks[0].Budget)
	assert.Empty(t, prj.Tasks[1].Budget, "zero amounts are omitted")
	assert.True(t, prj.Tasks[1].Closed)
	assert.ElementsMatch(t, m.Contributions, reread.Contributions)

	dst := newServices(t)
	res, err := ImportModel(ctx, dst, reread)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Tasks)
	assert.Equal(t, 2, res.Contributions)
}

func TestImportModel_RejectsInvalidDocument(t *testing.T) {
	ctx := context.Background()
	s := newServices(t)
	m := &Model{
		Tasks: []TaskXML{{Code: "A", Name: "a", Budget: "1", Tasks: []TaskXML{{Code: "B", Name: "b"}}}},
	}
	_, err := ImportModel(ctx, s, m)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot carry amounts")

	roots, err := s.Tasks.ListChildren(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, roots, "nothing is created from an invalid document")
}

func TestValidateModel(t *testing.T) {
	m := &Model{
		Durations:     []DurationXML{{Value: "1"}, {Value: "1.00"}, {Value: "-2"}, {Value: "x"}},
		Collaborators: []CollaboratorXML{{Login: "a"}, {Login: " a "}, {Login: ""}},
		Tasks: []TaskXML{
			{Code: "A", Name: "a"},
			{Code: "A", Name: ""},
			{Code: "C/D", Name: "c", Todo: "0.001"},
		},
		Contributions: []ContributionXML{
			{Login: "a", Task: "/A", Date: "2025-01-01", Duration: "1"},
			{Login: "a", Task: "/A", Date: "2025-01-01", Duration: "1"},
			{Login: "z", Task: "/X", Date: "01/01/2025", Duration: "3"},
		},
	}
	errs := ValidateModel(m)
	var texts []string
	for _, e := range errs {
		texts = append(texts, e.Error())
	}
	joined := strings.Join(texts, "\n")

	for _, want := range []string{
		`durations[1]: duplicate value "1.00"`,
		"durations[2]: value must be positive",
		"durations[3]: invalid amount",
		`collaborators[1]: duplicate login "a"`,
		"collaborators[2]: login is required",
		`tasks[1].code "A" is used by a sibling`,
		"tasks[1].name is required",
		`tasks[2].code "C/D" must not contain '/'`,
		"tasks[2].todo: invalid amount",
		"contributions[1]: a already logged on 2025-01-01 for /A",
		`contributions[2]: unknown collaborator "z"`,
		`contributions[2]: "/X" is not a leaf task of the model`,
		"contributions[2]: invalid date",
		`contributions[2]: duration "3" is not in the catalog`,
	} {
		assert.Contains(t, joined, want)
	}
	assert.Len(t, errs, 14)
}

func TestWriteModel_OmitsEmptyOptionalFields(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteModel(&buf, &Model{
		Tasks: []TaskXML{{Code: "A", Name: "a", Todo: domain.FormatAmount(250)}},
	}))
	out := buf.String()
	assert.Contains(t, out, `<task code="A">`)
	assert.Contains(t, out, "<todo>2.50</todo>")
	assert.NotContains(t, out, "<budget>")
	assert.NotContains(t, out, "<comment>")
}
