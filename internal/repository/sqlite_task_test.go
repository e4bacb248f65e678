package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/alexanderramin/timetree/internal/domain"
	"github.com/alexanderramin/timetree/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedTree creates ROOT(01) with children A(0101) and B(0102), and A1(010101)
// under A.
func seedTree(t *testing.T, database *sql.DB) (root, a, b, a1 *domain.Task) {
	t.Helper()
	repo := NewSQLiteTaskRepo(database)
	ctx := context.Background()

	root = testutil.NewTestTask("ROOT")
	a = testutil.NewTestTask("A", testutil.WithParent(root, 1))
	b = testutil.NewTestTask("B", testutil.WithParent(root, 2), testutil.WithBudget(200), testutil.WithInitiallyConsumed(10))
	a1 = testutil.NewTestTask("A1", testutil.WithParent(a, 1), testutil.WithBudget(100), testutil.WithTodo(50))
	for _, task := range []*domain.Task{root, a, b, a1} {
		require.NoError(t, repo.Create(ctx, task))
	}
	return root, a, b, a1
}

func TestTaskRepo_CreateAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()
	root, a, _, _ := seedTree(t, db)

	fetched, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "01", fetched.Path)
	assert.Equal(t, 1, fetched.Number)
	assert.Equal(t, "0101", fetched.FullPath())
	assert.Equal(t, a.CreatedAt.Unix(), fetched.CreatedAt.Unix())

	byNumber, err := repo.GetByPathAndNumber(ctx, "", 1)
	require.NoError(t, err)
	assert.Equal(t, root.ID, byNumber.ID)

	byCode, err := repo.GetByPathAndCode(ctx, "01", "B")
	require.NoError(t, err)
	assert.Equal(t, 2, byCode.Number)
}

func TestTaskRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)

	_, err := repo.GetByID(context.Background(), "nonexistent")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTaskRepo_ChildrenAndSubtree(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()
	root, a, b, a1 := seedTree(t, db)

	children, err := repo.ListChildren(ctx, root.FullPath())
	require.NoError(t, err)
	require.Len(t, children, 2)
	assert.Equal(t, a.ID, children[0].ID)
	assert.Equal(t, b.ID, children[1].ID)

	subtree, err := repo.ListSubtree(ctx, root.FullPath())
	require.NoError(t, err)
	require.Len(t, subtree, 3)
	assert.Equal(t, a1.ID, subtree[2].ID, "deepest task comes last")

	n, err := repo.CountChildren(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	maxNumber, err := repo.MaxNumber(ctx, root.FullPath())
	require.NoError(t, err)
	assert.Equal(t, 2, maxNumber)

	maxNumber, err = repo.MaxNumber(ctx, a1.FullPath())
	require.NoError(t, err)
	assert.Equal(t, 0, maxNumber)
}

func TestTaskRepo_Select(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()
	root, a, b, a1 := seedTree(t, db)

	got, err := repo.Select(ctx, TaskFilter{PathPrefix: testutil.Ptr(root.FullPath()), OrderBy: OrderByCode})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"A", "A1", "B"}, []string{got[0].Code, got[1].Code, got[2].Code})

	got, err = repo.Select(ctx, TaskFilter{CodeLike: "A%"})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = repo.Select(ctx, TaskFilter{IDs: []string{b.ID, a1.ID}, Limit: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID, "ordered by path then number")

	got, err = repo.Select(ctx, TaskFilter{Path: testutil.Ptr(a.FullPath())})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a1.ID, got[0].ID)

	_, err = repo.Select(ctx, TaskFilter{OrderBy: "budget; DROP TABLE tasks"})
	assert.Error(t, err)
}

func TestTaskRepo_RebaseSubtree(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()
	_, a, _, a1 := seedTree(t, db)

	// Park A in slot 00 and carry its child along.
	require.NoError(t, repo.UpdatePosition(ctx, a.ID, a.Path, domain.ParkingNumber))
	n, err := repo.RebaseSubtree(ctx, a.FullPath(), domain.FullPath(a.Path, domain.ParkingNumber))
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	moved, err := repo.GetByID(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, "0100", moved.Path)

	n, err = repo.RebaseSubtree(ctx, "0100", "0100")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestTaskRepo_UpdateAndDelete(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()
	root, a, _, a1 := seedTree(t, db)

	a1.Name = "Renamed"
	a1.Closed = true
	require.NoError(t, repo.Update(ctx, a1))
	fetched, err := repo.GetByID(ctx, a1.ID)
	require.NoError(t, err)
	assert.Equal(t, "Renamed", fetched.Name)
	assert.True(t, fetched.Closed)

	n, err := repo.DeleteSubtree(ctx, a.FullPath())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	require.NoError(t, repo.Delete(ctx, a.ID))

	remaining, err := repo.ListSubtree(ctx, root.FullPath())
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	err = repo.Delete(ctx, a.ID)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestTaskRepo_Sums(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)
	ctx := context.Background()
	root, a, b, _ := seedTree(t, db)

	sums, err := repo.Sums(ctx, TaskSumsSelector{TaskID: &root.ID})
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.False(t, sums[0].IsLeaf)
	assert.Equal(t, int64(300), sums[0].BudgetSum)
	assert.Equal(t, int64(10), sums[0].InitiallyConsumedSum)
	assert.Equal(t, int64(50), sums[0].TodoSum)

	sums, err = repo.Sums(ctx, TaskSumsSelector{ParentPath: testutil.Ptr(root.FullPath())})
	require.NoError(t, err)
	require.Len(t, sums, 2)
	assert.Equal(t, a.ID, sums[0].Task.ID)
	assert.False(t, sums[0].IsLeaf)
	assert.Equal(t, int64(100), sums[0].BudgetSum)
	assert.Equal(t, b.ID, sums[1].Task.ID)
	assert.True(t, sums[1].IsLeaf)
	assert.Equal(t, int64(200), sums[1].BudgetSum)

	sums, err = repo.Sums(ctx, TaskSumsSelector{PathPrefix: testutil.Ptr(root.FullPath())})
	require.NoError(t, err)
	assert.Len(t, sums, 3)
}

func TestTaskRepo_Sums_ConflictingSelectors(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteTaskRepo(db)

	_, err := repo.Sums(context.Background(), TaskSumsSelector{
		TaskID:     testutil.Ptr("x"),
		ParentPath: testutil.Ptr(""),
	})
	assert.ErrorIs(t, err, ErrConflictingSelectors)

	_, err = repo.Sums(context.Background(), TaskSumsSelector{})
	assert.Error(t, err)
}
