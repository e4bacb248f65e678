package db_test

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/alexanderramin/timetree/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestUoW(t *testing.T) *db.SQLiteUnitOfWork {
	t.Helper()
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return db.NewSQLiteUnitOfWork(database)
}

// durationExists reads through a fresh transaction so it sees only committed rows.
func durationExists(t *testing.T, uow *db.SQLiteUnitOfWork, id int64) bool {
	t.Helper()
	var n int
	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		return tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM durations WHERE id = ?`, id).Scan(&n)
	})
	require.NoError(t, err)
	return n > 0
}

func TestWithinTx_CommitOnSuccess(t *testing.T) {
	uow := openTestUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO durations (id, is_active) VALUES (?, 1)`, 100)
		return err
	})
	require.NoError(t, err)
	assert.True(t, durationExists(t, uow, 100))
}

func TestWithinTx_RollbackOnError(t *testing.T) {
	uow := openTestUoW(t)

	err := uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO durations (id, is_active) VALUES (?, 1)`, 50); err != nil {
			return err
		}
		return fmt.Errorf("deliberate failure")
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "deliberate failure")
	assert.False(t, durationExists(t, uow, 50), "row should not survive rollback")
}

func TestWithinTx_RollbackOnPanic(t *testing.T) {
	uow := openTestUoW(t)

	assert.Panics(t, func() {
		_ = uow.WithinTx(context.Background(), func(ctx context.Context, tx db.DBTX) error {
			_, _ = tx.ExecContext(ctx, `INSERT INTO durations (id, is_active) VALUES (?, 1)`, 25)
			panic("boom")
		})
	})
	assert.False(t, durationExists(t, uow, 25), "row should not survive a panic")
}

func TestOpenDB_MigratesOnceAndEnforcesForeignKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "timetree.db")
	database, err := db.OpenDB(path)
	require.NoError(t, err)

	var version int
	require.NoError(t, database.QueryRow(`PRAGMA user_version`).Scan(&version))
	assert.Equal(t, db.CurrentVersion, version)

	var fk int
	require.NoError(t, database.QueryRow(`PRAGMA foreign_keys`).Scan(&fk))
	assert.Equal(t, 1, fk)

	_, err = database.Exec(`INSERT INTO contributions (contributor_id, task_id, day, duration_id, created_at)
		VALUES ('nobody', 'nothing', '2025-01-01', 100, '2025-01-01T00:00:00Z')`)
	assert.Error(t, err, "dangling references must be rejected")
	require.NoError(t, database.Close())

	reopened, err := db.OpenDB(path)
	require.NoError(t, err, "reopening a migrated database is a no-op")
	require.NoError(t, reopened.Close())
}

func TestMigrate_Idempotent(t *testing.T) {
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	defer database.Close()
	require.NoError(t, db.Migrate(database))
}

func TestTasksTable_PositionIsUnique(t *testing.T) {
	database, err := db.OpenDB(":memory:")
	require.NoError(t, err)
	defer database.Close()

	insert := `INSERT INTO tasks (id, path, number, code, name, created_at, updated_at)
		VALUES (?, '', ?, ?, 'n', 'x', 'x')`
	_, err = database.Exec(insert, "a", 1, "A")
	require.NoError(t, err)
	_, err = database.Exec(insert, "b", 1, "B")
	assert.Error(t, err, "two siblings cannot share a number")
	_, err = database.Exec(insert, "c", 2, "A")
	assert.Error(t, err, "two siblings cannot share a code")
}
