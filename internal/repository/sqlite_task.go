package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alexanderramin/timetree/internal/db"
	"github.com/alexanderramin/timetree/internal/domain"
)

// SQLiteTaskRepo implements TaskRepo using a SQLite database.
type SQLiteTaskRepo struct {
	db db.DBTX
}

// NewSQLiteTaskRepo creates a new SQLiteTaskRepo. Pass a *sql.Tx to scope the
// repository to a unit of work.
func NewSQLiteTaskRepo(db db.DBTX) *SQLiteTaskRepo {
	return &SQLiteTaskRepo{db: db}
}

const taskColumns = `t.id, t.path, t.number, t.code, t.name, t.comment,
	t.budget, t.initially_consumed, t.todo, t.closed, t.created_at, t.updated_at`

func (r *SQLiteTaskRepo) Create(ctx context.Context, t *domain.Task) error {
	query := `INSERT INTO tasks (id, path, number, code, name, comment, budget, initially_consumed, todo, closed, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.Path,
		t.Number,
		t.Code,
		t.Name,
		t.Comment,
		t.Budget,
		t.InitiallyConsumed,
		t.Todo,
		boolToInt(t.Closed),
		formatTimestamp(t.CreatedAt),
		formatTimestamp(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting task: %w", err)
	}
	return nil
}

func (r *SQLiteTaskRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id = ?`
	return r.scanTask(r.db.QueryRowContext(ctx, query, id))
}

func (r *SQLiteTaskRepo) GetByPathAndNumber(ctx context.Context, path string, number int) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.path = ? AND t.number = ?`
	return r.scanTask(r.db.QueryRowContext(ctx, query, path, number))
}

func (r *SQLiteTaskRepo) GetByPathAndCode(ctx context.Context, path, code string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.path = ? AND t.code = ?`
	return r.scanTask(r.db.QueryRowContext(ctx, query, path, code))
}

// ListChildren returns the tasks whose parent full path is path, ordered by
// number. An empty path lists the root level.
func (r *SQLiteTaskRepo) ListChildren(ctx context.Context, path string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.path = ? ORDER BY t.number`
	return r.queryTasks(ctx, "listing child tasks", query, path)
}

// ListSubtree returns every task strictly below fullPath, parents before
// children.
func (r *SQLiteTaskRepo) ListSubtree(ctx context.Context, fullPath string) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t
		WHERE ` + underPathExpr("t", "?") + `
		ORDER BY length(t.path), t.path, t.number`
	return r.queryTasks(ctx, "listing subtree", query, fullPath, fullPath)
}

func (r *SQLiteTaskRepo) Select(ctx context.Context, f TaskFilter) ([]*domain.Task, error) {
	var w whereClause
	if len(f.IDs) > 0 {
		args := make([]any, len(f.IDs))
		for i, id := range f.IDs {
			args[i] = id
		}
		w.add("t.id IN ("+placeholders(len(f.IDs))+")", args...)
	}
	if f.Path != nil {
		w.add("t.path = ?", *f.Path)
	}
	if f.PathPrefix != nil {
		w.add(underPathExpr("t", "?"), *f.PathPrefix, *f.PathPrefix)
	}
	if f.Code != nil {
		w.add("t.code = ?", *f.Code)
	}
	if f.CodeLike != "" {
		w.add("t.code LIKE ?", f.CodeLike)
	}
	if f.NameLike != "" {
		w.add("t.name LIKE ?", f.NameLike)
	}
	if f.Closed != nil {
		w.add("t.closed = ?", boolToInt(*f.Closed))
	}

	var order string
	switch f.OrderBy {
	case OrderByCode:
		order = "t.code, t.path, t.number"
	case OrderByName:
		order = "t.name, t.path, t.number"
	case OrderByPosition, "":
		order = "t.path, t.number"
	default:
		return nil, fmt.Errorf("selecting tasks: unsupported order %q", f.OrderBy)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks t` + w.sql("WHERE") + ` ORDER BY ` + order
	if f.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", f.Limit)
	}
	return r.queryTasks(ctx, "selecting tasks", query, w.args...)
}

func (r *SQLiteTaskRepo) CountChildren(ctx context.Context, path string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tasks WHERE path = ?`, path).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting child tasks: %w", err)
	}
	return n, nil
}

// MaxNumber returns the highest sibling number under path, 0 when empty.
func (r *SQLiteTaskRepo) MaxNumber(ctx context.Context, path string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(number), 0) FROM tasks WHERE path = ?`, path).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("reading max task number: %w", err)
	}
	return n, nil
}

// Update writes the non-positional fields. Path and number only change
// through UpdatePosition.
func (r *SQLiteTaskRepo) Update(ctx context.Context, t *domain.Task) error {
	query := `UPDATE tasks SET code = ?, name = ?, comment = ?, budget = ?, initially_consumed = ?, todo = ?, closed = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		t.Code,
		t.Name,
		t.Comment,
		t.Budget,
		t.InitiallyConsumed,
		t.Todo,
		boolToInt(t.Closed),
		formatTimestamp(t.UpdatedAt),
		t.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}
	return requireOneRow(res, "task "+t.ID)
}

func (r *SQLiteTaskRepo) UpdatePosition(ctx context.Context, id, path string, number int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE tasks SET path = ?, number = ? WHERE id = ?`, path, number, id)
	if err != nil {
		return fmt.Errorf("updating task position: %w", err)
	}
	return requireOneRow(res, "task "+id)
}

// RebaseSubtree replaces the oldPrefix of every descendant path with
// newPrefix and returns the number of rewritten rows.
func (r *SQLiteTaskRepo) RebaseSubtree(ctx context.Context, oldPrefix, newPrefix string) (int64, error) {
	if oldPrefix == newPrefix {
		return 0, nil
	}
	query := `UPDATE tasks SET path = ? || substr(path, ? + 1)
		WHERE substr(path, 1, ?) = ?`
	res, err := r.db.ExecContext(ctx, query, newPrefix, len(oldPrefix), len(oldPrefix), oldPrefix)
	if err != nil {
		return 0, fmt.Errorf("rebasing subtree %s: %w", oldPrefix, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rebasing subtree %s: %w", oldPrefix, err)
	}
	return n, nil
}

// DeleteSubtree deletes every task strictly below fullPath.
func (r *SQLiteTaskRepo) DeleteSubtree(ctx context.Context, fullPath string) (int64, error) {
	if fullPath == "" {
		return 0, fmt.Errorf("deleting subtree: empty path")
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE substr(path, 1, ?) = ?`, len(fullPath), fullPath)
	if err != nil {
		return 0, fmt.Errorf("deleting subtree %s: %w", fullPath, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("deleting subtree %s: %w", fullPath, err)
	}
	return n, nil
}

func (r *SQLiteTaskRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}
	return requireOneRow(res, "task "+id)
}

func (r *SQLiteTaskRepo) queryTasks(ctx context.Context, op, query string, args ...any) ([]*domain.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := r.scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tasks: %w", err)
	}
	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *SQLiteTaskRepo) scanTask(row rowScanner) (*domain.Task, error) {
	return scanTaskWith(row)
}

// scanTaskWith scans the task columns followed by any extra destinations.
func scanTaskWith(row rowScanner, extra ...any) (*domain.Task, error) {
	var (
		t          domain.Task
		closed     int
		createdStr string
		updatedStr string
	)
	dest := []any{
		&t.ID, &t.Path, &t.Number, &t.Code, &t.Name, &t.Comment,
		&t.Budget, &t.InitiallyConsumed, &t.Todo, &closed, &createdStr, &updatedStr,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, notFound("task", err)
	}
	t.Closed = intToBool(closed)
	var err error
	if t.CreatedAt, err = parseTimestamp("task created_at", createdStr); err != nil {
		return nil, err
	}
	if t.UpdatedAt, err = parseTimestamp("task updated_at", updatedStr); err != nil {
		return nil, err
	}
	return &t, nil
}

func requireOneRow(res sql.Result, entity string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return nil
}
