package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/timetree/internal/db"
	"github.com/alexanderramin/timetree/internal/domain"
)

// SQLiteDurationRepo implements DurationRepo using a SQLite database.
type SQLiteDurationRepo struct {
	db db.DBTX
}

func NewSQLiteDurationRepo(db db.DBTX) *SQLiteDurationRepo {
	return &SQLiteDurationRepo{db: db}
}

func (r *SQLiteDurationRepo) Create(ctx context.Context, d *domain.Duration) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO durations (id, is_active) VALUES (?, ?)`,
		d.ID, boolToInt(d.IsActive))
	if err != nil {
		return fmt.Errorf("inserting duration: %w", err)
	}
	return nil
}

func (r *SQLiteDurationRepo) GetByID(ctx context.Context, id int64) (*domain.Duration, error) {
	var (
		d      domain.Duration
		active int
	)
	err := r.db.QueryRowContext(ctx, `SELECT id, is_active FROM durations WHERE id = ?`, id).Scan(&d.ID, &active)
	if err != nil {
		return nil, notFound("duration", err)
	}
	d.IsActive = intToBool(active)
	return &d, nil
}

func (r *SQLiteDurationRepo) List(ctx context.Context, activeOnly bool) ([]*domain.Duration, error) {
	query := `SELECT id, is_active FROM durations`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY id`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing durations: %w", err)
	}
	defer rows.Close()

	var out []*domain.Duration
	for rows.Next() {
		var (
			d      domain.Duration
			active int
		)
		if err := rows.Scan(&d.ID, &active); err != nil {
			return nil, fmt.Errorf("scanning duration: %w", err)
		}
		d.IsActive = intToBool(active)
		out = append(out, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating durations: %w", err)
	}
	return out, nil
}

func (r *SQLiteDurationRepo) SetActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE durations SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("updating duration: %w", err)
	}
	return requireOneRow(res, fmt.Sprintf("duration %d", id))
}

func (r *SQLiteDurationRepo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM durations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting duration: %w", err)
	}
	return requireOneRow(res, fmt.Sprintf("duration %d", id))
}
