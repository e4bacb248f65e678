package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/timetree/internal/db"
	"github.com/alexanderramin/timetree/internal/domain"
)

// SQLiteCollaboratorRepo implements CollaboratorRepo using a SQLite database.
type SQLiteCollaboratorRepo struct {
	db db.DBTX
}

func NewSQLiteCollaboratorRepo(db db.DBTX) *SQLiteCollaboratorRepo {
	return &SQLiteCollaboratorRepo{db: db}
}

const collaboratorColumns = `id, login, first_name, last_name, is_active, created_at, updated_at`

func (r *SQLiteCollaboratorRepo) Create(ctx context.Context, c *domain.Collaborator) error {
	query := `INSERT INTO collaborators (` + collaboratorColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ID,
		c.Login,
		c.FirstName,
		c.LastName,
		boolToInt(c.IsActive),
		formatTimestamp(c.CreatedAt),
		formatTimestamp(c.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting collaborator: %w", err)
	}
	return nil
}

func (r *SQLiteCollaboratorRepo) GetByID(ctx context.Context, id string) (*domain.Collaborator, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+collaboratorColumns+` FROM collaborators WHERE id = ?`, id)
	return r.scanCollaborator(row)
}

func (r *SQLiteCollaboratorRepo) GetByLogin(ctx context.Context, login string) (*domain.Collaborator, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+collaboratorColumns+` FROM collaborators WHERE login = ?`, login)
	return r.scanCollaborator(row)
}

func (r *SQLiteCollaboratorRepo) List(ctx context.Context, activeOnly bool) ([]*domain.Collaborator, error) {
	query := `SELECT ` + collaboratorColumns + ` FROM collaborators`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY login`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing collaborators: %w", err)
	}
	defer rows.Close()

	var out []*domain.Collaborator
	for rows.Next() {
		c, err := r.scanCollaborator(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating collaborators: %w", err)
	}
	return out, nil
}

func (r *SQLiteCollaboratorRepo) Update(ctx context.Context, c *domain.Collaborator) error {
	query := `UPDATE collaborators SET login = ?, first_name = ?, last_name = ?, is_active = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		c.Login,
		c.FirstName,
		c.LastName,
		boolToInt(c.IsActive),
		formatTimestamp(c.UpdatedAt),
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("updating collaborator: %w", err)
	}
	return requireOneRow(res, "collaborator "+c.ID)
}

func (r *SQLiteCollaboratorRepo) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM collaborators WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting collaborator: %w", err)
	}
	return requireOneRow(res, "collaborator "+id)
}

func (r *SQLiteCollaboratorRepo) scanCollaborator(row rowScanner) (*domain.Collaborator, error) {
	var (
		c          domain.Collaborator
		active     int
		createdStr string
		updatedStr string
	)
	if err := row.Scan(&c.ID, &c.Login, &c.FirstName, &c.LastName, &active, &createdStr, &updatedStr); err != nil {
		return nil, notFound("collaborator", err)
	}
	c.IsActive = intToBool(active)
	var err error
	if c.CreatedAt, err = parseTimestamp("collaborator created_at", createdStr); err != nil {
		return nil, err
	}
	if c.UpdatedAt, err = parseTimestamp("collaborator updated_at", updatedStr); err != nil {
		return nil, err
	}
	return &c, nil
}
