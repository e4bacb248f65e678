package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/alexanderramin/timetree/internal/db"
	"github.com/alexanderramin/timetree/internal/domain"
)

// SQLiteContributionRepo implements ContributionRepo using a SQLite database.
type SQLiteContributionRepo struct {
	db db.DBTX
}

func NewSQLiteContributionRepo(db db.DBTX) *SQLiteContributionRepo {
	return &SQLiteContributionRepo{db: db}
}

const contributionColumns = `c.contributor_id, c.task_id, c.day, c.duration_id, c.created_at`

func (r *SQLiteContributionRepo) Create(ctx context.Context, c *domain.Contribution) error {
	query := `INSERT INTO contributions (contributor_id, task_id, day, duration_id, created_at)
		VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		c.ContributorID,
		c.TaskID,
		formatDay(c.Date),
		c.DurationID,
		formatTimestamp(c.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting contribution: %w", err)
	}
	return nil
}

func (r *SQLiteContributionRepo) Get(ctx context.Context, contributorID, taskID string, day time.Time) (*domain.Contribution, error) {
	query := `SELECT ` + contributionColumns + ` FROM contributions c
		WHERE c.contributor_id = ? AND c.task_id = ? AND c.day = ?`
	return r.scanContribution(r.db.QueryRowContext(ctx, query, contributorID, taskID, formatDay(day)))
}

func (r *SQLiteContributionRepo) UpdateDuration(ctx context.Context, c *domain.Contribution) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE contributions SET duration_id = ? WHERE contributor_id = ? AND task_id = ? AND day = ?`,
		c.DurationID, c.ContributorID, c.TaskID, formatDay(c.Date))
	if err != nil {
		return fmt.Errorf("updating contribution: %w", err)
	}
	return requireOneRow(res, "contribution "+c.Key())
}

func (r *SQLiteContributionRepo) Delete(ctx context.Context, c *domain.Contribution) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM contributions WHERE contributor_id = ? AND task_id = ? AND day = ?`,
		c.ContributorID, c.TaskID, formatDay(c.Date))
	if err != nil {
		return fmt.Errorf("deleting contribution: %w", err)
	}
	return requireOneRow(res, "contribution "+c.Key())
}

// ledgerScope builds the FROM/WHERE part shared by List and the sums
// queries. The tasks table is joined as s only when a subtree is requested.
func ledgerScope(f ContributionFilter) (string, whereClause) {
	from := ` FROM contributions c`
	var w whereClause
	if f.SubtreeOf != nil {
		from += ` JOIN tasks s ON s.id = c.task_id`
		w.add("("+fullPathExpr("s")+" = ? OR "+underPathExpr("s", "?")+")",
			*f.SubtreeOf, *f.SubtreeOf, *f.SubtreeOf)
	}
	addLedgerFilter(&w, f)
	return from, w
}

// List returns the matching contributions ordered by day, then contributor
// and task.
func (r *SQLiteContributionRepo) List(ctx context.Context, f ContributionFilter) ([]*domain.Contribution, error) {
	from, w := ledgerScope(f)
	query := `SELECT ` + contributionColumns + from + w.sql("WHERE") +
		` ORDER BY c.day, c.contributor_id, c.task_id`
	rows, err := r.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("listing contributions: %w", err)
	}
	defer rows.Close()

	var out []*domain.Contribution
	for rows.Next() {
		c, err := r.scanContribution(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating contributions: %w", err)
	}
	return out, nil
}

func (r *SQLiteContributionRepo) Sum(ctx context.Context, f ContributionFilter) (domain.ContributionSums, error) {
	from, w := ledgerScope(f)
	query := `SELECT COALESCE(SUM(c.duration_id), 0), COUNT(*)` + from + w.sql("WHERE")
	var sums domain.ContributionSums
	if err := r.db.QueryRowContext(ctx, query, w.args...).Scan(&sums.ConsumedSum, &sums.ContributionsCount); err != nil {
		return domain.ContributionSums{}, fmt.Errorf("summing contributions: %w", err)
	}
	return sums, nil
}

// SumByTask groups the matching contributions by the task they were logged
// against.
func (r *SQLiteContributionRepo) SumByTask(ctx context.Context, f ContributionFilter) (map[string]domain.ContributionSums, error) {
	from, w := ledgerScope(f)
	query := `SELECT c.task_id, COALESCE(SUM(c.duration_id), 0), COUNT(*)` + from + w.sql("WHERE") +
		` GROUP BY c.task_id`
	return r.querySums(ctx, "summing contributions by task", query, w.args...)
}

// SubtreeSums returns, for every task in sel, the ledger total over the task
// and its descendants restricted by f. Tasks without matching contributions
// are present with zero sums. f.SubtreeOf and f.TaskID are ignored.
func (r *SQLiteContributionRepo) SubtreeSums(ctx context.Context, sel TaskSumsSelector, f ContributionFilter) (map[string]domain.ContributionSums, error) {
	where, selArgs, err := selectorWhere(sel)
	if err != nil {
		return nil, err
	}
	f.SubtreeOf, f.TaskID = nil, nil
	var on whereClause
	on.add("c.task_id = s.id")
	addLedgerFilter(&on, f)

	query := `SELECT t.id, COALESCE(SUM(c.duration_id), 0), COUNT(c.task_id)
		FROM tasks t
		JOIN tasks s ON ` + subtreeJoin + `
		LEFT JOIN contributions c` + on.sql("ON") + `
		WHERE ` + where + `
		GROUP BY t.id`
	args := append(on.args, selArgs...)
	return r.querySums(ctx, "summing subtree contributions", query, args...)
}

// DateRange returns the first and last contribution days under the task with
// the given full path, or over the whole ledger when it is empty. Both are
// nil when nothing matches.
func (r *SQLiteContributionRepo) DateRange(ctx context.Context, pathPrefix string) (first, last *time.Time, err error) {
	var f ContributionFilter
	if pathPrefix != "" {
		f.SubtreeOf = &pathPrefix
	}
	from, w := ledgerScope(f)
	var minDay, maxDay sql.NullString
	query := `SELECT MIN(c.day), MAX(c.day)` + from + w.sql("WHERE")
	if err := r.db.QueryRowContext(ctx, query, w.args...).Scan(&minDay, &maxDay); err != nil {
		return nil, nil, fmt.Errorf("reading contribution date range: %w", err)
	}
	if first, err = parseNullableDay(minDay); err != nil {
		return nil, nil, err
	}
	if last, err = parseNullableDay(maxDay); err != nil {
		return nil, nil, err
	}
	return first, last, nil
}

func (r *SQLiteContributionRepo) querySums(ctx context.Context, op, query string, args ...any) (map[string]domain.ContributionSums, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	out := make(map[string]domain.ContributionSums)
	for rows.Next() {
		var (
			id   string
			sums domain.ContributionSums
		)
		if err := rows.Scan(&id, &sums.ConsumedSum, &sums.ContributionsCount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out[id] = sums
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func (r *SQLiteContributionRepo) scanContribution(row rowScanner) (*domain.Contribution, error) {
	var (
		c          domain.Contribution
		dayStr     string
		createdStr string
	)
	if err := row.Scan(&c.ContributorID, &c.TaskID, &dayStr, &c.DurationID, &createdStr); err != nil {
		return nil, notFound("contribution", err)
	}
	var err error
	if c.Date, err = domain.ParseDay(dayStr); err != nil {
		return nil, err
	}
	if c.CreatedAt, err = parseTimestamp("contribution created_at", createdStr); err != nil {
		return nil, err
	}
	return &c, nil
}
