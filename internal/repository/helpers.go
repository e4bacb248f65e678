package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/timetree/internal/domain"
)

// fullPathExpr renders the full path of the task aliased t in SQL.
func fullPathExpr(alias string) string {
	return alias + ".path || printf('%02X', " + alias + ".number)"
}

// underPathExpr matches rows of alias whose path starts with the given SQL
// expression, i.e. strict descendants of that full path.
func underPathExpr(alias, prefixExpr string) string {
	return "substr(" + alias + ".path, 1, length(" + prefixExpr + ")) = " + prefixExpr
}

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts a SQLite integer (0 or 1) to a Go bool.
func intToBool(i int) bool {
	return i != 0
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func parseTimestamp(field, s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing %s: %w", field, err)
	}
	return t, nil
}

func formatDay(t time.Time) string {
	return t.Format(domain.DateLayout)
}

// parseNullableDay parses a possibly-NULL day column.
func parseNullableDay(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(domain.DateLayout, s.String)
	if err != nil {
		return nil, fmt.Errorf("parsing day %q: %w", s.String, err)
	}
	return &t, nil
}

// notFound maps sql.ErrNoRows to ErrNotFound with entity context.
func notFound(entity string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", entity, ErrNotFound)
	}
	return fmt.Errorf("scanning %s: %w", entity, err)
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// whereClause accumulates AND-ed conditions and their arguments.
type whereClause struct {
	conds []string
	args  []any
}

func (w *whereClause) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *whereClause) sql(keyword string) string {
	if len(w.conds) == 0 {
		return ""
	}
	return " " + keyword + " " + strings.Join(w.conds, " AND ")
}

// addLedgerFilter appends the contribution conditions of f for the
// contributions table aliased c. Subtree matching needs a tasks alias s
// joined on c.task_id.
func addLedgerFilter(w *whereClause, f ContributionFilter) {
	if f.ContributorID != nil {
		w.add("c.contributor_id = ?", *f.ContributorID)
	}
	if f.TaskID != nil {
		w.add("c.task_id = ?", *f.TaskID)
	}
	if f.DurationID != nil {
		w.add("c.duration_id = ?", *f.DurationID)
	}
	if f.From != nil {
		w.add("c.day >= ?", formatDay(*f.From))
	}
	if f.To != nil {
		w.add("c.day <= ?", formatDay(*f.To))
	}
}
