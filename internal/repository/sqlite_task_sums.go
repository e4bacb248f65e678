package repository

import (
	"context"
	"fmt"

	"github.com/alexanderramin/timetree/internal/domain"
)

// selectorWhere renders the scope of a TaskSumsSelector against the tasks
// table aliased t.
func selectorWhere(sel TaskSumsSelector) (string, []any, error) {
	if err := sel.Validate(); err != nil {
		return "", nil, err
	}
	switch {
	case sel.TaskID != nil:
		return "t.id = ?", []any{*sel.TaskID}, nil
	case sel.ParentPath != nil:
		return "t.path = ?", []any{*sel.ParentPath}, nil
	default:
		return underPathExpr("t", "?"), []any{*sel.PathPrefix, *sel.PathPrefix}, nil
	}
}

// subtreeJoin matches rows of s that are t itself or one of its descendants.
var subtreeJoin = "(s.id = t.id OR " + underPathExpr("s", fullPathExpr("t")) + ")"

// Sums returns the stored-amount aggregates of every task in scope, one row
// per task ordered by position. Ledger sums are left zero; the contribution
// repository supplies them.
func (r *SQLiteTaskRepo) Sums(ctx context.Context, sel TaskSumsSelector) ([]*domain.TaskSums, error) {
	where, args, err := selectorWhere(sel)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + taskColumns + `,
			NOT EXISTS (SELECT 1 FROM tasks k WHERE k.path = ` + fullPathExpr("t") + `) AS is_leaf,
			COALESCE(SUM(s.budget), 0),
			COALESCE(SUM(s.initially_consumed), 0),
			COALESCE(SUM(s.todo), 0)
		FROM tasks t
		JOIN tasks s ON ` + subtreeJoin + `
		WHERE ` + where + `
		GROUP BY t.id
		ORDER BY t.path, t.number`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying task sums: %w", err)
	}
	defer rows.Close()

	var out []*domain.TaskSums
	for rows.Next() {
		var (
			sums   domain.TaskSums
			isLeaf int
		)
		t, err := scanTaskWith(rows, &isLeaf, &sums.BudgetSum, &sums.InitiallyConsumedSum, &sums.TodoSum)
		if err != nil {
			return nil, err
		}
		sums.Task = t
		sums.IsLeaf = intToBool(isLeaf)
		out = append(out, &sums)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task sums: %w", err)
	}
	return out, nil
}
