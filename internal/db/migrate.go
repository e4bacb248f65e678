package db

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaVersions lists the DDL of each schema version in order. Version N is
// schemaVersions[N-1]; PRAGMA user_version records the last applied one.
var schemaVersions = [][]string{
	{
		`CREATE TABLE IF NOT EXISTS collaborators (
			id          TEXT PRIMARY KEY,
			login       TEXT NOT NULL UNIQUE,
			first_name  TEXT NOT NULL DEFAULT '',
			last_name   TEXT NOT NULL DEFAULT '',
			is_active   INTEGER NOT NULL DEFAULT 1,
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL
		)`,

		`CREATE TABLE IF NOT EXISTS durations (
			id         INTEGER PRIMARY KEY CHECK(id > 0),
			is_active  INTEGER NOT NULL DEFAULT 1
		)`,

		`CREATE TABLE IF NOT EXISTS tasks (
			id                  TEXT PRIMARY KEY,
			path                TEXT NOT NULL,
			number              INTEGER NOT NULL CHECK(number BETWEEN 0 AND 255),
			code                TEXT NOT NULL,
			name                TEXT NOT NULL,
			comment             TEXT NOT NULL DEFAULT '',
			budget              INTEGER NOT NULL DEFAULT 0,
			initially_consumed  INTEGER NOT NULL DEFAULT 0,
			todo                INTEGER NOT NULL DEFAULT 0,
			closed              INTEGER NOT NULL DEFAULT 0,
			created_at          TEXT NOT NULL,
			updated_at          TEXT NOT NULL,
			UNIQUE(path, number),
			UNIQUE(path, code)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_tasks_path ON tasks(path)`,

		`CREATE TABLE IF NOT EXISTS contributions (
			contributor_id  TEXT NOT NULL REFERENCES collaborators(id),
			task_id         TEXT NOT NULL REFERENCES tasks(id),
			day             TEXT NOT NULL,
			duration_id     INTEGER NOT NULL REFERENCES durations(id),
			created_at      TEXT NOT NULL,
			PRIMARY KEY (contributor_id, task_id, day)
		)`,

		`CREATE INDEX IF NOT EXISTS idx_contributions_task ON contributions(task_id, day)`,
		`CREATE INDEX IF NOT EXISTS idx_contributions_day ON contributions(day)`,
		`CREATE INDEX IF NOT EXISTS idx_contributions_duration ON contributions(duration_id)`,
	},
}

// CurrentVersion is the schema version a fully migrated database reports.
var CurrentVersion = len(schemaVersions)

// Migrate brings the schema up to CurrentVersion. Each version is applied in
// its own transaction together with the user_version bump.
func Migrate(db *sql.DB) error {
	ctx := context.Background()

	var version int
	if err := db.QueryRowContext(ctx, `PRAGMA user_version`).Scan(&version); err != nil {
		return fmt.Errorf("reading user_version: %w", err)
	}

	for v := version; v < CurrentVersion; v++ {
		if err := applyVersion(ctx, db, v+1, schemaVersions[v]); err != nil {
			return err
		}
	}
	return nil
}

func applyVersion(ctx context.Context, db *sql.DB, version int, stmts []string) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting migration %d: %w", version, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	for i, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d statement %d: %w", version, i, err)
		}
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`PRAGMA user_version = %d`, version)); err != nil {
		return fmt.Errorf("recording schema version %d: %w", version, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing migration %d: %w", version, err)
	}
	committed = true
	return nil
}
