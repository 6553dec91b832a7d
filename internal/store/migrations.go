package store

import (
	"context"
	"database/sql"
	"fmt"
)

type Migration struct {
	Version int
	UpSQL   string
}

var migrations = []Migration{
	{
		Version: 1,
		UpSQL: `
CREATE TABLE IF NOT EXISTS OpenWindows (
	id INTEGER PRIMARY KEY NOT NULL,
	method VARCHAR(32) NOT NULL,
	uri VARCHAR(256) NOT NULL,
	path VARCHAR(1024),
	query TEXT,
	headers TEXT,
	body TEXT
);

CREATE TABLE IF NOT EXISTS SentRequest (
	id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
	sent_at TEXT NOT NULL,
	method VARCHAR(32) NOT NULL,
	uri VARCHAR(256) NOT NULL,
	path VARCHAR(1024),
	query TEXT,
	headers TEXT,
	body TEXT
);
`,
	},
	{
		Version: 2,
		UpSQL: `
CREATE INDEX IF NOT EXISTS idx_sent_request_sent_at ON SentRequest(sent_at DESC);
`,
	},
}

// ApplyMigrations brings the schema up to date. Already applied versions
// are skipped, so it is safe to run on every start.
func ApplyMigrations(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations(version INTEGER PRIMARY KEY, applied_at TEXT NOT NULL)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRowContext(ctx, `SELECT 1 FROM schema_migrations WHERE version = ?`, m.Version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration %d: %w", m.Version, err)
		}

		tx, err := db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin tx for migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, m.UpSQL); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("apply migration %d: %w", m.Version, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES (?, datetime('now'))`, m.Version); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("record migration %d: %w", m.Version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration %d: %w", m.Version, err)
		}
	}
	return nil
}
