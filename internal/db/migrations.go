package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: expired revocations are pruned by expiry.
	`CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expires
	     ON revoked_tokens(expires_at)`,
	// Migration 2: movement listing by client scans both custodian columns.
	`CREATE INDEX IF NOT EXISTS idx_movements_to ON movements(to_custodian)`,
	`CREATE INDEX IF NOT EXISTS idx_movements_from ON movements(from_custodian)`,
}

// Migrate creates the schema and runs the database migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
