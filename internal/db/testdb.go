package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB creates a migrated SQLite database in a per-test temporary
// directory. It is file backed so pooled connections share one database, as
// in production.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "gasledger.sqlite3"))
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := Migrate(db); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}
	return db
}
