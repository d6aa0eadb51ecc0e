package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    username      TEXT NOT NULL,
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL DEFAULT 'client' CHECK (role IN ('admin', 'agent', 'client')),
    client_id     TEXT,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username_active
    ON users(username) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS clients (
    id         TEXT PRIMARY KEY,
    name       TEXT NOT NULL,
    phone      TEXT NOT NULL,
    address    TEXT NOT NULL DEFAULT '',
    held_count INTEGER NOT NULL DEFAULT 0,
    created_at DATETIME NOT NULL,
    updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS assets (
    id           TEXT PRIMARY KEY,
    serial       TEXT NOT NULL,
    gas_brand    TEXT NOT NULL,
    bottle_brand TEXT NOT NULL,
    volume       REAL NOT NULL,
    material     TEXT NOT NULL CHECK (material IN ('steel', 'composite')),
    weight       REAL NOT NULL CHECK (weight > 0),
    custodian    TEXT NOT NULL DEFAULT 'warehouse',
    image        BLOB,
    image_mime   TEXT,
    created_at   DATETIME NOT NULL,
    updated_at   DATETIME NOT NULL,
    deleted_at   DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_assets_serial_active
    ON assets(serial) WHERE deleted_at IS NULL;

CREATE INDEX IF NOT EXISTS idx_assets_custodian
    ON assets(custodian) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS client_holdings (
    client_id TEXT NOT NULL REFERENCES clients(id),
    asset_id  TEXT NOT NULL REFERENCES assets(id),
    PRIMARY KEY (client_id, asset_id)
);

CREATE TABLE IF NOT EXISTS movements (
    id             TEXT PRIMARY KEY,
    seq            INTEGER NOT NULL UNIQUE,
    asset_id       TEXT NOT NULL REFERENCES assets(id),
    from_custodian TEXT NOT NULL,
    to_custodian   TEXT NOT NULL,
    performed_by   TEXT NOT NULL,
    notes          TEXT NOT NULL DEFAULT '',
    created_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_movements_asset ON movements(asset_id, seq);

CREATE TABLE IF NOT EXISTS asset_removals (
    id           INTEGER PRIMARY KEY,
    asset_id     TEXT NOT NULL REFERENCES assets(id),
    serial       TEXT NOT NULL,
    last_holder  TEXT NOT NULL,
    performed_by TEXT NOT NULL,
    reason       TEXT NOT NULL DEFAULT '',
    removed_at   DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
