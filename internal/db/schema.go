package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
//
// claim_lines.item_id deliberately carries no foreign key: a claim may
// reference an item that has since left the registry.
const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            INTEGER PRIMARY KEY,
    name          TEXT NOT NULL,
    email         TEXT NOT NULL,
    contact_no    TEXT NOT NULL DEFAULT '',
    password_hash TEXT NOT NULL,
    role          TEXT NOT NULL CHECK (role IN ('Admin', 'Rep', 'Factory')),
    is_active     INTEGER NOT NULL DEFAULT 1,
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at    DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email_active
    ON users(email COLLATE NOCASE) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS reps (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    contact    TEXT NOT NULL,
    email      TEXT,
    is_active  INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS merchants (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL,
    address    TEXT NOT NULL,
    contact    TEXT NOT NULL,
    email      TEXT,
    is_active  INTEGER NOT NULL DEFAULT 1,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    id              INTEGER PRIMARY KEY,
    model_name      TEXT NOT NULL,
    item_type       TEXT NOT NULL,
    batch           TEXT NOT NULL,
    production_date DATETIME NOT NULL,
    wattage         REAL NOT NULL CHECK (wattage > 0),
    supplier        TEXT NOT NULL,
    contractor      TEXT,
    notes           TEXT,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_items_batch ON items(batch);

CREATE TABLE IF NOT EXISTS claims (
    id             INTEGER PRIMARY KEY,
    claim_id       TEXT NOT NULL UNIQUE,
    rep_id         INTEGER NOT NULL REFERENCES reps(id),
    merchant_id    INTEGER NOT NULL REFERENCES merchants(id),
    date           DATETIME NOT NULL,
    status         TEXT NOT NULL DEFAULT 'created'
                   CHECK (status IN ('created', 'verified', 'bilty_logged', 'approved')),
    verified_by    INTEGER REFERENCES users(id),
    verified_at    DATETIME,
    bilty_number   TEXT,
    bilty_at       DATETIME,
    approved_by    INTEGER REFERENCES users(id),
    approved_at    DATETIME,
    approval_notes TEXT,
    notes          TEXT,
    photo          BLOB,
    photo_mime     TEXT,
    created_at     DATETIME NOT NULL,
    updated_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_claims_rep ON claims(rep_id);
CREATE INDEX IF NOT EXISTS idx_claims_merchant ON claims(merchant_id);

CREATE TABLE IF NOT EXISTS claim_lines (
    claim_id  INTEGER NOT NULL REFERENCES claims(id) ON DELETE CASCADE,
    position  INTEGER NOT NULL,
    item_id   INTEGER NOT NULL,
    quantity  INTEGER NOT NULL CHECK (quantity > 0),
    notes     TEXT,
    force_add INTEGER NOT NULL DEFAULT 0,
    PRIMARY KEY (claim_id, position)
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
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
