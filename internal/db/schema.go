package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS kits (
    id                  TEXT PRIMARY KEY,
    owner_id            TEXT NOT NULL,
    brand               TEXT NOT NULL DEFAULT 'Bandai',
    product_line        TEXT NOT NULL DEFAULT 'Gundam',
    grade               TEXT NOT NULL DEFAULT '',
    subline             TEXT NOT NULL DEFAULT '',
    model_number        TEXT NOT NULL,
    model_name          TEXT NOT NULL,
    series              TEXT NOT NULL DEFAULT '',
    release_year        INTEGER CHECK (release_year IS NULL OR release_year > 0),
    owned               INTEGER NOT NULL DEFAULT 1,
    exclusive           INTEGER NOT NULL DEFAULT 0,
    purchase_date       TEXT,
    purchase_price      REAL CHECK (purchase_price IS NULL OR purchase_price >= 0),
    notes               TEXT NOT NULL DEFAULT '',
    image_url           TEXT NOT NULL DEFAULT '',
    image_thumbnail_url TEXT NOT NULL DEFAULT '',
    image_medium_url    TEXT NOT NULL DEFAULT '',
    image_full_url      TEXT NOT NULL DEFAULT '',
    created_at          DATETIME NOT NULL,
    updated_at          DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_kits_owner_created
    ON kits(owner_id, created_at DESC);

CREATE TABLE IF NOT EXISTS blobs (
    path          TEXT PRIMARY KEY,
    data          BLOB NOT NULL,
    mime          TEXT NOT NULL,
    size          INTEGER NOT NULL,
    etag          TEXT NOT NULL,
    cache_control TEXT NOT NULL DEFAULT '',
    created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
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
