package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS items (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    tags TEXT,
    source_url TEXT,
    notes TEXT,
    created_at TEXT DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS outcomes (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    recorded_at TEXT NOT NULL,
    item_a TEXT NOT NULL,
    item_b TEXT NOT NULL,
    chosen TEXT NOT NULL,
    liked_features TEXT,
    disliked_features TEXT,
    feedback TEXT,
    session_id TEXT NOT NULL,
    CHECK (item_a != item_b),
    CHECK (chosen = item_a OR chosen = item_b)
);

CREATE TABLE IF NOT EXISTS final_ratings (
    item TEXT PRIMARY KEY,
    liked_features TEXT,
    disliked_features TEXT,
    overall INTEGER NOT NULL CHECK (overall BETWEEN 1 AND 10),
    comments TEXT,
    session_id TEXT NOT NULL,
    recorded_at TEXT DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_outcomes_item_a ON outcomes(item_a);
CREATE INDEX IF NOT EXISTS idx_outcomes_item_b ON outcomes(item_b);
CREATE INDEX IF NOT EXISTS idx_outcomes_session ON outcomes(session_id);
`)
			return err
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
