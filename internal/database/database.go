// Package database persists the item catalog, the append-only outcome
// log, and final ratings in a single SQLite file.
package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// FileName is the database file inside the data directory.
const FileName = "pairpick.db"

// The CLI and the web server can share the file within one comparison
// session. WAL keeps reads cheap while an outcome is appended, NORMAL
// sync is durable enough under WAL, and the busy timeout rides out the
// brief moments both halves touch the log.
var openPragmas = []string{
	"PRAGMA journal_mode=WAL",
	"PRAGMA synchronous=NORMAL",
	"PRAGMA busy_timeout=5000",
	"PRAGMA foreign_keys=ON",
}

// DB wraps a SQLite database connection.
type DB struct {
	conn *sql.DB
	path string
}

// OpenDefault opens the database at its standard location inside
// dataDir, creating file and directory as needed.
func OpenDefault(dataDir string) (*DB, error) {
	return Open(filepath.Join(dataDir, FileName))
}

// Open opens the SQLite database at dbPath, creating it and bringing
// its schema up to date if needed.
func Open(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	conn, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, pragma := range openPragmas {
		if _, err := conn.Exec(pragma); err != nil {
			conn.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}

	if err := migrate(conn); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrating schema: %w", err)
	}

	return &DB{conn: conn, path: dbPath}, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Path returns the database file path.
func (db *DB) Path() string {
	return db.path
}
