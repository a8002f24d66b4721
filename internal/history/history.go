// Package history records check runs in a local SQLite database so CI and
// watch sessions can see findings over time.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"printguard/internal/logging"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	file       TEXT    NOT NULL,
	checked_at INTEGER NOT NULL,
	sites      INTEGER NOT NULL,
	findings   INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_checked_at ON runs(checked_at DESC);
`

// Run is one recorded check of one file.
type Run struct {
	ID        int64
	File      string
	CheckedAt time.Time
	Sites     int
	Findings  int
}

// Store is the run history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the history database at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed opening history db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed creating history schema: %w", err)
	}

	logging.Get(logging.CategoryHistory).Debugf("history db open at %s", path)
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Record stores the outcome of checking one file.
func (s *Store) Record(ctx context.Context, file string, sites, findings int) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (file, checked_at, sites, findings) VALUES (?, ?, ?, ?)`,
		file, time.Now().Unix(), sites, findings)
	if err != nil {
		return fmt.Errorf("failed recording run: %w", err)
	}
	return nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, file, checked_at, sites, findings
		 FROM runs ORDER BY checked_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var at int64
		if err := rows.Scan(&r.ID, &r.File, &at, &r.Sites, &r.Findings); err != nil {
			return nil, fmt.Errorf("failed scanning run: %w", err)
		}
		r.CheckedAt = time.Unix(at, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
