// Package manifest persists a diagnostic record of each PTH
// generation run — which files were cached, where, and how big the
// run was — to a local SQLite database. It is purely additive:
// nothing in internal/pth requires a manifest, and a run with none
// attached produces a byte-identical artifact (spec.md §8 scenario 8).
// Grounded on the teacher's infra/storage.InitSQLite/createSchemas.
package manifest

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Recorder persists one generation run's file-level and run-level
// records to SQLite.
type Recorder struct {
	db    *sql.DB
	runID string
}

// Open creates (if necessary) and opens the manifest database at
// dbPath, creating its schema, and starts a new run row.
func Open(dbPath string) (*Recorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("manifest: creating directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("manifest: opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("manifest: pinging database: %w", err)
	}
	if err := createSchema(db); err != nil {
		return nil, fmt.Errorf("manifest: creating schema: %w", err)
	}

	runID := uuid.NewString()
	if _, err := db.Exec(
		`INSERT INTO runs (run_id, started_at, id_count, spelling_bytes) VALUES (?, ?, 0, 0)`,
		runID, time.Now(),
	); err != nil {
		return nil, fmt.Errorf("manifest: starting run: %w", err)
	}

	return &Recorder{db: db, runID: runID}, nil
}

func createSchema(db *sql.DB) error {
	schemas := []string{
		`CREATE TABLE IF NOT EXISTS files (
			path TEXT PRIMARY KEY,
			token_count INTEGER NOT NULL,
			token_offset INTEGER NOT NULL,
			ppcond_offset INTEGER NOT NULL,
			ppcond_count INTEGER NOT NULL,
			lexed_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS runs (
			run_id TEXT PRIMARY KEY,
			started_at DATETIME NOT NULL,
			finished_at DATETIME,
			id_count INTEGER NOT NULL DEFAULT 0,
			spelling_bytes INTEGER NOT NULL DEFAULT 0
		);`,
	}
	for _, q := range schemas {
		if _, err := db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// RecordFile implements pth.ManifestRecorder.
func (r *Recorder) RecordFile(path string, tokenCount int, tokenOffset, ppcondOffset uint32, ppcondCount int) error {
	_, err := r.db.Exec(
		`INSERT OR REPLACE INTO files (path, token_count, token_offset, ppcond_offset, ppcond_count, lexed_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		path, tokenCount, tokenOffset, ppcondOffset, ppcondCount, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("manifest: recording %s: %w", path, err)
	}
	return nil
}

// Finish records the run's completion totals.
func (r *Recorder) Finish(idCount uint32, spellingBytes uint32) error {
	_, err := r.db.Exec(
		`UPDATE runs SET finished_at = ?, id_count = ?, spelling_bytes = ? WHERE run_id = ?`,
		time.Now(), idCount, spellingBytes, r.runID,
	)
	if err != nil {
		return fmt.Errorf("manifest: finishing run %s: %w", r.runID, err)
	}
	return nil
}

// Close releases the underlying database handle.
func (r *Recorder) Close() error { return r.db.Close() }

// FilesForRun is a small read path used by tests and by a future
// manifest-inspection CLI: every file recorded so far, oldest first.
func (r *Recorder) FilesForRun(ctx context.Context) ([]FileRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT path, token_count, token_offset, ppcond_offset, ppcond_count FROM files ORDER BY lexed_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FileRecord
	for rows.Next() {
		var rec FileRecord
		if err := rows.Scan(&rec.Path, &rec.TokenCount, &rec.TokenOffset, &rec.PPCondOffset, &rec.PPCondCount); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

// FileRecord mirrors one row of the files table.
type FileRecord struct {
	Path         string
	TokenCount   int
	TokenOffset  uint32
	PPCondOffset uint32
	PPCondCount  int
}
