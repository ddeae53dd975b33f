// Package sqlite keeps analysis history in a local SQLite file. It is the
// durable option for single-host deployments that outgrow the JSON file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	domain "github.com/bryanwahyu/medreport/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_history (
  user_id       TEXT    NOT NULL,
  seq           INTEGER NOT NULL,
  recorded_at   TEXT    NOT NULL,
  document_type TEXT    NOT NULL,
  document_hash TEXT    NOT NULL,
  analysis      TEXT    NOT NULL,
  PRIMARY KEY (user_id, seq)
);
CREATE INDEX IF NOT EXISTS idx_history_hash ON analysis_history (user_id, document_hash);
`

type HistoryRepository struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(ctx context.Context, path string) (*HistoryRepository, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer keeps SQLite away from "database is locked".
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &HistoryRepository{db: db}, nil
}

func (r *HistoryRepository) Close() error { return r.db.Close() }

func (r *HistoryRepository) Load(ctx context.Context) (domain.Snapshot, error) {
	const q = `
SELECT user_id, seq, recorded_at, document_type, document_hash, analysis
FROM analysis_history
ORDER BY user_id, seq;
`
	snap := domain.NewSnapshot()
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return snap, err
	}
	defer rows.Close()

	for rows.Next() {
		var user string
		var rec domain.Record
		if err := rows.Scan(&user, &rec.ID, &rec.Timestamp, &rec.DocumentType, &rec.DocumentHash, &rec.Analysis); err != nil {
			return domain.NewSnapshot(), err
		}
		snap.Sessions[user] = append(snap.Sessions[user], rec)
	}
	return snap, rows.Err()
}

// Persist inserts the appended record. Records are never rewritten: a row
// already stored under (user_id, seq) makes the insert fail.
func (r *HistoryRepository) Persist(ctx context.Context, _ domain.Snapshot, userID string, rec domain.Record) error {
	const q = `
INSERT INTO analysis_history
  (user_id, seq, recorded_at, document_type, document_hash, analysis)
VALUES (?,?,?,?,?,?);
`
	_, err := r.db.ExecContext(ctx, q, userID, rec.ID, rec.Timestamp, string(rec.DocumentType), rec.DocumentHash, rec.Analysis)
	return err
}

func (r *HistoryRepository) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return r.db.PingContext(ctx)
}
