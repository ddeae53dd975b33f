package mysql

import (
	"context"
	"database/sql"
	"time"

	domain "github.com/bryanwahyu/medreport/internal/domain/analysis"
)

const schema = `
CREATE TABLE IF NOT EXISTS analysis_history (
  user_id       VARCHAR(128) NOT NULL,
  seq           INT          NOT NULL,
  recorded_at   VARCHAR(40)  NOT NULL,
  document_type VARCHAR(64)  NOT NULL,
  document_hash CHAR(32)     NOT NULL,
  analysis      LONGTEXT     NOT NULL,
  PRIMARY KEY (user_id, seq),
  KEY idx_history_hash (user_id, document_hash)
) DEFAULT CHARSET=utf8mb4;
`

// HistoryRepository stores one row per analysis record.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// EnsureSchema creates the history table when missing.
func (r *HistoryRepository) EnsureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, schema)
	return err
}

// Load reads every session's records in sequence order.
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
