package analysis

import "github.com/bryanwahyu/medreport/internal/domain/document"

// TimestampLayout is the ISO-8601 layout used for Record.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Record is one persisted analysis outcome. Records are never mutated once
// appended.
type Record struct {
	Timestamp    string        `json:"timestamp"`
	DocumentType document.Type `json:"document_type"`
	DocumentHash string        `json:"document_hash"`
	Analysis     string        `json:"analysis"`
	ID           int           `json:"id"`
}

// Date returns the YYYY-MM-DD part of the timestamp.
func (r Record) Date() string {
	if len(r.Timestamp) < 10 {
		return r.Timestamp
	}
	return r.Timestamp[:10]
}

// Clock returns the HH:MM part of the timestamp, or "" when absent.
func (r Record) Clock() string {
	if len(r.Timestamp) < 16 {
		return ""
	}
	return r.Timestamp[11:16]
}

// Snapshot is the whole history state keyed by session id. Each slice is in
// chronological order.
type Snapshot struct {
	Sessions map[string][]Record
}

// NewSnapshot returns an empty snapshot.
func NewSnapshot() Snapshot {
	return Snapshot{Sessions: make(map[string][]Record)}
}
