package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	domain "github.com/bryanwahyu/medreport/internal/domain/analysis"
)

// fileState is the on-disk layout. user_history is never read; it is
// written as an empty list so existing state files stay compatible.
type fileState struct {
	Sessions    map[string][]domain.Record `json:"sessions"`
	UserHistory []any                      `json:"user_history"`
}

// HistoryFile persists the whole history as one JSON document.
type HistoryFile struct {
	path string
}

func NewHistoryFile(path string) *HistoryFile {
	return &HistoryFile{path: path}
}

func (h *HistoryFile) Path() string { return h.path }

// Load returns an empty snapshot when the file does not exist yet.
func (h *HistoryFile) Load(ctx context.Context) (domain.Snapshot, error) {
	data, err := os.ReadFile(h.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewSnapshot(), nil
	}
	if err != nil {
		return domain.NewSnapshot(), err
	}
	var st fileState
	if err := json.Unmarshal(data, &st); err != nil {
		return domain.NewSnapshot(), fmt.Errorf("parse %s: %w", h.path, err)
	}
	snap := domain.NewSnapshot()
	for user, recs := range st.Sessions {
		snap.Sessions[user] = recs
	}
	return snap, nil
}

// Persist rewrites the file from snap. The appended record is already part
// of snap. The write goes through a temp file and rename so a crash never
// leaves a truncated document behind.
func (h *HistoryFile) Persist(ctx context.Context, snap domain.Snapshot, _ string, _ domain.Record) error {
	st := fileState{Sessions: snap.Sessions, UserHistory: []any{}}
	if st.Sessions == nil {
		st.Sessions = map[string][]domain.Record{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(st); err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(h.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(h.path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), h.path)
}

// Check implements the health checker by making sure the directory is usable.
func (h *HistoryFile) Check(ctx context.Context) error {
	info, err := os.Stat(filepath.Dir(h.path))
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", filepath.Dir(h.path))
	}
	return nil
}
