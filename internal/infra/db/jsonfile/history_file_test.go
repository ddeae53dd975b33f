package jsonfile

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domain "github.com/bryanwahyu/medreport/internal/domain/analysis"
	"github.com/bryanwahyu/medreport/internal/domain/document"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	h := NewHistoryFile(filepath.Join(t.TempDir(), "medical_memory.json"))
	snap, err := h.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Sessions)
}

func TestLoadCorruptFileFails(t *testing.T) {
	p := filepath.Join(t.TempDir(), "medical_memory.json")
	require.NoError(t, os.WriteFile(p, []byte("{not json"), 0o600))

	_, err := NewHistoryFile(p).Load(context.Background())
	require.Error(t, err)
}

func TestPersistRoundTripAndLayout(t *testing.T) {
	p := filepath.Join(t.TempDir(), "state", "medical_memory.json")
	h := NewHistoryFile(p)
	rec := domain.Record{
		Timestamp:    "2024-03-01T09:30:00.000000",
		DocumentType: document.TypeImage,
		DocumentHash: document.Hash("x"),
		Analysis:     "Sonuç <normal> & iyi",
		ID:           1,
	}
	snap := domain.Snapshot{Sessions: map[string][]domain.Record{"u1": {rec}}}
	require.NoError(t, h.Persist(context.Background(), snap, "u1", rec))

	raw, err := os.ReadFile(p)
	require.NoError(t, err)
	text := string(raw)
	assert.Contains(t, text, `"user_history": []`)
	assert.Contains(t, text, "Tıbbi Görüntü")
	assert.Contains(t, text, "<normal> & iyi")
	assert.True(t, strings.HasPrefix(text, "{\n  \"sessions\""))

	var generic map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Contains(t, generic, "sessions")

	loaded, err := h.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.Sessions, loaded.Sessions)
}

func TestLoadOriginalFormat(t *testing.T) {
	p := filepath.Join(t.TempDir(), "medical_memory.json")
	legacy := `{"sessions": {"user_20240101_120000": [{"timestamp": "2024-01-01T12:00:00.123456", "document_type": "PDF Raporu", "document_hash": "abc", "analysis": "rapor", "id": 1}]}, "user_history": []}`
	require.NoError(t, os.WriteFile(p, []byte(legacy), 0o600))

	snap, err := NewHistoryFile(p).Load(context.Background())
	require.NoError(t, err)
	recs := snap.Sessions["user_20240101_120000"]
	require.Len(t, recs, 1)
	assert.Equal(t, document.TypePDF, recs[0].DocumentType)
	assert.Equal(t, "2024-01-01", recs[0].Date())
	assert.Equal(t, "12:00", recs[0].Clock())
}
