package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryanwahyu/medreport/internal/domain/ai"
	"github.com/bryanwahyu/medreport/internal/domain/analysis"
	"github.com/bryanwahyu/medreport/internal/domain/document"
)

type capturedRequest struct {
	Model               string            `json:"model"`
	Temperature         float32           `json:"temperature"`
	MaxTokens           int               `json:"max_tokens"`
	MaxCompletionTokens int               `json:"max_completion_tokens"`
	Messages            []json.RawMessage `json:"messages"`
}

func newServer(t *testing.T, status int, body string, got *capturedRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		if got != nil {
			assert.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

const okBody = `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"## Rapor"},"finish_reason":"stop"}]}`

func TestAnalyzeSendsConfiguredRequest(t *testing.T) {
	var got capturedRequest
	srv := newServer(t, http.StatusOK, okBody, &got)
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	hist := []analysis.Record{{Timestamp: "2024-01-01T00:00:00.000000", DocumentType: document.TypePDF}}
	out, err := c.Analyze(context.Background(), "kolesterol 240", hist)
	require.NoError(t, err)
	assert.Equal(t, "## Rapor", out)

	assert.Equal(t, "gpt-4", got.Model)
	assert.InDelta(t, 0.2, got.Temperature, 0.0001)
	assert.Equal(t, 4000, got.MaxTokens)
	assert.Zero(t, got.MaxCompletionTokens)
	require.Len(t, got.Messages, 2)
	assert.Contains(t, string(got.Messages[1]), "kolesterol 240")
	assert.Contains(t, string(got.Messages[1]), "PDF Raporu")
}

func TestAnalyzeReasoningModelUsesCompletionTokens(t *testing.T) {
	var got capturedRequest
	srv := newServer(t, http.StatusOK, okBody, &got)
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL, Model: "o3-mini", MaxTokens: 1000})

	_, err := c.Analyze(context.Background(), "text", nil)
	require.NoError(t, err)
	assert.Equal(t, 1000, got.MaxCompletionTokens)
	assert.Zero(t, got.MaxTokens)
	assert.Zero(t, got.Temperature)
}

func TestAnalyzeEmptyChoices(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"choices":[]}`, nil)
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	_, err := c.Analyze(context.Background(), "text", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrServiceFailure))
}

func TestAnalyzeQuotaExceeded(t *testing.T) {
	body := `{"error":{"message":"You exceeded your current quota","type":"insufficient_quota","code":"insufficient_quota"}}`
	srv := newServer(t, http.StatusTooManyRequests, body, nil)
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	_, err := c.Analyze(context.Background(), "text", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrQuotaExceeded))
}

func TestAnalyzeServerError(t *testing.T) {
	body := `{"error":{"message":"boom","type":"server_error"}}`
	srv := newServer(t, http.StatusInternalServerError, body, nil)
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	_, err := c.Analyze(context.Background(), "text", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ai.ErrServiceFailure))
	assert.False(t, errors.Is(err, ai.ErrQuotaExceeded))
}

func TestCaptionSendsImageAsDataURL(t *testing.T) {
	var got capturedRequest
	body := `{"choices":[{"index":0,"message":{"role":"assistant","content":"  a chest x-ray  "}}]}`
	srv := newServer(t, http.StatusOK, body, &got)
	c := NewClient(Config{APIKey: "k", BaseURL: srv.URL})

	img := filepath.Join(t.TempDir(), "scan.png")
	require.NoError(t, os.WriteFile(img, []byte("\x89PNG fake"), 0o600))

	caption, err := c.Caption(context.Background(), img)
	require.NoError(t, err)
	assert.Equal(t, "a chest x-ray", caption)
	assert.Equal(t, "gpt-4o-mini", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Contains(t, string(got.Messages[0]), "data:image/png;base64,")
}

func TestCaptionMissingFile(t *testing.T) {
	c := NewClient(Config{APIKey: "k", BaseURL: "http://127.0.0.1:0"})
	_, err := c.Caption(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"))
	require.Error(t, err)
}
