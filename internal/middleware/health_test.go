package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ok() HealthChecker { return CheckerFunc(func(context.Context) error { return nil }) }

func failing() HealthChecker {
	return CheckerFunc(func(context.Context) error { return errors.New("connection refused") })
}

func runHealth(t *testing.T, required, optional map[string]HealthChecker) (int, HealthStatus) {
	t.Helper()
	rec := httptest.NewRecorder()
	HealthHandler(required, optional)(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var hs HealthStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &hs))
	return rec.Code, hs
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name     string
		required map[string]HealthChecker
		optional map[string]HealthChecker
		code     int
		status   string
	}{
		{"all healthy", map[string]HealthChecker{"history": ok()}, map[string]HealthChecker{"minio": ok()}, http.StatusOK, statusHealthy},
		{"optional down", map[string]HealthChecker{"history": ok()}, map[string]HealthChecker{"minio": failing()}, http.StatusOK, statusDegraded},
		{"required down", map[string]HealthChecker{"history": failing()}, map[string]HealthChecker{"minio": failing()}, http.StatusServiceUnavailable, statusUnhealthy},
		{"nothing registered", nil, nil, http.StatusOK, statusHealthy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, hs := runHealth(t, tt.required, tt.optional)
			assert.Equal(t, tt.code, code)
			assert.Equal(t, tt.status, hs.Status)
			assert.Len(t, hs.Checks, len(tt.required)+len(tt.optional))
		})
	}
}

func TestHealthHandlerReportsFailureMessage(t *testing.T) {
	_, hs := runHealth(t, map[string]HealthChecker{"history": failing()}, nil)
	assert.Equal(t, "connection refused", hs.Checks["history"].Message)
	assert.True(t, hs.Checks["history"].Required)
}

func TestReadinessHandlerCountsSessions(t *testing.T) {
	rec := httptest.NewRecorder()
	ReadinessHandler(func() int { return 3 })(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, float64(3), body["sessions"])
}
