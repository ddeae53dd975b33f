package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// HealthChecker is anything that can tell whether a backend is reachable.
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a function to HealthChecker.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

type CheckStatus struct {
	Status    string `json:"status"`
	Required  bool   `json:"required"`
	LatencyMS int64  `json:"latency_ms"`
	Message   string `json:"message,omitempty"`
}

// HealthHandler checks every backend concurrently. A failing required
// backend answers 503; a failing optional one (the upload archive) only
// marks the service degraded.
func HealthHandler(required, optional map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := HealthStatus{
			Status:    statusHealthy,
			Timestamp: time.Now(),
			Checks:    make(map[string]CheckStatus, len(required)+len(optional)),
		}

		var (
			mu sync.Mutex
			wg sync.WaitGroup
		)
		runCheck := func(name string, c HealthChecker, req bool) {
			defer wg.Done()
			start := time.Now()
			err := c.Check(ctx)
			cs := CheckStatus{Status: statusHealthy, Required: req, LatencyMS: time.Since(start).Milliseconds()}

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				cs.Status = statusUnhealthy
				cs.Message = err.Error()
				switch {
				case req:
					health.Status = statusUnhealthy
				case health.Status == statusHealthy:
					health.Status = statusDegraded
				}
			}
			health.Checks[name] = cs
		}
		for name, c := range required {
			wg.Add(1)
			go runCheck(name, c, true)
		}
		for name, c := range optional {
			wg.Add(1)
			go runCheck(name, c, false)
		}
		wg.Wait()

		statusCode := http.StatusOK
		if health.Status == statusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		json.NewEncoder(w).Encode(health)
	}
}

// ReadinessHandler reports how many sessions the history store holds.
// sessions may be nil.
func ReadinessHandler(sessions func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{
			"status":    "ready",
			"timestamp": time.Now(),
		}
		if sessions != nil {
			body["sessions"] = sessions()
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(body)
	}
}

// LivenessHandler answers "ok" while the process is up.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}
