package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics counts HTTP traffic and analysis outcomes since start.
type Metrics struct {
	requests atomic.Uint64
	inFlight atomic.Int64
	success  atomic.Uint64
	failed   atomic.Uint64

	running    atomic.Int64
	duplicates atomic.Uint64
	busy       atomic.Int64 // nanoseconds spent in analyses

	mu     sync.Mutex
	byKind map[string]uint64

	start time.Time
}

func NewMetrics() *Metrics {
	return &Metrics{byKind: make(map[string]uint64), start: time.Now()}
}

var globalMetrics = NewMetrics()

// StartAnalysis marks an analysis as running. The returned func records its
// outcome kind and whether the document had been seen before in the session.
func (m *Metrics) StartAnalysis() func(kind string, seenBefore int) {
	m.running.Add(1)
	start := time.Now()
	return func(kind string, seenBefore int) {
		m.running.Add(-1)
		m.busy.Add(int64(time.Since(start)))
		if seenBefore > 0 {
			m.duplicates.Add(1)
		}
		m.mu.Lock()
		m.byKind[kind]++
		m.mu.Unlock()
	}
}

// StartAnalysis uses the process-wide counters.
func StartAnalysis() func(kind string, seenBefore int) { return globalMetrics.StartAnalysis() }

// Snapshot renders the counters for the metrics endpoint.
func (m *Metrics) Snapshot() map[string]interface{} {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	m.mu.Lock()
	kinds := make(map[string]uint64, len(m.byKind))
	var total uint64
	for k, v := range m.byKind {
		kinds[k] = v
		total += v
	}
	m.mu.Unlock()

	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, k)
	}
	sort.Strings(names)

	var avgMS float64
	if total > 0 {
		avgMS = float64(m.busy.Load()) / float64(total) / float64(time.Millisecond)
	}

	return map[string]interface{}{
		"requests_total":       m.requests.Load(),
		"requests_in_progress": m.inFlight.Load(),
		"requests_success":     m.success.Load(),
		"requests_failed":      m.failed.Load(),
		"analyses": map[string]interface{}{
			"total":           total,
			"running":         m.running.Load(),
			"by_kind":         kinds,
			"kinds":           names,
			"duplicates_seen": m.duplicates.Load(),
			"avg_duration_ms": avgMS,
		},
		"uptime_seconds": time.Since(m.start).Seconds(),
		"memory": map[string]interface{}{
			"alloc_bytes": mem.Alloc,
			"sys_bytes":   mem.Sys,
			"num_gc":      mem.NumGC,
		},
		"goroutines": runtime.NumGoroutine(),
	}
}

// MetricsMiddleware counts requests by outcome class.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m := globalMetrics
		m.requests.Add(1)
		m.inFlight.Add(1)
		defer m.inFlight.Add(-1)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		if wrapped.statusCode < 400 {
			m.success.Add(1)
		} else {
			m.failed.Add(1)
		}
	})
}

func MetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(globalMetrics.Snapshot())
}
