package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appanalysis "github.com/bryanwahyu/medreport/internal/application/analysis"
	domain "github.com/bryanwahyu/medreport/internal/domain/analysis"
	"github.com/bryanwahyu/medreport/internal/domain/document"
	"github.com/bryanwahyu/medreport/internal/middleware"
)

// SessionHeader carries the session id when the path does not.
const SessionHeader = "X-Session-ID"

// SessionField is the multipart form field consulted when neither the path
// nor the header names a session. A form field named after SessionHeader is
// accepted too.
const SessionField = "session_id"

type Options struct {
	MaxUploadBytes int64
	TempDir        string
	CORSOrigins    []string
	RateCapacity   int
	RateRefill     int
	// Required checkers fail /healthz; optional ones only degrade it.
	Required map[string]middleware.HealthChecker
	Optional map[string]middleware.HealthChecker
	// Sessions reports the loaded session count on /ready.
	Sessions func() int
	Logger   *zap.Logger
	// Context bounds background work such as rate limiter pruning.
	Context context.Context
}

type Router struct {
	svc       *appanalysis.Service
	log       *zap.Logger
	maxUpload int64
	tempDir   string
}

func NewRouter(svc *appanalysis.Service, opts Options) http.Handler {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	r := &Router{svc: svc, log: log, maxUpload: opts.MaxUploadBytes, tempDir: opts.TempDir}

	mux := chi.NewRouter()
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", SessionHeader},
		ExposedHeaders: []string{SessionHeader},
		MaxAge:         300,
	}))
	mux.Use(middleware.Logging(log))
	mux.Use(middleware.MetricsMiddleware)
	if opts.RateCapacity > 0 {
		mux.Use(middleware.RateLimitMiddleware(opts.Context, opts.RateCapacity, opts.RateRefill))
	}

	mux.Get("/health", middleware.LivenessHandler)
	mux.Get("/healthz", middleware.HealthHandler(opts.Required, opts.Optional))
	mux.Get("/ready", middleware.ReadinessHandler(opts.Sessions))
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/analyze", r.wrap(r.handleAnalyze))
		rt.Route("/sessions/{session}", func(rs chi.Router) {
			rs.Post("/analyze", r.wrap(r.handleAnalyze))
			rs.Get("/history", r.wrap(r.handleHistory))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var he *httpError
			if errors.As(err, &he) {
				http.Error(w, he.msg, he.status)
				return
			}
			r.log.Error("handler failed", zap.String("path", req.URL.Path), zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
		}
	}
}

type analyzeResponse struct {
	SessionID  string           `json:"session_id"`
	Kind       appanalysis.Kind `json:"kind"`
	Report     string           `json:"report"`
	SeenBefore int              `json:"seen_before"`
}

// POST /v1/analyze
// POST /v1/sessions/{session}/analyze
// Multipart body with a "file" field and an optional session_id field.
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	session, err := sessionFrom(req)
	if err != nil {
		return err
	}

	req.Body = http.MaxBytesReader(w, req.Body, r.maxUpload)
	if err := req.ParseMultipartForm(r.maxUpload); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return &httpError{status: http.StatusRequestEntityTooLarge, msg: "upload too large"}
		}
		return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf("invalid upload: %v", err)}
	}
	if req.MultipartForm != nil {
		defer req.MultipartForm.RemoveAll()
	}
	if session == "" {
		session = strings.TrimSpace(req.FormValue(SessionField))
		if session == "" {
			session = strings.TrimSpace(req.FormValue(SessionHeader))
		}
		if err := middleware.ValidateSessionID(session); err != nil {
			return &httpError{status: http.StatusBadRequest, msg: err.Error()}
		}
	}

	up, cleanup, err := r.saveUpload(req)
	if err != nil {
		return err
	}
	defer cleanup()

	done := middleware.StartAnalysis()
	res := r.svc.Process(req.Context(), up, session)
	done(string(res.Kind), res.SeenBefore)

	w.Header().Set(SessionHeader, res.SessionID)
	return writeJSON(w, statusFor(res.Kind), analyzeResponse{
		SessionID:  res.SessionID,
		Kind:       res.Kind,
		Report:     res.Display,
		SeenBefore: res.SeenBefore,
	})
}

// saveUpload copies the multipart file to a temp file. A request without a
// file yields an empty Upload so the service reports it as missing.
func (r *Router) saveUpload(req *http.Request) (appanalysis.Upload, func(), error) {
	noop := func() {}
	if req.MultipartForm == nil {
		return appanalysis.Upload{}, noop, nil
	}
	file, header, err := req.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return appanalysis.Upload{}, noop, nil
	}
	if err != nil {
		return appanalysis.Upload{}, noop, &httpError{status: http.StatusBadRequest, msg: err.Error()}
	}
	defer file.Close()

	name := middleware.SanitizeFilename(header.Filename)
	path := filepath.Join(r.tempDir, uuid.New().String()+document.Ext(name))
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return appanalysis.Upload{}, noop, fmt.Errorf("create temp upload: %w", err)
	}
	cleanup := func() {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			r.log.Warn("failed to remove temp upload", zap.String("path", path), zap.Error(err))
		}
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		cleanup()
		return appanalysis.Upload{}, noop, fmt.Errorf("write temp upload: %w", err)
	}
	if err := out.Close(); err != nil {
		cleanup()
		return appanalysis.Upload{}, noop, err
	}
	return appanalysis.Upload{Path: path, Filename: name}, cleanup, nil
}

type historyResponse struct {
	SessionID string          `json:"session_id"`
	Records   []domain.Record `json:"records"`
}

// GET /v1/sessions/{session}/history?limit=10
// GET /v1/sessions/{session}/history?page=2&limit=10
// GET /v1/sessions/{session}/history?format=markdown
func (r *Router) handleHistory(w http.ResponseWriter, req *http.Request) error {
	session, err := sessionFrom(req)
	if err != nil {
		return err
	}

	if req.URL.Query().Get("format") == "markdown" {
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		_, err := io.WriteString(w, r.svc.HistoryDisplay(session))
		return err
	}

	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	limit = middleware.ValidateLimit(limit)
	if p := req.URL.Query().Get("page"); p != "" {
		page, err := strconv.Atoi(p)
		if err != nil || page < 1 {
			return &httpError{status: http.StatusBadRequest, msg: "page must be a positive integer"}
		}
		return writeJSON(w, http.StatusOK, r.svc.Page(session, page, limit))
	}
	return writeJSON(w, http.StatusOK, historyResponse{
		SessionID: session,
		Records:   r.svc.Recent(session, limit),
	})
}

// sessionFrom reads the session from the path, falling back to the header.
func sessionFrom(req *http.Request) (string, error) {
	session := chi.URLParam(req, "session")
	if session == "" {
		session = strings.TrimSpace(req.Header.Get(SessionHeader))
	}
	if err := middleware.ValidateSessionID(session); err != nil {
		return "", &httpError{status: http.StatusBadRequest, msg: err.Error()}
	}
	return session, nil
}

func statusFor(k appanalysis.Kind) int {
	switch k {
	case appanalysis.KindOK:
		return http.StatusOK
	case appanalysis.KindFileMissing:
		return http.StatusBadRequest
	case appanalysis.KindUnsupportedFormat:
		return http.StatusUnsupportedMediaType
	case appanalysis.KindEmptyDocument:
		return http.StatusUnprocessableEntity
	case appanalysis.KindQuotaExceeded:
		return http.StatusTooManyRequests
	case appanalysis.KindExternalService:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}
