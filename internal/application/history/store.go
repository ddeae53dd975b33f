package history

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/bryanwahyu/medreport/internal/application"
	domain "github.com/bryanwahyu/medreport/internal/domain/analysis"
	"github.com/bryanwahyu/medreport/internal/domain/document"
)

// Store owns the per-session analysis history. It is built once at startup
// and shared by reference; every Append is written through to the Persister
// before returning.
//
// Store is safe for concurrent use. The lock is held across Persist so that
// whole-snapshot backends never interleave two writes.
type Store struct {
	mu       sync.RWMutex
	sessions map[string][]domain.Record

	persister domain.Persister
	clock     application.Clock
	log       *zap.Logger
}

func NewStore(p domain.Persister, clock application.Clock, log *zap.Logger) *Store {
	if clock == nil {
		clock = application.SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		sessions:  make(map[string][]domain.Record),
		persister: p,
		clock:     clock,
		log:       log,
	}
}

// Load replaces the in-memory state with what the persister holds. Failures
// leave the store empty and are logged, never returned.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string][]domain.Record)
	if s.persister == nil {
		return
	}
	snap, err := s.persister.Load(ctx)
	if err != nil {
		s.log.Warn("history load failed, starting empty", zap.Error(err))
		return
	}
	for user, recs := range snap.Sessions {
		s.sessions[user] = append([]domain.Record(nil), recs...)
	}
	s.log.Info("history loaded", zap.Int("sessions", len(s.sessions)))
}

// Append records a finished analysis for userID and persists the store.
// The id follows the last stored id, so a record lost to an earlier persist
// failure never makes two records share an id.
func (s *Store) Append(ctx context.Context, userID string, docType document.Type, analysis, docHash string) domain.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := 1
	if recs := s.sessions[userID]; len(recs) > 0 {
		next = recs[len(recs)-1].ID + 1
	}
	rec := domain.Record{
		Timestamp:    s.clock.Now().Format(domain.TimestampLayout),
		DocumentType: docType,
		DocumentHash: docHash,
		Analysis:     analysis,
		ID:           next,
	}
	s.sessions[userID] = append(s.sessions[userID], rec)

	if s.persister != nil {
		snap := domain.Snapshot{Sessions: s.sessions}
		if err := s.persister.Persist(ctx, snap, userID, rec); err != nil {
			s.log.Error("history persist failed",
				zap.String("session", userID),
				zap.Int("record", rec.ID),
				zap.Error(err))
		}
	}
	return rec
}

// Recent returns up to limit of the newest records for userID, oldest first.
func (s *Store) Recent(userID string, limit int) []domain.Record {
	if limit <= 0 {
		return []domain.Record{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.sessions[userID]
	if len(recs) > limit {
		recs = recs[len(recs)-limit:]
	}
	return append([]domain.Record{}, recs...)
}

// Paginate pages through userID's history, newest first. Page numbers
// start at 1; out of range pages come back with empty Data.
func (s *Store) Paginate(userID string, page, pageSize int) domain.PaginatedResult {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.sessions[userID]
	total := len(recs)
	out := domain.PaginatedResult{
		Data:       []domain.Record{},
		Page:       page,
		PageSize:   pageSize,
		Total:      int64(total),
		TotalPages: (total + pageSize - 1) / pageSize,
	}
	// walk backwards from the newest record
	start := total - (page-1)*pageSize
	for i := start - 1; i >= 0 && i >= start-pageSize; i-- {
		out.Data = append(out.Data, recs[i])
	}
	return out
}

// FindByHash returns every record of userID whose hash equals docHash.
func (s *Store) FindByHash(userID, docHash string) []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []domain.Record{}
	for _, r := range s.sessions[userID] {
		if r.DocumentHash == docHash {
			out = append(out, r)
		}
	}
	return out
}

// Sessions reports how many session ids have history.
func (s *Store) Sessions() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
