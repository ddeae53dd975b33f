package analysis

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/medreport/internal/application"
	appai "github.com/bryanwahyu/medreport/internal/application/ai"
	domain "github.com/bryanwahyu/medreport/internal/domain/analysis"
	"github.com/bryanwahyu/medreport/internal/domain/document"
)

// HistoryDisplaySize is how many records the history view shows.
const HistoryDisplaySize = 10

// Service drives one upload from raw file to displayed report.
// Archive is optional; a nil Archive disables upload archiving.
type Service struct {
	History  domain.History
	AI       *appai.Service
	Ingestor document.Ingestor
	Archive  document.Archive
	Clock    application.Clock
	Log      *zap.Logger
}

// Upload is a file already written to local disk. Filename is the name the
// user uploaded it under and drives format detection.
type Upload struct {
	Path     string
	Filename string
}

// NewSessionID mints a session id from a timestamp.
func NewSessionID(now time.Time) string {
	return "user_" + now.Format("20060102_150405")
}

// Process analyzes up for sessionID, minting a session id when empty. It
// never fails: every error is folded into the returned Result.
func (s *Service) Process(ctx context.Context, up Upload, sessionID string) Result {
	if strings.TrimSpace(sessionID) == "" {
		sessionID = NewSessionID(s.now())
	}
	log := s.logger().With(zap.String("session", sessionID), zap.String("filename", up.Filename))

	if up.Path == "" || up.Filename == "" {
		return s.fail(sessionID, document.ErrFileMissing, up.Filename)
	}

	doc, err := s.Ingestor.Ingest(ctx, up.Path, up.Filename)
	if err != nil {
		log.Warn("ingest failed", zap.Error(err))
		return s.fail(sessionID, err, up.Filename)
	}

	hash := document.Hash(doc.Text)
	previous := s.History.FindByHash(sessionID, hash)

	s.archive(ctx, log, up, sessionID, hash)

	report, err := s.AI.AnalyzeAndStore(ctx, sessionID, doc.Type, doc.Text)
	if err != nil {
		return s.fail(sessionID, err, up.Filename)
	}
	if len(previous) > 0 {
		report += duplicateNote(len(previous))
	}
	log.Info("document analyzed",
		zap.String("document_type", string(doc.Type)),
		zap.String("hash", hash),
		zap.Int("seen_before", len(previous)))

	return Result{Display: report, SessionID: sessionID, Kind: KindOK, SeenBefore: len(previous)}
}

// HistoryDisplay renders the latest analyses of sessionID, newest first.
func (s *Service) HistoryDisplay(sessionID string) string {
	if strings.TrimSpace(sessionID) == "" {
		return msgNoSession
	}
	recs := s.History.Recent(sessionID, HistoryDisplaySize)
	if len(recs) == 0 {
		return msgNoHistory
	}
	return formatHistory(recs)
}

// Recent exposes raw records for API callers.
func (s *Service) Recent(sessionID string, limit int) []domain.Record {
	return s.History.Recent(sessionID, limit)
}

// Page returns one page of sessionID's history, newest first.
func (s *Service) Page(sessionID string, page, pageSize int) domain.PaginatedResult {
	return s.History.Paginate(sessionID, page, pageSize)
}

func (s *Service) fail(sessionID string, err error, filename string) Result {
	kind := kindOf(err)
	var display string
	switch kind {
	case KindFileMissing:
		display = msgFileMissing
	case KindUnsupportedFormat:
		display = msgUnsupported(filename)
	case KindEmptyDocument:
		display = msgEmpty(filename)
	case KindExternalService, KindQuotaExceeded:
		display = msgAnalysis(err)
	default:
		display = msgProcessing(err)
	}
	return Result{Display: display, SessionID: sessionID, Kind: kind, Err: err}
}

func (s *Service) archive(ctx context.Context, log *zap.Logger, up Upload, sessionID, hash string) {
	if s.Archive == nil {
		return
	}
	key := sessionID + "/" + hash + document.Ext(up.Filename)
	url, err := s.Archive.Upload(ctx, up.Path, key)
	if err != nil {
		log.Warn("archive upload failed", zap.String("key", key), zap.Error(err))
		return
	}
	log.Debug("upload archived", zap.String("url", url))
}

func (s *Service) now() time.Time {
	if s.Clock == nil {
		return time.Now()
	}
	return s.Clock.Now()
}

func (s *Service) logger() *zap.Logger {
	if s.Log == nil {
		return zap.NewNop()
	}
	return s.Log
}
