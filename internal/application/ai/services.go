package ai

import (
	"context"

	"go.uber.org/zap"

	"github.com/bryanwahyu/medreport/internal/domain/ai"
	"github.com/bryanwahyu/medreport/internal/domain/analysis"
	"github.com/bryanwahyu/medreport/internal/domain/document"
)

// HistoryContextSize is how many prior records are handed to the prompt.
const HistoryContextSize = 3

type Service struct {
	client  ai.Client
	history analysis.History
	log     *zap.Logger
}

func NewService(client ai.Client, history analysis.History, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{client: client, history: history, log: log}
}

// AnalyzeAndStore runs the completion for text and, on success, appends the
// report to userID's history keyed by the hash of text. Failed calls leave
// the history untouched.
func (s *Service) AnalyzeAndStore(ctx context.Context, userID string, docType document.Type, text string) (string, error) {
	recent := s.history.Recent(userID, HistoryContextSize)

	report, err := s.client.Analyze(ctx, text, recent)
	if err != nil {
		s.log.Warn("analysis failed", zap.String("session", userID), zap.Error(err))
		return "", err
	}

	rec := s.history.Append(ctx, userID, docType, report, document.Hash(text))
	s.log.Info("analysis stored",
		zap.String("session", userID),
		zap.Int("record", rec.ID),
		zap.String("document_type", string(docType)))
	return report, nil
}
