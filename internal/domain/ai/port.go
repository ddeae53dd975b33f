package ai

import (
	"context"

	"github.com/bryanwahyu/medreport/internal/domain/analysis"
)

// Client produces a preliminary report for a document. history holds the
// caller's most recent records and is only used as prompt context.
type Client interface {
	Analyze(ctx context.Context, documentText string, history []analysis.Record) (string, error)
}
