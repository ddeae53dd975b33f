package analysis

import (
	"context"

	"github.com/bryanwahyu/medreport/internal/domain/document"
)

// History port used by the services. Append always succeeds in memory;
// persistence failures are the store's concern.
type History interface {
	Append(ctx context.Context, userID string, docType document.Type, analysis, docHash string) Record
	Recent(userID string, limit int) []Record
	FindByHash(userID, docHash string) []Record
	Paginate(userID string, page, pageSize int) PaginatedResult
}

// Persister is the durable backend behind the history store. Persist gets
// the full snapshot plus the record that was just appended so that
// whole-file and row-based backends can both be served.
type Persister interface {
	Load(ctx context.Context) (Snapshot, error)
	Persist(ctx context.Context, snap Snapshot, userID string, rec Record) error
}
