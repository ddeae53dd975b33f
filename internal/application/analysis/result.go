package analysis

import (
	"errors"

	aidomain "github.com/bryanwahyu/medreport/internal/domain/ai"
	"github.com/bryanwahyu/medreport/internal/domain/document"
)

// Kind tags the outcome of one upload.
type Kind string

const (
	KindOK                Kind = "ok"
	KindFileMissing       Kind = "file_missing"
	KindUnsupportedFormat Kind = "unsupported_format"
	KindEmptyDocument     Kind = "empty_document"
	KindExternalService   Kind = "external_service"
	KindQuotaExceeded     Kind = "quota_exceeded"
	KindInternal          Kind = "internal"
)

// Result is what the caller shows after an upload.
type Result struct {
	Display   string `json:"report"`
	SessionID string `json:"session_id"`
	Kind      Kind   `json:"kind"`
	// SeenBefore counts earlier analyses of the same document in the session.
	SeenBefore int   `json:"seen_before"`
	Err        error `json:"-"`
}

// OK reports whether an analysis was produced.
func (r Result) OK() bool { return r.Kind == KindOK }

func kindOf(err error) Kind {
	switch {
	case err == nil:
		return KindOK
	case errors.Is(err, document.ErrFileMissing):
		return KindFileMissing
	case errors.Is(err, document.ErrUnsupportedFormat):
		return KindUnsupportedFormat
	case errors.Is(err, document.ErrEmptyDocument):
		return KindEmptyDocument
	case errors.Is(err, aidomain.ErrQuotaExceeded):
		return KindQuotaExceeded
	case errors.Is(err, aidomain.ErrServiceFailure):
		return KindExternalService
	default:
		return KindInternal
	}
}
