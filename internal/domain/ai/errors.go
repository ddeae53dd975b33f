package ai

import "errors"

// ErrQuotaExceeded indicates the AI provider returned a quota/limit error (HTTP 429 or similar).
var ErrQuotaExceeded = errors.New("ai quota exceeded")

// ErrServiceFailure covers every other failed call to the completion or
// captioning service: network errors, malformed or empty responses.
var ErrServiceFailure = errors.New("ai service failure")
