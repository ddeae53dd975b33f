package document

import "errors"

var (
	// ErrFileMissing indicates no upload was provided.
	ErrFileMissing = errors.New("no document uploaded")
	// ErrUnsupportedFormat indicates the file extension is not one of AllowedExtensions.
	ErrUnsupportedFormat = errors.New("unsupported document format")
	// ErrEmptyDocument indicates extraction produced no text, typically a scanned PDF.
	ErrEmptyDocument = errors.New("no text could be extracted from document")
)
