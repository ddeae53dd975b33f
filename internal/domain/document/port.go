package document

import "context"

// Ingestor turns an uploaded file into a normalized text payload.
type Ingestor interface {
	Ingest(ctx context.Context, path, filename string) (*Document, error)
}

// Captioner describes an image in one sentence.
type Captioner interface {
	Caption(ctx context.Context, imagePath string) (string, error)
}

// Archive keeps a copy of an ingested upload and returns its location.
type Archive interface {
	Upload(ctx context.Context, localPath, key string) (string, error)
}
