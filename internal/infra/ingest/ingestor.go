package ingest

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bryanwahyu/medreport/internal/domain/ai"
	"github.com/bryanwahyu/medreport/internal/domain/document"
)

// Ingestor dispatches on file extension. Captioner is only needed for images.
type Ingestor struct {
	Captioner document.Captioner
}

func NewIngestor(c document.Captioner) *Ingestor {
	return &Ingestor{Captioner: c}
}

// Ingest reads the file at path; filename is the user-visible name and
// decides the format.
func (i *Ingestor) Ingest(ctx context.Context, path, filename string) (*document.Document, error) {
	if path == "" || filename == "" {
		return nil, document.ErrFileMissing
	}
	ext := document.Ext(filename)
	typ, ok := document.TypeForExt(ext)
	if !ok {
		return nil, fmt.Errorf("%w %q: allowed formats are %s",
			document.ErrUnsupportedFormat, ext, strings.Join(document.AllowedExtensions, ", "))
	}

	var (
		text string
		err  error
	)
	switch typ {
	case document.TypePDF:
		text, err = readPDF(path)
	case document.TypeText:
		text, err = readText(path)
	case document.TypeImage:
		text, err = i.describeImage(ctx, path, filename)
	}
	if err != nil {
		return nil, err
	}
	return &document.Document{Filename: filename, Type: typ, Text: text}, nil
}

func readText(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read text: %w", err)
	}
	if strings.TrimSpace(string(b)) == "" {
		return "", document.ErrEmptyDocument
	}
	return string(b), nil
}

func (i *Ingestor) describeImage(ctx context.Context, path, filename string) (string, error) {
	if i.Captioner == nil {
		return "", fmt.Errorf("%w: no image captioner configured", ai.ErrServiceFailure)
	}
	caption, err := i.Captioner.Caption(ctx, path)
	if err != nil {
		return "", fmt.Errorf("caption image: %w", err)
	}
	return fmt.Sprintf("Bu bir tıbbi görüntü analizidir.\n\nGörüntü açıklaması: %s\n\nDosya adı: %s",
		caption, filepath.Base(filename)), nil
}
