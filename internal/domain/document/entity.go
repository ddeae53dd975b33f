package document

import (
	"path/filepath"
	"strings"
)

// Type labels the kind of uploaded document. The labels are shown to the
// user as-is and persisted with every record.
type Type string

const (
	TypePDF   Type = "PDF Raporu"
	TypeText  Type = "Metin Raporu"
	TypeImage Type = "Tıbbi Görüntü"
)

// AllowedExtensions lists the upload formats accepted by the ingestor.
var AllowedExtensions = []string{"pdf", "txt", "png", "jpg", "jpeg"}

// Document is the normalized text payload extracted from an upload.
type Document struct {
	Filename string `json:"filename"`
	Type     Type   `json:"document_type"`
	Text     string `json:"text"`
}

// Ext returns the lowercased extension of name including the dot.
func Ext(name string) string {
	return strings.ToLower(filepath.Ext(name))
}

// TypeForExt maps a lowercased extension to a document type.
func TypeForExt(ext string) (Type, bool) {
	switch ext {
	case ".pdf":
		return TypePDF, true
	case ".txt":
		return TypeText, true
	case ".png", ".jpg", ".jpeg":
		return TypeImage, true
	default:
		return "", false
	}
}
