//go:build !tesseract

package tesseract

import (
	"context"

	"billtools/internal/ocr"
)

// Available reports whether tesseract support is compiled in.
const Available = false

const unavailable = "built without tesseract support; rebuild with -tags tesseract"

// Recognizer is a placeholder in builds without tesseract support.
type Recognizer struct{}

// New reports ocr.ErrInvalidConfiguration: this build has no tesseract.
func New() (*Recognizer, error) {
	return nil, ocr.NewOCRError("New", ocr.ErrInvalidConfiguration, unavailable)
}

// Recognize implements ocr.Recognizer and always fails.
func (r *Recognizer) Recognize(ctx context.Context, image []byte, languageHints []string, progress ocr.ProgressFunc) (string, error) {
	return "", ocr.NewOCRError("Recognize", ocr.ErrInvalidConfiguration, unavailable)
}
