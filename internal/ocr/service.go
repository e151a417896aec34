// Package ocr recovers text from bill and receipt images.
//
// The engine only depends on the Recognizer interface: recognize(image,
// language hints) -> text, with an optional progress callback. Providers:
//   - Google Cloud Vision (DOCUMENT_TEXT_DETECTION on inline image bytes)
//   - Google Document AI (OCR processor, raw document)
//   - local Tesseract, in the tesseract subpackage
//
// Selector runs the acquisition strategies on top of a Recognizer: the
// original image first, then a contrast-enhanced copy when the first pass is
// too short to be usable.
//
// Required Environment Variables (Google providers):
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT and DOCUMENT_AI_PROCESSOR_ID for Document AI
package ocr

import (
	"context"
	"net/http"
	"os"

	"google.golang.org/api/option"
)

// MaxImageBytes is the largest image accepted for inline recognition (20MB).
const MaxImageBytes = 20 * 1024 * 1024

// ProgressFunc receives recognition progress in percent.
type ProgressFunc func(percent int)

// Recognizer is the OCR provider boundary.
type Recognizer interface {
	// Recognize returns the text found in image. languageHints are
	// BCP-47 codes such as "en" and "ms"; progress may be nil.
	Recognize(ctx context.Context, image []byte, languageHints []string, progress ProgressFunc) (string, error)
}

// Report calls p when it is not nil.
func (p ProgressFunc) Report(percent int) {
	if p != nil {
		p(percent)
	}
}

// credentialOptions returns the client options for the credentials found in
// the environment; inline JSON wins over a file path. No options means
// application default credentials.
func credentialOptions() []option.ClientOption {
	if credJSON := os.Getenv("GOOGLE_CREDENTIALS"); credJSON != "" {
		return []option.ClientOption{option.WithCredentialsJSON([]byte(credJSON))}
	}
	if credFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credFile != "" {
		return []option.ClientOption{option.WithCredentialsFile(credFile)}
	}
	return nil
}

// validateImage checks size limits and that the bytes look like an image.
func validateImage(op string, image []byte) error {
	if len(image) == 0 {
		return NewOCRError(op, ErrEmptyImage, "")
	}
	if len(image) > MaxImageBytes {
		return NewOCRError(op, ErrImageTooLarge, "")
	}
	switch http.DetectContentType(image) {
	case "image/jpeg", "image/png", "image/gif", "image/bmp", "image/webp", "application/pdf":
		return nil
	}
	if isTIFF(image) {
		return nil
	}
	return NewOCRError(op, ErrInvalidImage, "unrecognised image format")
}

func isTIFF(b []byte) bool {
	return len(b) >= 4 && (string(b[:4]) == "II*\x00" || string(b[:4]) == "MM\x00*")
}
