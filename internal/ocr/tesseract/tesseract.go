//go:build tesseract

package tesseract

import (
	"context"
	"fmt"

	"github.com/otiai10/gosseract/v2"
	"github.com/rs/zerolog"

	"billtools/internal/logger"
	"billtools/internal/ocr"
)

// Available reports whether tesseract support is compiled in.
const Available = true

// Recognizer runs tesseract in single-block mode with interword spacing kept,
// which keeps label and value columns of a bill on one line.
type Recognizer struct {
	log zerolog.Logger
}

// New creates a tesseract recognizer.
func New() (*Recognizer, error) {
	return &Recognizer{log: logger.WithComponent("ocr.tesseract")}, nil
}

// Recognize implements ocr.Recognizer. Tesseract is not interruptible, so a
// canceled context returns immediately while the engine finishes in the
// background.
func (r *Recognizer) Recognize(ctx context.Context, image []byte, languageHints []string, progress ocr.ProgressFunc) (string, error) {
	const op = "Recognize"

	if len(image) == 0 {
		return "", ocr.NewOCRError(op, ocr.ErrEmptyImage, "")
	}
	progress.Report(5)

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	langs := Languages(languageHints)

	go func() {
		text, err := r.run(image, langs)
		done <- result{text: text, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ocr.NewOCRError(op, ocr.ErrContextCanceled, ctx.Err().Error())
	case res := <-done:
		if res.err != nil {
			return "", ocr.WrapOCRError(op, ocr.ErrOCRFailed, res.err.Error())
		}
		r.log.Debug().
			Strs("languages", langs).
			Int("text_length", len(res.text)).
			Msg("Tesseract recognition finished")
		progress.Report(100)
		return res.text, nil
	}
}

func (r *Recognizer) run(image []byte, langs []string) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(langs...); err != nil {
		return "", fmt.Errorf("failed to set language: %w", err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("failed to set page segmentation mode: %w", err)
	}
	if err := client.SetVariable("preserve_interword_spaces", "1"); err != nil {
		r.log.Warn().Err(err).Msg("Failed to preserve interword spaces")
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}
	return client.Text()
}
