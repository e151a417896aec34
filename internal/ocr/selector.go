package ocr

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"billtools/internal/logger"
	"billtools/internal/normalize"
	"billtools/pkg/models"
)

// Acquisition strategies.
const (
	StrategyOriginal         = "original"
	StrategyContrastEnhanced = "contrast_enhanced"
)

// MinUsableLength is the non-whitespace length above which the original
// image is accepted without trying the enhanced copy.
const MinUsableLength = 50

// DegradedText is returned when no strategy produced text. It holds no digits
// and no utility keywords, so nothing downstream can mistake it for bill data.
const DegradedText = "OCR UNAVAILABLE: text recognition failed for this document"

const sampleLength = 200

// Acquisition is the outcome of running the strategies on one image.
type Acquisition struct {
	Text     string
	Strategy string
	Attempts []models.RecognizedText
	Degraded bool
}

// Debug returns the acquisition as fact diagnostics.
func (a Acquisition) Debug() *models.OCRDebug {
	return &models.OCRDebug{
		Strategy:   a.Strategy,
		TextLength: normalize.NonSpaceLength(a.Text),
		Sample:     normalize.Sample(a.Text, sampleLength),
		Attempts:   a.Attempts,
		Degraded:   a.Degraded,
	}
}

// Selector picks the richer of the original and contrast-enhanced recognitions.
type Selector struct {
	recognizer Recognizer
	languages  []string
	minUsable  int
	enhance    func([]byte) ([]byte, error)
	log        zerolog.Logger
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithMinUsableLength overrides MinUsableLength.
func WithMinUsableLength(n int) SelectorOption {
	return func(s *Selector) {
		s.minUsable = n
	}
}

// WithEnhancement overrides DefaultEnhancement.
func WithEnhancement(e Enhancement) SelectorOption {
	return func(s *Selector) {
		s.enhance = func(image []byte) ([]byte, error) {
			return Enhance(image, e)
		}
	}
}

// WithEnhancer replaces the image transform used by the enhanced strategy.
func WithEnhancer(fn func([]byte) ([]byte, error)) SelectorOption {
	return func(s *Selector) {
		s.enhance = fn
	}
}

// NewSelector creates a selector over recognizer with the given language hints.
func NewSelector(recognizer Recognizer, languages []string, opts ...SelectorOption) *Selector {
	s := &Selector{
		recognizer: recognizer,
		languages:  languages,
		minUsable:  MinUsableLength,
		enhance: func(image []byte) ([]byte, error) {
			return Enhance(image, DefaultEnhancement)
		},
		log: logger.WithComponent("ocr.selector"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Acquire recognizes image under the original strategy and, when the result
// is too short, under the contrast-enhanced strategy. Recognition failures
// degrade; only an empty image or a canceled context is returned as an error.
func (s *Selector) Acquire(ctx context.Context, image []byte, progress ProgressFunc) (Acquisition, error) {
	const op = "Acquire"

	if len(image) == 0 {
		return Acquisition{}, NewOCRError(op, ErrEmptyImage, "")
	}
	if err := ctx.Err(); err != nil {
		return Acquisition{}, NewOCRError(op, ErrContextCanceled, err.Error())
	}

	tracker := &progressTracker{report: progress}
	tracker.set(0)

	var acq Acquisition
	first, errA := s.attempt(ctx, StrategyOriginal, image, tracker.scaled(0, 50))
	acq.Attempts = append(acq.Attempts, first)
	if canceled(ctx, errA) {
		return Acquisition{}, NewOCRError(op, ErrContextCanceled, "")
	}
	tracker.set(50)

	best, bestErr := first, errA
	if errA != nil || first.Length <= s.minUsable {
		second, errB := s.enhanced(ctx, image, tracker.scaled(50, 100))
		acq.Attempts = append(acq.Attempts, second)
		if canceled(ctx, errB) {
			return Acquisition{}, NewOCRError(op, ErrContextCanceled, "")
		}
		if errB == nil && (bestErr != nil || second.Length > first.Length) {
			best, bestErr = second, nil
		}
	}
	tracker.set(100)

	if bestErr != nil {
		s.log.Warn().
			Int("attempts", len(acq.Attempts)).
			Err(bestErr).
			Msg("All OCR strategies failed, continuing with degraded text")
		acq.Text = DegradedText
		acq.Degraded = true
		return acq, nil
	}

	acq.Text = best.Text
	acq.Strategy = best.Strategy
	s.log.Debug().
		Str("strategy", best.Strategy).
		Int("text_length", best.Length).
		Int("attempts", len(acq.Attempts)).
		Msg("OCR strategy selected")
	return acq, nil
}

func (s *Selector) enhanced(ctx context.Context, image []byte, progress ProgressFunc) (models.RecognizedText, error) {
	prepared, err := s.enhance(image)
	if err != nil {
		s.log.Debug().Err(err).Msg("Contrast enhancement failed")
		return models.RecognizedText{Strategy: StrategyContrastEnhanced, Err: err.Error()}, err
	}
	return s.attempt(ctx, StrategyContrastEnhanced, prepared, progress)
}

func (s *Selector) attempt(ctx context.Context, strategy string, image []byte, progress ProgressFunc) (models.RecognizedText, error) {
	text, err := s.recognizer.Recognize(ctx, image, s.languages, progress)
	if err != nil {
		s.log.Debug().Str("strategy", strategy).Err(err).Msg("OCR attempt failed")
		return models.RecognizedText{Strategy: strategy, Err: err.Error()}, err
	}
	return models.RecognizedText{
		Strategy: strategy,
		Text:     text,
		Length:   normalize.NonSpaceLength(text),
		Sample:   normalize.Sample(text, sampleLength),
	}, nil
}

func canceled(ctx context.Context, err error) bool {
	return ctx.Err() != nil || errors.Is(err, ErrContextCanceled) || errors.Is(err, context.Canceled)
}

// progressTracker forwards provider progress without ever going backwards.
type progressTracker struct {
	report ProgressFunc
	last   int
}

func (t *progressTracker) set(percent int) {
	if percent < t.last {
		return
	}
	if percent > 100 {
		percent = 100
	}
	t.last = percent
	t.report.Report(percent)
}

// scaled maps a provider's 0-100 onto [from, to].
func (t *progressTracker) scaled(from, to int) ProgressFunc {
	return func(percent int) {
		if percent < 0 {
			percent = 0
		}
		if percent > 100 {
			percent = 100
		}
		t.set(from + (to-from)*percent/100)
	}
}
