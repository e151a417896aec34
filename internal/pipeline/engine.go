// Package pipeline runs one bill or receipt through every stage, from OCR to
// the assembled ExtractedFact.
package pipeline

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"billtools/internal/classify"
	"billtools/internal/emissions"
	"billtools/internal/extract"
	"billtools/internal/fuel"
	"billtools/internal/lexicon"
	"billtools/internal/logger"
	"billtools/internal/normalize"
	"billtools/internal/ocr"
	"billtools/internal/table"
	"billtools/pkg/models"
)

// documentNamespace scopes the name-based document IDs.
var documentNamespace = uuid.MustParse("6f0c8b4e-3d1a-5b7e-9c2f-1a4d6e8b0c3f")

// DocumentID returns the deterministic ID of a document's content.
func DocumentID(content []byte) string {
	return uuid.NewSHA1(documentNamespace, content).String()
}

// Acquirer produces text for an image. ocr.Selector implements it.
type Acquirer interface {
	Acquire(ctx context.Context, image []byte, progress ocr.ProgressFunc) (ocr.Acquisition, error)
}

// Engine runs the per-document stages sequentially. It holds only read-only
// tables and is safe to reuse across documents.
type Engine struct {
	acquirer        Acquirer
	classifier      *classify.Classifier
	extractor       *extract.Extractor
	resolver        *fuel.Resolver
	calculator      *emissions.Calculator
	reviewThreshold int
	log             zerolog.Logger
}

type options struct {
	lexicon         *lexicon.Lexicon
	factors         *emissions.Table
	cache           *extract.ReferenceCache
	resolver        *fuel.Resolver
	reviewThreshold int
}

// Option configures an Engine.
type Option func(*options)

// WithLexicon sets the keyword tables; the default is lexicon.Default().
func WithLexicon(lex *lexicon.Lexicon) Option {
	return func(o *options) {
		o.lexicon = lex
	}
}

// WithFactors sets the emission-factor table; the default is emissions.Default().
func WithFactors(table *emissions.Table) Option {
	return func(o *options) {
		o.factors = table
	}
}

// WithReferenceCache enables the reference cache. It is off by default.
func WithReferenceCache(cache *extract.ReferenceCache) Option {
	return func(o *options) {
		o.cache = cache
	}
}

// WithResolver replaces the fuel resolver, e.g. to change the static prices.
func WithResolver(r *fuel.Resolver) Option {
	return func(o *options) {
		o.resolver = r
	}
}

// WithReviewThreshold sets the confidence below which facts need review.
func WithReviewThreshold(n int) Option {
	return func(o *options) {
		o.reviewThreshold = n
	}
}

// New creates an engine. acquirer may be nil when only ProcessText is used.
func New(acquirer Acquirer, opts ...Option) *Engine {
	o := options{reviewThreshold: DefaultReviewThreshold}
	for _, opt := range opts {
		opt(&o)
	}
	if o.lexicon == nil {
		o.lexicon = lexicon.Default()
	}
	if o.resolver == nil {
		o.resolver = fuel.NewResolver()
	}

	return &Engine{
		acquirer:        acquirer,
		classifier:      classify.New(o.lexicon),
		extractor:       extract.New(o.lexicon, o.cache),
		resolver:        o.resolver,
		calculator:      emissions.NewCalculator(o.factors),
		reviewThreshold: o.reviewThreshold,
		log:             logger.WithComponent("pipeline"),
	}
}

// Factors returns the emission-factor table in use.
func (e *Engine) Factors() *emissions.Table {
	return e.calculator.Table()
}

// Process recognizes doc and extracts its fact.
func (e *Engine) Process(ctx context.Context, doc models.RawDocument) (*models.ExtractedFact, error) {
	return e.ProcessWithProgress(ctx, doc, nil)
}

// ProcessWithProgress is Process with an OCR progress callback. Recognition
// failures produce a degraded fact; only an invalid document, an empty image
// or cancellation are returned as errors.
func (e *Engine) ProcessWithProgress(ctx context.Context, doc models.RawDocument, progress ocr.ProgressFunc) (*models.ExtractedFact, error) {
	const op = "Process"

	if doc.Name == "" {
		return nil, NewExtractionError(op, doc.Name, ErrInvalidDocument, "document name is required")
	}
	if err := doc.Period.Validate(); err != nil {
		return nil, NewExtractionError(op, doc.Name, ErrInvalidPeriod, err.Error())
	}
	if e.acquirer == nil {
		return nil, NewExtractionError(op, doc.Name, ErrAcquisitionFailed, "no OCR provider configured")
	}

	acq, err := e.acquirer.Acquire(ctx, doc.Image, progress)
	if err != nil {
		if errors.Is(err, ocr.ErrEmptyImage) || errors.Is(err, ocr.ErrContextCanceled) {
			return nil, NewExtractionError(op, doc.Name, err, "")
		}
		return nil, NewExtractionError(op, doc.Name, ErrAcquisitionFailed, err.Error())
	}

	src := Source{
		DocumentID:  DocumentID(doc.Image),
		FileName:    doc.Name,
		Period:      doc.Period,
		Acquisition: &acq,
	}
	return e.finish(src, acq.Text), nil
}

// ProcessText runs the text stages on already recognized text.
func (e *Engine) ProcessText(name string, period models.BillingPeriod, text string) *models.ExtractedFact {
	src := Source{
		DocumentID: DocumentID([]byte(text)),
		FileName:   name,
		Period:     period,
	}
	return e.finish(src, text)
}

func (e *Engine) finish(src Source, raw string) *models.ExtractedFact {
	a := e.Analyze(raw)
	fact := Assemble(src, a, e.reviewThreshold)

	log := logger.WithDocument("pipeline", fact.DocumentID, fact.FileName)
	log.Info().
		Str("type", string(fact.UtilityType)).
		Float64("amount", fact.Amount).
		Float64("usage", fact.Usage.Value).
		Str("unit", fact.Usage.Unit).
		Float64("emissions", fact.Emissions.Total).
		Int("confidence", fact.Confidence).
		Str("status", fact.Status).
		Msg("Document processed")

	return fact
}

// Analyze runs normalization, classification, row analysis, field
// extraction, fuel resolution and the emissions calculation on raw text.
func (e *Engine) Analyze(raw string) Analysis {
	text := normalize.Clean(raw)
	cls := e.classifier.Classify(text)
	t := cls.Type
	layout := table.Analyze(text)

	a := Analysis{
		Text:           text,
		Classification: cls,
		Amount:         e.amount(text, layout, t),
		Provider:       e.extractor.Provider(text, t),
		Dates:          e.extractor.Dates(text),
	}

	if t == models.Fuel {
		// Receipt and transaction numbers look like meter numbers.
		a.Meter = extract.Candidate[string]{Value: extract.MeterUnknown}
		e.resolveFuel(text, &a)
		a.Emissions = e.calculator.Calculate(t, a.FuelType.Grade, a.Usage.Value.Value, a.Usage.Value.Unit)
		return a
	}

	a.Meter = e.meter(text, layout)
	a.Usage = e.usage(text, layout, t)
	a.Emissions = e.calculator.Calculate(t, "", a.Usage.Value.Value, a.Usage.Value.Unit)

	e.log.Debug().
		Str("type", string(t)).
		Bool("table", layout.HasTable()).
		Str("amount_source", a.Amount.Source).
		Str("usage_source", a.Usage.Source).
		Str("meter_source", a.Meter.Source).
		Msg("Fields extracted")
	return a
}

// amount prefers the reference cache, then amount rows, then the whole text.
func (e *Engine) amount(text string, layout table.Layout, t models.UtilityType) extract.Candidate[float64] {
	if c, ok := e.extractor.Cache().Amount(text); ok {
		return c
	}
	if c, ok := table.AmountFromRows(layout, t); ok {
		return c
	}
	return e.extractor.Amount(text, t)
}

// usage prefers the reference cache, then a usage row whose unit fits t, then
// the whole text. Unknown documents only take usage from rows.
func (e *Engine) usage(text string, layout table.Layout, t models.UtilityType) extract.Candidate[models.Usage] {
	if t == models.Electricity {
		if c, ok := e.extractor.Cache().Usage(text); ok {
			return c
		}
	}
	if c, ok := table.UsageFromRows(layout); ok && unitFits(t, c.Value.Unit) {
		return c
	}
	if t == models.Unknown {
		return extract.Candidate[models.Usage]{}
	}
	return e.extractor.Usage(text, t)
}

func unitFits(t models.UtilityType, unit string) bool {
	switch t {
	case models.Electricity:
		return unit == extract.UnitKWh
	case models.Water:
		return unit == extract.UnitM3
	}
	return true
}

func (e *Engine) meter(text string, layout table.Layout) extract.Candidate[string] {
	if c, ok := e.extractor.Cache().Meter(text); ok {
		return c
	}
	if c, ok := table.MeterFromRows(layout); ok {
		return c
	}
	return e.extractor.MeterNumber(text)
}

func (e *Engine) resolveFuel(text string, a *Analysis) {
	a.FuelType = e.extractor.FuelType(text)
	a.Price = e.extractor.PricePerLiter(text)
	a.DirectLiters = e.extractor.DirectLiters(text)

	res := e.resolver.Resolve(fuel.Input{
		Amount:         a.Amount.Value,
		Price:          a.Price.Value,
		PricePlausible: a.Price.Plausible,
		DirectLiters:   a.DirectLiters.Value,
		Grade:          a.FuelType.Grade,
	})
	a.Fuel = &res

	if res.Liters > 0 {
		a.Usage = extract.Candidate[models.Usage]{
			Value:      models.Usage{Value: res.Liters, Unit: "L"},
			Confidence: res.Confidence,
			RuleName:   res.Method,
			Source:     res.Method,
		}
	}
}
