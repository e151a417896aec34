package pipeline_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billtools/internal/extract"
	"billtools/internal/fuel"
	"billtools/internal/lexicon"
	"billtools/internal/ocr"
	"billtools/internal/pipeline"
	"billtools/pkg/models"
)

const (
	tnbRow      = "kegunaan 1387 unit kwh caj semasa rm 775.11 no meter 323421565"
	ron95Slip   = "PETRONAS MESRA\nPRIMAX 95\n4.855Ltr@RM2.050/ltr\nTOTAL RM 9.95"
	dieselSlip  = "PETRON\nDIESEL\n25.000 L @ RM 0.95/L\nTOTAL RM 83.75"
	noisyLetter = "hello world\nplease call us"
)

var march2024 = models.BillingPeriod{Month: time.March, Year: 2024}

// recognizer returns the same text for every image.
type recognizer struct {
	text string
	err  error
}

func (r recognizer) Recognize(ctx context.Context, image []byte, hints []string, progress ocr.ProgressFunc) (string, error) {
	return r.text, r.err
}

func newEngine(text string, err error) *pipeline.Engine {
	sel := ocr.NewSelector(recognizer{text: text, err: err}, []string{"en", "ms"},
		ocr.WithEnhancer(func(b []byte) ([]byte, error) { return b, nil }))
	return pipeline.New(sel)
}

func TestScenarioElectricityRow(t *testing.T) {
	fact := pipeline.New(nil).ProcessText("tnb.jpg", march2024, tnbRow)

	assert.Equal(t, models.Electricity, fact.UtilityType)
	assert.Equal(t, models.Usage{Value: 1387, Unit: "kWh"}, fact.Usage)
	assert.Equal(t, 775.11, fact.Amount)
	assert.Equal(t, "323421565", fact.MeterNumber)
	assert.Equal(t, 1073.54, fact.Emissions.Total)
	assert.Equal(t, "1387 kWh × 0.774 = 1073.54 kg CO2e", fact.Emissions.Breakdown.Calculation)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC), fact.BillingPeriod)
	assert.Equal(t, extract.DateNotFound, fact.Date)
	assert.Nil(t, fact.Fuel)
	assert.Nil(t, fact.OCR)
	assert.Equal(t, models.StatusExtracted, fact.Status)
	assert.GreaterOrEqual(t, fact.Confidence, pipeline.DefaultReviewThreshold)
}

func TestThousandsSeparatedUsageRow(t *testing.T) {
	tests := []struct {
		text      string
		usage     float64
		emissions float64
	}{
		{"TNB Tenaga Nasional\nJumlah Unit 1,387 kWh\nCaj Semasa RM 775.11\nNo Meter 323421565", 1387, 1073.54},
		{"TNB Tenaga Nasional\nConsumption 2,109 kWh\nCaj Semasa RM 1,180.96\nNo Meter 323421565", 2109, 1632.37},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.usage), func(t *testing.T) {
			fact := pipeline.New(nil).ProcessText("tnb.jpg", march2024, tt.text)

			assert.Equal(t, models.Electricity, fact.UtilityType)
			assert.Equal(t, models.Usage{Value: tt.usage, Unit: "kWh"}, fact.Usage)
			assert.InDelta(t, tt.emissions, fact.Emissions.Total, 0.001)
			assert.Equal(t, "323421565", fact.MeterNumber)
		})
	}
}

func TestScenarioFuelPriceDivision(t *testing.T) {
	fact := pipeline.New(nil).ProcessText("receipt.jpg", march2024, ron95Slip)

	assert.Equal(t, models.Fuel, fact.UtilityType)
	assert.Equal(t, 9.95, fact.Amount)
	assert.Equal(t, models.Usage{Value: 4.854, Unit: "L"}, fact.Usage)
	assert.Equal(t, 2.05, fact.PricePerUnit)
	require.NotNil(t, fact.Fuel)
	assert.Equal(t, lexicon.GradeRON95, fact.Fuel.Grade)
	assert.Equal(t, fuel.MethodPriceDivision, fact.Fuel.Method)
	assert.Equal(t, fuel.PriceDetected, fact.Fuel.PriceSource)
	assert.Equal(t, 11.50, fact.Emissions.Total)
	assert.Equal(t, extract.MeterUnknown, fact.MeterNumber)
	assert.Equal(t, "PETRONAS", fact.Provider)
}

func TestScenarioUnknownDocument(t *testing.T) {
	fact := pipeline.New(nil).ProcessText("letter.jpg", march2024, noisyLetter)

	assert.Equal(t, models.Unknown, fact.UtilityType)
	assert.Zero(t, fact.Amount)
	assert.Equal(t, models.Usage{}, fact.Usage)
	assert.Zero(t, fact.Emissions.Total)
	assert.Equal(t, models.Unknown, fact.Emissions.Breakdown.Type)
	assert.Equal(t, models.StatusNeedsReview, fact.Status)
	assert.False(t, fact.Accepted())
}

func TestScenarioFuelReconciliation(t *testing.T) {
	fact := pipeline.New(nil).ProcessText("diesel.jpg", march2024, dieselSlip)

	assert.Equal(t, models.Fuel, fact.UtilityType)
	assert.Equal(t, 83.75, fact.Amount)
	assert.Equal(t, models.Usage{Value: 25, Unit: "L"}, fact.Usage)
	assert.Equal(t, 3.35, fact.PricePerUnit)
	require.NotNil(t, fact.Fuel)
	assert.True(t, fact.Fuel.Reconciled)
	assert.Equal(t, fuel.PriceDerived, fact.Fuel.PriceSource)
	assert.Equal(t, lexicon.GradeDiesel, fact.Fuel.Grade)
	assert.Equal(t, 71.5, fact.Emissions.Total)
	assert.Equal(t, 2.86, fact.Emissions.Breakdown.Factor)
	assert.GreaterOrEqual(t, fact.FieldConfidence[pipeline.FieldUsage], fuel.ReconciledFloor)
	assert.Contains(t, fact.Warnings, "detected price per liter is outside the plausible range")
}

func TestEmptyText(t *testing.T) {
	fact := pipeline.New(nil).ProcessText("blank.jpg", march2024, "")

	assert.Equal(t, models.Unknown, fact.UtilityType)
	assert.Zero(t, fact.Confidence)
	assert.Zero(t, fact.Amount)
	assert.True(t, fact.Usage.IsZero())
	assert.Equal(t, extract.DateNotFound, fact.Date)
	assert.Equal(t, extract.MeterUnknown, fact.MeterNumber)
	assert.Equal(t, models.StatusNeedsReview, fact.Status)
}

func TestProcessIsIdempotent(t *testing.T) {
	engine := newEngine(tnbRow, nil)
	doc := models.RawDocument{Name: "tnb.jpg", Image: []byte("jpeg bytes"), Period: march2024}

	first, err := engine.Process(context.Background(), doc)
	require.NoError(t, err)
	second, err := engine.Process(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, pipeline.DocumentID(doc.Image), first.DocumentID)
	require.NotNil(t, first.OCR)
	assert.Equal(t, ocr.StrategyOriginal, first.OCR.Strategy)
}

func TestProcessDegraded(t *testing.T) {
	engine := newEngine("", fmt.Errorf("vision: %w", ocr.ErrOCRFailed))
	doc := models.RawDocument{Name: "tnb.jpg", Image: []byte("jpeg bytes"), Period: march2024}

	fact, err := engine.Process(context.Background(), doc)
	require.NoError(t, err)

	assert.Equal(t, models.StatusDegraded, fact.Status)
	assert.Zero(t, fact.Confidence)
	assert.Zero(t, fact.Emissions.Total)
	require.NotNil(t, fact.OCR)
	assert.True(t, fact.OCR.Degraded)
	assert.Len(t, fact.OCR.Attempts, 2)
}

func TestProcessRejects(t *testing.T) {
	engine := newEngine(tnbRow, nil)
	ctx := context.Background()

	_, err := engine.Process(ctx, models.RawDocument{Name: "a.jpg", Image: []byte("x"), Period: models.BillingPeriod{Month: 13, Year: 2024}})
	assert.ErrorIs(t, err, pipeline.ErrInvalidPeriod)

	_, err = engine.Process(ctx, models.RawDocument{Image: []byte("x"), Period: march2024})
	assert.ErrorIs(t, err, pipeline.ErrInvalidDocument)

	_, err = engine.Process(ctx, models.RawDocument{Name: "a.jpg", Period: march2024})
	assert.ErrorIs(t, err, ocr.ErrEmptyImage)
	var extractionErr *pipeline.ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Equal(t, "a.jpg", extractionErr.Document)

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = engine.Process(canceled, models.RawDocument{Name: "a.jpg", Image: []byte("x"), Period: march2024})
	assert.ErrorIs(t, err, ocr.ErrContextCanceled)

	_, err = pipeline.New(nil).Process(ctx, models.RawDocument{Name: "a.jpg", Image: []byte("x"), Period: march2024})
	assert.ErrorIs(t, err, pipeline.ErrAcquisitionFailed)
}

func TestReferenceCache(t *testing.T) {
	text := "TNB bil elektrik\nkegunaan 1387 kwh\njumlah 775.11"

	plain := pipeline.New(nil).ProcessText("tnb.jpg", march2024, text)
	cached := pipeline.New(nil, pipeline.WithReferenceCache(extract.DefaultReferenceCache())).
		ProcessText("tnb.jpg", march2024, text)

	assert.Equal(t, plain.Usage, cached.Usage)
	assert.Equal(t, 100, cached.FieldConfidence[pipeline.FieldAmount])
	assert.Equal(t, 100, cached.FieldConfidence[pipeline.FieldUsage])
	assert.Less(t, plain.FieldConfidence[pipeline.FieldAmount], 100)
}

func TestDocumentID(t *testing.T) {
	a := pipeline.DocumentID([]byte("one"))
	assert.Equal(t, a, pipeline.DocumentID([]byte("one")))
	assert.NotEqual(t, a, pipeline.DocumentID([]byte("two")))
	assert.Len(t, a, 36)
}

func TestConfidence(t *testing.T) {
	assert.Zero(t, pipeline.Confidence(pipeline.Analysis{}))

	full := pipeline.Analysis{
		Text:           "x",
		Classification: models.UtilityClassification{Type: models.Fuel, Confidence: 100},
		Amount:         extract.Candidate[float64]{Confidence: 100},
		Usage:          extract.Candidate[models.Usage]{Confidence: 100},
		Provider:       extract.Candidate[string]{Confidence: 100},
		Meter:          extract.Candidate[string]{Confidence: 100},
		Dates:          extract.Dates{Confidence: 80},
		FuelType:       extract.FuelType{Found: true},
	}
	assert.Equal(t, 100, pipeline.Confidence(full))

	half := pipeline.Analysis{
		Text:           "x",
		Classification: models.UtilityClassification{Type: models.Electricity, Confidence: 50},
		Amount:         extract.Candidate[float64]{Confidence: 50},
		Usage:          extract.Candidate[models.Usage]{Confidence: 50},
		Provider:       extract.Candidate[string]{Confidence: 50},
		Meter:          extract.Candidate[string]{Confidence: 50},
		Dates:          extract.Dates{Confidence: 50},
		FuelType:       extract.FuelType{Found: true},
	}
	assert.Equal(t, 55, pipeline.Confidence(half), "fuel-type bonus only applies to fuel")
}

func ExampleEngine_ProcessText() {
	engine := pipeline.New(nil)
	fact := engine.ProcessText("tnb.jpg", models.BillingPeriod{Month: time.March, Year: 2024},
		"kegunaan 1387 unit kwh caj semasa rm 775.11 no meter 323421565")

	fmt.Println(fact.UtilityType, fact.Usage.Value, fact.Usage.Unit, fact.Amount, fact.Emissions.Total)
	// Output: electricity 1387 kWh 775.11 1073.54
}
