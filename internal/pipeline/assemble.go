package pipeline

import (
	"math"

	"billtools/internal/extract"
	"billtools/internal/fuel"
	"billtools/internal/ocr"
	"billtools/pkg/models"
)

// Field weights of the overall confidence.
const (
	WeightType     = 0.20
	WeightAmount   = 0.25
	WeightUsage    = 0.35
	WeightProvider = 0.10
	WeightMeter    = 0.10

	// DateBonus is added when the bill carries a date.
	DateBonus = 5
	// FuelTypeBonus is added when a fuel grade was printed on the receipt.
	FuelTypeBonus = 5

	// DefaultReviewThreshold is the confidence below which a fact needs review.
	DefaultReviewThreshold = 60
)

// Field names used in ExtractedFact.FieldConfidence.
const (
	FieldType      = "type"
	FieldAmount    = "amount"
	FieldUsage     = "usage"
	FieldProvider  = "provider"
	FieldMeter     = "meter"
	FieldDate      = "date"
	FieldFuelType  = "fuel_type"
	FieldPrice     = "price_per_liter"
	FieldEmissions = "emissions"
)

// Analysis holds the output of every text stage for one document.
type Analysis struct {
	Text           string
	Classification models.UtilityClassification
	Amount         extract.Candidate[float64]
	Usage          extract.Candidate[models.Usage]
	Provider       extract.Candidate[string]
	Meter          extract.Candidate[string]
	Dates          extract.Dates

	// Fuel receipts only.
	FuelType     extract.FuelType
	Price        extract.Price
	DirectLiters extract.Candidate[float64]
	Fuel         *fuel.Resolution

	Emissions models.EmissionsResult
}

// Source identifies the document an analysis belongs to.
type Source struct {
	DocumentID  string
	FileName    string
	Period      models.BillingPeriod
	Acquisition *ocr.Acquisition
}

// Assemble merges an analysis into the final fact. It never fails; absent
// fields stay at their zero or sentinel value and lower the confidence.
func Assemble(src Source, a Analysis, reviewThreshold int) *models.ExtractedFact {
	t := a.Classification.Type
	fact := &models.ExtractedFact{
		DocumentID:     src.DocumentID,
		FileName:       src.FileName,
		BillingPeriod:  src.Period.Timestamp(),
		UtilityType:    t,
		TypeConfidence: a.Classification.Confidence,
		Amount:         a.Amount.Value,
		Usage:          a.Usage.Value,
		Provider:       a.Provider.Value,
		Date:           a.Dates.Primary.Value,
		DateRole:       a.Dates.Primary.Role,
		Dates:          a.Dates.All,
		MeterNumber:    a.Meter.Value,
		Emissions:      a.Emissions,
		FieldConfidence: map[string]int{
			FieldType:      a.Classification.Confidence,
			FieldAmount:    a.Amount.Confidence,
			FieldUsage:     a.Usage.Confidence,
			FieldProvider:  a.Provider.Confidence,
			FieldMeter:     a.Meter.Confidence,
			FieldDate:      a.Dates.Confidence,
			FieldEmissions: emissionsConfidence(a),
		},
	}
	if fact.MeterNumber == "" {
		fact.MeterNumber = extract.MeterUnknown
	}
	if fact.Date == "" {
		fact.Date = extract.DateNotFound
	}

	if t == models.Fuel && a.Fuel != nil {
		fact.PricePerUnit = a.Fuel.PricePerLiter
		fact.Fuel = &models.FuelDetails{
			FuelType:      a.FuelType.Label,
			Grade:         a.FuelType.Grade,
			PricePerLiter: a.Fuel.PricePerLiter,
			DirectLiters:  a.DirectLiters.Value,
			Method:        a.Fuel.Method,
			PriceSource:   a.Fuel.PriceSource,
			Reconciled:    a.Fuel.Reconciled,
		}
		fact.FieldConfidence[FieldFuelType] = a.FuelType.Confidence
		fact.FieldConfidence[FieldPrice] = a.Price.Confidence
		fact.Warnings = append(fact.Warnings, a.Fuel.Warnings...)
		if a.Price.Found() && !a.Price.Plausible {
			fact.Warnings = append(fact.Warnings, "detected price per liter is outside the plausible range")
		}
	}

	degraded := src.Acquisition != nil && src.Acquisition.Degraded
	if src.Acquisition != nil {
		fact.OCR = src.Acquisition.Debug()
	}

	if degraded {
		fact.Confidence = 0
		fact.Warnings = append(fact.Warnings, "text recognition failed; values are not bill data")
	} else {
		fact.Confidence = Confidence(a)
	}

	switch {
	case t == models.Unknown:
		fact.Warnings = append(fact.Warnings, "utility type could not be determined")
	case fact.Amount == 0:
		fact.Warnings = append(fact.Warnings, "no amount found")
	}
	if t != models.Unknown && fact.Usage.IsZero() {
		fact.Warnings = append(fact.Warnings, "no usage found")
	}

	fact.Status = status(fact, degraded, reviewThreshold)
	return fact
}

// Confidence is the weighted field confidence plus the date and fuel-type
// bonuses, clamped to 0-100. Empty text scores 0.
func Confidence(a Analysis) int {
	if a.Text == "" {
		return 0
	}
	score := WeightType*float64(a.Classification.Confidence) +
		WeightAmount*float64(a.Amount.Confidence) +
		WeightUsage*float64(a.Usage.Confidence) +
		WeightProvider*float64(a.Provider.Confidence) +
		WeightMeter*float64(a.Meter.Confidence)
	if a.Dates.Confidence > 0 {
		score += DateBonus
	}
	if a.Classification.Type == models.Fuel && a.FuelType.Found {
		score += FuelTypeBonus
	}
	return clamp(int(math.Round(score)))
}

func emissionsConfidence(a Analysis) int {
	if a.Emissions.Total == 0 {
		return 0
	}
	return min(a.Usage.Confidence, a.Classification.Confidence)
}

func status(f *models.ExtractedFact, degraded bool, threshold int) string {
	switch {
	case degraded:
		return models.StatusDegraded
	case f.UtilityType == models.Unknown,
		f.Confidence < threshold,
		f.Amount == 0,
		f.Usage.IsZero():
		return models.StatusNeedsReview
	default:
		return models.StatusExtracted
	}
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
