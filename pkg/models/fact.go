package models

import (
	"fmt"
	"strings"
	"time"
)

// UtilityType is the kind of bill a document was classified as.
type UtilityType string

const (
	Electricity UtilityType = "electricity"
	Fuel        UtilityType = "fuel"
	Water       UtilityType = "water"
	Gas         UtilityType = "gas"
	Unknown     UtilityType = "unknown"
)

// UtilityTypes lists the classifiable types in tie-break order.
var UtilityTypes = []UtilityType{Electricity, Fuel, Water, Gas}

// ParseUtilityType maps free text ("Electricity", "fuel") to a UtilityType.
func ParseUtilityType(s string) (UtilityType, error) {
	switch UtilityType(strings.ToLower(strings.TrimSpace(s))) {
	case Electricity:
		return Electricity, nil
	case Fuel:
		return Fuel, nil
	case Water:
		return Water, nil
	case Gas:
		return Gas, nil
	case Unknown:
		return Unknown, nil
	}
	return Unknown, fmt.Errorf("unknown utility type %q", s)
}

// Fact status values.
const (
	StatusExtracted   = "extracted"
	StatusNeedsReview = "needs_review"
	StatusDegraded    = "degraded"
)

// BillingPeriod is the caller-supplied month a bill belongs to.
type BillingPeriod struct {
	Month time.Month `json:"month"`
	Year  int        `json:"year"`
}

// Timestamp returns the first day of the billing month at midnight UTC.
func (p BillingPeriod) Timestamp() time.Time {
	return time.Date(p.Year, p.Month, 1, 0, 0, 0, 0, time.UTC)
}

// Validate checks that the period names a real month.
func (p BillingPeriod) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return fmt.Errorf("invalid billing month %d (must be 1-12)", p.Month)
	}
	if p.Year < 2000 || p.Year > 2100 {
		return fmt.Errorf("invalid billing year %d", p.Year)
	}
	return nil
}

func (p BillingPeriod) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// RawDocument is one uploaded bill image together with its billing period.
type RawDocument struct {
	Name   string
	Image  []byte
	Period BillingPeriod
}

// RecognizedText is the output of one OCR strategy attempt.
type RecognizedText struct {
	Strategy string `json:"strategy"`
	Text     string `json:"-"`
	Length   int    `json:"length"`
	Sample   string `json:"sample"`
	Err      string `json:"error,omitempty"`
}

// UtilityClassification is the classifier verdict for one document.
type UtilityClassification struct {
	Type       UtilityType         `json:"type"`
	Confidence int                 `json:"confidence"`
	Scores     map[UtilityType]int `json:"scores"`
}

// Usage is a consumption quantity.
type Usage struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"`
}

// IsZero reports whether no usage was extracted.
func (u Usage) IsZero() bool {
	return u.Value == 0
}

// DateField is one labelled date found on a bill.
type DateField struct {
	Role  string     `json:"role"`
	Value string     `json:"value"`
	Time  *time.Time `json:"time,omitempty"`
}

// FuelDetails carries the fuel-receipt specific resolution.
type FuelDetails struct {
	FuelType      string  `json:"fuel_type"`
	Grade         string  `json:"grade"`
	PricePerLiter float64 `json:"price_per_liter"`
	DirectLiters  float64 `json:"direct_liters,omitempty"`
	Method        string  `json:"calculation_method"`
	PriceSource   string  `json:"price_source"`
	Reconciled    bool    `json:"reconciled"`
}

// EmissionsBreakdown documents how an emissions total was computed.
type EmissionsBreakdown struct {
	Type        UtilityType `json:"type"`
	Subtype     string      `json:"subtype,omitempty"`
	Usage       float64     `json:"usage"`
	Unit        string      `json:"unit"`
	Factor      float64     `json:"factor"`
	Formula     string      `json:"formula"`
	Calculation string      `json:"calculation"`
}

// EmissionsResult is the kg CO2e total for one fact.
type EmissionsResult struct {
	Total     float64            `json:"total"`
	Breakdown EmissionsBreakdown `json:"breakdown"`
}

// OCRDebug records which acquisition strategy produced the text.
type OCRDebug struct {
	Strategy   string           `json:"strategy"`
	TextLength int              `json:"text_length"`
	Sample     string           `json:"sample"`
	Attempts   []RecognizedText `json:"attempts"`
	Degraded   bool             `json:"degraded"`
}

// ExtractedFact is the structured record produced for one document.
type ExtractedFact struct {
	DocumentID      string          `json:"document_id"`
	FileName        string          `json:"file_name"`
	BillingPeriod   time.Time       `json:"bill_period"`
	UtilityType     UtilityType     `json:"utility_type"`
	TypeConfidence  int             `json:"type_confidence"`
	Amount          float64         `json:"amount"`
	Usage           Usage           `json:"usage"`
	PricePerUnit    float64         `json:"price_per_unit,omitempty"`
	Provider        string          `json:"provider"`
	Date            string          `json:"date"`
	DateRole        string          `json:"date_role,omitempty"`
	Dates           []DateField     `json:"dates,omitempty"`
	MeterNumber     string          `json:"meter_number"`
	Fuel            *FuelDetails    `json:"fuel,omitempty"`
	Emissions       EmissionsResult `json:"emissions"`
	Confidence      int             `json:"confidence"`
	FieldConfidence map[string]int  `json:"field_confidence"`
	Status          string          `json:"status"`
	Warnings        []string        `json:"warnings,omitempty"`
	OCR             *OCRDebug       `json:"ocr,omitempty"`
}

// Accepted reports whether the fact can be committed without human review.
func (f *ExtractedFact) Accepted() bool {
	return f.Status == StatusExtracted
}
