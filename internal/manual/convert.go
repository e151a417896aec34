package manual

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"billtools/internal/emissions"
	"billtools/internal/extract"
	"billtools/internal/lexicon"
	"billtools/internal/logger"
	"billtools/internal/pipeline"
	"billtools/pkg/models"
)

// Defaults applied to empty cells.
const (
	DefaultPricePerLiter = 2.05
	DefaultProvider      = "Manual Entry"
	DefaultUnit          = "kWh"
	MethodManual         = "manual_input"
	PriceManual          = "manual"
)

var (
	ErrMissingFields = errors.New("amount and usage are required fields")
	ErrInvalidValues = errors.New("invalid amount or usage values")
	ErrInvalidPrice  = errors.New("invalid price per liter")
	ErrInvalidType   = errors.New("invalid utility type")
	ErrInvalidPeriod = errors.New("invalid billing period")
)

// EntryError ties a validation failure to its row.
type EntryError struct {
	Row   int
	Label string
	Err   error
}

func (e *EntryError) Error() string {
	return fmt.Sprintf("manual: row %d (%s): %v", e.Row, e.Label, e.Err)
}

func (e *EntryError) Unwrap() error {
	return e.Err
}

// Result is the outcome for one entry.
type Result struct {
	Entry Entry
	Fact  *models.ExtractedFact
	Err   error
}

// Converter builds facts from manual entries.
type Converter struct {
	calc *emissions.Calculator
	now  func() time.Time
	log  zerolog.Logger
}

// NewConverter creates a converter using the given factor table.
func NewConverter(table *emissions.Table) *Converter {
	return &Converter{
		calc: emissions.NewCalculator(table),
		now:  time.Now,
		log:  logger.WithComponent("manual"),
	}
}

// ConvertAll converts every entry; failed rows carry an *EntryError. Labels
// default to "Manual Entry N" where N is the 1-based entry position.
func (c *Converter) ConvertAll(entries []Entry) []Result {
	results := make([]Result, 0, len(entries))
	for i, e := range entries {
		if e.Label == "" {
			e.Label = fmt.Sprintf("%s %d", DefaultProvider, i+1)
		}
		fact, err := c.Convert(e)
		results = append(results, Result{Entry: e, Fact: fact, Err: err})
	}
	return results
}

// Convert validates one entry and computes its emissions. Fuel volume is
// always amount divided by the entered (or default) price.
func (c *Converter) Convert(e Entry) (*models.ExtractedFact, error) {
	const op = "Convert"

	fail := func(err error) (*models.ExtractedFact, error) {
		c.log.Warn().Int("row", e.Row).Str("label", e.Label).Err(err).Msg("Manual entry rejected")
		return nil, &EntryError{Row: e.Row, Label: e.Label, Err: err}
	}

	if e.Label == "" {
		e.Label = DefaultProvider
	}
	if e.Amount == "" || e.Usage == "" {
		return fail(ErrMissingFields)
	}
	amount, errA := parseNumber(e.Amount)
	usage, errU := parseNumber(e.Usage)
	if errA != nil || errU != nil || amount < 0 || usage < 0 {
		return fail(ErrInvalidValues)
	}

	t := models.Electricity
	if e.UtilityType != "" {
		parsed, err := models.ParseUtilityType(e.UtilityType)
		if err != nil || parsed == models.Unknown {
			return fail(fmt.Errorf("%w: %q", ErrInvalidType, e.UtilityType))
		}
		t = parsed
	}

	period, err := c.period(e)
	if err != nil {
		return fail(err)
	}

	fact := &models.ExtractedFact{
		DocumentID:     pipeline.DocumentID([]byte(strings.Join([]string{"manual", e.Label, string(t), e.Amount, e.Usage, period.String()}, "|"))),
		FileName:       e.Label,
		BillingPeriod:  period.Timestamp(),
		UtilityType:    t,
		TypeConfidence: 100,
		Amount:         amount,
		Provider:       e.Provider,
		Date:           extract.DateNotFound,
		MeterNumber:    extract.MeterUnknown,
		Confidence:     100,
		Status:         models.StatusExtracted,
	}
	if fact.Provider == "" {
		fact.Provider = DefaultProvider
	}

	if t == models.Fuel {
		price := DefaultPricePerLiter
		if e.PricePerLiter != "" {
			price, err = parseNumber(e.PricePerLiter)
			if err != nil || price <= 0 {
				return fail(ErrInvalidPrice)
			}
		}
		liters := decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(price)).Round(3).InexactFloat64()
		grade := DetectGrade(e.FuelType)

		fact.Usage = models.Usage{Value: liters, Unit: "L"}
		fact.PricePerUnit = price
		fact.Fuel = &models.FuelDetails{
			FuelType:      e.FuelType,
			Grade:         grade,
			PricePerLiter: price,
			Method:        MethodManual,
			PriceSource:   PriceManual,
		}
		fact.Emissions = c.calc.Calculate(t, grade, liters, "L")
	} else {
		unit := e.UsageUnit
		if unit == "" {
			unit = DefaultUnit
		}
		fact.Usage = models.Usage{Value: usage, Unit: unit}
		if usage > 0 {
			fact.PricePerUnit = decimal.NewFromFloat(amount).Div(decimal.NewFromFloat(usage)).Round(4).InexactFloat64()
		}
		fact.Emissions = c.calc.Calculate(t, "", usage, unit)
	}

	fact.FieldConfidence = map[string]int{
		pipeline.FieldType:      100,
		pipeline.FieldAmount:    100,
		pipeline.FieldUsage:     100,
		pipeline.FieldEmissions: 100,
	}
	if amount == 0 || fact.Usage.IsZero() {
		fact.Status = models.StatusNeedsReview
		fact.Warnings = append(fact.Warnings, "manual entry has a zero amount or usage")
	}

	c.log.Debug().
		Str("op", op).
		Int("row", e.Row).
		Str("label", e.Label).
		Str("type", string(t)).
		Float64("emissions", fact.Emissions.Total).
		Msg("Manual entry converted")

	return fact, nil
}

// period parses Month/Year, defaulting to the current month.
func (c *Converter) period(e Entry) (models.BillingPeriod, error) {
	now := c.now()
	p := models.BillingPeriod{Month: now.Month(), Year: now.Year()}
	if e.Month != "" {
		m, err := strconv.Atoi(e.Month)
		if err != nil {
			return p, fmt.Errorf("%w: month %q", ErrInvalidPeriod, e.Month)
		}
		p.Month = time.Month(m)
	}
	if e.Year != "" {
		y, err := strconv.Atoi(e.Year)
		if err != nil {
			return p, fmt.Errorf("%w: year %q", ErrInvalidPeriod, e.Year)
		}
		p.Year = y
	}
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("%w: %v", ErrInvalidPeriod, err)
	}
	return p, nil
}

// DetectGrade maps a free-text fuel label ("RON 95", "Diesel Euro 5") to a
// grade. Anything unrecognised is petrol.
func DetectGrade(label string) string {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "diesel"):
		return lexicon.GradeDiesel
	case strings.Contains(l, "95"):
		return lexicon.GradeRON95
	case strings.Contains(l, "97"):
		return lexicon.GradeRON97
	}
	return lexicon.GradePetrol
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "RM"), "rm")
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	return strconv.ParseFloat(s, 64)
}

// Facts returns the converted facts, skipping failed entries.
func Facts(results []Result) []*models.ExtractedFact {
	var facts []*models.ExtractedFact
	for _, r := range results {
		if r.Fact != nil {
			facts = append(facts, r.Fact)
		}
	}
	return facts
}
