package extract

import (
	"regexp"

	"billtools/pkg/models"
)

// Usage units.
const (
	UnitKWh   = "kWh"
	UnitM3    = "m3"
	UnitMMBtu = "MMBtu"
	UnitSCF   = "scf"
)

const usageLabels = `(?:jumlah\s+penggunaan|penggunaan\s+elektrik|kegunaan|penggunaan|jumlah\s+unit|unit\s+digunakan|current\s+usage|total\s+kwh|usage|consumption)`

var electricityRules = []Rule{
	NewRule("label_unit_kwh", usageLabels+`\s*(?:\(kwh\))?\s*:?\s*`+NumQty+`\s*(?:unit\s*)?kwh\b`, 20),
	NewRule("unit_kwh", NumQty+`\s*unit\s*kwh\b`, 15),
	NewRule("label_value", usageLabels+`\s*(?:\(kwh\))?\s*:?\s*`+NumQty, 10),
	NewRule("value_kwh", NumQty+`\s*kwh\b`, 5),
}

var waterRules = []Rule{
	NewRule("label_value_m3", usageLabels+`\s*(?:\(m3\))?\s*:?\s*`+NumQty+`\s*(?:m3|meter\s+padu|cubic\s+met(?:er|re)s?)`, 20),
	NewRule("value_m3", NumQty+`\s*(?:m3|meter\s+padu|cubic\s+met(?:er|re)s?)`, 10),
	NewRule("label_value", usageLabels+`\s*(?:\(m3\))?\s*:?\s*`+NumQty, 5),
}

type unitRules struct {
	unit  string
	rules []Rule
}

var gasRules = []unitRules{
	{UnitMMBtu, []Rule{
		NewRule("label_value_mmbtu", usageLabels+`\s*(?:\(mmbtu\))?\s*:?\s*`+NumQty+`\s*mmbtu\b`, 20),
		NewRule("value_mmbtu", NumQty+`\s*mmbtu\b`, 10),
	}},
	{UnitM3, []Rule{
		NewRule("label_value_m3", usageLabels+`\s*(?:\(m3\))?\s*:?\s*`+NumQty+`\s*m3`, 15),
		NewRule("value_m3", NumQty+`\s*(?:m3|cubic\s+met(?:er|re)s?)`, 5),
	}},
	{UnitSCF, []Rule{
		NewRule("value_scf", NumQty+`\s*scf\b`, 5),
	}},
	{UnitKWh, []Rule{
		NewRule("value_kwh", NumQty+`\s*kwh\b`, 0),
	}},
}

var (
	reCurrentReading  = regexp.MustCompile(`(?i)(?:bacaan\s+semasa|current\s+reading)\s*:?\s*(\d{1,7})\b`)
	rePreviousReading = regexp.MustCompile(`(?i)(?:bacaan\s+sebelum(?:nya)?|bacaan\s+lalu|previous\s+reading)\s*:?\s*(\d{1,7})\b`)
)

// Usage returns the winning consumption of text for type t. Fuel volume is
// handled by DirectLiters and the fuel resolver; unknown documents yield an
// empty usage.
func (e *Extractor) Usage(text string, t models.UtilityType) Candidate[models.Usage] {
	if t == models.Electricity {
		if c, ok := e.cache.Usage(text); ok {
			return c
		}
	}

	var cands []Candidate[models.Usage]
	switch t {
	case models.Electricity:
		cands = WithUnit(ScanNumbers(text, electricityRules, ElectricityBounds, UsageContextRadius, scoreUsage(UnitKWh)), UnitKWh)
		if c, ok := meterReadings(text); ok {
			cands = append(cands, c)
		}
	case models.Water:
		cands = WithUnit(ScanNumbers(text, waterRules, WaterBounds, UsageContextRadius, scoreUsage(UnitM3)), UnitM3)
	case models.Gas:
		offset := 0
		for _, ur := range gasRules {
			found := WithUnit(ScanNumbers(text, ur.rules, GasBounds, UsageContextRadius, scoreUsage(ur.unit)), ur.unit)
			for i := range found {
				found[i].Rule += offset
			}
			offset += len(ur.rules)
			cands = append(cands, found...)
		}
	default:
		return Candidate[models.Usage]{}
	}

	best, ok := Best(cands)
	if !ok {
		return Candidate[models.Usage]{}
	}
	e.log.Debug().
		Float64("usage", best.Value.Value).
		Str("unit", best.Value.Unit).
		Int("confidence", best.Confidence).
		Str("source", best.Source).
		Msg("Usage selected")
	return best
}

// WithUnit converts numeric candidates into usage candidates.
func WithUnit(cands []Candidate[float64], unit string) []Candidate[models.Usage] {
	out := make([]Candidate[models.Usage], 0, len(cands))
	for _, c := range cands {
		out = append(out, Candidate[models.Usage]{
			Value:      models.Usage{Value: c.Value, Unit: unit},
			Match:      c.Match,
			Context:    c.Context,
			Confidence: c.Confidence,
			Rule:       c.Rule,
			RuleName:   c.RuleName,
			Offset:     c.Offset,
			Source:     c.Source,
		})
	}
	return out
}

// meterReadings derives kWh from "current reading - previous reading" when
// both readings are printed.
func meterReadings(text string) (Candidate[models.Usage], bool) {
	cur := reCurrentReading.FindStringSubmatchIndex(text)
	prev := rePreviousReading.FindStringSubmatchIndex(text)
	if cur == nil || prev == nil {
		return Candidate[models.Usage]{}, false
	}
	c, _ := ParseNumber(text[cur[2]:cur[3]])
	p, _ := ParseNumber(text[prev[2]:prev[3]])
	diff := c - p
	if !ElectricityBounds.Contains(diff) {
		return Candidate[models.Usage]{}, false
	}
	return Candidate[models.Usage]{
		Value:      models.Usage{Value: diff, Unit: UnitKWh},
		Match:      text[cur[0]:cur[1]] + " - " + text[prev[0]:prev[1]],
		Confidence: UsageReadingsScore,
		Rule:       len(electricityRules),
		RuleName:   "meter_readings",
		Offset:     min(cur[0], prev[0]),
		Source:     SourceMeterReadings,
	}, true
}
