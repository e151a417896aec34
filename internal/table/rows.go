package table

import (
	"billtools/internal/extract"
	"billtools/pkg/models"
)

// RowScore is the base confidence of a row-scoped candidate.
const RowScore = 80

const rowContextRadius = 40

const rowUsageLabels = `(?:kegunaan|penggunaan|usage|consumption|jumlah\s+unit|unit\s+digunakan)`

var rowUsageRules = []extract.Rule{
	extract.NewRule("row_label_unit", rowUsageLabels+`\s*:?\s*`+extract.NumQty+`\s*(?:unit\s*)?(?:kwh|m3|meter\s+padu)`, 15),
	extract.NewRule("row_value_unit", extract.NumQty+`\s*unit\s*(?:kwh|m3)`, 10),
	extract.NewRule("row_label_value", rowUsageLabels+`\s*:?\s*`+extract.NumQty, 5),
	extract.NewRule("row_value_kwh", extract.NumQty+`\s*(?:kwh|m3)\b`, 0),
}

var rowAmountRules = []extract.Rule{
	extract.NewRule("row_current_charge", `caj\s*semasa\s*:?\s*(?:rm|myr)?\s*`+extract.NumMoney, 15),
	extract.NewRule("row_labelled_currency", `(?:jumlah|total|amount)[a-z\s]{0,20}?:?\s*(?:rm|myr)\s*`+extract.NumMoney, 10),
	extract.NewRule("row_currency", `(?:rm|myr)\s*:?\s*`+extract.NumMoney, 0),
}

var rowMeterRules = []extract.Rule{
	extract.NewRule("row_no_meter", `no\.?\s*meter\s*:?\s*(\d{6,10})`, 15),
	extract.NewRule("row_meter_number", `meter\s*(?:no\.?|number)\s*:?\s*(\d{6,10})`, 10),
	extract.NewRule("row_digits", `(?:^|\D)(\d{6,10})(?:\D|$)`, 0),
}

func rowScore[T any](extract.Match, T) int {
	return RowScore
}

// UsageFromRows returns the best usage found on usage rows.
func UsageFromRows(l Layout) (extract.Candidate[models.Usage], bool) {
	var cands []extract.Candidate[models.Usage]
	for _, row := range l.RowsOf(RowUsage) {
		bounds := extract.ElectricityBounds
		if row.Unit == extract.UnitM3 {
			bounds = extract.WaterBounds
		}
		found := extract.ScanNumbers(row.Text, rowUsageRules, bounds, rowContextRadius, rowScore[float64])
		cands = append(cands, fromRow(extract.WithUnit(found, row.Unit), row)...)
	}
	return extract.Best(cands)
}

// AmountFromRows returns the best amount found on amount rows. Fuel receipts
// use the pump-sale range.
func AmountFromRows(l Layout, t models.UtilityType) (extract.Candidate[float64], bool) {
	bounds := extract.AmountBounds
	if t == models.Fuel {
		bounds = extract.FuelAmountBounds
	}
	var cands []extract.Candidate[float64]
	for _, row := range l.RowsOf(RowAmount) {
		found := extract.ScanNumbers(row.Text, rowAmountRules, bounds, rowContextRadius, rowScore[float64])
		cands = append(cands, fromRow(found, row)...)
	}
	return extract.Best(cands)
}

// MeterFromRows returns the best meter number found on meter rows.
func MeterFromRows(l Layout) (extract.Candidate[string], bool) {
	var cands []extract.Candidate[string]
	for _, row := range l.RowsOf(RowMeter) {
		found := extract.ScanStrings(row.Text, rowMeterRules, rowContextRadius, rowScore[string])
		cands = append(cands, fromRow(found, row)...)
	}
	return extract.Best(cands)
}

// fromRow marks row candidates and rebases their offsets onto the document.
func fromRow[T any](cands []extract.Candidate[T], row Row) []extract.Candidate[T] {
	for i := range cands {
		cands[i].Source = extract.SourceTableRow
		cands[i].Offset += row.Offset
	}
	return cands
}
