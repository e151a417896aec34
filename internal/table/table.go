// Package table detects bills that print their fields as horizontal
// label-value rows, e.g.
//
//	Kegunaan 1387 Unit kWh   Caj Semasa RM 775.11   No Meter 323421565
//
// and extracts usage, amount and meter number from those rows only, so that a
// number belonging to one label is never attributed to another.
package table

import (
	"regexp"
	"strings"

	"billtools/internal/extract"
)

// RowKind tags what a row carries.
type RowKind string

const (
	RowUsage  RowKind = "usage"
	RowAmount RowKind = "amount"
	RowMeter  RowKind = "meter"
)

// Row is one tagged line of the document.
type Row struct {
	Line   int
	Offset int
	Text   string
	Kinds  []RowKind
	// Unit is the usage unit printed on a usage row ("kWh" or "m3").
	Unit string
}

// Has reports whether the row is tagged kind.
func (r Row) Has(kind RowKind) bool {
	for _, k := range r.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Keywords records which label families occur anywhere in the text.
type Keywords struct {
	UsageLabel  bool
	UnitLabel   bool
	AmountLabel bool
	Currency    bool
	MeterLabel  bool
}

// Layout is the row structure of one document.
type Layout struct {
	Lines    []string
	Rows     []Row
	Keywords Keywords
}

// HasTable reports whether at least one row was tagged.
func (l Layout) HasTable() bool {
	return len(l.Rows) > 0
}

// RowsOf returns the rows tagged kind in document order.
func (l Layout) RowsOf(kind RowKind) []Row {
	var out []Row
	for _, r := range l.Rows {
		if r.Has(kind) {
			out = append(out, r)
		}
	}
	return out
}

var (
	reUsageLabel  = regexp.MustCompile(`(?i)\b(?:kegunaan|penggunaan|usage|consumption|jumlah\s+unit|unit\s+digunakan)\b`)
	reUnitKWh     = regexp.MustCompile(`(?i)\b(?:unit|kwh)\b`)
	reUnitM3      = regexp.MustCompile(`(?i)(?:\bm3\b|\bmeter\s+padu\b)`)
	reAmountLabel = regexp.MustCompile(`(?i)\b(?:caj\s+semasa|caj|jumlah|total|amount|bil\s+semasa|current\s+charges?)\b`)
	reCurrency    = regexp.MustCompile(`(?i)\b(?:rm|myr)`)
	reMeterLabel  = regexp.MustCompile(`(?i)(?:\bno\.?\s*meter\b|\bmeter\s*(?:no\.?|number)|\bnombor\s+meter\b)`)
)

// Analyze splits cleaned text into lines and tags every line that pairs a
// usage label with a unit label, an amount label with a currency marker, or
// carries a meter label.
func Analyze(text string) Layout {
	var layout Layout
	if text == "" {
		return layout
	}
	layout.Lines = strings.Split(text, "\n")

	offset := 0
	for i, line := range layout.Lines {
		lineStart := offset
		offset += len(line) + 1

		usage := reUsageLabel.MatchString(line)
		kwh := reUnitKWh.MatchString(line)
		m3 := reUnitM3.MatchString(line)
		amount := reAmountLabel.MatchString(line)
		currency := reCurrency.MatchString(line)
		meter := reMeterLabel.MatchString(line)

		layout.Keywords.UsageLabel = layout.Keywords.UsageLabel || usage
		layout.Keywords.UnitLabel = layout.Keywords.UnitLabel || kwh || m3
		layout.Keywords.AmountLabel = layout.Keywords.AmountLabel || amount
		layout.Keywords.Currency = layout.Keywords.Currency || currency
		layout.Keywords.MeterLabel = layout.Keywords.MeterLabel || meter

		row := Row{Line: i, Offset: lineStart, Text: line}
		if usage && (kwh || m3) {
			row.Kinds = append(row.Kinds, RowUsage)
			row.Unit = extract.UnitKWh
			if m3 && !kwh {
				row.Unit = extract.UnitM3
			}
		}
		if amount && currency {
			row.Kinds = append(row.Kinds, RowAmount)
		}
		if meter {
			row.Kinds = append(row.Kinds, RowMeter)
		}
		if len(row.Kinds) > 0 {
			layout.Rows = append(layout.Rows, row)
		}
	}
	return layout
}
