// Package manual turns hand-entered bill rows into extracted facts. Rows come
// from a Google Sheet tab or a local XLSX workbook and skip OCR entirely.
package manual

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Columns is the expected row layout. Month is 1-12.
var Columns = []string{
	"Utility Type",
	"Amount",
	"Usage",
	"Usage Unit",
	"Fuel Type",
	"Price per Liter",
	"Provider",
	"Month",
	"Year",
	"Label",
}

// Entry is one manual row as entered, before validation.
type Entry struct {
	Row           int
	Label         string
	UtilityType   string
	Amount        string
	Usage         string
	UsageUnit     string
	FuelType      string
	PricePerLiter string
	Provider      string
	Month         string
	Year          string
}

// RangeReader reads raw cell values, as sheets.Service does.
type RangeReader interface {
	ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error)
}

// ParseRows maps rows to entries. A leading header row is skipped and blank
// rows are ignored; Row numbers are 1-based positions in rows.
func ParseRows(rows [][]string) []Entry {
	var entries []Entry
	for i, row := range rows {
		if i == 0 && isHeader(row) {
			continue
		}
		if blank(row) {
			continue
		}
		cell := func(n int) string {
			if n < len(row) {
				return strings.TrimSpace(row[n])
			}
			return ""
		}
		entries = append(entries, Entry{
			Row:           i + 1,
			UtilityType:   cell(0),
			Amount:        cell(1),
			Usage:         cell(2),
			UsageUnit:     cell(3),
			FuelType:      cell(4),
			PricePerLiter: cell(5),
			Provider:      cell(6),
			Month:         cell(7),
			Year:          cell(8),
			Label:         cell(9),
		})
	}
	return entries
}

// ReadSheet reads entries from a sheet range such as "Manual!A1:J".
func ReadSheet(ctx context.Context, r RangeReader, rangeSpec string) ([]Entry, error) {
	values, err := r.ReadRange(ctx, rangeSpec)
	if err != nil {
		return nil, err
	}
	rows := make([][]string, len(values))
	for i, v := range values {
		rows[i] = make([]string, len(v))
		for j, c := range v {
			rows[i][j] = fmt.Sprint(c)
		}
	}
	return ParseRows(rows), nil
}

// ReadXLSX reads entries from one sheet of a workbook. An empty sheet name
// selects the first sheet.
func ReadXLSX(path, sheet string) ([]Entry, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook %s: %w", path, err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	return ParseRows(rows), nil
}

func isHeader(row []string) bool {
	return len(row) > 0 && strings.EqualFold(strings.TrimSpace(row[0]), Columns[0])
}

func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
