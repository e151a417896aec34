package manual_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"billtools/internal/emissions"
	"billtools/internal/export"
	"billtools/internal/lexicon"
	"billtools/internal/manual"
	"billtools/pkg/models"
)

func converter() *manual.Converter {
	return manual.NewConverter(emissions.Default())
}

func TestConvertElectricity(t *testing.T) {
	fact, err := converter().Convert(manual.Entry{
		Row: 2, Label: "TNB June", UtilityType: "Electricity",
		Amount: "RM 775.11", Usage: "1,387", Month: "6", Year: "2024",
	})
	require.NoError(t, err)

	assert.Equal(t, models.Electricity, fact.UtilityType)
	assert.Equal(t, 775.11, fact.Amount)
	assert.Equal(t, models.Usage{Value: 1387, Unit: "kWh"}, fact.Usage)
	assert.Equal(t, 1073.54, fact.Emissions.Total)
	assert.Equal(t, manual.DefaultProvider, fact.Provider)
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC), fact.BillingPeriod)
	assert.Equal(t, models.StatusExtracted, fact.Status)
	assert.NoError(t, export.Validate(fact))
}

func TestConvertFuelUsesPriceDivision(t *testing.T) {
	fact, err := converter().Convert(manual.Entry{
		UtilityType: "fuel", Amount: "9.95", Usage: "0", FuelType: "RON 95",
		Provider: "Shell", Month: "3", Year: "2024",
	})
	require.NoError(t, err)

	assert.Equal(t, models.Usage{Value: 4.854, Unit: "L"}, fact.Usage)
	assert.Equal(t, manual.DefaultPricePerLiter, fact.PricePerUnit)
	require.NotNil(t, fact.Fuel)
	assert.Equal(t, lexicon.GradeRON95, fact.Fuel.Grade)
	assert.Equal(t, manual.MethodManual, fact.Fuel.Method)
	assert.Equal(t, 11.50, fact.Emissions.Total)
	assert.Equal(t, "Shell", fact.Provider)

	diesel, err := converter().Convert(manual.Entry{
		UtilityType: "fuel", Amount: "33.50", Usage: "1", FuelType: "Diesel", PricePerLiter: "3.35",
		Month: "3", Year: "2024",
	})
	require.NoError(t, err)
	assert.Equal(t, 10.0, diesel.Usage.Value)
	assert.Equal(t, 28.6, diesel.Emissions.Total)
}

func TestConvertRejects(t *testing.T) {
	cases := []struct {
		name  string
		entry manual.Entry
		want  error
	}{
		{"missing usage", manual.Entry{Amount: "10"}, manual.ErrMissingFields},
		{"missing amount", manual.Entry{Usage: "10"}, manual.ErrMissingFields},
		{"not a number", manual.Entry{Amount: "ten", Usage: "10"}, manual.ErrInvalidValues},
		{"negative", manual.Entry{Amount: "-1", Usage: "10"}, manual.ErrInvalidValues},
		{"bad type", manual.Entry{UtilityType: "steam", Amount: "1", Usage: "1"}, manual.ErrInvalidType},
		{"bad month", manual.Entry{Amount: "1", Usage: "1", Month: "13", Year: "2024"}, manual.ErrInvalidPeriod},
		{"bad price", manual.Entry{UtilityType: "fuel", Amount: "1", Usage: "1", PricePerLiter: "0", Month: "1", Year: "2024"}, manual.ErrInvalidPrice},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := converter().Convert(tc.entry)
			assert.ErrorIs(t, err, tc.want)
			var entryErr *manual.EntryError
			assert.True(t, errors.As(err, &entryErr))
		})
	}
}

func TestConvertAllLabelsAndFacts(t *testing.T) {
	results := converter().ConvertAll([]manual.Entry{
		{Amount: "100", Usage: "50", Month: "1", Year: "2024"},
		{Amount: "", Usage: "50"},
		{Amount: "30", Usage: "12", UtilityType: "water", UsageUnit: "m3", Month: "1", Year: "2024"},
	})
	require.Len(t, results, 3)
	assert.Equal(t, "Manual Entry 1", results[0].Fact.FileName)
	assert.ErrorIs(t, results[1].Err, manual.ErrMissingFields)
	assert.Equal(t, "Manual Entry 3", results[2].Entry.Label)
	assert.Equal(t, models.Water, results[2].Fact.UtilityType)

	assert.Len(t, manual.Facts(results), 2)
	assert.NotEqual(t, results[0].Fact.DocumentID, results[2].Fact.DocumentID)
}

func TestDetectGrade(t *testing.T) {
	assert.Equal(t, lexicon.GradeDiesel, manual.DetectGrade("Diesel Euro 5"))
	assert.Equal(t, lexicon.GradeRON95, manual.DetectGrade("RON95"))
	assert.Equal(t, lexicon.GradeRON97, manual.DetectGrade("V-Power 97"))
	assert.Equal(t, lexicon.GradePetrol, manual.DetectGrade(""))
}

func TestParseRowsSkipsHeaderAndBlanks(t *testing.T) {
	entries := manual.ParseRows([][]string{
		manual.Columns,
		{"electricity", "100", "50", "kWh", "", "", "TNB", "6", "2024", "June bill"},
		{"", " "},
		{"fuel", "50", "1"},
	})
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].Row)
	assert.Equal(t, "TNB", entries[0].Provider)
	assert.Equal(t, "June bill", entries[0].Label)
	assert.Equal(t, 4, entries[1].Row)
	assert.Equal(t, "", entries[1].Year)
}

type rangeReader [][]interface{}

func (r rangeReader) ReadRange(ctx context.Context, rangeSpec string) ([][]interface{}, error) {
	return r, nil
}

func TestReadSheet(t *testing.T) {
	entries, err := manual.ReadSheet(context.Background(), rangeReader{
		{"Utility Type", "Amount"},
		{"gas", 120.5, 300, "m3"},
	}, "Manual!A1:J")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "120.5", entries[0].Amount)
	assert.Equal(t, "300", entries[0].Usage)
	assert.Equal(t, "m3", entries[0].UsageUnit)
}

func TestReadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manual.xlsx")
	wb := excelize.NewFile()
	header := make([]interface{}, len(manual.Columns))
	for i, c := range manual.Columns {
		header[i] = c
	}
	require.NoError(t, wb.SetSheetRow("Sheet1", "A1", &header))
	require.NoError(t, wb.SetSheetRow("Sheet1", "A2", &[]interface{}{"electricity", 775.11, 1387, "kWh", "", "", "TNB", 6, 2024}))
	require.NoError(t, wb.SaveAs(path))
	require.NoError(t, wb.Close())

	entries, err := manual.ReadXLSX(path, "")
	require.NoError(t, err)
	require.Len(t, entries, 1)

	fact, err := converter().Convert(entries[0])
	require.NoError(t, err)
	assert.Equal(t, 1073.54, fact.Emissions.Total)
	assert.Equal(t, "TNB", fact.Provider)

	_, err = manual.ReadXLSX(filepath.Join(t.TempDir(), "missing.xlsx"), "")
	assert.Error(t, err)
}
