package table_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billtools/internal/extract"
	"billtools/internal/table"
	"billtools/pkg/models"
)

const tnbRow = "kegunaan 1387 unit kwh caj semasa rm 775.11 no meter 323421565"

func TestAnalyzeSingleRow(t *testing.T) {
	layout := table.Analyze(tnbRow)

	require.True(t, layout.HasTable())
	require.Len(t, layout.Rows, 1)
	row := layout.Rows[0]
	assert.True(t, row.Has(table.RowUsage))
	assert.True(t, row.Has(table.RowAmount))
	assert.True(t, row.Has(table.RowMeter))
	assert.Equal(t, extract.UnitKWh, row.Unit)

	assert.Equal(t, table.Keywords{
		UsageLabel:  true,
		UnitLabel:   true,
		AmountLabel: true,
		Currency:    true,
		MeterLabel:  true,
	}, layout.Keywords)
}

func TestAnalyzeFreeText(t *testing.T) {
	layout := table.Analyze("Bil elektrik bulan Mac\nTerima kasih")
	assert.False(t, layout.HasTable())
	assert.Len(t, layout.Lines, 2)

	_, ok := table.UsageFromRows(layout)
	assert.False(t, ok)
	_, ok = table.AmountFromRows(layout, models.Electricity)
	assert.False(t, ok)
	_, ok = table.MeterFromRows(layout)
	assert.False(t, ok)
}

func TestAnalyzeEmpty(t *testing.T) {
	layout := table.Analyze("")
	assert.False(t, layout.HasTable())
	assert.Empty(t, layout.Lines)
}

func TestRowScopedFields(t *testing.T) {
	layout := table.Analyze(tnbRow)

	usage, ok := table.UsageFromRows(layout)
	require.True(t, ok)
	assert.Equal(t, models.Usage{Value: 1387, Unit: extract.UnitKWh}, usage.Value)
	assert.Equal(t, extract.SourceTableRow, usage.Source)

	amount, ok := table.AmountFromRows(layout, models.Electricity)
	require.True(t, ok)
	assert.InDelta(t, 775.11, amount.Value, 0.001)

	meter, ok := table.MeterFromRows(layout)
	require.True(t, ok)
	assert.Equal(t, "323421565", meter.Value)
}

func TestMeterNumberDoesNotBleedIntoUsage(t *testing.T) {
	layout := table.Analyze("No Meter 323421565\nKegunaan 1387 Unit kWh")

	require.Len(t, layout.RowsOf(table.RowUsage), 1)
	require.Len(t, layout.RowsOf(table.RowMeter), 1)

	usage, ok := table.UsageFromRows(layout)
	require.True(t, ok)
	assert.Equal(t, 1387.0, usage.Value.Value)

	meter, ok := table.MeterFromRows(layout)
	require.True(t, ok)
	assert.Equal(t, "323421565", meter.Value)
}

func TestWaterRow(t *testing.T) {
	layout := table.Analyze("Penggunaan 23 m3 Jumlah RM 12.40")

	usage, ok := table.UsageFromRows(layout)
	require.True(t, ok)
	assert.Equal(t, models.Usage{Value: 23, Unit: extract.UnitM3}, usage.Value)

	amount, ok := table.AmountFromRows(layout, models.Water)
	require.True(t, ok)
	assert.InDelta(t, 12.40, amount.Value, 0.001)
}

func TestThousandsSeparatedRows(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		usage float64
	}{
		{"jumlah unit label", "Jumlah Unit 1,387 kWh", 1387},
		{"consumption label", "Consumption 2,109 kWh", 2109},
		{"unit digunakan label", "Unit Digunakan 1,867 kWh", 1867},
		{"kegunaan label", "Kegunaan 1,387 Unit kWh", 1387},
		{"value away from its label", "Usage this month 1,387 kWh", 1387},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := table.Analyze(tt.text)
			require.Len(t, layout.RowsOf(table.RowUsage), 1)

			usage, ok := table.UsageFromRows(layout)
			require.True(t, ok)
			assert.Equal(t, models.Usage{Value: tt.usage, Unit: extract.UnitKWh}, usage.Value)
		})
	}
}

func TestThousandsSeparatedAmountRow(t *testing.T) {
	for _, text := range []string{"Jumlah Bil RM 1,234.56", "Caj Semasa RM 1,234.56", "Total Amount: MYR 1,234.56"} {
		t.Run(text, func(t *testing.T) {
			amount, ok := table.AmountFromRows(table.Analyze(text), models.Electricity)
			require.True(t, ok)
			assert.InDelta(t, 1234.56, amount.Value, 0.001)
		})
	}
}

func ExampleAnalyze() {
	layout := table.Analyze("TNB\nkegunaan 1387 unit kwh caj semasa rm 775.11 no meter 323421565")
	for _, row := range layout.Rows {
		fmt.Println(row.Line, row.Kinds)
	}
	// Output: 1 [usage amount meter]
}
