package extract_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billtools/internal/extract"
	"billtools/internal/lexicon"
	"billtools/pkg/models"
)

const (
	tnbRow      = "kegunaan 1387 unit kwh caj semasa rm 775.11 no meter 323421565"
	ron95Slip   = "PETRONAS MESRA\nPRIMAX 95\n4.855Ltr@RM2.050/ltr\nTOTAL RM 9.95"
	dieselSlip  = "PETRON\nDIESEL\n25.000 L @ RM 0.95/L\nTOTAL RM 83.75"
	noisyLetter = "hello world\nplease call us"
)

func newExtractor() *extract.Extractor {
	return extract.New(lexicon.Default(), nil)
}

func TestBest(t *testing.T) {
	_, ok := extract.Best[float64](nil)
	assert.False(t, ok)

	best, ok := extract.Best([]extract.Candidate[float64]{
		{Value: 1, Confidence: 70, Rule: 2, Offset: 0, Source: extract.SourcePattern},
		{Value: 2, Confidence: 80, Rule: 3, Offset: 5, Source: extract.SourcePattern},
		{Value: 3, Confidence: 80, Rule: 1, Offset: 9, Source: extract.SourcePattern},
		{Value: 4, Confidence: 80, Rule: 1, Offset: 4, Source: extract.SourcePattern},
	})
	require.True(t, ok)
	assert.Equal(t, 4.0, best.Value, "ties go to rule order, then offset")
}

func TestBounds(t *testing.T) {
	assert.False(t, extract.AmountBounds.Contains(0))
	assert.True(t, extract.AmountBounds.Contains(0.01))
	assert.False(t, extract.AmountBounds.Contains(10000))
	assert.True(t, extract.PriceBounds.Contains(1.50))
	assert.True(t, extract.PriceBounds.Contains(5.00))
	assert.False(t, extract.PriceBounds.Contains(0.95))
	assert.True(t, extract.LitersBounds.Contains(100))
	assert.False(t, extract.LitersBounds.Contains(0))
}

func TestAmount(t *testing.T) {
	tests := []struct {
		name string
		text string
		typ  models.UtilityType
		want float64
	}{
		{"current charge on a table row", tnbRow, models.Electricity, 775.11},
		{"pump total ignores unit price", ron95Slip, models.Fuel, 9.95},
		{"pump total ignores implausible price", dieselSlip, models.Fuel, 83.75},
		{"label on the line above", "Jumlah Perlu Dibayar\nRM 120.50\nBaki RM 5.00", models.Electricity, 120.50},
		{"thousands separator", "Jumlah Bil RM 1,234.56", models.Electricity, 1234.56},
		{"thousands separator below a bare label", "Jumlah Perlu Dibayar\nRM 1,234.56", models.Electricity, 1234.56},
	}

	e := newExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Amount(tt.text, tt.typ)
			require.True(t, got.Found())
			assert.InDelta(t, tt.want, got.Value, 0.001)
			assert.Greater(t, got.Confidence, 0)
		})
	}
}

func TestAmountNotFound(t *testing.T) {
	got := newExtractor().Amount(noisyLetter, models.Unknown)
	assert.False(t, got.Found())
	assert.Zero(t, got.Value)
	assert.Zero(t, got.Confidence)
}

func TestAmountFuelBounds(t *testing.T) {
	e := newExtractor()
	assert.False(t, e.Amount("TOTAL RM 0.95", models.Fuel).Found())
	assert.False(t, e.Amount("TOTAL RM 750.00", models.Fuel).Found())
	assert.True(t, e.Amount("TOTAL RM 750.00", models.Electricity).Found())
}

func TestUsage(t *testing.T) {
	tests := []struct {
		name string
		text string
		typ  models.UtilityType
		want models.Usage
	}{
		{"electricity row", tnbRow, models.Electricity, models.Usage{Value: 1387, Unit: extract.UnitKWh}},
		{"electricity readings", "Bacaan Semasa 45210\nBacaan Sebelumnya 43823", models.Electricity, models.Usage{Value: 1387, Unit: extract.UnitKWh}},
		{"water", "Bil Air\nPenggunaan 23 m3", models.Water, models.Usage{Value: 23, Unit: extract.UnitM3}},
		{"gas mmbtu", "Natural Gas usage 12.5 MMBtu", models.Gas, models.Usage{Value: 12.5, Unit: extract.UnitMMBtu}},
		{"gas cubic meters", "Gas Malaysia\nPenggunaan 310 m3", models.Gas, models.Usage{Value: 310, Unit: extract.UnitM3}},
		{"jumlah unit with separator", "Jumlah Unit 1,387 kWh", models.Electricity, models.Usage{Value: 1387, Unit: extract.UnitKWh}},
		{"consumption with separator", "Consumption 2,109 kWh", models.Electricity, models.Usage{Value: 2109, Unit: extract.UnitKWh}},
		{"bare value with separator", "1,867 kWh", models.Electricity, models.Usage{Value: 1867, Unit: extract.UnitKWh}},
	}

	e := newExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Usage(tt.text, tt.typ)
			require.True(t, got.Found())
			assert.Equal(t, tt.want, got.Value)
		})
	}
}

func TestScanSkipsNumberTails(t *testing.T) {
	rules := []extract.Rule{extract.NewRule("short_kwh", `(\d{1,5})\s*kwh`, 0)}
	score := func(extract.Match, float64) int { return 50 }

	tests := []struct {
		text string
		want []float64
	}{
		{"1387 kwh", []float64{1387}},
		{"1,387 kwh", nil},
		{"1.387 kwh", nil},
		{"units,387 kwh", []float64{387}},
		{"a, 387 kwh", []float64{387}},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var got []float64
			for _, c := range extract.ScanNumbers(tt.text, rules, extract.ElectricityBounds, 20, score) {
				got = append(got, c.Value)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestUsageDiscardsImplausible(t *testing.T) {
	got := newExtractor().Usage("kegunaan 50000 unit kwh", models.Electricity)
	assert.False(t, got.Found())
	assert.True(t, got.Value.IsZero())
}

func TestUsageUnknownTypeIsEmpty(t *testing.T) {
	got := newExtractor().Usage(tnbRow, models.Unknown)
	assert.False(t, got.Found())
	assert.Equal(t, models.Usage{}, got.Value)
}

func TestPricePerLiter(t *testing.T) {
	e := newExtractor()

	got := e.PricePerLiter(ron95Slip)
	require.True(t, got.Found())
	assert.True(t, got.Plausible)
	assert.InDelta(t, 2.05, got.Value, 0.0001)

	got = e.PricePerLiter(dieselSlip)
	require.True(t, got.Found(), "lenient pass keeps 0.95")
	assert.False(t, got.Plausible)
	assert.InDelta(t, 0.95, got.Value, 0.0001)

	assert.False(t, e.PricePerLiter(noisyLetter).Found())
}

func TestDirectLiters(t *testing.T) {
	e := newExtractor()
	assert.InDelta(t, 4.855, e.DirectLiters(ron95Slip).Value, 0.0001)
	assert.InDelta(t, 25.0, e.DirectLiters(dieselSlip).Value, 0.0001)
	assert.False(t, e.DirectLiters("TOTAL RM 50.00").Found())
}

func TestFuelType(t *testing.T) {
	e := newExtractor()

	ft := e.FuelType(ron95Slip)
	assert.True(t, ft.Found)
	assert.Equal(t, lexicon.GradeRON95, ft.Grade)
	assert.Equal(t, "primax 95", ft.Label)

	assert.Equal(t, lexicon.GradeDiesel, e.FuelType(dieselSlip).Grade)
	assert.Equal(t, lexicon.GradeRON97, e.FuelType("PUMP 3 97\nTOTAL RM 40.00").Grade)

	ft = e.FuelType("TOTAL RM 9.95")
	assert.False(t, ft.Found, "a price ending in .95 is not a grade")
	assert.Equal(t, lexicon.GradePetrol, ft.Grade)
}

func TestDates(t *testing.T) {
	e := newExtractor()

	got := e.Dates("Tarikh Akhir: 05/04/2024\nTarikh Bil: 15/03/2024")
	require.Len(t, got.All, 2)
	assert.Equal(t, extract.RoleDue, got.All[0].Role)
	assert.Equal(t, extract.RoleBill, got.Primary.Role)
	assert.Equal(t, "15/03/2024", got.Primary.Value)
	require.NotNil(t, got.Primary.Time)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC), *got.Primary.Time)
	assert.Equal(t, extract.DatePriorityScore, got.Confidence)

	got = e.Dates("Tarikh Akhir: 05/04/2024 Tarikh Bil 15 Mac 2024")
	assert.Equal(t, extract.RoleBill, got.Primary.Role)
	assert.Equal(t, time.March, got.Primary.Time.Month())

	got = e.Dates("Receipt 01/02/2024 10:31")
	assert.Equal(t, extract.RoleUnlabelled, got.Primary.Role)
	assert.Equal(t, time.February, got.Primary.Time.Month(), "day first")
	assert.Equal(t, extract.DateFirstScore, got.Confidence)
}

func TestDatesNotFound(t *testing.T) {
	e := newExtractor()
	for _, text := range []string{"", noisyLetter, "Tarikh Bil: 31/02/2024"} {
		got := e.Dates(text)
		assert.Equal(t, extract.DateNotFound, got.Primary.Value, text)
		assert.Nil(t, got.Primary.Time)
		assert.Zero(t, got.Confidence)
	}
}

func TestMeterNumber(t *testing.T) {
	e := newExtractor()

	got := e.MeterNumber(tnbRow)
	assert.Equal(t, "323421565", got.Value)
	assert.Equal(t, "meter_label", got.RuleName)

	acct := e.MeterNumber("No Akaun: 2201234567")
	assert.Equal(t, "2201234567", acct.Value)
	assert.Less(t, acct.Confidence, got.Confidence)

	none := e.MeterNumber(noisyLetter)
	assert.Equal(t, extract.MeterUnknown, none.Value)
	assert.Zero(t, none.Confidence)
}

func TestProvider(t *testing.T) {
	tests := []struct {
		name string
		text string
		typ  models.UtilityType
		want string
	}{
		{"electricity list", "TENAGA NASIONAL BERHAD\nBil Elektrik", models.Electricity, "TENAGA NASIONAL BERHAD"},
		{"station", ron95Slip, models.Fuel, "PETRONAS"},
		{"business suffix", "KEDAI RUNCIT ABC SDN BHD\nTotal RM 5.00", models.Water, "KEDAI RUNCIT ABC SDN BHD"},
		{"unknown station", noisyLetter, models.Fuel, extract.UnknownStation},
		{"unknown provider", noisyLetter, models.Gas, extract.UnknownProvider},
	}

	e := newExtractor()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.Provider(tt.text, tt.typ).Value)
		})
	}
}

func TestReferenceCache(t *testing.T) {
	lex := lexicon.Default()
	cached := extract.New(lex, extract.DefaultReferenceCache())
	plain := extract.New(lex, nil)

	got := cached.Amount("Amount 77511", models.Electricity)
	assert.Equal(t, extract.SourceReferenceCache, got.Source)
	assert.InDelta(t, 775.11, got.Value, 0.001)
	assert.Equal(t, extract.ReferenceScore, got.Confidence)

	assert.NotEqual(t, extract.SourceReferenceCache, plain.Amount("Amount 77511", models.Electricity).Source)

	// whole tokens only
	got = cached.Amount("Jumlah RM 1775.11", models.Electricity)
	assert.Equal(t, extract.SourcePattern, got.Source)
	assert.InDelta(t, 1775.11, got.Value, 0.001)

	usage := cached.Usage("penggunaan 1867", models.Electricity)
	assert.Equal(t, extract.SourceReferenceCache, usage.Source)
	assert.Equal(t, 1867.0, usage.Value.Value)
}

func TestWindowIsClippedToLine(t *testing.T) {
	text := "TOTAL RM 80.00\nCASH RM 100.00"
	start := len("TOTAL RM 80.00\nCASH RM ")
	ctx := extract.Window(text, start, start+6, 40)
	assert.NotContains(t, ctx, "total")
	assert.Contains(t, ctx, "cash")

	// a bare value borrows the label above it
	text = "Jumlah Perlu Dibayar\nRM 120.50"
	start = len("Jumlah Perlu Dibayar\nRM ")
	assert.Contains(t, extract.Window(text, start, start+6, 40), "jumlah")
}

func ExampleExtractor_Amount() {
	e := extract.New(lexicon.Default(), nil)
	c := e.Amount("kegunaan 1387 unit kwh caj semasa rm 775.11 no meter 323421565", models.Electricity)
	fmt.Println(c.Value, c.RuleName)
	// Output: 775.11 current_charge
}
