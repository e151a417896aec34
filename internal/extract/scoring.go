package extract

import (
	"regexp"
	"strings"
)

// Amount scoring.
const (
	AmountBase          = 50
	AmountTotalBoost    = 30
	AmountDueBoost      = 25
	AmountChargeBoost   = 20
	AmountCurrencyBoost = 10
	AmountFuelBoost     = 15
	AmountNoisePenalty  = 30
	AmountContextRadius = 40
)

// Usage scoring.
const (
	UsageBase          = 50
	UsageLabelBoost    = 20
	UsageUnitBoost     = 15
	UsageMeterPenalty  = 40
	UsageReadingsScore = 70
	UsageContextRadius = 40
)

// Price-per-liter scoring.
const (
	PriceBase           = 50
	PricePerUnitBoost   = 20
	PriceFuelBoost      = 15
	PriceNoisePenalty   = 30
	PriceLenientPenalty = 20
	PriceContextRadius  = 30
)

// Direct volume scoring.
const (
	LitersBase          = 50
	LitersFuelBoost     = 20
	LitersPumpBoost     = 10
	LitersContextRadius = 30
)

// Identifier, provider, date and fuel-type confidences.
const (
	MeterBase             = 60
	MeterContextRadius    = 30
	ProviderListScore     = 90
	ProviderStationScore  = 85
	ProviderSuffixScore   = 50
	ProviderHeaderLines   = 5
	ProviderContextRadius = 30
	DatePriorityScore     = 80
	DateFirstScore        = 50
	FuelTypeLabelScore    = 85
	FuelTypeGradeScore    = 60
	ReferenceScore        = 100
)

// Bounds applied before scoring.
var (
	AmountBounds       = Open(0, 10000)
	FuelAmountBounds   = Closed(5, 500)
	ElectricityBounds  = Open(0, 10000)
	WaterBounds        = Open(0, 1000)
	GasBounds          = Open(0, 10000)
	PriceBounds        = Closed(1.50, 5.00)
	LenientPriceBounds = Closed(0.80, 10.00)
	LitersBounds       = Bounds{Min: 0, Max: 100, MinOpen: true}
)

var (
	kwTotal    = words("total", "jumlah", "grand total", "subtotal")
	kwDue      = words("amount due", "perlu dibayar", "bayaran", "amount", "payable", "dibayar")
	kwCharge   = words("caj semasa", "current charge", "current charges", "charges", "caj", "bil", "bill")
	kwCurrency = regexp.MustCompile(`(?i)\b(?:rm|myr)`)
	kwFuel     = words("fuel", "minyak", "petrol", "diesel", "primax", "ron95", "ron97", "ron", "v-power", "ltr", "liter", "litre")
	kwNoise    = words(
		"change", "baki", "balance", "cash", "tunai", "rounding", "pembundaran",
		"sst", "gst", "tax", "cukai", "deposit", "cagaran", "tunggakan", "arrears", "previous",
	)

	kwUsageLabel = words("kegunaan", "penggunaan", "usage", "consumption", "jumlah unit", "unit digunakan")
	kwMeterLabel = words("no meter", "no. meter", "meter no", "meter number", "nombor meter", "akaun", "account", "acc no")

	kwPerLiter   = words("/l", "/ltr", "/liter", "/litre", "per liter", "per litre", "seliter")
	kwPriceLabel = words("harga", "price", "unit price", "rate", "primax", "ron95", "ron97", "ron", "diesel", "petrol")
	kwPriceNoise = words("change", "baki", "balance", "cash", "tunai", "total", "jumlah", "rounding")
	kwPump       = words("@", "pump", "pam", "nozzle")
)

func scoreAmount(fuel bool) func(Match, float64) int {
	return func(m Match, _ float64) int {
		score := AmountBase
		if kwTotal.MatchString(m.Context) {
			score += AmountTotalBoost
		}
		if kwDue.MatchString(m.Context) {
			score += AmountDueBoost
		}
		if kwCharge.MatchString(m.Context) {
			score += AmountChargeBoost
		}
		if kwCurrency.MatchString(m.Before) || kwCurrency.MatchString(m.Text) {
			score += AmountCurrencyBoost
		}
		if fuel && kwFuel.MatchString(m.Context) {
			score += AmountFuelBoost
		}
		if kwNoise.MatchString(m.Before) {
			score -= AmountNoisePenalty
		}
		return clampConfidence(score, 0, 100)
	}
}

func scoreUsage(unit string) func(Match, float64) int {
	unitWord := words(strings.ToLower(unit))
	return func(m Match, _ float64) int {
		score := UsageBase
		if kwUsageLabel.MatchString(m.Context) {
			score += UsageLabelBoost
		}
		if unitWord.MatchString(m.Text) {
			score += UsageUnitBoost
		}
		if kwMeterLabel.MatchString(m.Before) {
			score -= UsageMeterPenalty
		}
		return clampConfidence(score, 0, 100)
	}
}

func scorePrice(lenient bool) func(Match, float64) int {
	return func(m Match, _ float64) int {
		score := PriceBase
		if kwPerLiter.MatchString(m.Context) || strings.Contains(m.Text, "@") {
			score += PricePerUnitBoost
		}
		if kwPriceLabel.MatchString(m.Context) {
			score += PriceFuelBoost
		}
		if kwPriceNoise.MatchString(m.Before) {
			score -= PriceNoisePenalty
		}
		if lenient {
			score -= PriceLenientPenalty
		}
		return clampConfidence(score, 0, 100)
	}
}

func scoreLiters(m Match, _ float64) int {
	score := LitersBase
	if kwFuel.MatchString(m.Context) {
		score += LitersFuelBoost
	}
	if kwPump.MatchString(m.Context) {
		score += LitersPumpBoost
	}
	return clampConfidence(score, 0, 100)
}

func scoreMeter(Match, string) int {
	return MeterBase
}
