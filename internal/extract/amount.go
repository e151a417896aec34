package extract

import "billtools/pkg/models"

var amountRules = []Rule{
	NewRule("current_charge", `caj\s*semasa\s*(?:\(?(?:rm|myr)\)?)?\s*:?\s*`+NumMoney, 15),
	NewRule("amount_due", `(?:jumlah\s+(?:perlu\s+)?(?:bayaran|dibayar|bil)|amount\s+due|total\s+(?:amount|due|payable)|grand\s+total)\s*:?\s*(?:rm|myr)?\s*`+NumMoney, 10),
	NewRule("total", `(?:total|jumlah)\s*:?\s*(?:rm|myr)?\s*`+NumMoney, 5),
	NewRule("currency", `(?:rm|myr)\s*:?\s*`+NumMoney, 0),
	NewRule("bare_decimal", `(?m)(?:^|[^\d.,])(\d{1,3}(?:,\d{3})+\.\d{2}|\d+\.\d{2})`, -20),
}

// AmountCandidates returns every in-bounds amount candidate of text. Fuel
// receipts use the narrower pump-sale range.
func (e *Extractor) AmountCandidates(text string, t models.UtilityType) []Candidate[float64] {
	bounds := AmountBounds
	if t == models.Fuel {
		bounds = FuelAmountBounds
	}
	return ScanNumbers(text, amountRules, bounds, AmountContextRadius, scoreAmount(t == models.Fuel))
}

// Amount returns the winning amount of text, consulting the reference cache
// first. A zero candidate means no amount was found.
func (e *Extractor) Amount(text string, t models.UtilityType) Candidate[float64] {
	if c, ok := e.cache.Amount(text); ok {
		return c
	}
	best, ok := Best(e.AmountCandidates(text, t))
	if !ok {
		return Candidate[float64]{}
	}
	e.log.Debug().
		Float64("amount", best.Value).
		Int("confidence", best.Confidence).
		Str("rule", best.RuleName).
		Msg("Amount selected")
	return best
}
