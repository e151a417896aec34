package extract

const (
	numPrice = `(\d{1,2}\.\d{2,3})`
	literTok = `(?:l|ltr|liter|litre)\b`
)

var priceRules = []Rule{
	NewRule("at_price", `@\s*(?:rm|myr)?\s*`+numPrice+`(?:\s*/\s*`+literTok+`)?`, 20),
	NewRule("per_liter", `(?:rm|myr)?\s*`+numPrice+`\s*/\s*`+literTok, 15),
	NewRule("labelled", `(?:harga\s+seunit|harga|unit\s+price|price|rate)\s*(?:/\s*`+literTok+`)?\s*:?\s*(?:rm|myr)?\s*`+numPrice, 10),
}

// Price is a price-per-liter candidate. Plausible is false when the value only
// passed the lenient range.
type Price struct {
	Candidate[float64]
	Plausible bool
}

// PricePerLiter returns the best pump price of text. Prices inside
// PriceBounds win; otherwise a lenient pass accepts LenientPriceBounds at a
// confidence penalty and flags the result implausible.
func (e *Extractor) PricePerLiter(text string) Price {
	if best, ok := Best(ScanNumbers(text, priceRules, PriceBounds, PriceContextRadius, scorePrice(false))); ok {
		return Price{Candidate: best, Plausible: true}
	}
	if best, ok := Best(ScanNumbers(text, priceRules, LenientPriceBounds, PriceContextRadius, scorePrice(true))); ok {
		e.log.Debug().
			Float64("price", best.Value).
			Msg("Only an implausible price per liter was found")
		return Price{Candidate: best}
	}
	return Price{}
}
