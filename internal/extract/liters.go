package extract

var litersRules = []Rule{
	NewRule("decimal_unit", `(\d{1,3}\.\d{1,3})\s*(?:ltrs?|liters?|litres?|l)\b`, 15),
	NewRule("labelled", `(?:volume|qty|quantity|kuantiti|isipadu)\s*(?:\((?:l|ltr)\))?\s*:?\s*(\d{1,3}(?:\.\d{1,3})?)`, 10),
	NewRule("integer_unit", `(\d{1,3})\s*(?:ltrs?|liters?|litres?|l)\b`, 0),
}

// DirectLiters returns a volume printed on the receipt ("4.855Ltr",
// "25.000 L"), or a zero candidate.
func (e *Extractor) DirectLiters(text string) Candidate[float64] {
	best, _ := Best(ScanNumbers(text, litersRules, LitersBounds, LitersContextRadius, scoreLiters))
	return best
}
