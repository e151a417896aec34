package extract

// MeterUnknown is the sentinel meter number.
const MeterUnknown = "Unknown"

var meterRules = []Rule{
	NewRule("meter_label", `(?:no\.?\s*meter|meter\s*(?:no\.?|number|nombor)|nombor\s+meter)\s*:?\s*(\d{6,12})`, 30),
	NewRule("account_label", `(?:no\.?\s*akaun|nombor\s+akaun|account\s*(?:no\.?|number)|acc\s*no\.?)\s*:?\s*(\d{6,14})`, 0),
	NewRule("bare_digits", `(?:^|[^\d.,])(\d{6,10})(?:$|[^\d.,])`, -30),
}

// MeterNumber returns the meter number of text, falling back to an account
// number and then to any 6 to 10 digit run. With nothing found the value is
// MeterUnknown at confidence 0.
func (e *Extractor) MeterNumber(text string) Candidate[string] {
	if c, ok := e.cache.Meter(text); ok {
		return c
	}
	best, ok := Best(ScanStrings(text, meterRules, MeterContextRadius, scoreMeter))
	if !ok {
		return Candidate[string]{Value: MeterUnknown}
	}
	return best
}
