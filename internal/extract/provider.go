package extract

import (
	"strings"

	"billtools/internal/lexicon"
	"billtools/pkg/models"
)

// Provider sentinels.
const (
	UnknownProvider = "Unknown Provider"
	UnknownStation  = "Unknown Station"
)

// Provider names the utility company or fuel station. It tries the provider
// list of t, then (for fuel) the station lists, then a header line carrying a
// business suffix.
func (e *Extractor) Provider(text string, t models.UtilityType) Candidate[string] {
	if c, ok := firstKnown(text, e.providers[t], ProviderListScore); ok {
		return c
	}
	if t == models.Fuel {
		if c, ok := firstKnown(text, e.stations, ProviderStationScore); ok {
			return c
		}
	}
	if c, ok := e.headerBusiness(text); ok {
		return c
	}
	if t == models.Fuel {
		return Candidate[string]{Value: UnknownStation}
	}
	return Candidate[string]{Value: UnknownProvider}
}

// firstKnown returns the first matcher in list order that occurs in text,
// valued with the text as printed.
func firstKnown(text string, matchers []lexicon.Matcher, score int) (Candidate[string], bool) {
	for i, m := range matchers {
		at := m.Index(text)
		if at < 0 {
			continue
		}
		return Candidate[string]{
			Value:      printed(text, at, m.Keyword),
			Match:      m.Keyword,
			Context:    Window(text, at, at, ProviderContextRadius),
			Confidence: score,
			Rule:       i,
			RuleName:   "known_name",
			Offset:     at,
			Source:     SourcePattern,
		}, true
	}
	return Candidate[string]{}, false
}

// printed returns the keyword as it appears in text at offset at, with
// whitespace runs collapsed.
func printed(text string, at int, keyword string) string {
	n := len(strings.Fields(keyword))
	fields := strings.Fields(text[at:])
	if len(fields) < n {
		return keyword
	}
	return strings.TrimRight(strings.Join(fields[:n], " "), ",.:;")
}

// headerBusiness scans the first header lines for a business suffix.
func (e *Extractor) headerBusiness(text string) (Candidate[string], bool) {
	offset := 0
	for i, line := range strings.SplitN(text, "\n", ProviderHeaderLines+1) {
		if i >= ProviderHeaderLines {
			break
		}
		if lexicon.ContainsAny(e.suffixes, line) {
			return Candidate[string]{
				Value:      strings.TrimSpace(line),
				Match:      line,
				Context:    strings.ToLower(line),
				Confidence: ProviderSuffixScore,
				Rule:       i,
				RuleName:   "business_suffix",
				Offset:     offset,
				Source:     SourcePattern,
			}, true
		}
		offset += len(line) + 1
	}
	return Candidate[string]{}, false
}
