// Package extract turns cleaned bill text into scored field candidates.
//
// Every field (amount, usage, price per liter, direct volume, dates, meter
// number, provider) is described by an ordered list of rules. Each rule match
// becomes a Candidate carrying the matched text, its surrounding context and a
// heuristic confidence from the field's scorer. Best then picks the winner:
// highest confidence, ties broken by rule order and then by position.
// Values outside a field's sane range are dropped before scoring.
package extract

import (
	"regexp"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Candidate sources.
const (
	SourcePattern        = "pattern"
	SourceTableRow       = "table_row"
	SourceReferenceCache = "reference_cache"
	SourceMeterReadings  = "meter_readings"
)

// Candidate is a tentative value for one field.
type Candidate[T any] struct {
	Value      T
	Match      string
	Context    string
	Confidence int
	Rule       int
	RuleName   string
	Offset     int
	Source     string
}

// Found reports whether the candidate carries a value.
func (c Candidate[T]) Found() bool {
	return c.Source != ""
}

// Best returns the highest-confidence candidate. Ties go to the lower rule
// index, then to the earlier offset.
func Best[T any](cands []Candidate[T]) (Candidate[T], bool) {
	if len(cands) == 0 {
		var zero Candidate[T]
		return zero, false
	}
	sorted := make([]Candidate[T], len(cands))
	copy(sorted, cands)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := sorted[i], sorted[j]
		if a.Confidence != b.Confidence {
			return a.Confidence > b.Confidence
		}
		if a.Rule != b.Rule {
			return a.Rule < b.Rule
		}
		return a.Offset < b.Offset
	})
	return sorted[0], true
}

// Rule is one pattern of a field. The value is taken from capture group
// Group; Bonus is added to the scorer's confidence.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Group   int
	Bonus   int
}

// NewRule compiles a case-insensitive rule reading capture group 1.
func NewRule(name, expr string, bonus int) Rule {
	return Rule{Name: name, Pattern: regexp.MustCompile(`(?i)` + expr), Group: 1, Bonus: bonus}
}

// Match is one raw rule hit handed to a scorer.
type Match struct {
	Rule    Rule
	Index   int
	Text    string
	Value   string
	Start   int
	End     int
	Context string
	Before  string
}

// Bounds is a closed or open numeric interval.
type Bounds struct {
	Min, Max         float64
	MinOpen, MaxOpen bool
}

// Contains reports whether v lies within b.
func (b Bounds) Contains(v float64) bool {
	if b.MinOpen && v <= b.Min || !b.MinOpen && v < b.Min {
		return false
	}
	if b.MaxOpen && v >= b.Max || !b.MaxOpen && v > b.Max {
		return false
	}
	return true
}

// Open returns the open interval (min, max).
func Open(min, max float64) Bounds {
	return Bounds{Min: min, Max: max, MinOpen: true, MaxOpen: true}
}

// Closed returns the closed interval [min, max].
func Closed(min, max float64) Bounds {
	return Bounds{Min: min, Max: max}
}

// Scan runs rules over text and returns one candidate per hit that parse
// accepts. Hits whose digits run on past either end of the capture (e.g.
// "2.05" in "2.050") are discarded.
func Scan[T any](text string, rules []Rule, radius int, parse func(string) (T, bool), score func(Match, T) int) []Candidate[T] {
	var out []Candidate[T]
	for i, rule := range rules {
		for _, loc := range rule.Pattern.FindAllStringSubmatchIndex(text, -1) {
			gs, ge := loc[2*rule.Group], loc[2*rule.Group+1]
			if gs < 0 || truncatedNumber(text, ge) || continuedNumber(text, gs) {
				continue
			}
			value, ok := parse(text[gs:ge])
			if !ok {
				continue
			}
			m := Match{
				Rule:    rule,
				Index:   i,
				Text:    text[loc[0]:loc[1]],
				Value:   text[gs:ge],
				Start:   gs,
				End:     ge,
				Context: Window(text, gs, ge, radius),
				Before:  before(text, gs, beforeWidth),
			}
			out = append(out, Candidate[T]{
				Value:      value,
				Match:      m.Text,
				Context:    m.Context,
				Confidence: clampConfidence(score(m, value)+rule.Bonus, 0, 100),
				Rule:       i,
				RuleName:   rule.Name,
				Offset:     gs,
				Source:     SourcePattern,
			})
		}
	}
	return out
}

// ScanNumbers is Scan for numeric fields; values outside bounds are dropped
// before scoring.
func ScanNumbers(text string, rules []Rule, bounds Bounds, radius int, score func(Match, float64) int) []Candidate[float64] {
	return Scan(text, rules, radius, func(s string) (float64, bool) {
		v, ok := ParseNumber(s)
		return v, ok && bounds.Contains(v)
	}, score)
}

// ScanStrings is Scan for identifier fields.
func ScanStrings(text string, rules []Rule, radius int, score func(Match, string) int) []Candidate[string] {
	return Scan(text, rules, radius, func(s string) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	}, score)
}

const beforeWidth = 24

// before returns up to n lowercased bytes preceding start on the same line.
func before(text string, start, n int) string {
	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	return strings.ToLower(text[max(lineStart, start-n):start])
}

func continuedNumber(text string, start int) bool {
	if start == 0 {
		return false
	}
	if isDigit(text[start-1]) {
		return true
	}
	return (text[start-1] == '.' || text[start-1] == ',') && start >= 2 && isDigit(text[start-2])
}

func truncatedNumber(text string, end int) bool {
	if end >= len(text) {
		return false
	}
	if isDigit(text[end]) {
		return true
	}
	return (text[end] == '.' || text[end] == ',') && end+1 < len(text) && isDigit(text[end+1])
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// ParseNumber parses "1,234.56" style numbers.
func ParseNumber(s string) (float64, bool) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return 0, false
	}
	return d.InexactFloat64(), true
}

// Round returns v rounded half away from zero to places decimals.
func Round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}

// Window returns up to radius bytes around [start, end) clipped to the line
// holding the match. When nothing but a currency marker precedes the match on
// its line, the previous line is included so that a label printed above a
// bare value still counts.
func Window(text string, start, end, radius int) string {
	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineEnd := len(text)
	if i := strings.IndexByte(text[end:], '\n'); i >= 0 {
		lineEnd = end + i
	}

	from := max(lineStart, start-radius)
	to := min(lineEnd, end+radius)

	if bareValueLine(text[lineStart:start]) && lineStart > 0 {
		prevStart := strings.LastIndexByte(text[:lineStart-1], '\n') + 1
		from = max(prevStart, start-radius-(start-lineStart))
	}
	return strings.ToLower(text[from:to])
}

var reCurrencyOnly = regexp.MustCompile(`(?i)^[\s:()]*(?:rm|myr)?[\s:()]*$`)

func bareValueLine(prefix string) bool {
	return reCurrencyOnly.MatchString(prefix)
}

// words compiles case-insensitive alternatives. Word boundaries are required
// only at keyword edges that are letters or digits; inner spaces match any
// whitespace run.
func words(keywords ...string) *regexp.Regexp {
	parts := make([]string, len(keywords))
	for i, k := range keywords {
		expr := strings.ReplaceAll(regexp.QuoteMeta(k), " ", `\s+`)
		if isWordByte(k[0]) {
			expr = `\b` + expr
		}
		if isWordByte(k[len(k)-1]) {
			expr += `\b`
		}
		parts[i] = expr
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(parts, "|") + `)`)
}

func isWordByte(b byte) bool {
	return isDigit(b) || b == '_' || (b|0x20) >= 'a' && (b|0x20) <= 'z'
}

func clampConfidence(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
