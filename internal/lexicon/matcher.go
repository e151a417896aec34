package lexicon

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Matcher finds whole-word occurrences of one keyword, case-insensitively.
// Inner spaces match any run of whitespace.
type Matcher struct {
	Keyword string
	re      *regexp.Regexp
}

// NewMatcher compiles keyword into a Matcher.
func NewMatcher(keyword string) Matcher {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	parts := strings.Fields(kw)
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	expr := strings.Join(parts, `\s+`)

	first, _ := utf8.DecodeRuneInString(kw)
	last, _ := utf8.DecodeLastRuneInString(kw)
	if isWordRune(first) {
		expr = `\b` + expr
	}
	if isWordRune(last) {
		expr = expr + `\b`
	}
	return Matcher{Keyword: kw, re: regexp.MustCompile(`(?i)` + expr)}
}

// NewMatchers compiles every keyword in order.
func NewMatchers(keywords []string) []Matcher {
	out := make([]Matcher, 0, len(keywords))
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		out = append(out, NewMatcher(kw))
	}
	return out
}

// Count returns the number of non-overlapping occurrences in text.
func (m Matcher) Count(text string) int {
	return len(m.re.FindAllStringIndex(text, -1))
}

// Contains reports whether the keyword occurs in text.
func (m Matcher) Contains(text string) bool {
	return m.re.MatchString(text)
}

// Index returns the byte offset of the first occurrence, or -1.
func (m Matcher) Index(text string) int {
	loc := m.re.FindStringIndex(text)
	if loc == nil {
		return -1
	}
	return loc[0]
}

// ContainsAny reports whether any matcher hits text.
func ContainsAny(matchers []Matcher, text string) bool {
	for _, m := range matchers {
		if m.Contains(text) {
			return true
		}
	}
	return false
}

// ASCII word runes only, to agree with RE2's \b.
func isWordRune(r rune) bool {
	return r < unicode.MaxASCII && (r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r))
}
