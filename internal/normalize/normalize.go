// Package normalize cleans raw OCR output before any field extraction.
//
// Cleaning folds Unicode compatibility forms, repairs glyphs that OCR engines
// commonly confuse (O/0, l/I/|/1) using the neighbouring characters, and
// collapses whitespace while keeping one bill line per text line so that the
// table analyzer can still see horizontal label-value rows.
package normalize

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var (
	reCRLF       = regexp.MustCompile(`\r\n?`)
	reTabs       = regexp.MustCompile(`[\t\f\v\x{00A0}]+`)
	reMultiSpace = regexp.MustCompile(` {2,}`)
)

// Clean returns the normalized form of raw OCR text. It never fails; the
// empty string maps to itself.
func Clean(raw string) string {
	if raw == "" {
		return ""
	}

	s := norm.NFKC.String(raw)
	s = reCRLF.ReplaceAllString(s, "\n")
	s = reTabs.ReplaceAllString(s, " ")
	s = repairGlyphs(s)

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(reMultiSpace.ReplaceAllString(line, " "))
		if line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

// repairGlyphs resolves ambiguous glyphs from their immediate neighbours.
// Decisions are made against the original runes so that one repair never
// feeds the next.
func repairGlyphs(s string) string {
	src := []rune(s)
	out := make([]rune, len(src))
	copy(out, src)

	for i, r := range src {
		var prev, next rune
		if i > 0 {
			prev = src[i-1]
		}
		if i+1 < len(src) {
			next = src[i+1]
		}

		switch r {
		case 'O':
			if isDigit(prev) || isDigit(next) {
				out[i] = '0'
			}
		case '0':
			if unicode.IsLetter(prev) && unicode.IsLetter(next) {
				out[i] = 'O'
			}
		case 'l', 'I':
			if isDigit(prev) && isDigit(next) {
				out[i] = '1'
			}
		case '|':
			if isDigit(prev) && isDigit(next) {
				out[i] = '1'
			} else {
				out[i] = ' '
			}
		}
	}
	return string(out)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// NonSpaceLength counts the runes of s that are not whitespace.
func NonSpaceLength(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

// Sample returns at most n runes of s for diagnostics.
func Sample(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
