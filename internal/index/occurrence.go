// Package index implements the two corpus scans the pipeline depends on:
// locale-aware occurrence search for a term and its synonym aliases, and
// the whole-corpus context index the refine stage queries per issue.
package index

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"github.com/roach88/gloss/internal/glossary"
)

// FindOccurrences scans documents for a term and its synonym aliases and
// returns one occurrence per matching line, in document-then-line order.
// A line matching several variants still yields a single occurrence (the
// first matching variant wins). This is a recall-oriented sweep: non-CJK
// variants match case-insensitively, subject to the boundary rule below.
//
// Context for a match at line L is lines L-1 through L+1 clipped to the
// document bounds, joined with newlines.
func FindOccurrences(term string, aliases []string, docs []glossary.Document) []glossary.TermOccurrence {
	variants := make([]matcher, 0, 1+len(aliases))
	if m, ok := newMatcher(term); ok {
		variants = append(variants, m)
	}
	for _, alias := range aliases {
		if m, ok := newMatcher(alias); ok {
			variants = append(variants, m)
		}
	}
	if len(variants) == 0 {
		return nil
	}

	var occs []glossary.TermOccurrence
	for _, doc := range docs {
		lines := doc.Lines()
		for i, line := range lines {
			for _, m := range variants {
				if m.matches(line) {
					occs = append(occs, glossary.TermOccurrence{
						DocumentPath: doc.Path,
						LineNumber:   i + 1,
						Context:      contextAround(lines, i),
					})
					break
				}
			}
		}
	}
	return occs
}

// matcher is one prepared term variant. CJK variants match by substring;
// all others additionally require that the match is not embedded in a
// larger identifier.
type matcher struct {
	folded string // NFC-normalized, lowercased needle
	cjk    bool
}

func newMatcher(text string) (matcher, bool) {
	text = strings.TrimSpace(norm.NFC.String(text))
	if text == "" {
		return matcher{}, false
	}
	return matcher{
		folded: strings.ToLower(text),
		cjk:    containsCJK(text),
	}, true
}

func (m matcher) matches(line string) bool {
	haystack := strings.ToLower(norm.NFC.String(line))
	if m.cjk {
		// CJK scripts do not separate words with whitespace, so boundary
		// assertions would reject legitimate matches.
		return strings.Contains(haystack, m.folded)
	}
	for from := 0; ; {
		idx := strings.Index(haystack[from:], m.folded)
		if idx < 0 {
			return false
		}
		start := from + idx
		end := start + len(m.folded)
		if !wordByte(haystack, start-1) && !wordByte(haystack, end) {
			return true
		}
		from = start + 1
	}
}

// wordByte reports whether the byte at i is an ASCII letter, digit, or
// underscore. Out-of-range positions count as boundaries. Byte-level
// inspection is enough: the rule only excludes ASCII identifier characters,
// and those are single bytes in UTF-8.
func wordByte(s string, i int) bool {
	if i < 0 || i >= len(s) {
		return false
	}
	b := s[i]
	return b == '_' ||
		(b >= 'a' && b <= 'z') ||
		(b >= 'A' && b <= 'Z') ||
		(b >= '0' && b <= '9')
}

// containsCJK reports whether text contains any character from the
// CJK/Kana/Hangul blocks.
func containsCJK(text string) bool {
	for _, r := range text {
		if unicode.In(r, unicode.Han, unicode.Hiragana, unicode.Katakana, unicode.Hangul) {
			return true
		}
	}
	return false
}

// contextAround joins lines[i-1 : i+2] clipped to bounds.
func contextAround(lines []string, i int) string {
	lo := i - 1
	if lo < 0 {
		lo = 0
	}
	hi := i + 2
	if hi > len(lines) {
		hi = len(lines)
	}
	return strings.Join(lines[lo:hi], "\n")
}
