package index

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/roach88/gloss/internal/glossary"
)

// wordPattern extracts word tokens for the context index. Letters, digits,
// and underscores in any script count as word characters.
var wordPattern = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// ContextIndex maps each lowercase word token found anywhere in the corpus
// to the "[path:line] text" strings containing it. Built once per refine
// stage, it turns per-issue context lookup into a hash probe instead of a
// full corpus re-scan.
type ContextIndex struct {
	byToken map[string][]string
}

// BuildContextIndex scans every line of every document exactly once.
// A token appearing several times on one line contributes one entry.
func BuildContextIndex(docs []glossary.Document) *ContextIndex {
	idx := &ContextIndex{byToken: make(map[string][]string)}
	for _, doc := range docs {
		for i, line := range doc.Lines() {
			entry := fmt.Sprintf("[%s:%d] %s", doc.Path, i+1, line)
			seen := make(map[string]struct{})
			for _, tok := range wordPattern.FindAllString(strings.ToLower(line), -1) {
				if _, dup := seen[tok]; dup {
					continue
				}
				seen[tok] = struct{}{}
				idx.byToken[tok] = append(idx.byToken[tok], entry)
			}
		}
	}
	return idx
}

// Lookup returns up to max context strings for a term: the union of the
// index entries for each of the term's word tokens, filtered to lines that
// literally contain the full term (case-insensitively). The filter rejects
// false positives from partial word overlap, e.g. a lookup for "order book"
// must not return lines mentioning only "order".
func (idx *ContextIndex) Lookup(term string, max int) []string {
	tokens := wordPattern.FindAllString(strings.ToLower(term), -1)
	if len(tokens) == 0 {
		return nil
	}

	needle := strings.ToLower(term)
	var (
		out  []string
		seen = make(map[string]struct{})
	)
	for _, tok := range tokens {
		for _, entry := range idx.byToken[tok] {
			if _, dup := seen[entry]; dup {
				continue
			}
			seen[entry] = struct{}{}
			if !strings.Contains(strings.ToLower(entry), needle) {
				continue
			}
			out = append(out, entry)
			if max > 0 && len(out) >= max {
				return out
			}
		}
	}
	return out
}

// Tokens returns the number of distinct tokens in the index. Used by
// logging to size the precompute step.
func (idx *ContextIndex) Tokens() int {
	return len(idx.byToken)
}
