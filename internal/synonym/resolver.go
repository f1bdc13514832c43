// Package synonym collapses a flat candidate term list onto primary
// representatives. Non-primary members are skipped by the generation,
// review, and refine stages; their occurrences are folded into the
// primary's occurrence search instead.
package synonym

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/gloss/internal/glossary"
)

// Resolver provides O(1) lookups over a set of synonym groups. Build it
// once per run with NewResolver, not per term.
type Resolver struct {
	aliasesByPrimary map[string][]string
	groupByText      map[string]*glossary.SynonymGroup
	nonPrimary       map[string]struct{}
}

// NewResolver indexes the given groups. A term text belonging to more than
// one group is an input error and is rejected, as is a group whose primary
// text is missing from its own members.
func NewResolver(groups []glossary.SynonymGroup) (*Resolver, error) {
	r := &Resolver{
		aliasesByPrimary: make(map[string][]string),
		groupByText:      make(map[string]*glossary.SynonymGroup),
		nonPrimary:       make(map[string]struct{}),
	}

	for i := range groups {
		group := &groups[i]
		primarySeen := false
		var aliases []string
		for _, member := range group.Members {
			if member.TermText == group.PrimaryTerm {
				primarySeen = true
			} else {
				aliases = append(aliases, member.TermText)
				r.nonPrimary[member.TermText] = struct{}{}
			}
			if prev, exists := r.groupByText[member.TermText]; exists && prev != group {
				return nil, fmt.Errorf("synonym groups: term %q belongs to both group %d and group %d",
					member.TermText, prev.ID, group.ID)
			}
			r.groupByText[member.TermText] = group
		}
		if !primarySeen {
			return nil, fmt.Errorf("synonym group %d: primary term %q is not among its members",
				group.ID, group.PrimaryTerm)
		}
		r.aliasesByPrimary[group.PrimaryTerm] = aliases
	}

	return r, nil
}

// Aliases returns the non-primary member texts for a primary term.
// Returns nil for terms without a group.
func (r *Resolver) Aliases(primary string) []string {
	return r.aliasesByPrimary[primary]
}

// Group returns the synonym group a term text belongs to, if any.
func (r *Resolver) Group(text string) (*glossary.SynonymGroup, bool) {
	g, ok := r.groupByText[text]
	return g, ok
}

// IsNonPrimary reports whether text is a non-primary member of some group.
// Such terms receive no glossary entry of their own.
func (r *Resolver) IsNonPrimary(text string) bool {
	_, ok := r.nonPrimary[text]
	return ok
}

// Primaries partitions candidates, keeping only the terms that should own
// a glossary entry: every candidate that is not a non-primary member of a
// group. Order is preserved; duplicates are dropped.
func (r *Resolver) Primaries(candidates []string) []string {
	seen := make(map[string]struct{}, len(candidates))
	var primaries []string
	for _, term := range candidates {
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		if r.IsNonPrimary(term) {
			continue
		}
		primaries = append(primaries, term)
	}
	return primaries
}

// groupFile is the on-disk YAML layout for synonym groups.
type groupFile struct {
	Groups []glossary.SynonymGroup `yaml:"groups"`
}

// LoadGroups reads synonym groups from a YAML file. A missing path is not
// an error: projects without synonyms simply get an empty resolver.
func LoadGroups(path string) ([]glossary.SynonymGroup, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("load synonym groups: %w", err)
	}
	var f groupFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("load synonym groups: parse %s: %w", path, err)
	}
	return f.Groups, nil
}
