package pipeline

import (
	"context"
	"log/slog"

	"github.com/roach88/gloss/internal/glossary"
	"github.com/roach88/gloss/internal/index"
	"github.com/roach88/gloss/internal/llm"
	"github.com/roach88/gloss/internal/synonym"
)

type defineResponse struct {
	Definition   string   `json:"definition"`
	Confidence   float64  `json:"confidence"`
	RelatedTerms []string `json:"related_terms"`
}

// DefineTerms builds the glossary: for each primary candidate it gathers
// occurrences of the term and its synonym aliases across the documents,
// shows the model up to five occurrence contexts, and records the returned
// definition and confidence. Non-primary synonym members get no entry of
// their own. One term's LM failure is logged and skipped; the stage always
// returns a glossary.
func DefineTerms(
	ctx context.Context,
	client llm.Client,
	candidates []string,
	resolver *synonym.Resolver,
	docs []glossary.Document,
	log *slog.Logger,
	progress ProgressFunc,
) *glossary.Glossary {
	progress = orNoProgress(progress)

	primaries := resolver.Primaries(candidates)
	g := glossary.NewGlossary()

	for i, term := range primaries {
		aliases := resolver.Aliases(term)
		occs := index.FindOccurrences(term, aliases, docs)

		var resp defineResponse
		if err := client.GenerateStructured(ctx, buildDefinePrompt(term, aliases, occs), defineSchema, &resp); err != nil {
			log.Warn("definition failed for term, skipping",
				"term", term, "error", err)
			progress(i+1, len(primaries), "define")
			continue
		}

		g.Terms[term] = &glossary.Term{
			Name:         term,
			Definition:   resp.Definition,
			Occurrences:  occs,
			RelatedTerms: dedupe(resp.RelatedTerms),
			Confidence:   clampUnit(resp.Confidence),
		}
		progress(i+1, len(primaries), "define")
	}

	log.Info("definition finished", "primaries", len(primaries), "defined", len(g.Terms))
	return g
}

// dedupe removes duplicate related-term entries, preserving order.
func dedupe(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, dup := seen[item]; dup {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

// clampUnit clips a confidence value into [0,1]. The schema already bounds
// it; this guards decoded values against float round-trip surprises.
func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
