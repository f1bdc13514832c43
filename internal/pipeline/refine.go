package pipeline

import (
	"context"
	"log/slog"

	"github.com/roach88/gloss/internal/glossary"
	"github.com/roach88/gloss/internal/index"
	"github.com/roach88/gloss/internal/llm"
)

type refineResponse struct {
	RefinedDefinition string  `json:"refined_definition"`
	Confidence        float64 `json:"confidence"`
}

// RefineGlossary rewrites the definitions the review flagged. The corpus
// context index is built once up front; per-issue context lookup is then a
// hash probe rather than a re-scan of every document, which is what keeps
// this stage linear as issue counts grow.
//
// Issues marked should_exclude and issues whose term no longer exists in
// the glossary are skipped. On success the term's definition and confidence
// are replaced in place (occurrences untouched); on failure the existing
// entry is left unmodified. The count of successfully refined terms is
// recorded under glossary.MetadataResolvedIssues and returned.
func RefineGlossary(
	ctx context.Context,
	client llm.Client,
	g *glossary.Glossary,
	issues []glossary.GlossaryIssue,
	docs []glossary.Document,
	log *slog.Logger,
	progress ProgressFunc,
) int {
	progress = orNoProgress(progress)

	idx := index.BuildContextIndex(docs)
	log.Debug("context index built", "documents", len(docs), "tokens", idx.Tokens())

	resolved := 0
	for i, issue := range issues {
		progress(i, len(issues), "refine")
		if issue.ShouldExclude {
			continue
		}
		term, ok := g.Terms[issue.TermName]
		if !ok {
			continue
		}

		contexts := idx.Lookup(issue.TermName, maxPromptContexts)

		var resp refineResponse
		if err := client.GenerateStructured(ctx, buildRefinePrompt(term, issue, contexts), refineSchema, &resp); err != nil {
			log.Warn("refinement failed for term, keeping existing definition",
				"term", issue.TermName, "issue_type", issue.Type, "error", err)
			continue
		}

		term.Definition = resp.RefinedDefinition
		term.Confidence = clampUnit(resp.Confidence)
		resolved++
	}
	progress(len(issues), len(issues), "refine")

	if g.Metadata == nil {
		g.Metadata = make(map[string]any)
	}
	g.Metadata[glossary.MetadataResolvedIssues] = resolved

	log.Info("refinement finished", "issues", len(issues), "resolved", resolved)
	return resolved
}
