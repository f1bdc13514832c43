package pipeline

import (
	"context"
	"log/slog"
	"strings"

	"github.com/roach88/gloss/internal/glossary"
	"github.com/roach88/gloss/internal/llm"
)

type extractResponse struct {
	Terms []string `json:"terms"`
}

// ExtractTerms asks the LM for candidate glossary terms, one call per
// document. A document whose call fails is logged and skipped; extraction
// never aborts on a single document. The returned candidates are trimmed,
// non-empty, deduplicated, and ordered by first appearance.
func ExtractTerms(
	ctx context.Context,
	client llm.Client,
	docs []glossary.Document,
	log *slog.Logger,
	progress ProgressFunc,
) []string {
	progress = orNoProgress(progress)

	var (
		candidates []string
		seen       = make(map[string]struct{})
	)
	for i, doc := range docs {
		var resp extractResponse
		if err := client.GenerateStructured(ctx, buildExtractPrompt(doc), extractSchema, &resp); err != nil {
			log.Warn("term extraction failed for document, skipping",
				"document", doc.Path, "error", err)
			progress(i+1, len(docs), "extract")
			continue
		}
		for _, raw := range resp.Terms {
			term := strings.TrimSpace(raw)
			if term == "" {
				continue
			}
			if _, dup := seen[term]; dup {
				continue
			}
			seen[term] = struct{}{}
			candidates = append(candidates, term)
		}
		progress(i+1, len(docs), "extract")
	}

	log.Info("term extraction finished", "documents", len(docs), "candidates", len(candidates))
	return candidates
}
