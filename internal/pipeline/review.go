package pipeline

import (
	"context"
	"log/slog"
	"sort"

	"github.com/roach88/gloss/internal/glossary"
	"github.com/roach88/gloss/internal/llm"
)

// DefaultReviewBatchSize is the number of terms per review batch.
const DefaultReviewBatchSize = 10

// Outcome is the review stage's tagged result. Cancelled=true means the
// stage did not run (or stopped early) because cancellation was signaled;
// Cancelled=false with an empty Issues slice means the review ran to
// completion and found nothing. The two are never conflated.
type Outcome struct {
	Cancelled bool
	Issues    []glossary.GlossaryIssue
}

// cancelledOutcome is the sentinel returned on cancellation.
func cancelledOutcome() Outcome {
	return Outcome{Cancelled: true}
}

type reviewResponse struct {
	Issues []reviewIssue `json:"issues"`
}

type reviewIssue struct {
	TermName        string `json:"term_name"`
	IssueType       string `json:"issue_type"`
	Description     string `json:"description"`
	ShouldExclude   bool   `json:"should_exclude"`
	ExclusionReason string `json:"exclusion_reason"`
}

// ReviewGlossary partitions the glossary into contiguous batches of
// batchSize terms (sorted by name for deterministic batching) and asks the
// model to flag unclear, contradictory, missing-relation, or unnecessary
// terms.
//
// Cancellation is re-checked before every batch; once signaled the stage
// returns the cancelled outcome immediately, regardless of issues already
// collected. A batch whose LM call fails is logged with its index and
// skipped; the other batches' findings are still returned. Parsed entries
// with an issue type outside the allowed set are dropped silently.
func ReviewGlossary(
	ctx context.Context,
	client llm.Client,
	g *glossary.Glossary,
	batchSize int,
	cancel Canceller,
	log *slog.Logger,
	progress ProgressFunc,
) Outcome {
	cancel = orNoCancel(cancel)
	progress = orNoProgress(progress)
	if batchSize <= 0 {
		batchSize = DefaultReviewBatchSize
	}

	if cancel.Cancelled() {
		log.Info("review cancelled before any batch")
		return cancelledOutcome()
	}

	names := g.TermNames()
	sort.Strings(names)
	batches := batchNames(names, batchSize)

	var (
		issues []glossary.GlossaryIssue
		failed []int
	)
	for bi, batch := range batches {
		if cancel.Cancelled() {
			log.Info("review cancelled", "completed_batches", bi, "total_batches", len(batches))
			return cancelledOutcome()
		}
		progress(bi, len(batches), "review")

		terms := make([]*glossary.Term, 0, len(batch))
		for _, name := range batch {
			terms = append(terms, g.Terms[name])
		}

		var resp reviewResponse
		if err := client.GenerateStructured(ctx, buildReviewPrompt(terms), reviewSchema, &resp); err != nil {
			log.Warn("review batch failed, continuing", "batch", bi, "error", err)
			failed = append(failed, bi)
			continue
		}

		for _, ri := range resp.Issues {
			issue := glossary.GlossaryIssue{
				TermName:        ri.TermName,
				Type:            glossary.IssueType(ri.IssueType),
				Description:     ri.Description,
				ShouldExclude:   ri.ShouldExclude,
				ExclusionReason: ri.ExclusionReason,
			}
			if !glossary.ValidIssueType(issue.Type) {
				continue
			}
			issues = append(issues, issue)
		}
	}
	progress(len(batches), len(batches), "review")

	if len(failed) > 0 {
		log.Warn("review finished with failed batches", "failed_batches", failed)
	}
	log.Info("review finished", "batches", len(batches), "issues", len(issues))

	if issues == nil {
		issues = []glossary.GlossaryIssue{}
	}
	return Outcome{Issues: issues}
}

// batchNames splits names into contiguous slices of at most size elements.
func batchNames(names []string, size int) [][]string {
	var batches [][]string
	for start := 0; start < len(names); start += size {
		end := start + size
		if end > len(names) {
			end = len(names)
		}
		batches = append(batches, names[start:end])
	}
	return batches
}
