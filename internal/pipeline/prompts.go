package pipeline

import (
	"fmt"
	"strings"

	"github.com/roach88/gloss/internal/glossary"
)

// maxExtractContent caps how much of one document an extract prompt shows.
const maxExtractContent = 8000

// buildExtractPrompt renders the candidate-term extraction prompt for one
// document. Deterministic for identical input (golden-tested).
func buildExtractPrompt(doc glossary.Document) string {
	content := doc.Content
	if len(content) > maxExtractContent {
		content = content[:maxExtractContent]
	}

	var b strings.Builder
	b.WriteString("You are building a glossary of domain terms.\n")
	b.WriteString("List the domain-specific terms that appear in the following document.\n")
	b.WriteString("Only include terms a newcomer to this domain would need defined.\n")
	b.WriteString("Respond with JSON: {\"terms\": [\"...\"]}\n\n")
	fmt.Fprintf(&b, "Document: %s\n", doc.Path)
	b.WriteString("---\n")
	b.WriteString(content)
	b.WriteString("\n---\n")
	return b.String()
}

// buildDefinePrompt renders the definition prompt for one primary term.
// Aliases and up to maxPromptContexts occurrence contexts are included.
func buildDefinePrompt(term string, aliases []string, occs []glossary.TermOccurrence) string {
	var b strings.Builder
	b.WriteString("You are writing glossary definitions for domain terms.\n")
	b.WriteString("Define the term below based on how it is used in the excerpts.\n")
	b.WriteString("Respond with JSON: {\"definition\": \"...\", \"confidence\": 0.0-1.0, \"related_terms\": [\"...\"]}\n\n")
	fmt.Fprintf(&b, "Term: %s\n", term)
	if len(aliases) > 0 {
		fmt.Fprintf(&b, "Also written as: %s\n", strings.Join(aliases, ", "))
	}

	shown := len(occs)
	if shown > maxPromptContexts {
		shown = maxPromptContexts
	}
	if shown == 0 {
		b.WriteString("\nNo usage excerpts were found; define the term from its name alone and lower your confidence accordingly.\n")
		return b.String()
	}

	b.WriteString("\nUsage excerpts:\n")
	for i := 0; i < shown; i++ {
		occ := occs[i]
		fmt.Fprintf(&b, "\n[%d] %s:%d\n%s\n", i+1, occ.DocumentPath, occ.LineNumber, occ.Context)
	}
	return b.String()
}

// buildReviewPrompt renders the batch review prompt. The batch carries each
// term's current name, definition, and confidence.
func buildReviewPrompt(terms []*glossary.Term) string {
	var b strings.Builder
	b.WriteString("You are reviewing a glossary for quality problems.\n")
	b.WriteString("Flag terms that are unclear, contradict each other, are missing an\n")
	b.WriteString("obvious relation to another listed term, or are unnecessary.\n")
	b.WriteString("Allowed issue_type values: unclear, contradiction, missing_relation, unnecessary.\n")
	b.WriteString("Respond with JSON: {\"issues\": [{\"term_name\": \"...\", \"issue_type\": \"...\", \"description\": \"...\", \"should_exclude\": false, \"exclusion_reason\": \"\"}]}\n")
	b.WriteString("Return an empty issues array if the batch is fine.\n\nTerms:\n")
	for _, term := range terms {
		fmt.Fprintf(&b, "\n- %s (confidence %.2f)\n  %s\n", term.Name, term.Confidence, term.Definition)
	}
	return b.String()
}

// buildRefinePrompt renders the refinement prompt for one flagged term.
func buildRefinePrompt(term *glossary.Term, issue glossary.GlossaryIssue, contexts []string) string {
	var b strings.Builder
	b.WriteString("You are improving one glossary definition that a review flagged.\n")
	b.WriteString("Respond with JSON: {\"refined_definition\": \"...\", \"confidence\": 0.0-1.0}\n\n")
	fmt.Fprintf(&b, "Term: %s\n", term.Name)
	fmt.Fprintf(&b, "Current definition: %s\n", term.Definition)
	fmt.Fprintf(&b, "Problem (%s): %s\n", issue.Type, issue.Description)
	if len(contexts) > 0 {
		b.WriteString("\nCorpus context:\n")
		for _, c := range contexts {
			fmt.Fprintf(&b, "%s\n", c)
		}
	}
	return b.String()
}
