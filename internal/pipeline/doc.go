// Package pipeline implements the four glossary stages: extract candidate
// terms from documents, define each primary term from its occurrences,
// review the glossary in batches, and refine the terms the review flagged.
//
// Failure handling is tiered. One term's or one document's LM failure is
// logged and skipped. One review batch's failure loses only that batch's
// findings. Anything else propagates to the run worker, which fails the run.
package pipeline
