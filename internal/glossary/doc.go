// Package glossary defines the data model shared by every pipeline stage:
// documents, terms with their occurrences, synonym groups, review issues,
// and the run lifecycle records persisted by the store.
//
// All types here are plain values. Stages own their inputs for the duration
// of one call; nothing in this package synchronizes access.
package glossary
