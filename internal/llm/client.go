// Package llm defines the language-model client capability the pipeline
// consumes: prompt in, schema-validated structured value out. The pipeline
// never inspects provider responses directly; everything arrives through
// GenerateStructured.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse indicates the provider returned no usable content.
var ErrEmptyResponse = errors.New("llm: empty response")

// Client generates a structured response for a prompt. The schema is a CUE
// definition the raw JSON response must satisfy before it is decoded into
// out. Implementations may return timeout or service-unavailable errors;
// stages decide whether such errors are absorbed (per-item, per-batch) or
// propagate and fail the run.
type Client interface {
	GenerateStructured(ctx context.Context, prompt, schema string, out any) error
}
