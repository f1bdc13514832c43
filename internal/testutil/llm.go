// Package testutil provides shared test doubles: a scriptable LM client
// and document fixtures used by the pipeline and runner tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/roach88/gloss/internal/glossary"
	"github.com/roach88/gloss/internal/llm"
)

// LLMFunc adapts a function to llm.Client.
type LLMFunc func(ctx context.Context, prompt, schema string, out any) error

// GenerateStructured implements llm.Client.
func (f LLMFunc) GenerateStructured(ctx context.Context, prompt, schema string, out any) error {
	return f(ctx, prompt, schema, out)
}

// DecodeJSON validates raw against the CUE schema and decodes it into out,
// mirroring the production client's post-response path. Test doubles use it
// so scripted responses go through the same validation as real ones.
func DecodeJSON(schema, raw string, out any) error {
	if err := llm.ValidateJSON(schema, []byte(raw)); err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("decode scripted response: %w", err)
	}
	return nil
}

// RecordingLLM wraps an llm.Client and records every prompt it sees.
// Safe for concurrent use.
type RecordingLLM struct {
	Inner llm.Client

	mu      sync.Mutex
	prompts []string
}

// GenerateStructured implements llm.Client.
func (r *RecordingLLM) GenerateStructured(ctx context.Context, prompt, schema string, out any) error {
	r.mu.Lock()
	r.prompts = append(r.prompts, prompt)
	r.mu.Unlock()
	return r.Inner.GenerateStructured(ctx, prompt, schema, out)
}

// Prompts returns a copy of the recorded prompts in call order.
func (r *RecordingLLM) Prompts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.prompts))
	copy(out, r.prompts)
	return out
}

// Doc builds a document fixture from lines.
func Doc(path string, lines ...string) glossary.Document {
	content := ""
	for i, line := range lines {
		if i > 0 {
			content += "\n"
		}
		content += line
	}
	return glossary.Document{Path: path, Content: content}
}
