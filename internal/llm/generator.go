// Package llm implements the pluggable text-generation contract used
// by query expansion (HyDE, multi-query), the embedding router's LLM
// classification layer, and CRAG reformulation (spec.md §4.D/§4.F/§4.K).
package llm

import (
	"context"
	"fmt"
)

// Generator produces a single completion for a prompt. Implementations
// are expected to be stateless and safe for concurrent use.
type Generator interface {
	Name() string
	Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int) (string, error)
}

// NetworkError is a surfaced, non-retried transport failure.
type NetworkError struct {
	Provider string
	Cause    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("llm(%s): network error: %v", e.Provider, e.Cause)
}
func (e *NetworkError) Unwrap() error { return e.Cause }

// EmptyResponseError signals the provider returned no usable text.
type EmptyResponseError struct {
	Provider string
}

func (e *EmptyResponseError) Error() string {
	return fmt.Sprintf("llm(%s): empty response", e.Provider)
}
