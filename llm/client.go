// Package llm generates excuse text with a third-party large language model.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured is returned when the provider credential is missing or
	// still set to the placeholder shipped in the example .env file.
	ErrNotConfigured = errors.New("llm provider not configured")

	// ErrEmptyResponse is returned when the provider answers without text.
	ErrEmptyResponse = errors.New("llm returned empty response")
)

// A Request is a single-turn completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// A Client sends one completion request to a provider. Implementations make
// exactly one HTTP round trip and never retry.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}
