package llm

import (
	"context"
	"encoding/json"
)

// CompletionRequest is the wire-level request handed to a provider.
type CompletionRequest struct {
	Model        string
	System       string
	Prompt       string
	Temperature  float64
	MaxTokens    int
	ResponseJSON bool
}

// Provider represents a remote generative text API.
type Provider interface {
	// Complete sends one completion request and returns the raw
	// response text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Name returns the provider identifier.
	Name() string
}

// ExchangeStore persists prompt/response exchanges and resolves
// previously logged prompts.
type ExchangeStore interface {
	// Lookup returns the stored response for a byte-identical prompt.
	Lookup(prompt, partition string) (json.RawMessage, bool, error)

	// Append adds an exchange to the end of the partition.
	Append(partition, model, prompt string, response any, message string) error
}

// UsageRecorder counts remote API usage.
type UsageRecorder interface {
	// Record notes one call of function attributed to origin.
	Record(function, origin string)
}
