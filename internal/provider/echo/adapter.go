// Package echo provides a testing provider that reflects prompts back to
// the caller. It answers every request in-memory, giving deterministic
// responses for development runs without external API calls.
package echo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sublingo-ai/sublingo/internal/llm"
	"github.com/sublingo-ai/sublingo/internal/observability"
)

const providerName = "echo"

// Provider implements the llm.Provider interface for echo testing.
type Provider struct {
	name string
}

// NewProvider creates a new echo provider.
// No configuration is required as this provider operates entirely in-memory.
func NewProvider() *Provider {
	return &Provider{name: providerName}
}

// Complete returns the prompt text itself. Requests that ask for JSON get
// the prompt wrapped in an object so downstream parsing has a document to
// work with.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if req.Prompt == "" {
		return "", errors.New("prompt cannot be empty")
	}

	logger := observability.FromContext(ctx)
	logger.Debug("echoing request")

	if req.ResponseJSON {
		payload, err := json.Marshal(map[string]string{"echo": req.Prompt})
		if err != nil {
			return "", fmt.Errorf("marshal echo payload: %w", err)
		}
		return string(payload), nil
	}

	return req.Prompt, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string {
	return p.name
}
