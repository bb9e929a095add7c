package pipeline

import (
	"context"
	"errors"
	"strings"

	"github.com/sublingo-ai/sublingo/internal/llm"
	"github.com/sublingo-ai/sublingo/internal/observability"
)

// summaryContentLimit caps how much of the transcript goes into the
// summary prompt.
const summaryContentLimit = 8000

const summarySystemPrompt = "You review transcripts and describe their subject matter in one short sentence."

// Summarizer extracts the overall theme of a transcript. The theme feeds
// into translation prompts so terminology stays consistent across chunks.
type Summarizer struct {
	dispatcher Dispatcher
}

// NewSummarizer creates a summarizer.
func NewSummarizer(dispatcher Dispatcher) (*Summarizer, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher cannot be nil")
	}
	return &Summarizer{dispatcher: dispatcher}, nil
}

// Summarize returns a short theme description for the lines. A failed
// summary is not fatal, translation works without one, so anything short
// of cancellation degrades to an empty theme.
func (s *Summarizer) Summarize(ctx context.Context, lines []string) (string, error) {
	if len(lines) == 0 {
		return "", nil
	}

	logger := observability.FromContext(ctx)

	result, err := s.dispatcher.Dispatch(ctx, llm.Request{
		Prompt:       summaryPrompt(lines),
		SystemPrompt: summarySystemPrompt,
		ResponseJSON: true,
		Validate:     validateSummary,
		LogTitle:     "summary",
		Origin:       "pipeline.summarize",
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return "", err
		}
		logger.Warn("summary failed, continuing without a theme", observability.Error(err))
		return "", nil
	}

	theme, _ := result.Data["theme"].(string)
	return theme, nil
}

func summaryPrompt(lines []string) string {
	content := strings.Join(lines, "\n")
	if runes := []rune(content); len(runes) > summaryContentLimit {
		content = string(runes[:summaryContentLimit])
	}

	var b strings.Builder
	b.WriteString("What is this transcript about?\n\n")
	b.WriteString(content)
	b.WriteString("\n\nRespond with JSON in the form {\"theme\": \"<one sentence>\"}.")
	return b.String()
}

func validateSummary(data map[string]any) llm.ValidationResult {
	theme, ok := data["theme"].(string)
	if !ok || strings.TrimSpace(theme) == "" {
		return llm.Invalid("no theme in response")
	}
	return llm.Valid()
}
