package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/sublingo-ai/sublingo/internal/llm"
)

const (
	defaultChunkSize   = 8
	defaultConcurrency = 3
)

const translateSystemPrompt = "You are a professional subtitle translator. " +
	"Translations must read naturally, stay concise and keep the tone of the original."

// TranslatorConfig holds the translation settings.
type TranslatorConfig struct {
	// TargetLanguage names the language to translate into. Required.
	TargetLanguage string

	// ChunkSize is the number of lines sent per request.
	ChunkSize int

	// Concurrency caps how many chunk requests run at once.
	Concurrency int
}

// Translator translates subtitle lines in numbered chunks so each line of
// the response can be matched back to its source.
type Translator struct {
	dispatcher  Dispatcher
	target      string
	chunkSize   int
	concurrency int
}

// NewTranslator creates a translator.
func NewTranslator(cfg TranslatorConfig, dispatcher Dispatcher) (*Translator, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher cannot be nil")
	}
	if cfg.TargetLanguage == "" {
		return nil, errors.New("target language cannot be empty")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaultConcurrency
	}

	return &Translator{
		dispatcher:  dispatcher,
		target:      cfg.TargetLanguage,
		chunkSize:   cfg.ChunkSize,
		concurrency: cfg.Concurrency,
	}, nil
}

// Translate returns one translated line per input line, in order. Chunks
// are translated concurrently, a failing chunk fails the whole call.
func (t *Translator) Translate(ctx context.Context, theme string, lines []string) ([]string, error) {
	if len(lines) == 0 {
		return nil, nil
	}

	out := make([]string, len(lines))

	group, ctx := errgroup.WithContext(ctx)
	sem := make(chan struct{}, t.concurrency)

	for start := 0; start < len(lines); start += t.chunkSize {
		start := start
		chunk := lines[start:min(start+t.chunkSize, len(lines))]

		group.Go(func() error {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return ctx.Err()
			}
			defer func() { <-sem }()

			translated, err := t.translateChunk(ctx, theme, chunk)
			if err != nil {
				return fmt.Errorf("chunk starting at line %d: %w", start+1, err)
			}

			copy(out[start:], translated)
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return out, nil
}

func (t *Translator) translateChunk(ctx context.Context, theme string, chunk []string) ([]string, error) {
	result, err := t.dispatcher.Dispatch(ctx, llm.Request{
		Prompt:       t.chunkPrompt(theme, chunk),
		SystemPrompt: translateSystemPrompt,
		ResponseJSON: true,
		Validate:     validateNumbered(len(chunk)),
		LogTitle:     "translate",
		Origin:       "pipeline.translate",
	})
	if err != nil {
		return nil, err
	}

	translated := make([]string, len(chunk))
	for i := range chunk {
		value, _ := result.Data[strconv.Itoa(i+1)].(string)
		translated[i] = value
	}

	return translated, nil
}

func (t *Translator) chunkPrompt(theme string, chunk []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Translate these subtitle lines into %s.", t.target)
	if theme != "" {
		fmt.Fprintf(&b, " The content is about: %s", theme)
	}
	b.WriteString("\n\n")

	for i, line := range chunk {
		fmt.Fprintf(&b, "%d. %s\n", i+1, line)
	}

	b.WriteString("\nRespond with JSON mapping each line number to its translation, " +
		`for example {"1": "<translation>"}.`)
	return b.String()
}

// validateNumbered builds a validator that requires one non-empty
// translation per line number from 1 to count.
func validateNumbered(count int) llm.ValidateFunc {
	return func(data map[string]any) llm.ValidationResult {
		for i := 1; i <= count; i++ {
			value, ok := data[strconv.Itoa(i)].(string)
			if !ok || strings.TrimSpace(value) == "" {
				return llm.Invalid(fmt.Sprintf("missing translation for line %d", i))
			}
		}
		return llm.Valid()
	}
}
