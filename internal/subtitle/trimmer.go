package subtitle

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sublingo-ai/sublingo/internal/llm"
	"github.com/sublingo-ai/sublingo/internal/observability"
)

// strippablePunctuation is removed by the local fallback when model
// shortening fails.
const strippablePunctuation = ",.!?;:，。！？；："

const trimSystemPrompt = "You are a professional subtitle editor. You shorten lines so they " +
	"can be spoken comfortably in the time available while keeping their meaning and tone."

// Dispatcher issues model requests on behalf of the trimmer.
type Dispatcher interface {
	Dispatch(ctx context.Context, req llm.Request) (*llm.Result, error)
}

// Trimmer shortens subtitle lines that cannot be spoken inside their cue
// window.
type Trimmer struct {
	dispatcher Dispatcher
	estimator  DurationEstimator
	maxSpeed   float64
}

// NewTrimmer creates a trimmer. maxSpeed is the highest tolerable speedup
// over natural pace; values up to 1 mean no speedup is allowed.
func NewTrimmer(dispatcher Dispatcher, estimator DurationEstimator, maxSpeed float64) (*Trimmer, error) {
	if dispatcher == nil {
		return nil, errors.New("dispatcher cannot be nil")
	}
	if estimator == nil {
		estimator = NewSyllableEstimator(0)
	}
	if maxSpeed <= 0 {
		maxSpeed = 1
	}

	return &Trimmer{
		dispatcher: dispatcher,
		estimator:  estimator,
		maxSpeed:   maxSpeed,
	}, nil
}

// Trim returns text short enough to speak within the available time. Text
// that already fits comes back unchanged. When model shortening fails the
// trimmer strips punctuation instead, so Trim always returns a usable line.
func (t *Trimmer) Trim(ctx context.Context, text string, available time.Duration) string {
	if text == "" {
		return text
	}

	needed := time.Duration(float64(t.estimator.Estimate(text)) / t.maxSpeed)
	if needed <= available {
		return text
	}

	logger := observability.FromContext(ctx)
	logger.Debug("line exceeds its window",
		observability.Duration("needed", needed),
		observability.Duration("available", available),
	)

	result, err := t.dispatcher.Dispatch(ctx, llm.Request{
		Prompt:       trimPrompt(text, available),
		SystemPrompt: trimSystemPrompt,
		ResponseJSON: true,
		Validate:     validateShortened,
		LogTitle:     "subtitle_trim",
		Origin:       "subtitle.trim",
	})
	if err != nil {
		logger.Warn("shortening failed, stripping punctuation instead", observability.Error(err))
		return stripPunctuation(text)
	}

	shortened, ok := result.Data["result"].(string)
	if !ok || strings.TrimSpace(shortened) == "" {
		return stripPunctuation(text)
	}

	return shortened
}

func trimPrompt(text string, available time.Duration) string {
	var b strings.Builder
	fmt.Fprintf(&b, "This subtitle line takes too long to speak in the %.1f seconds available:\n\n", available.Seconds())
	b.WriteString(text)
	b.WriteString("\n\nRewrite it shorter while keeping the meaning. ")
	b.WriteString(`Respond with JSON in the form {"result": "<shortened line>"}.`)
	return b.String()
}

func validateShortened(data map[string]any) llm.ValidationResult {
	result, ok := data["result"].(string)
	if !ok || strings.TrimSpace(result) == "" {
		return llm.Invalid("no result in response")
	}
	return llm.Valid()
}

// stripPunctuation replaces clause punctuation with spaces. It buys a
// little speaking time without touching any words.
func stripPunctuation(text string) string {
	stripped := strings.Map(func(r rune) rune {
		if strings.ContainsRune(strippablePunctuation, r) {
			return ' '
		}
		return r
	}, text)

	return strings.TrimSpace(stripped)
}
