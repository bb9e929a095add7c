package pipeline_test

import (
	"bufio"
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sublingo-ai/sublingo/internal/llm"
	"github.com/sublingo-ai/sublingo/internal/pipeline"
)

// mockDispatcher is a mock implementation of Dispatcher for testing.
type mockDispatcher struct {
	mu           sync.Mutex
	dispatchFunc func(ctx context.Context, req llm.Request) (*llm.Result, error)
	calls        []llm.Request
}

func (m *mockDispatcher) Dispatch(ctx context.Context, req llm.Request) (*llm.Result, error) {
	m.mu.Lock()
	m.calls = append(m.calls, req)
	m.mu.Unlock()

	if m.dispatchFunc != nil {
		return m.dispatchFunc(ctx, req)
	}
	return &llm.Result{Data: map[string]any{}}, nil
}

func (m *mockDispatcher) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

// echoTranslations answers a translation prompt by upper-casing each
// numbered line, keyed the way the translator expects.
func echoTranslations(_ context.Context, req llm.Request) (*llm.Result, error) {
	data := make(map[string]any)

	scanner := bufio.NewScanner(strings.NewReader(req.Prompt))
	for scanner.Scan() {
		number, line, found := strings.Cut(scanner.Text(), ". ")
		if !found {
			continue
		}
		if _, err := strconv.Atoi(number); err != nil {
			continue
		}
		data[number] = strings.ToUpper(line)
	}

	return &llm.Result{Data: data}, nil
}

func TestNewTranslator(t *testing.T) {
	t.Run("should return error when dispatcher is nil", func(t *testing.T) {
		translator, err := pipeline.NewTranslator(pipeline.TranslatorConfig{TargetLanguage: "fr"}, nil)

		require.Error(t, err)
		require.Nil(t, translator)
	})

	t.Run("should return error when target language is empty", func(t *testing.T) {
		translator, err := pipeline.NewTranslator(pipeline.TranslatorConfig{}, &mockDispatcher{})

		require.Error(t, err)
		require.Nil(t, translator)
		require.Contains(t, err.Error(), "target language")
	})
}

func TestTranslator_Translate(t *testing.T) {
	t.Run("should return nothing for no lines", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		translator, err := pipeline.NewTranslator(pipeline.TranslatorConfig{TargetLanguage: "fr"}, dispatcher)
		require.NoError(t, err)

		translated, err := translator.Translate(context.Background(), "", nil)

		require.NoError(t, err)
		require.Empty(t, translated)
		require.Zero(t, dispatcher.callCount())
	})

	t.Run("should translate lines in order across chunks", func(t *testing.T) {
		dispatcher := &mockDispatcher{dispatchFunc: echoTranslations}
		translator, err := pipeline.NewTranslator(pipeline.TranslatorConfig{
			TargetLanguage: "fr",
			ChunkSize:      2,
			Concurrency:    2,
		}, dispatcher)
		require.NoError(t, err)

		lines := []string{"one", "two", "three", "four", "five"}
		translated, err := translator.Translate(context.Background(), "", lines)

		require.NoError(t, err)
		require.Equal(t, []string{"ONE", "TWO", "THREE", "FOUR", "FIVE"}, translated)
		require.Equal(t, 3, dispatcher.callCount())
	})

	t.Run("should tag requests for the translate partition", func(t *testing.T) {
		dispatcher := &mockDispatcher{dispatchFunc: echoTranslations}
		translator, err := pipeline.NewTranslator(pipeline.TranslatorConfig{TargetLanguage: "fr"}, dispatcher)
		require.NoError(t, err)

		_, err = translator.Translate(context.Background(), "cooking", []string{"one"})
		require.NoError(t, err)

		require.Equal(t, 1, dispatcher.callCount())
		req := dispatcher.calls[0]
		require.Equal(t, "translate", req.LogTitle)
		require.Equal(t, "pipeline.translate", req.Origin)
		require.True(t, req.ResponseJSON)
		require.Contains(t, req.Prompt, "into fr")
		require.Contains(t, req.Prompt, "cooking")
	})

	t.Run("should supply a validator requiring every line", func(t *testing.T) {
		dispatcher := &mockDispatcher{dispatchFunc: echoTranslations}
		translator, err := pipeline.NewTranslator(pipeline.TranslatorConfig{TargetLanguage: "fr"}, dispatcher)
		require.NoError(t, err)

		_, err = translator.Translate(context.Background(), "", []string{"one", "two"})
		require.NoError(t, err)

		validate := dispatcher.calls[0].Validate
		require.NotNil(t, validate)

		complete := map[string]any{"1": "un", "2": "deux"}
		require.Equal(t, llm.StatusSuccess, validate(complete).Status)

		missing := map[string]any{"1": "un"}
		verdict := validate(missing)
		require.Equal(t, llm.StatusError, verdict.Status)
		require.Contains(t, verdict.Message, "line 2")

		blank := map[string]any{"1": "un", "2": "  "}
		require.Equal(t, llm.StatusError, validate(blank).Status)
	})

	t.Run("should fail the whole call when a chunk fails", func(t *testing.T) {
		dispatcher := &mockDispatcher{
			dispatchFunc: func(ctx context.Context, req llm.Request) (*llm.Result, error) {
				if strings.Contains(req.Prompt, "three") {
					return nil, errors.New("model unavailable")
				}
				return echoTranslations(ctx, req)
			},
		}
		translator, err := pipeline.NewTranslator(pipeline.TranslatorConfig{
			TargetLanguage: "fr",
			ChunkSize:      2,
		}, dispatcher)
		require.NoError(t, err)

		translated, err := translator.Translate(context.Background(), "", []string{"one", "two", "three"})

		require.Error(t, err)
		require.Nil(t, translated)
		require.Contains(t, err.Error(), "model unavailable")
	})
}
