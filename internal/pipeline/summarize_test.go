package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sublingo-ai/sublingo/internal/llm"
	"github.com/sublingo-ai/sublingo/internal/pipeline"
)

func TestNewSummarizer(t *testing.T) {
	t.Run("should return error when dispatcher is nil", func(t *testing.T) {
		summarizer, err := pipeline.NewSummarizer(nil)

		require.Error(t, err)
		require.Nil(t, summarizer)
	})
}

func TestSummarizer_Summarize(t *testing.T) {
	t.Run("should return empty theme for no lines", func(t *testing.T) {
		dispatcher := &mockDispatcher{}
		summarizer, err := pipeline.NewSummarizer(dispatcher)
		require.NoError(t, err)

		theme, err := summarizer.Summarize(context.Background(), nil)

		require.NoError(t, err)
		require.Empty(t, theme)
		require.Zero(t, dispatcher.callCount())
	})

	t.Run("should return the theme from the response", func(t *testing.T) {
		dispatcher := &mockDispatcher{
			dispatchFunc: func(_ context.Context, _ llm.Request) (*llm.Result, error) {
				return &llm.Result{Data: map[string]any{"theme": "a cooking show"}}, nil
			},
		}
		summarizer, err := pipeline.NewSummarizer(dispatcher)
		require.NoError(t, err)

		theme, err := summarizer.Summarize(context.Background(), []string{"chop the onions"})

		require.NoError(t, err)
		require.Equal(t, "a cooking show", theme)

		req := dispatcher.calls[0]
		require.Equal(t, "summary", req.LogTitle)
		require.Equal(t, "pipeline.summarize", req.Origin)
		require.True(t, req.ResponseJSON)
	})

	t.Run("should degrade to an empty theme when dispatch fails", func(t *testing.T) {
		dispatcher := &mockDispatcher{
			dispatchFunc: func(_ context.Context, _ llm.Request) (*llm.Result, error) {
				return nil, errors.New("model unavailable")
			},
		}
		summarizer, err := pipeline.NewSummarizer(dispatcher)
		require.NoError(t, err)

		theme, err := summarizer.Summarize(context.Background(), []string{"chop the onions"})

		require.NoError(t, err)
		require.Empty(t, theme)
	})

	t.Run("should propagate cancellation", func(t *testing.T) {
		dispatcher := &mockDispatcher{
			dispatchFunc: func(_ context.Context, _ llm.Request) (*llm.Result, error) {
				return nil, context.Canceled
			},
		}
		summarizer, err := pipeline.NewSummarizer(dispatcher)
		require.NoError(t, err)

		_, err = summarizer.Summarize(context.Background(), []string{"chop the onions"})

		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("should supply a validator requiring a theme", func(t *testing.T) {
		dispatcher := &mockDispatcher{
			dispatchFunc: func(_ context.Context, _ llm.Request) (*llm.Result, error) {
				return &llm.Result{Data: map[string]any{"theme": "x"}}, nil
			},
		}
		summarizer, err := pipeline.NewSummarizer(dispatcher)
		require.NoError(t, err)

		_, err = summarizer.Summarize(context.Background(), []string{"chop the onions"})
		require.NoError(t, err)

		validate := dispatcher.calls[0].Validate
		require.NotNil(t, validate)
		require.Equal(t, llm.StatusSuccess, validate(map[string]any{"theme": "cooking"}).Status)
		require.Equal(t, llm.StatusError, validate(map[string]any{"theme": " "}).Status)
		require.Equal(t, llm.StatusError, validate(map[string]any{}).Status)
	})
}
