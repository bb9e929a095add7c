package pipeline_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sublingo-ai/sublingo/internal/pipeline"
	"github.com/sublingo-ai/sublingo/internal/subtitle"
)

// mockTrimmer truncates instead of dispatching.
type mockTrimmer struct {
	calls int
}

func (m *mockTrimmer) Trim(_ context.Context, text string, _ time.Duration) string {
	m.calls++
	return strings.TrimSuffix(text, "!")
}

func TestNewFitter(t *testing.T) {
	t.Run("should return error when trimmer is nil", func(t *testing.T) {
		fitter, err := pipeline.NewFitter(nil)

		require.Error(t, err)
		require.Nil(t, fitter)
	})
}

func TestFitter_Fit(t *testing.T) {
	t.Run("should trim every cue and keep timings", func(t *testing.T) {
		trimmer := &mockTrimmer{}
		fitter, err := pipeline.NewFitter(trimmer)
		require.NoError(t, err)

		cues := []subtitle.Cue{
			{Index: 1, Start: 0, End: time.Second, Text: "Hello!"},
			{Index: 2, Start: time.Second, End: 3 * time.Second, Text: "Goodbye!"},
		}

		fitted, err := fitter.Fit(context.Background(), cues)

		require.NoError(t, err)
		require.Len(t, fitted, 2)
		require.Equal(t, "Hello", fitted[0].Text)
		require.Equal(t, "Goodbye", fitted[1].Text)
		require.Equal(t, cues[0].Start, fitted[0].Start)
		require.Equal(t, cues[1].End, fitted[1].End)
		require.Equal(t, 2, trimmer.calls)

		// Inputs stay untouched.
		require.Equal(t, "Hello!", cues[0].Text)
	})

	t.Run("should stop when the context is canceled", func(t *testing.T) {
		fitter, err := pipeline.NewFitter(&mockTrimmer{})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		fitted, err := fitter.Fit(ctx, []subtitle.Cue{{Text: "Hello!"}})

		require.ErrorIs(t, err, context.Canceled)
		require.Nil(t, fitted)
	})
}
