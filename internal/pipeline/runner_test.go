package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sublingo-ai/sublingo/internal/llm"
	"github.com/sublingo-ai/sublingo/internal/pipeline"
)

const runnerInputSRT = "1\n" +
	"00:00:00,000 --> 00:00:02,000\n" +
	"one\n" +
	"\n" +
	"2\n" +
	"00:00:02,000 --> 00:00:04,500\n" +
	"two\n" +
	"\n"

func newTestRunner(t *testing.T, dispatcher pipeline.Dispatcher) *pipeline.Runner {
	t.Helper()

	summarizer, err := pipeline.NewSummarizer(dispatcher)
	require.NoError(t, err)
	translator, err := pipeline.NewTranslator(pipeline.TranslatorConfig{TargetLanguage: "fr"}, dispatcher)
	require.NoError(t, err)
	fitter, err := pipeline.NewFitter(&mockTrimmer{})
	require.NoError(t, err)

	runner, err := pipeline.NewRunner(summarizer, translator, fitter)
	require.NoError(t, err)
	return runner
}

func TestNewRunner(t *testing.T) {
	t.Run("should return error when a stage is nil", func(t *testing.T) {
		runner, err := pipeline.NewRunner(nil, nil, nil)

		require.Error(t, err)
		require.Nil(t, runner)
	})
}

func TestRunner_Run(t *testing.T) {
	t.Run("should translate a file end to end", func(t *testing.T) {
		dir := t.TempDir()
		inPath := filepath.Join(dir, "in.srt")
		outPath := filepath.Join(dir, "out.srt")
		require.NoError(t, os.WriteFile(inPath, []byte(runnerInputSRT), 0o644))

		dispatcher := &mockDispatcher{
			dispatchFunc: func(ctx context.Context, req llm.Request) (*llm.Result, error) {
				if req.LogTitle == "summary" {
					return &llm.Result{Data: map[string]any{"theme": "counting"}}, nil
				}
				return echoTranslations(ctx, req)
			},
		}
		runner := newTestRunner(t, dispatcher)

		require.NoError(t, runner.Run(context.Background(), inPath, outPath))

		out, err := os.ReadFile(outPath)
		require.NoError(t, err)
		require.Contains(t, string(out), "ONE")
		require.Contains(t, string(out), "TWO")
		require.Contains(t, string(out), "00:00:02,000 --> 00:00:04,500")
	})

	t.Run("should fail on a missing input file", func(t *testing.T) {
		dir := t.TempDir()
		runner := newTestRunner(t, &mockDispatcher{})

		err := runner.Run(context.Background(), filepath.Join(dir, "absent.srt"), filepath.Join(dir, "out.srt"))

		require.Error(t, err)
	})

	t.Run("should fail on an empty subtitle file", func(t *testing.T) {
		dir := t.TempDir()
		inPath := filepath.Join(dir, "in.srt")
		require.NoError(t, os.WriteFile(inPath, []byte("\n"), 0o644))

		runner := newTestRunner(t, &mockDispatcher{})

		err := runner.Run(context.Background(), inPath, filepath.Join(dir, "out.srt"))

		require.Error(t, err)
		require.Contains(t, err.Error(), "no subtitles")
	})

	t.Run("should not write output when translation fails", func(t *testing.T) {
		dir := t.TempDir()
		inPath := filepath.Join(dir, "in.srt")
		outPath := filepath.Join(dir, "out.srt")
		require.NoError(t, os.WriteFile(inPath, []byte(runnerInputSRT), 0o644))

		dispatcher := &mockDispatcher{
			dispatchFunc: func(_ context.Context, req llm.Request) (*llm.Result, error) {
				if req.LogTitle == "summary" {
					return &llm.Result{Data: map[string]any{"theme": "counting"}}, nil
				}
				return nil, llm.ErrTransport
			},
		}
		runner := newTestRunner(t, dispatcher)

		err := runner.Run(context.Background(), inPath, outPath)

		require.ErrorIs(t, err, llm.ErrTransport)
		require.NoFileExists(t, outPath)
	})
}
