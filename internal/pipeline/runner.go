// Package pipeline orchestrates a subtitle run: summarize the source for
// context, translate it chunk by chunk, then fit every translated line to
// its cue window.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/sublingo-ai/sublingo/internal/llm"
	"github.com/sublingo-ai/sublingo/internal/observability"
	"github.com/sublingo-ai/sublingo/internal/subtitle"
)

// Dispatcher issues model requests for the pipeline stages.
type Dispatcher interface {
	Dispatch(ctx context.Context, req llm.Request) (*llm.Result, error)
}

// Runner executes the full pipeline over one subtitle file.
type Runner struct {
	summarizer *Summarizer
	translator *Translator
	fitter     *Fitter
}

// NewRunner creates a runner from the three pipeline stages.
func NewRunner(summarizer *Summarizer, translator *Translator, fitter *Fitter) (*Runner, error) {
	if summarizer == nil {
		return nil, errors.New("summarizer cannot be nil")
	}
	if translator == nil {
		return nil, errors.New("translator cannot be nil")
	}
	if fitter == nil {
		return nil, errors.New("fitter cannot be nil")
	}

	return &Runner{
		summarizer: summarizer,
		translator: translator,
		fitter:     fitter,
	}, nil
}

// Run reads the subtitles at inPath, processes them and writes the result
// to outPath. Nothing is written when any stage fails.
func (r *Runner) Run(ctx context.Context, inPath, outPath string) error {
	ctx = observability.WithRunID(ctx, observability.GenerateRunID())
	logger := observability.FromContext(ctx)

	cues, err := readCues(inPath)
	if err != nil {
		return err
	}
	if len(cues) == 0 {
		return fmt.Errorf("no subtitles found in %s", inPath)
	}

	logger.Info("starting subtitle run",
		observability.String("input", inPath),
		observability.Int("cues", len(cues)),
	)

	lines := make([]string, len(cues))
	for i, cue := range cues {
		lines[i] = cue.Text
	}

	theme, err := r.summarizer.Summarize(observability.WithStep(ctx, "summarize"), lines)
	if err != nil {
		return err
	}
	if theme != "" {
		logger.Info("summarized source", observability.String("theme", theme))
	}

	translated, err := r.translator.Translate(observability.WithStep(ctx, "translate"), theme, lines)
	if err != nil {
		return fmt.Errorf("translate: %w", err)
	}

	for i := range cues {
		cues[i].Text = translated[i]
	}

	fitted, err := r.fitter.Fit(observability.WithStep(ctx, "fit"), cues)
	if err != nil {
		return err
	}

	if err := writeCues(outPath, fitted); err != nil {
		return err
	}

	logger.Info("run finished", observability.String("output", outPath))

	return nil
}

func readCues(path string) ([]subtitle.Cue, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open subtitles: %w", err)
	}

	cues, err := subtitle.ParseSRT(file)
	closeErr := file.Close()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if closeErr != nil {
		return nil, fmt.Errorf("close %s: %w", path, closeErr)
	}

	return cues, nil
}

func writeCues(path string, cues []subtitle.Cue) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}

	if err := subtitle.WriteSRT(file, cues); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}

	return nil
}
