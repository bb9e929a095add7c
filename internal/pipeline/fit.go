package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/sublingo-ai/sublingo/internal/subtitle"
)

// CueTrimmer shortens a line to fit the given time window.
type CueTrimmer interface {
	Trim(ctx context.Context, text string, available time.Duration) string
}

// Fitter applies duration trimming to every cue in a file.
type Fitter struct {
	trimmer CueTrimmer
}

// NewFitter creates a fitter.
func NewFitter(trimmer CueTrimmer) (*Fitter, error) {
	if trimmer == nil {
		return nil, errors.New("trimmer cannot be nil")
	}
	return &Fitter{trimmer: trimmer}, nil
}

// Fit returns a copy of cues with each text trimmed to its window.
func (f *Fitter) Fit(ctx context.Context, cues []subtitle.Cue) ([]subtitle.Cue, error) {
	fitted := make([]subtitle.Cue, len(cues))

	for i, cue := range cues {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fitted[i] = cue
		fitted[i].Text = f.trimmer.Trim(ctx, cue.Text, cue.Window())
	}

	return fitted, nil
}
