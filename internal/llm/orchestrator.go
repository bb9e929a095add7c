// Package llm dispatches prompt requests to a generative text provider
// with log-backed response caching, bounded retries, and usage
// metering.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sublingo-ai/sublingo/internal/observability"
)

const (
	defaultMaxAttempts = 3
	defaultBackoff     = 2 * time.Second

	// jsonInstruction is appended to the system prompt of structured
	// requests, after any caller-supplied text.
	jsonInstruction = "Please provide your response in valid JSON format."

	// meterFunction keys every dispatch in the usage meter.
	meterFunction = "dispatch"

	originUnknown = "unknown"
)

// Config tunes the orchestrator.
type Config struct {
	// Model is the canonical model identifier, sent with every request
	// and recorded on every log entry. Required.
	Model string

	// MaxAttempts bounds transport and parse retries. Defaults to 3.
	MaxAttempts int

	// Backoff is the fixed wait between transport retries. Defaults
	// to 2s.
	Backoff time.Duration
}

// Orchestrator resolves completion requests: from the exchange log when
// the prompt was seen before, otherwise from the provider.
type Orchestrator struct {
	cfg      Config
	provider Provider
	store    ExchangeStore
	meter    UsageRecorder
}

// New creates an orchestrator (DI constructor). store and meter may be
// nil, which disables exchange logging and metering respectively.
func New(cfg Config, provider Provider, store ExchangeStore, meter UsageRecorder) (*Orchestrator, error) {
	if provider == nil {
		return nil, errors.New("provider cannot be nil")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("%w: model is not set", ErrNotConfigured)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = defaultMaxAttempts
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}

	return &Orchestrator{
		cfg:      cfg,
		provider: provider,
		store:    store,
		meter:    meter,
	}, nil
}

// Dispatch handles one request. Every dispatch records one usage
// increment, cache hits included. Transport failures retry with a
// fixed backoff, parse failures retry without one, and validation
// failures end the dispatch immediately.
func (o *Orchestrator) Dispatch(ctx context.Context, req Request) (*Result, error) {
	if req.Prompt == "" {
		return nil, errors.New("prompt cannot be empty")
	}

	partition := req.LogTitle
	if partition == "" {
		partition = PartitionDefault
	}

	if observability.GetRequestID(ctx) == "" {
		ctx = observability.WithRequestID(ctx, observability.GenerateRequestID())
	}
	ctx = observability.WithProvider(ctx, o.provider.Name())
	ctx = observability.WithModel(ctx, o.cfg.Model)
	logger := observability.FromContext(ctx).With(
		observability.String("partition", partition),
	)

	origin := req.Origin
	if origin == "" {
		origin = originUnknown
	}
	if o.meter != nil {
		o.meter.Record(meterFunction, origin)
	}

	if o.store != nil && partition != PartitionNone {
		raw, found, err := o.store.Lookup(req.Prompt, partition)
		if err != nil {
			logger.Warn("log lookup failed, continuing without it",
				observability.Error(err))
		}
		if found {
			logger.Debug("resolved from exchange log")
			return decodeStored(raw)
		}
	}

	system := req.SystemPrompt
	if req.ResponseJSON {
		if system == "" {
			system = jsonInstruction
		} else {
			system += "\n" + jsonInstruction
		}
	}

	wire := CompletionRequest{
		Model:        o.cfg.Model,
		System:       system,
		Prompt:       req.Prompt,
		Temperature:  req.Temperature,
		MaxTokens:    req.MaxTokens,
		ResponseJSON: req.ResponseJSON,
	}

	var lastErr error
	for attempt := 1; attempt <= o.cfg.MaxAttempts; attempt++ {
		text, err := o.provider.Complete(ctx, wire)
		if err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrTransport, err)
			logger.Warn("completion attempt failed",
				observability.Int("attempt", attempt),
				observability.Error(err))
			if attempt < o.cfg.MaxAttempts {
				if waitErr := o.wait(ctx); waitErr != nil {
					return nil, waitErr
				}
			}
			continue
		}

		if !req.ResponseJSON {
			o.logSuccess(logger, partition, req.Prompt, text)
			return &Result{Text: text}, nil
		}

		var parsed map[string]any
		if err := json.Unmarshal([]byte(text), &parsed); err != nil {
			lastErr = fmt.Errorf("%w: %v", ErrMalformedResponse, err)
			logger.Warn("response is not a JSON object",
				observability.Int("attempt", attempt))
			o.logFailure(logger, req.Prompt, text, "JSON parsing failed")
			// A fresh sample may parse; retry without backoff.
			continue
		}

		if req.Validate != nil {
			verdict := req.Validate(parsed)
			if verdict.Status != StatusSuccess {
				o.logFailure(logger, req.Prompt, parsed, verdict.Message)
				return nil, fmt.Errorf("%w: %s", ErrRejected, verdict.Message)
			}
		}

		o.logSuccess(logger, partition, req.Prompt, parsed)
		return &Result{Data: parsed}, nil
	}

	return nil, fmt.Errorf("all %d attempts failed: %w", o.cfg.MaxAttempts, lastErr)
}

// decodeStored maps a logged response back onto a Result: objects to
// Data, strings to Text.
func decodeStored(raw json.RawMessage) (*Result, error) {
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err == nil {
		return &Result{Data: data}, nil
	}

	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return &Result{Text: text}, nil
	}

	return nil, fmt.Errorf("%w: logged response is neither object nor string", ErrMalformedResponse)
}

func (o *Orchestrator) logSuccess(logger *zap.Logger, partition, prompt string, response any) {
	if o.store == nil || partition == PartitionNone {
		return
	}
	if err := o.store.Append(partition, o.cfg.Model, prompt, response, ""); err != nil {
		logger.Warn("failed to append exchange", observability.Error(err))
	}
}

// logFailure records a failed exchange in the error partition. Error
// entries are written even for requests that disable their own logging.
func (o *Orchestrator) logFailure(logger *zap.Logger, prompt string, response any, message string) {
	if o.store == nil {
		return
	}
	if err := o.store.Append(PartitionError, o.cfg.Model, prompt, response, message); err != nil {
		logger.Warn("failed to append error exchange", observability.Error(err))
	}
}

// wait sleeps for the configured backoff, honoring cancellation.
func (o *Orchestrator) wait(ctx context.Context) error {
	timer := time.NewTimer(o.cfg.Backoff)
	select {
	case <-ctx.Done():
		if !timer.Stop() {
			<-timer.C
		}
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
