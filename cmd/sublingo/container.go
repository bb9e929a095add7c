package main

import (
	"fmt"
	"path/filepath"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/sublingo-ai/sublingo/internal/config"
	"github.com/sublingo-ai/sublingo/internal/llm"
	"github.com/sublingo-ai/sublingo/internal/observability"
	"github.com/sublingo-ai/sublingo/internal/pipeline"
	"github.com/sublingo-ai/sublingo/internal/promptlog"
	"github.com/sublingo-ai/sublingo/internal/provider/echo"
	"github.com/sublingo-ai/sublingo/internal/provider/openai"
	"github.com/sublingo-ai/sublingo/internal/provider/registry"
	"github.com/sublingo-ai/sublingo/internal/subtitle"
	"github.com/sublingo-ai/sublingo/internal/usage"
)

const (
	usageFileName = "api_usage.json"
	logDirName    = "llm_log"
)

// buildContainer wires the run-time object graph: config → logger →
// meter and log store → providers → orchestrator → trimmer → pipeline.
func buildContainer(configPath string) (*dig.Container, error) {
	container := dig.New()

	providers := []any{
		func() (*config.Store, error) { return config.Open(configPath) },
		observability.InitLogger,
		(*config.Store).API,

		func(store *config.Store) *usage.Meter {
			return usage.NewMeter(filepath.Join(workspaceDir(store), usageFileName))
		},
		func(store *config.Store) *promptlog.Store {
			return promptlog.NewStore(filepath.Join(workspaceDir(store), logDirName))
		},

		newProviderRegistry,
		func(reg *registry.Registry, api config.APIConfig) (llm.Provider, error) {
			return reg.Get(api.Provider)
		},
		func(api config.APIConfig, provider llm.Provider, store *promptlog.Store, meter *usage.Meter) (*llm.Orchestrator, error) {
			return llm.New(llm.Config{Model: api.Model}, provider, store, meter)
		},

		func(store *config.Store, orch *llm.Orchestrator) (*subtitle.Trimmer, error) {
			maxSpeed := optionalFloat(store, "speed_factor.max", 1)
			return subtitle.NewTrimmer(orch, subtitle.NewSyllableEstimator(0), maxSpeed)
		},

		func(orch *llm.Orchestrator) pipeline.Dispatcher { return orch },
		pipeline.NewSummarizer,
		func(store *config.Store, dispatcher pipeline.Dispatcher) (*pipeline.Translator, error) {
			target, err := store.GetString("target_language")
			if err != nil {
				return nil, fmt.Errorf("resolve target language: %w", err)
			}
			return pipeline.NewTranslator(pipeline.TranslatorConfig{
				TargetLanguage: target,
				ChunkSize:      optionalInt(store, "translate.chunk_size", 0),
				Concurrency:    optionalInt(store, "translate.concurrency", 0),
			}, dispatcher)
		},
		func(trimmer *subtitle.Trimmer) (*pipeline.Fitter, error) {
			return pipeline.NewFitter(trimmer)
		},
		pipeline.NewRunner,
	}

	for _, provide := range providers {
		if err := container.Provide(provide); err != nil {
			return nil, fmt.Errorf("build container: %w", err)
		}
	}

	return container, nil
}

// newProviderRegistry registers every provider the build knows about.
// The OpenAI provider is skipped without credentials so offline runs
// against the echo provider still work.
func newProviderRegistry(api config.APIConfig, logger *zap.Logger) (*registry.Registry, error) {
	reg := registry.NewRegistry()

	if err := reg.Register(echo.NewProvider()); err != nil {
		return nil, err
	}

	if api.Key == "" {
		logger.Debug("no API key configured, OpenAI provider unavailable")
		return reg, nil
	}

	oai, err := openai.NewProvider(openai.Config{
		APIKey:  api.Key,
		BaseURL: api.BaseURL,
		Timeout: api.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if err := reg.Register(oai); err != nil {
		return nil, err
	}

	return reg, nil
}

// workspaceDir is where run state (usage counts, exchange logs, the
// instance lock) lives. Defaults to the current directory.
func workspaceDir(store *config.Store) string {
	dir, err := store.GetString("workspace")
	if err != nil || dir == "" {
		return "."
	}
	return dir
}

func optionalFloat(store *config.Store, key string, fallback float64) float64 {
	value, err := store.GetFloat64(key)
	if err != nil {
		return fallback
	}
	return value
}

func optionalInt(store *config.Store, key string, fallback int) int {
	value, err := store.GetInt(key)
	if err != nil {
		return fallback
	}
	return value
}
