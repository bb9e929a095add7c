package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/caarlos0/env/v11"
)

const (
	defaultAPITimeout = 60
	defaultProvider   = "openai"
)

// APIConfig contains the generative text API settings. Values come from
// the configuration file and may be overridden by environment variables.
type APIConfig struct {
	Key      string `env:"SUBLINGO_API_KEY"`
	Model    string `env:"SUBLINGO_API_MODEL"`
	BaseURL  string `env:"SUBLINGO_API_BASE_URL"`
	Timeout  int    `env:"SUBLINGO_API_TIMEOUT"`
	Provider string `env:"SUBLINGO_API_PROVIDER"`
}

// API resolves the api.* keys and applies environment overrides.
// api.model is the single model identifier used for requests and for
// every log entry.
func (s *Store) API() (APIConfig, error) {
	var cfg APIConfig
	var err error

	if cfg.Key, err = s.optionalString("api.key"); err != nil {
		return APIConfig{}, err
	}
	if cfg.Model, err = s.optionalString("api.model"); err != nil {
		return APIConfig{}, err
	}
	if cfg.BaseURL, err = s.optionalString("api.base_url"); err != nil {
		return APIConfig{}, err
	}
	if cfg.Timeout, err = s.optionalInt("api.timeout"); err != nil {
		return APIConfig{}, err
	}
	if cfg.Provider, err = s.optionalString("api.provider"); err != nil {
		return APIConfig{}, err
	}

	if err := env.Parse(&cfg); err != nil {
		return APIConfig{}, fmt.Errorf("parse environment overrides: %w", err)
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultAPITimeout
	}
	if cfg.Provider == "" {
		cfg.Provider = defaultProvider
	}

	return cfg, nil
}

// Joiner returns the string used to join text fragments for the given
// language code: a space for space-delimited languages, an empty string
// for languages written without spaces.
func (s *Store) Joiner(language string) (string, error) {
	spaced, err := s.GetStringSlice("language_split_with_space")
	if err != nil {
		return "", err
	}
	unspaced, err := s.GetStringSlice("language_split_without_space")
	if err != nil {
		return "", err
	}

	switch {
	case slices.Contains(spaced, language):
		return " ", nil
	case slices.Contains(unspaced, language):
		return "", nil
	default:
		return "", fmt.Errorf("unsupported language code: %s", language)
	}
}

// optionalString is like GetString but treats a missing key as empty.
func (s *Store) optionalString(key string) (string, error) {
	value, err := s.GetString(key)
	if errors.Is(err, ErrKeyNotFound) {
		return "", nil
	}
	return value, err
}

// optionalInt is like GetInt but treats a missing key as zero.
func (s *Store) optionalInt(key string) (int, error) {
	value, err := s.GetInt(key)
	if errors.Is(err, ErrKeyNotFound) {
		return 0, nil
	}
	return value, err
}
