// Package config assembles the application configuration from the
// environment, an optional .env file and an optional YAML or JSON file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	fgconfig "github.com/randalmurphal/toolgraph/pkg/flowgraph/config"
	fgerrors "github.com/randalmurphal/toolgraph/pkg/flowgraph/errors"
)

// EnvPrefix prefixes every application environment variable.
const EnvPrefix = "TOOLGRAPH"

// ErrMissingAPIKey is returned by RequireAPIKey when neither
// GEMINI_API_KEY nor GOOGLE_API_KEY is set.
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY or GOOGLE_API_KEY must be set")

// Config is the application configuration.
//
// Environment variables are TOOLGRAPH_<SECTION>_<FIELD>, e.g.
// TOOLGRAPH_MODEL_NAME or TOOLGRAPH_CACHE_REDIS_URL. The file uses the
// mapstructure names.
type Config struct {
	// ConfigFile is read from TOOLGRAPH_CONFIG_FILE only.
	ConfigFile string `split_words:"true" mapstructure:"-"`

	APIKey string `ignored:"true" mapstructure:"-"`

	Model      ModelConfig   `split_words:"true" mapstructure:"model"`
	Weather    WeatherConfig `split_words:"true" mapstructure:"weather"`
	Cache      CacheConfig   `split_words:"true" mapstructure:"cache"`
	Journal    JournalConfig `split_words:"true" mapstructure:"journal"`
	Log        LogConfig     `split_words:"true" mapstructure:"log"`
	Server     ServerConfig  `split_words:"true" mapstructure:"server"`
	Retry      RetryConfig   `split_words:"true" mapstructure:"retry"`
	RunTimeout time.Duration `split_words:"true" default:"2m" mapstructure:"run_timeout"`
	Tracing    bool          `split_words:"true" mapstructure:"tracing"`
}

// ModelConfig configures the Gemini model.
type ModelConfig struct {
	Name        string        `split_words:"true" default:"gemini-1.5-flash" mapstructure:"name"`
	BaseURL     string        `split_words:"true" mapstructure:"base_url"`
	Temperature float64       `split_words:"true" default:"0.1" mapstructure:"temperature"`
	MaxTokens   int           `split_words:"true" mapstructure:"max_tokens"`
	Timeout     time.Duration `split_words:"true" default:"30s" mapstructure:"timeout"`
}

// WeatherConfig configures the Open-Meteo endpoints.
type WeatherConfig struct {
	GeocodeURL  string        `split_words:"true" default:"https://geocoding-api.open-meteo.com/v1/search" mapstructure:"geocode_url"`
	ForecastURL string        `split_words:"true" default:"https://api.open-meteo.com/v1/forecast" mapstructure:"forecast_url"`
	Timeout     time.Duration `split_words:"true" default:"10s" mapstructure:"timeout"`
}

// CacheConfig configures the optional Redis geocode cache. An empty
// RedisURL disables the cache.
type CacheConfig struct {
	RedisURL string        `split_words:"true" mapstructure:"redis_url"`
	TTL      time.Duration `split_words:"true" default:"24h" mapstructure:"ttl"`
}

// JournalConfig configures the SQLite step journal. An empty Path
// disables it.
type JournalConfig struct {
	Path string `split_words:"true" mapstructure:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	File  string `split_words:"true" default:"agent.log" mapstructure:"file"`
	Level string `split_words:"true" default:"info" mapstructure:"level"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr string `split_words:"true" default:":8080" mapstructure:"addr"`
}

// RetryConfig bounds the retries of model setup and graph compilation.
type RetryConfig struct {
	Attempts   int           `split_words:"true" default:"3" mapstructure:"attempts"`
	Backoff    time.Duration `split_words:"true" default:"1s" mapstructure:"backoff"`
	MaxBackoff time.Duration `split_words:"true" default:"10s" mapstructure:"max_backoff"`
	Jitter     float64       `split_words:"true" default:"0.1" mapstructure:"jitter"`
}

// Policy returns the retry policy described by c.
func (c RetryConfig) Policy() fgerrors.RetryConfig {
	return fgerrors.NewRetryConfig(
		fgerrors.WithMaxAttempts(c.Attempts),
		fgerrors.WithInitialBackoff(c.Backoff),
		fgerrors.WithMaxBackoff(c.MaxBackoff),
		fgerrors.WithJitter(c.Jitter),
	)
}

type apiKeys struct {
	Gemini string `envconfig:"GEMINI_API_KEY"`
	Google string `envconfig:"GOOGLE_API_KEY"`
}

// Load reads envFile (a missing file is not an error), then the
// environment, then the file named by TOOLGRAPH_CONFIG_FILE, whose values
// override the environment.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", envFile, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("process environment: %w", err)
	}

	var keys apiKeys
	if err := envconfig.Process("", &keys); err != nil {
		return Config{}, fmt.Errorf("process api keys: %w", err)
	}
	cfg.APIKey = keys.Gemini
	if cfg.APIKey == "" {
		cfg.APIKey = keys.Google
	}

	if cfg.ConfigFile != "" {
		file, err := fgconfig.FromFile(cfg.ConfigFile)
		if err != nil {
			return Config{}, err
		}
		if err := file.Decode(&cfg); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	var errs []error
	if c.Model.Name == "" {
		errs = append(errs, &fgerrors.ValidationError{Field: "model.name", Message: "must not be empty"})
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, &fgerrors.ValidationError{
			Field:   "model.temperature",
			Value:   fmt.Sprint(c.Model.Temperature),
			Message: "must be between 0 and 2",
		})
	}
	if c.Model.MaxTokens < 0 {
		errs = append(errs, &fgerrors.ValidationError{Field: "model.max_tokens", Value: fmt.Sprint(c.Model.MaxTokens), Message: "must not be negative"})
	}
	if c.Model.Timeout <= 0 {
		errs = append(errs, &fgerrors.ValidationError{Field: "model.timeout", Value: fmt.Sprint(c.Model.Timeout), Message: "must be positive"})
	}
	if c.Weather.Timeout <= 0 {
		errs = append(errs, &fgerrors.ValidationError{Field: "weather.timeout", Value: fmt.Sprint(c.Weather.Timeout), Message: "must be positive"})
	}
	if c.Retry.Attempts < 1 {
		errs = append(errs, &fgerrors.ValidationError{Field: "retry.attempts", Value: fmt.Sprint(c.Retry.Attempts), Message: "must be at least 1"})
	}
	if c.Retry.Backoff < 0 || c.Retry.MaxBackoff < 0 {
		errs = append(errs, &fgerrors.ValidationError{Field: "retry.backoff", Value: fmt.Sprint(c.Retry.Backoff), Message: "must not be negative"})
	}
	if c.Retry.Jitter < 0 || c.Retry.Jitter > 1 {
		errs = append(errs, &fgerrors.ValidationError{Field: "retry.jitter", Value: fmt.Sprint(c.Retry.Jitter), Message: "must be between 0 and 1"})
	}
	if c.RunTimeout < 0 {
		errs = append(errs, &fgerrors.ValidationError{Field: "run_timeout", Value: fmt.Sprint(c.RunTimeout), Message: "must not be negative"})
	}
	return errors.Join(errs...)
}

// RequireAPIKey reports ErrMissingAPIKey when no API key was found.
func (c Config) RequireAPIKey() error {
	if c.APIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}
