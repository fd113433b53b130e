package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/randalmurphal/toolgraph/internal/config"
	"github.com/randalmurphal/toolgraph/internal/logging"
	"github.com/randalmurphal/toolgraph/pkg/agent"
	"github.com/randalmurphal/toolgraph/pkg/agent/tools"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/journal"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/llm"
	"github.com/randalmurphal/toolgraph/pkg/flowgraph/observability"
)

// app holds what every command shares.
type app struct {
	envFile string
	cfg     config.Config
	logger  *slog.Logger
	closers []io.Closer
}

// setup loads configuration and opens the log.
func (a *app) setup() error {
	cfg, err := config.Load(a.envFile)
	if err != nil {
		return err
	}
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger, closer, err := logging.New(level, cfg.Log.File)
	if err != nil {
		return err
	}

	a.cfg = cfg
	a.logger = logger
	a.closers = append(a.closers, closer)
	return nil
}

// close releases everything opened by setup and newAgent, most recent
// first.
func (a *app) close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// openJournal opens the configured SQLite journal, or returns nil when
// none is configured.
func (a *app) openJournal(path string) (journal.Store, error) {
	if path == "" {
		return nil, nil
	}
	store, err := journal.NewSQLiteStore(path)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	a.closers = append(a.closers, store)
	return store, nil
}

// newAgent wires the agent from configuration.
func (a *app) newAgent(ctx context.Context) (*agent.Agent, journal.Store, error) {
	if err := a.cfg.RequireAPIKey(); err != nil {
		return nil, nil, err
	}
	cfg := a.cfg

	weatherOpts := []tools.WeatherOption{
		tools.WithHTTPTimeout(cfg.Weather.Timeout),
		tools.WithGeocodeURL(cfg.Weather.GeocodeURL),
		tools.WithForecastURL(cfg.Weather.ForecastURL),
		tools.WithWeatherLogger(a.logger),
	}
	if cfg.Cache.RedisURL != "" {
		cache, err := tools.DialGeocodeCache(ctx, cfg.Cache.RedisURL, tools.WithCacheTTL(cfg.Cache.TTL))
		if err != nil {
			a.logger.Warn("geocode cache disabled", slog.String("error", err.Error()))
		} else {
			a.closers = append(a.closers, cache)
			weatherOpts = append(weatherOpts, tools.WithGeocodeCache(cache))
		}
	}

	store, err := a.openJournal(cfg.Journal.Path)
	if err != nil {
		return nil, nil, err
	}

	model := func(ctx context.Context) (llm.Client, error) {
		g, err := llm.NewGemini(ctx, cfg.APIKey,
			llm.WithModel(cfg.Model.Name),
			llm.WithBaseURL(cfg.Model.BaseURL),
			llm.WithTemperature(cfg.Model.Temperature),
			llm.WithMaxTokens(cfg.Model.MaxTokens),
			llm.WithTimeout(cfg.Model.Timeout),
		)
		if err != nil {
			return nil, err
		}
		return g, nil
	}

	opts := []agent.Option{
		agent.WithLogger(a.logger),
		agent.WithWeather(tools.NewWeather(weatherOpts...)),
		agent.WithCalculator(tools.NewCalculator(a.logger)),
		agent.WithMetricsRecorder(observability.NewMetricsRecorder()),
		agent.WithTracing(cfg.Tracing),
		agent.WithRunTimeout(cfg.RunTimeout),
		agent.WithTemperature(cfg.Model.Temperature),
		agent.WithRetry(cfg.Retry.Policy()),
	}
	if store != nil {
		opts = append(opts, agent.WithJournal(store))
	}

	ag, err := agent.New(ctx, model, opts...)
	if err != nil {
		return nil, nil, err
	}
	return ag, store, nil
}
