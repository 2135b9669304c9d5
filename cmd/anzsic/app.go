package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/config"
	"github.com/Veraticus/business-anzsic-locator/internal/engine"
	"github.com/Veraticus/business-anzsic-locator/internal/llm"
	"github.com/Veraticus/business-anzsic-locator/internal/matcher"
	"github.com/Veraticus/business-anzsic-locator/internal/model"
	"github.com/Veraticus/business-anzsic-locator/internal/places"
	"github.com/Veraticus/business-anzsic-locator/internal/resilience"
	"github.com/Veraticus/business-anzsic-locator/internal/storage"
	"github.com/Veraticus/business-anzsic-locator/internal/taxonomy"
)

var envKeyReplacer = strings.NewReplacer(".", "_")

// app holds the components shared by identify, batch and serve.
type app struct {
	settings config.Settings
	taxonomy *taxonomy.Taxonomy
	resolver *engine.Resolver
	gateway  *llm.Gateway
	store    *storage.SQLiteStorage
	logger   *slog.Logger
	// lookupConfigured is false when neither an API key nor demo mode is available.
	lookupConfigured bool
}

type appOptions struct {
	recorder engine.Recorder
	// requireLookup fails construction when no place lookup is configured.
	requireLookup bool
	history       bool
}

func newApp(ctx context.Context, opts appOptions) (*app, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	a := &app{settings: settings, logger: logger}
	a.taxonomy = taxonomy.LoadOrEmpty(settings.TaxonomyPath, logger)

	lookup, configured, err := newPlaceLookup(ctx, settings.Places, logger)
	if err != nil {
		return nil, err
	}
	a.lookupConfigured = configured
	if !configured && opts.requireLookup {
		return nil, common.NewUserError(
			"Google API key missing: set places.api_key or GOOGLE_API_KEY, or enable places.demo",
			common.ErrMissingConfig)
	}

	direct, err := matcher.NewDirectTypeMapper()
	if err != nil {
		return nil, fmt.Errorf("failed to load type mapping: %w", err)
	}

	resolverOpts := engine.Options{
		Places:   lookup,
		Direct:   direct,
		Keywords: matcher.NewKeywordMatcher(a.taxonomy.Entries()),
		Recorder: opts.recorder,
		Logger:   logger,
		Config: engine.Config{
			NearbyRadius:     settings.Places.NearbyRadius,
			NearbyMaxResults: settings.Places.NearbyMaxResults,
		},
	}

	a.gateway = newGateway(ctx, settings, a.taxonomy, logger)
	if a.gateway != nil {
		resolverOpts.AI = a.gateway
	}

	a.resolver, err = engine.NewResolver(resolverOpts)
	if err != nil {
		return nil, err
	}

	if opts.history && settings.HistoryEnabled() {
		store, err := openHistory(ctx, settings.DatabasePath)
		if err != nil {
			logger.Warn("History disabled", "path", settings.DatabasePath, "error", err)
		} else {
			a.store = store
		}
	}

	return a, nil
}

// newPlaceLookup picks the Google client, the demo lookup or, when neither is
// available, a lookup that always fails.
func newPlaceLookup(ctx context.Context, s config.PlacesSettings, logger *slog.Logger) (engine.PlaceLookup, bool, error) {
	switch {
	case s.HasKey():
		executor := resilience.NewExecutor(resilience.Config{
			RetryMaxAttempts:    s.MaxRetries,
			RetryInitialBackoff: 250 * time.Millisecond,
			RetryMaxBackoff:     2 * time.Second,
			BreakerEnabled:      true,
		})
		client, err := places.NewGoogleClient(ctx, places.Config{
			Executor:      executor,
			Logger:        logger,
			APIKey:        s.APIKey,
			Endpoint:      s.Endpoint,
			TextTimeout:   s.TextTimeout,
			NearbyTimeout: s.NearbyTimeout,
		})
		if err != nil {
			return nil, false, err
		}
		return client, true, nil
	case s.UseDemo():
		logger.Warn("No Google API key configured, serving demo data")
		return places.NewDemoLookup(), true, nil
	default:
		return unconfiguredLookup{}, false, nil
	}
}

// newGateway builds the AI tier. Any setup failure disables it rather than the
// whole lookup.
func newGateway(ctx context.Context, s config.Settings, tax *taxonomy.Taxonomy, logger *slog.Logger) *llm.Gateway {
	if s.LLM.Disabled {
		return nil
	}

	client, err := llm.NewClient(ctx, llmConfig(s.LLM))
	if err != nil {
		logger.Warn("AI classification disabled", "provider", s.LLM.Provider, "error", err)
		return nil
	}

	return llm.NewGateway(client, llm.GatewayOptions{
		Cache:    llm.NewCache(s.CacheMaxEntries),
		Taxonomy: tax,
		Executor: resilience.NewExecutor(resilience.Config{
			RetryMaxAttempts:    s.LLM.MaxRetries,
			RetryInitialBackoff: time.Second,
			RetryMaxBackoff:     5 * time.Second,
			BreakerEnabled:      true,
		}),
		Logger:    logger,
		Timeout:   s.LLM.Timeout,
		RateLimit: s.LLM.RateLimit,
	})
}

func llmConfig(s config.LLMSettings) llm.Config {
	return llm.Config{
		Provider:       s.Provider,
		APIKey:         s.APIKey,
		Model:          s.Model,
		Endpoint:       s.Endpoint,
		ClaudeCodePath: s.ClaudeCodePath,
		Temperature:    s.Temperature,
		MaxTokens:      s.MaxTokens,
		Timeout:        s.Timeout,
		RateLimit:      s.RateLimit,
		MaxRetries:     s.MaxRetries,
	}
}

func openHistory(ctx context.Context, path string) (*storage.SQLiteStorage, error) {
	store, err := storage.NewSQLiteStorage(path)
	if err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// record stores an outcome when history is enabled. Failures are logged only.
func (a *app) record(ctx context.Context, requestID, address string, outcome model.Outcome) {
	if a.store == nil || strings.TrimSpace(address) == "" {
		return
	}
	if _, err := a.store.RecordLookup(ctx, requestID, address, outcome); err != nil {
		a.logger.Warn("Failed to record lookup", "address", address, "error", err)
	}
}

func (a *app) Close() error {
	var errs []error
	if a.gateway != nil {
		stats := a.gateway.Stats()
		a.logger.Debug("AI gateway stats",
			"external_calls", stats.ExternalCalls,
			"cache_hits", stats.CacheHits,
			"failures", stats.Failures,
			"cached", a.gateway.CacheSize())
	}
	if a.store != nil {
		errs = append(errs, a.store.Close())
	}
	return errors.Join(errs...)
}

type unconfiguredLookup struct{}

func (unconfiguredLookup) SearchText(context.Context, string, int) ([]model.PlaceRecord, error) {
	return nil, fmt.Errorf("%w: Google API key", common.ErrMissingConfig)
}

func (unconfiguredLookup) SearchNearby(context.Context, model.NearbyQuery) ([]model.PlaceRecord, error) {
	return nil, fmt.Errorf("%w: Google API key", common.ErrMissingConfig)
}
