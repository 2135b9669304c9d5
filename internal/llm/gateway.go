package llm

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/Veraticus/business-anzsic-locator/internal/common"
	"github.com/Veraticus/business-anzsic-locator/internal/model"
	"github.com/Veraticus/business-anzsic-locator/internal/resilience"
)

// PlaceholderTitle is used when the provider returns a code without a title that
// the taxonomy does not know either.
const PlaceholderTitle = "AI Suggested Classification"

const defaultGatewayTimeout = 30 * time.Second

// CodeLookup resolves a code to its canonical taxonomy entry.
type CodeLookup interface {
	Lookup(code string) (model.TaxonomyEntry, bool)
}

// GatewayOptions configures a Gateway.
type GatewayOptions struct {
	Cache     *Cache
	Taxonomy  CodeLookup
	Executor  *resilience.Executor
	Logger    *slog.Logger
	Timeout   time.Duration
	RateLimit int
}

// GatewayStats counts gateway activity since construction.
type GatewayStats struct {
	ExternalCalls int64
	CacheHits     int64
	Failures      int64
}

// Gateway classifies batches of businesses with one provider call per batch.
type Gateway struct {
	client   Client
	cache    *Cache
	taxonomy CodeLookup
	executor *resilience.Executor
	limiter  *rate.Limiter
	logger   *slog.Logger
	timeout  time.Duration

	calls     atomic.Int64
	cacheHits atomic.Int64
	failures  atomic.Int64
}

// NewGateway wires a provider client to the cache and taxonomy.
func NewGateway(client Client, opts GatewayOptions) *Gateway {
	cache := opts.Cache
	if cache == nil {
		cache = NewCache(0)
	}
	executor := opts.Executor
	if executor == nil {
		executor = resilience.NewExecutor(resilience.DefaultConfig())
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}

	return &Gateway{
		client:   client,
		cache:    cache,
		taxonomy: opts.Taxonomy,
		executor: executor,
		limiter:  newRateLimiter(opts.RateLimit),
		logger:   common.OrDefault(opts.Logger),
		timeout:  timeout,
	}
}

// ClassifyBatch returns business name -> classification for the candidates it could
// classify. Cached candidates never reach the provider and all others share a single
// call. Provider or parse failures yield only the cached part of the answer.
func (g *Gateway) ClassifyBatch(ctx context.Context, candidates []model.BatchCandidate) map[string]model.Classification {
	results := make(map[string]model.Classification, len(candidates))

	var misses []model.BatchCandidate
	for _, c := range candidates {
		if cached, ok := g.cache.Get(c.Name, c.Address); ok {
			g.cacheHits.Add(1)
			g.logger.Debug("ai cache hit", "business", c.Name, "address", c.Address)
			results[c.Name] = cached
			continue
		}
		misses = append(misses, c)
	}

	if len(misses) == 0 || g.client == nil {
		return results
	}

	parsed, err := g.complete(ctx, misses)
	if err != nil {
		g.failures.Add(1)
		g.logger.Warn("ai batch classification failed",
			"error", err,
			"pending", len(misses))
		return results
	}

	for _, m := range misses {
		c, ok := parsed[m.Name]
		if !ok {
			continue
		}
		c = g.reconcile(c)
		g.cache.Put(m.Name, m.Address, c)
		results[m.Name] = c
	}

	g.logger.Info("ai batch classified",
		"requested", len(misses),
		"classified", len(parsed))

	return results
}

func (g *Gateway) complete(ctx context.Context, misses []model.BatchCandidate) (map[string]model.Classification, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	prompt := buildBatchPrompt(misses)
	var text string
	g.calls.Add(1)
	err := g.executor.Execute(ctx, "llm.complete", func(ctx context.Context) error {
		out, err := g.client.Complete(ctx, prompt)
		if err != nil {
			return markRetryable(err)
		}
		text = out
		return nil
	})
	if err != nil {
		return nil, err
	}

	return parseBatchResponse(text)
}

// reconcile replaces the provider's title with the taxonomy's when the code is known.
func (g *Gateway) reconcile(c model.Classification) model.Classification {
	if c.IsUnknown() {
		return model.UnknownClassification()
	}
	if g.taxonomy != nil {
		if entry, ok := g.taxonomy.Lookup(c.Code); ok {
			return entry.Classification()
		}
	}
	if c.Title == "" {
		c.Title = PlaceholderTitle
	}
	return c
}

// Stats returns a snapshot of the gateway counters.
func (g *Gateway) Stats() GatewayStats {
	return GatewayStats{
		ExternalCalls: g.calls.Load(),
		CacheHits:     g.cacheHits.Load(),
		Failures:      g.failures.Load(),
	}
}

// CacheSize returns the number of memoized classifications.
func (g *Gateway) CacheSize() int {
	return g.cache.Len()
}
