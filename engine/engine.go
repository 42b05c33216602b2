// Package engine orchestrates a full run: analyze the target website,
// pick eligible strategies, execute every search term through a bounded
// worker pool, and assemble the output document.
package engine

import (
	"github.com/use-agent/scout/analyzer"
	"github.com/use-agent/scout/browser"
	"github.com/use-agent/scout/cache"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/extractor"
	"github.com/use-agent/scout/fetch"
	"github.com/use-agent/scout/strategy"
)

// Engine ties the analyzer, strategy registry, and extractor together.
type Engine struct {
	cfg       *config.Config
	analyzer  *analyzer.Analyzer
	registry  *strategy.Registry
	extractor *extractor.Extractor
	limiter   *fetch.DomainLimiter
	browser   browser.Client
}

// New wires an Engine from configuration. The browser client may be nil;
// the browser strategy is then unavailable and JS detection degrades to
// static heuristics.
func New(cfg *config.Config, client fetch.Client, bc browser.Client) *Engine {
	respCache := cache.New(cfg.Fetch.CacheEntries, cfg.Fetch.CacheTTL)
	limiter := fetch.NewDomainLimiter(cfg.Run.MinDomainDelay)
	retry := fetch.RetryPolicy{
		MaxRetries: cfg.Run.MaxRetries,
		BaseDelay:  cfg.Run.RetryBaseDelay,
	}
	deps := &strategy.Deps{
		Client:  client,
		Limiter: limiter,
		Browser: bc,
		Retry:   retry,
	}
	return &Engine{
		cfg:       cfg,
		analyzer:  analyzer.New(client, bc, respCache, limiter, retry, cfg.Analyzer),
		registry:  strategy.NewRegistry(deps),
		extractor: extractor.New(client, limiter, retry, cfg.Quality),
		limiter:   limiter,
		browser:   bc,
	}
}

// Close releases the engine's background resources.
func (e *Engine) Close() {
	e.limiter.Stop()
	if e.browser != nil {
		e.browser.Close()
	}
}
