// Package strategy implements the search execution strategies and the
// ordered registry that selects between them. Strategies are tried in a
// fixed order per search term: form submission, query-parameter
// substitution, sitemap matching, then browser automation. The first
// strategy returning results wins.
package strategy

import (
	"context"

	"github.com/use-agent/scout/browser"
	"github.com/use-agent/scout/fetch"
	"github.com/use-agent/scout/models"
)

// Strategy is one way of executing a search against a profiled website.
type Strategy interface {
	// Name is the stable identifier recorded in run output.
	Name() string

	// Supports reports whether the profile carries what this strategy
	// needs. It must be cheap and side-effect free.
	Supports(profile *models.WebsiteProfile) bool

	// Execute runs the search and returns candidate results, at most
	// limit. An empty slice with nil error means the strategy ran but
	// found nothing; the caller falls through to the next strategy.
	Execute(ctx context.Context, profile *models.WebsiteProfile, query string, limit int) ([]models.CandidateResult, error)
}

// Deps bundles the shared plumbing strategies execute through.
type Deps struct {
	Client  fetch.Client
	Limiter *fetch.DomainLimiter
	Browser browser.Client
	Retry   fetch.RetryPolicy
}

// get issues a rate-limited, retried GET.
func (d *Deps) get(ctx context.Context, domain, rawURL string) (*fetch.Response, error) {
	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx, domain); err != nil {
			return nil, err
		}
	}
	return fetch.DoWithRetry(ctx, d.Client, &fetch.Request{Method: "GET", URL: rawURL}, d.Retry)
}

// do issues a rate-limited, retried request with the given method and params.
func (d *Deps) do(ctx context.Context, domain string, req *fetch.Request) (*fetch.Response, error) {
	if d.Limiter != nil {
		if err := d.Limiter.Wait(ctx, domain); err != nil {
			return nil, err
		}
	}
	return fetch.DoWithRetry(ctx, d.Client, req, d.Retry)
}

// Registry holds the strategies in their fixed trial order.
type Registry struct {
	strategies []Strategy
}

// NewRegistry builds the standard registry. The browser strategy is
// omitted when no browser client is available.
func NewRegistry(deps *Deps) *Registry {
	r := &Registry{}
	r.strategies = append(r.strategies,
		&FormStrategy{deps: deps},
		&QueryParamStrategy{deps: deps},
		&SitemapStrategy{deps: deps},
	)
	if deps.Browser != nil {
		r.strategies = append(r.strategies, &BrowserStrategy{deps: deps})
	}
	return r
}

// All returns every registered strategy in order.
func (r *Registry) All() []Strategy {
	return r.strategies
}

// Eligible returns, in order, the strategies whose Supports check passes
// for the profile.
func (r *Registry) Eligible(profile *models.WebsiteProfile) []Strategy {
	var out []Strategy
	for _, s := range r.strategies {
		if s.Supports(profile) {
			out = append(out, s)
		}
	}
	return out
}
