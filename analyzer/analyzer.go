// Package analyzer profiles a website's search surface: robots rules,
// static search forms, interpreted query parameters, sitemaps, and
// whether the site needs a browser to render content.
package analyzer

import (
	"bytes"
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/scout/browser"
	"github.com/use-agent/scout/cache"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/fetch"
	"github.com/use-agent/scout/models"
)

// Analyzer builds a WebsiteProfile from a homepage URL. Network failures
// degrade the profile instead of failing the run.
type Analyzer struct {
	client  fetch.Client
	browser browser.Client
	cache   *cache.Cache
	limiter *fetch.DomainLimiter
	retry   fetch.RetryPolicy
	cfg     config.AnalyzerConfig
}

// New returns an Analyzer. The browser client may be nil (JS detection
// then relies on static heuristics only), as may the limiter.
func New(client fetch.Client, bc browser.Client, respCache *cache.Cache, limiter *fetch.DomainLimiter, retry fetch.RetryPolicy, cfg config.AnalyzerConfig) *Analyzer {
	return &Analyzer{client: client, browser: bc, cache: respCache, limiter: limiter, retry: retry, cfg: cfg}
}

// Analyze profiles the website at rawURL. It only returns an error for an
// unusable URL; any network or parse failure yields a degraded profile
// with RequiresJS set so the browser strategy stays available.
func (a *Analyzer) Analyze(ctx context.Context, rawURL string) (*models.WebsiteProfile, error) {
	baseURL, domain, err := normalizeTarget(rawURL)
	if err != nil {
		return nil, err
	}

	profile := &models.WebsiteProfile{
		Domain:       domain,
		BaseURL:      baseURL,
		SearchParams: map[string]string{},
	}

	robots := a.fetchRobots(ctx, baseURL)
	profile.RobotsRules = robots.rules
	profile.SetRobots(robots.data)

	home, err := a.fetchCached(ctx, baseURL)
	if err != nil || home.StatusCode != 200 || !fetch.IsHTML(home.Header.Get("Content-Type")) {
		slog.Warn("homepage fetch failed, degrading to browser-only profile",
			"url", baseURL, "error", err)
		profile.RequiresJS = true
		profile.SitemapURLs = a.collectSitemaps(ctx, baseURL, robots.sitemaps)
		return profile, nil
	}

	if doc, derr := goquery.NewDocumentFromReader(bytes.NewReader(home.Body)); derr == nil {
		endpoints, params := a.detectForms(doc, home.FinalURL)
		profile.SearchEndpoints = endpoints
		for k, v := range params {
			profile.SearchParams[k] = v
		}
		profile.HasSearchForm = len(endpoints) > 0
	} else {
		slog.Debug("homepage parse failed", "url", baseURL, "error", derr)
	}

	for _, param := range a.probeQueryParams(ctx, baseURL) {
		if _, exists := profile.SearchParams[param]; !exists {
			profile.SearchParams[param] = ""
			profile.SearchEndpoints = append(profile.SearchEndpoints, models.SearchEndpoint{
				URL:    baseURL,
				Method: "GET",
				Param:  param,
			})
		}
	}

	profile.SitemapURLs = a.collectSitemaps(ctx, baseURL, robots.sitemaps)
	profile.RequiresJS = a.detectRequiresJS(ctx, baseURL, home.Body)

	slog.Info("website analyzed",
		"domain", profile.Domain,
		"has_search_form", profile.HasSearchForm,
		"search_params", len(profile.SearchParams),
		"sitemap_urls", len(profile.SitemapURLs),
		"requires_js", profile.RequiresJS)
	return profile, nil
}

// normalizeTarget validates the target URL, defaulting the scheme to
// https when missing, and extracts the domain.
func normalizeTarget(rawURL string) (baseURL, domain string, err error) {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return "", "", models.NewError(models.ErrCodeInvalidInput, "target URL is empty", nil)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, perr := url.Parse(raw)
	if perr != nil || u.Host == "" {
		return "", "", models.NewError(models.ErrCodeInvalidInput, "invalid target URL: "+rawURL, perr)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", "", models.NewError(models.ErrCodeInvalidInput, "unsupported scheme: "+u.Scheme, nil)
	}
	return u.Scheme + "://" + u.Host, fetch.Domain(raw), nil
}
