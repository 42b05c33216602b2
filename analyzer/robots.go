package analyzer

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"

	"github.com/use-agent/scout/fetch"
	"github.com/use-agent/scout/models"
)

// robotsInfo carries everything learned from robots.txt in one pass:
// the parsed data for Allowed checks, a serializable path->allowed map,
// and any Sitemap: directives.
type robotsInfo struct {
	data     *robotstxt.RobotsData
	rules    map[string]bool
	sitemaps []string
}

// fetchRobots retrieves and parses <origin>/robots.txt. Absence or any
// fetch failure means no restrictions: everything is allowed.
func (a *Analyzer) fetchRobots(ctx context.Context, baseURL string) *robotsInfo {
	info := &robotsInfo{rules: map[string]bool{}}

	u, err := url.Parse(baseURL)
	if err != nil {
		return info
	}
	robotsURL := u.Scheme + "://" + u.Host + "/robots.txt"

	resp, err := a.fetchCached(ctx, robotsURL)
	if err != nil || resp.StatusCode != 200 {
		slog.Debug("robots.txt unavailable, allowing all", "url", robotsURL)
		return info
	}

	data, err := robotstxt.FromBytes(resp.Body)
	if err != nil {
		slog.Debug("robots.txt parse failed, allowing all", "url", robotsURL, "error", err)
		return info
	}
	info.data = data
	info.sitemaps = data.Sitemaps

	// Keep a flat prefix map alongside the parsed data so the profile
	// stays serializable in run output.
	group := data.FindGroup(models.UserAgent)
	for _, line := range strings.Split(string(resp.Body), "\n") {
		line = strings.TrimSpace(line)
		lower := strings.ToLower(line)
		var path string
		var allowed bool
		switch {
		case strings.HasPrefix(lower, "disallow:"):
			path = strings.TrimSpace(line[len("disallow:"):])
			allowed = false
		case strings.HasPrefix(lower, "allow:"):
			path = strings.TrimSpace(line[len("allow:"):])
			allowed = true
		default:
			continue
		}
		if path == "" {
			continue
		}
		if group != nil {
			allowed = group.Test(path)
		}
		info.rules[path] = allowed
	}
	return info
}

// get issues a rate-limited GET with transient-failure retries.
func (a *Analyzer) get(ctx context.Context, rawURL string) (*fetch.Response, error) {
	if a.limiter != nil {
		if err := a.limiter.Wait(ctx, fetch.Domain(rawURL)); err != nil {
			return nil, err
		}
	}
	return fetch.DoWithRetry(ctx, a.client, &fetch.Request{Method: "GET", URL: rawURL}, a.retry)
}

// fetchCached runs a GET through the response cache.
func (a *Analyzer) fetchCached(ctx context.Context, rawURL string) (*fetch.Response, error) {
	if a.cache != nil {
		if cached, ok := a.cache.Get(rawURL); ok {
			return cached, nil
		}
	}
	resp, err := a.get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	if a.cache != nil && resp.StatusCode == 200 {
		a.cache.Set(rawURL, resp)
	}
	return resp, nil
}
