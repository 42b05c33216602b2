package models

import (
	"net/url"
	"strings"

	"github.com/temoto/robotstxt"
)

// UserAgent is the token used when matching robots.txt groups.
const UserAgent = "scout"

// SearchEndpoint describes one discovered way to submit a search request.
type SearchEndpoint struct {
	// URL is the absolute submit endpoint.
	URL string `json:"url"`

	// Method is "GET" or "POST".
	Method string `json:"method"`

	// Param is the query-string / form parameter the search text binds to.
	Param string `json:"param"`

	// Selector is the CSS selector of the input element the endpoint was
	// discovered from. The browser strategy reuses it to fill the field.
	Selector string `json:"selector,omitempty"`
}

// WebsiteProfile is the analyzer's summary of a site's search capabilities.
// It is built once per run and must not be mutated afterwards; strategies
// read it concurrently without locking.
type WebsiteProfile struct {
	// Domain is the registrable host of the target URL.
	Domain string `json:"domain"`

	// BaseURL is the normalized homepage URL the analysis started from.
	BaseURL string `json:"base_url"`

	// HasSearchForm is true when a search form was detected statically.
	HasSearchForm bool `json:"has_search_form"`

	// SearchEndpoints lists discovered submit endpoints in detection order.
	SearchEndpoints []SearchEndpoint `json:"search_endpoints"`

	// SearchParams maps parameter names that drive search to a placeholder
	// value. Populated by form detection and the query-parameter probe.
	SearchParams map[string]string `json:"search_params"`

	// RequiresJS is true when the rendered page carries materially more
	// visible text than the static fetch, or when static analysis failed.
	RequiresJS bool `json:"requires_js"`

	// SitemapURLs are page URLs collected from sitemap files, capped.
	SitemapURLs []string `json:"sitemap_urls"`

	// RobotsRules maps path prefixes to allow (true) / deny (false).
	// This is the serializable view; Allowed uses the parsed robots data
	// when available.
	RobotsRules map[string]bool `json:"robots_rules,omitempty"`

	robots *robotstxt.RobotsData
}

// SetRobots attaches parsed robots.txt data. Called once by the analyzer
// before the profile is published.
func (p *WebsiteProfile) SetRobots(data *robotstxt.RobotsData) {
	p.robots = data
}

// Allowed reports whether robots.txt permits fetching the given URL or path.
// A profile without robots data allows everything.
func (p *WebsiteProfile) Allowed(rawURL string) bool {
	path := rawURL
	if u, err := url.Parse(rawURL); err == nil && u.Path != "" {
		path = u.Path
		if u.RawQuery != "" {
			path += "?" + u.RawQuery
		}
	}
	if p.robots != nil {
		return p.robots.TestAgent(path, UserAgent)
	}
	// Fall back to the prefix map (profiles rebuilt from serialized output).
	allowed := true
	matched := ""
	for prefix, allow := range p.RobotsRules {
		if strings.HasPrefix(path, prefix) && len(prefix) > len(matched) {
			matched = prefix
			allowed = allow
		}
	}
	return allowed
}
