package strategy

import (
	"context"
	"log/slog"
	"net/url"
	"sort"

	"github.com/use-agent/scout/models"
)

// QueryParamStrategy substitutes the query into parameters the analyzer
// probe found the site to interpret. It covers sites whose search works
// through a URL parameter without any visible form.
type QueryParamStrategy struct {
	deps *Deps
}

func (s *QueryParamStrategy) Name() string { return "query_param" }

// Supports requires at least one probed parameter whose target URL
// robots.txt permits.
func (s *QueryParamStrategy) Supports(profile *models.WebsiteProfile) bool {
	if len(profile.SearchParams) == 0 {
		return false
	}
	for _, u := range s.candidateURLs(profile, "probe") {
		if profile.Allowed(u) {
			return true
		}
	}
	return false
}

// Execute builds search URLs from the profile's parameters in sorted
// order for determinism and returns the first non-empty result set.
func (s *QueryParamStrategy) Execute(ctx context.Context, profile *models.WebsiteProfile, query string, limit int) ([]models.CandidateResult, error) {
	var lastErr error
	for _, searchURL := range s.candidateURLs(profile, query) {
		if !profile.Allowed(searchURL) {
			slog.Debug("robots disallows search URL, skipping", "url", searchURL)
			continue
		}
		resp, err := s.deps.get(ctx, profile.Domain, searchURL)
		if err != nil {
			lastErr = err
			continue
		}
		if resp.StatusCode != 200 {
			continue
		}
		results, err := parseResults(resp.Body, resp.FinalURL, s.Name(), limit)
		if err != nil {
			lastErr = err
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	if lastErr != nil {
		return nil, lastErr
	}
	return nil, nil
}

// candidateURLs expands the profile's search parameters into concrete
// URLs carrying the query. Parameter names are sorted so the trial order
// is stable across runs.
func (s *QueryParamStrategy) candidateURLs(profile *models.WebsiteProfile, query string) []string {
	params := make([]string, 0, len(profile.SearchParams))
	for p := range profile.SearchParams {
		params = append(params, p)
	}
	sort.Strings(params)

	var out []string
	for _, p := range params {
		u, err := url.Parse(profile.BaseURL)
		if err != nil {
			continue
		}
		q := u.Query()
		q.Set(p, query)
		u.RawQuery = q.Encode()
		out = append(out, u.String())
	}
	return out
}
