package strategy

import (
	"context"
	"log/slog"

	"github.com/use-agent/scout/fetch"
	"github.com/use-agent/scout/models"
)

// FormStrategy submits the search through a statically detected form
// endpoint. It is the cheapest path and therefore tried first.
type FormStrategy struct {
	deps *Deps
}

func (s *FormStrategy) Name() string { return "form" }

// Supports requires a detected form with at least one endpoint that
// robots.txt permits.
func (s *FormStrategy) Supports(profile *models.WebsiteProfile) bool {
	if !profile.HasSearchForm {
		return false
	}
	for _, ep := range profile.SearchEndpoints {
		if ep.Param != "" && profile.Allowed(ep.URL) {
			return true
		}
	}
	return false
}

// Execute tries each permitted endpoint in detection order and returns
// the first endpoint's non-empty result set.
func (s *FormStrategy) Execute(ctx context.Context, profile *models.WebsiteProfile, query string, limit int) ([]models.CandidateResult, error) {
	var lastErr error
	for _, ep := range profile.SearchEndpoints {
		if ep.Param == "" || !profile.Allowed(ep.URL) {
			continue
		}
		req := &fetch.Request{
			Method: ep.Method,
			URL:    ep.URL,
			Params: map[string]string{ep.Param: query},
		}
		resp, err := s.deps.do(ctx, profile.Domain, req)
		if err != nil {
			slog.Debug("form endpoint failed", "url", ep.URL, "error", err)
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
