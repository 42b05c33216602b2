package strategy

import (
	"context"
	"log/slog"

	"github.com/use-agent/scout/browser"
	"github.com/use-agent/scout/models"
)

// commonSearchSelectors are tried when the profile carries no selector
// for a detected form field.
var commonSearchSelectors = []string{
	"input[type='search']",
	"input[name='q']",
	"input[name='s']",
	"input[name='query']",
	"input[name='search']",
	"[role='search'] input",
	"input[placeholder*='earch']",
}

// BrowserStrategy drives a headless browser: navigate to the homepage,
// fill the search field, submit, and parse the rendered result page.
// It is the most expensive path and always tried last.
type BrowserStrategy struct {
	deps *Deps
}

func (s *BrowserStrategy) Name() string { return "browser" }

// Supports is unconditional: the browser can attempt a search on any
// site, so it serves as the final fallback.
func (s *BrowserStrategy) Supports(profile *models.WebsiteProfile) bool {
	return true
}

// Execute renders the homepage, fills the first selector that matches,
// submits via Enter, waits for the DOM to settle, and parses the result.
func (s *BrowserStrategy) Execute(ctx context.Context, profile *models.WebsiteProfile, query string, limit int) ([]models.CandidateResult, error) {
	for _, selector := range s.selectors(profile) {
		req := &browser.RenderRequest{
			URL: profile.BaseURL,
			Interactions: []browser.Interaction{
				{Type: "fill", Selector: selector, Value: query},
				{Type: "submit", Selector: ""},
				{Type: "wait", Milliseconds: 1500},
			},
		}
		res, err := s.deps.Browser.Render(ctx, req)
		if err != nil {
			slog.Debug("browser search attempt failed", "selector", selector, "error", err)
			continue
		}
		results, perr := parseResults([]byte(res.HTML), res.FinalURL, s.Name(), limit)
		if perr != nil {
			continue
		}
		if len(results) > 0 {
			return results, nil
		}
	}
	return nil, nil
}

// selectors returns profile-discovered selectors first, then the common
// fallback list, deduplicated.
func (s *BrowserStrategy) selectors(profile *models.WebsiteProfile) []string {
	seen := map[string]struct{}{}
	var out []string
	add := func(sel string) {
		if sel == "" {
			return
		}
		if _, dup := seen[sel]; dup {
			return
		}
		seen[sel] = struct{}{}
		out = append(out, sel)
	}
	for _, ep := range profile.SearchEndpoints {
		add(ep.Selector)
	}
	for _, sel := range commonSearchSelectors {
		add(sel)
	}
	return out
}
