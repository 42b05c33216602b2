package strategy

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/use-agent/scout/browser"
	"github.com/use-agent/scout/fetch"
	"github.com/use-agent/scout/models"
)

// stubClient routes requests to a handler func, keeping strategy tests
// free of real sockets.
type stubClient struct {
	handler func(req *fetch.Request) (*fetch.Response, error)
}

func (s *stubClient) Do(_ context.Context, req *fetch.Request) (*fetch.Response, error) {
	return s.handler(req)
}

func htmlResponse(url, body string) (*fetch.Response, error) {
	return &fetch.Response{
		StatusCode: 200,
		Body:       []byte(body),
		FinalURL:   url,
	}, nil
}

type stubBrowser struct {
	render func(req *browser.RenderRequest) (*browser.RenderResult, error)
}

func (s *stubBrowser) Render(_ context.Context, req *browser.RenderRequest) (*browser.RenderResult, error) {
	return s.render(req)
}

func (s *stubBrowser) Close() {}

func testDeps(handler func(req *fetch.Request) (*fetch.Response, error)) *Deps {
	return &Deps{
		Client: &stubClient{handler: handler},
		Retry:  fetch.RetryPolicy{MaxRetries: 0},
	}
}

func emptyPage(req *fetch.Request) (*fetch.Response, error) {
	return htmlResponse(req.URL, `<html><body><p>Nothing found for your search.</p></body></html>`)
}

func TestRegistryOrder(t *testing.T) {
	deps := testDeps(emptyPage)
	reg := NewRegistry(deps)
	var names []string
	for _, s := range reg.All() {
		names = append(names, s.Name())
	}
	want := []string{"form", "query_param", "sitemap"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("order = %v, want %v", names, want)
	}

	deps.Browser = &stubBrowser{}
	reg = NewRegistry(deps)
	all := reg.All()
	if got := all[len(all)-1].Name(); got != "browser" {
		t.Errorf("browser strategy not last: %v", got)
	}
}

func TestRegistryEligible(t *testing.T) {
	reg := NewRegistry(testDeps(emptyPage))
	profile := &models.WebsiteProfile{
		Domain:      "example.com",
		BaseURL:     "http://example.com",
		SitemapURLs: []string{"http://example.com/albums/halo"},
	}
	eligible := reg.Eligible(profile)
	if len(eligible) != 1 || eligible[0].Name() != "sitemap" {
		t.Errorf("eligible = %v, want only sitemap", eligible)
	}
}

func TestFormStrategyRobotsGate(t *testing.T) {
	s := &FormStrategy{deps: testDeps(emptyPage)}
	profile := &models.WebsiteProfile{
		Domain:        "example.com",
		BaseURL:       "http://example.com",
		HasSearchForm: true,
		SearchEndpoints: []models.SearchEndpoint{
			{URL: "http://example.com/search", Method: "GET", Param: "q"},
		},
		RobotsRules: map[string]bool{"/search": false},
	}
	if s.Supports(profile) {
		t.Error("form strategy should not support a robots-disallowed endpoint")
	}
	profile.RobotsRules = nil
	if !s.Supports(profile) {
		t.Error("form strategy should support an allowed endpoint")
	}
}

func TestFormStrategyParsesResults(t *testing.T) {
	resultsPage := `<html><body><div class="search-results">
<li><a href="/songs/halo">Halo by Beyonce</a></li>
<li><a href="/songs/halo-live">Halo (Live)</a></li>
</div></body></html>`

	var gotParam string
	deps := testDeps(func(req *fetch.Request) (*fetch.Response, error) {
		gotParam = req.Params["q"]
		return htmlResponse(req.URL, resultsPage)
	})
	s := &FormStrategy{deps: deps}
	profile := &models.WebsiteProfile{
		Domain:        "example.com",
		BaseURL:       "http://example.com",
		HasSearchForm: true,
		SearchEndpoints: []models.SearchEndpoint{
			{URL: "http://example.com/search", Method: "GET", Param: "q"},
		},
	}

	results, err := s.Execute(context.Background(), profile, "Beyonce Halo", 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if gotParam != "Beyonce Halo" {
		t.Errorf("query param sent = %q", gotParam)
	}
	if len(results) != 2 {
		t.Fatalf("results = %v", results)
	}
	if results[0].URL != "http://example.com/songs/halo" {
		t.Errorf("relative URL not resolved: %q", results[0].URL)
	}
	if results[0].SourceStrategy != "form" {
		t.Errorf("SourceStrategy = %q", results[0].SourceStrategy)
	}
}

func TestQueryParamStrategyDeterministicOrder(t *testing.T) {
	var urls []string
	deps := testDeps(func(req *fetch.Request) (*fetch.Response, error) {
		urls = append(urls, req.URL)
		return emptyPage(req)
	})
	s := &QueryParamStrategy{deps: deps}
	profile := &models.WebsiteProfile{
		Domain:       "example.com",
		BaseURL:      "http://example.com",
		SearchParams: map[string]string{"s": "", "q": ""},
	}

	if _, err := s.Execute(context.Background(), profile, "halo", 10); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(urls) != 2 || !strings.Contains(urls[0], "q=halo") || !strings.Contains(urls[1], "s=halo") {
		t.Errorf("trial order = %v, want q before s", urls)
	}
}

func TestBrowserStrategyFallback(t *testing.T) {
	resultsHTML := `<html><body><div class="results">
<li><a href="http://example.com/songs/halo">Halo by Beyonce</a></li>
</div></body></html>`

	var filled string
	deps := testDeps(emptyPage)
	deps.Browser = &stubBrowser{render: func(req *browser.RenderRequest) (*browser.RenderResult, error) {
		for _, in := range req.Interactions {
			if in.Type == "fill" {
				filled = in.Value
			}
		}
		return &browser.RenderResult{HTML: resultsHTML, FinalURL: "http://example.com/?q=halo"}, nil
	}}
	s := &BrowserStrategy{deps: deps}
	profile := &models.WebsiteProfile{Domain: "example.com", BaseURL: "http://example.com"}

	results, err := s.Execute(context.Background(), profile, "Beyonce Halo", 10)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if filled != "Beyonce Halo" {
		t.Errorf("filled value = %q", filled)
	}
	if len(results) != 1 || results[0].SourceStrategy != "browser" {
		t.Errorf("results = %v", results)
	}
}

// A site whose form and query-parameter searches come back empty should
// still resolve through the sitemap.
func TestFallbackThroughRegistry(t *testing.T) {
	deps := testDeps(emptyPage)
	reg := NewRegistry(deps)
	profile := &models.WebsiteProfile{
		Domain:        "example.com",
		BaseURL:       "http://example.com",
		HasSearchForm: true,
		SearchEndpoints: []models.SearchEndpoint{
			{URL: "http://example.com/search", Method: "GET", Param: "q"},
		},
		SearchParams: map[string]string{"q": ""},
		SitemapURLs: []string{
			"http://example.com/albums/beyonce-halo",
			"http://example.com/albums/unrelated-record",
		},
	}

	var winner string
	var results []models.CandidateResult
	for _, s := range reg.Eligible(profile) {
		r, err := s.Execute(context.Background(), profile, "beyonce halo", 10)
		if err != nil {
			t.Fatalf("%s: %v", s.Name(), err)
		}
		if len(r) > 0 {
			winner = s.Name()
			results = r
			break
		}
	}
	if winner != "sitemap" {
		t.Fatalf("winner = %q, want sitemap", winner)
	}
	if len(results) != 1 || results[0].URL != "http://example.com/albums/beyonce-halo" {
		t.Errorf("results = %v", results)
	}
}

func TestFormStrategySoftFailure(t *testing.T) {
	deps := testDeps(func(req *fetch.Request) (*fetch.Response, error) {
		return nil, fmt.Errorf("connection refused")
	})
	s := &FormStrategy{deps: deps}
	profile := &models.WebsiteProfile{
		Domain:        "example.com",
		BaseURL:       "http://example.com",
		HasSearchForm: true,
		SearchEndpoints: []models.SearchEndpoint{
			{URL: "http://example.com/search", Method: "GET", Param: "q"},
		},
	}
	if _, err := s.Execute(context.Background(), profile, "halo", 10); err == nil {
		t.Error("expected error when every endpoint fails")
	}
}
