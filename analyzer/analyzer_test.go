package analyzer

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/fetch"
)

func testAnalyzerConfig() config.AnalyzerConfig {
	return config.AnalyzerConfig{
		ProbeThreshold:   0.15,
		JSDetectionRatio: 2.0,
		MaxSitemapURLs:   100,
		FieldConfidence:  0.5,
	}
}

func testRetryPolicy() fetch.RetryPolicy {
	return fetch.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func newTestAnalyzer() *Analyzer {
	return New(fetch.NewHTTPClient(""), nil, nil, nil, testRetryPolicy(), testAnalyzerConfig())
}

const testHomepage = `<!DOCTYPE html>
<html lang="en"><head><title>Music Store</title></head>
<body>
<form action="/find" method="get" id="site-search">
  <input type="search" name="search" placeholder="Search products">
</form>
<p>Welcome to the music store. We stock vinyl, CDs, and merchandise from
thousands of artists. Browse the catalog or use the search box above to
find a specific release. New arrivals are added every week, and our staff
picks highlight records worth a listen. Shipping is free on orders over
fifty dollars and returns are accepted within thirty days.</p>
</body></html>`

func testSiteHandler(t *testing.T) http.Handler {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, testHomepage)
	})
	mux.HandleFunc("/robots.txt", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "User-agent: *\nDisallow: /private/\nAllow: /\nSitemap: http://%s/sitemap.xml\n", r.Host)
	})
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>http://%s/albums/beyonce-halo</loc></url>
  <url><loc>http://%s/albums/other-record</loc></url>
</urlset>`, r.Host, r.Host)
	})
	return mux
}

func TestAnalyze(t *testing.T) {
	srv := httptest.NewServer(testSiteHandler(t))
	defer srv.Close()

	a := newTestAnalyzer()
	profile, err := a.Analyze(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if !profile.HasSearchForm {
		t.Error("search form not detected")
	}
	if len(profile.SearchEndpoints) == 0 {
		t.Fatal("no search endpoints")
	}
	ep := profile.SearchEndpoints[0]
	if !strings.HasSuffix(ep.URL, "/find") {
		t.Errorf("endpoint URL = %q, want .../find", ep.URL)
	}
	if ep.Method != "GET" || ep.Param != "search" {
		t.Errorf("endpoint = %+v", ep)
	}
	if len(profile.SitemapURLs) != 2 {
		t.Errorf("SitemapURLs = %v", profile.SitemapURLs)
	}
	if profile.RequiresJS {
		t.Error("content-rich static page flagged as RequiresJS")
	}
	if profile.Allowed(srv.URL + "/private/secret") {
		t.Error("robots disallow not applied")
	}
	if !profile.Allowed(srv.URL + "/albums/beyonce-halo") {
		t.Error("allowed path rejected")
	}
}

func TestAnalyzeDegradesWhenHomepageUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	a := newTestAnalyzer()
	profile, err := a.Analyze(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Analyze should degrade, not fail: %v", err)
	}
	if profile.HasSearchForm {
		t.Error("degraded profile should not claim a search form")
	}
	if !profile.RequiresJS {
		t.Error("degraded profile should keep the browser path open")
	}
}

func TestAnalyzeInvalidURL(t *testing.T) {
	a := newTestAnalyzer()
	for _, bad := range []string{"", "ftp://example.com", "://nope"} {
		if _, err := a.Analyze(context.Background(), bad); err == nil {
			t.Errorf("Analyze(%q) should fail", bad)
		}
	}
}

func TestProbeDetectsInterpretedParam(t *testing.T) {
	results := `<html><head><title>Results</title></head><body><div class="results">` +
		strings.Repeat(`<li><a href="/item">result item</a></li>`, 50) +
		`</div></body></html>`

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if r.URL.Query().Get("q") != "" {
			fmt.Fprint(w, results)
			return
		}
		fmt.Fprint(w, testHomepage)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := newTestAnalyzer()
	hits := a.probeQueryParams(context.Background(), srv.URL)
	if len(hits) != 1 || hits[0] != "q" {
		t.Errorf("probe hits = %v, want [q]", hits)
	}
}

func TestProbeIgnoresStaticSite(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, testHomepage)
	}))
	defer srv.Close()

	a := newTestAnalyzer()
	if hits := a.probeQueryParams(context.Background(), srv.URL); len(hits) != 0 {
		t.Errorf("probe hits on a parameter-blind site: %v", hits)
	}
}

func TestAnalyzeRetriesTransientHomepageError(t *testing.T) {
	var homeCalls atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		if homeCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, testHomepage)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := newTestAnalyzer()
	profile, err := a.Analyze(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if !profile.HasSearchForm {
		t.Error("one transient 500 should be retried, not degrade the profile")
	}
	if profile.RequiresJS {
		t.Error("profile degraded to browser-only despite a recoverable homepage")
	}
	if homeCalls.Load() < 2 {
		t.Errorf("homepage fetched %d times, expected a retry", homeCalls.Load())
	}
}

func TestAnalyzerFetchesAreRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, testHomepage)
	}))
	defer srv.Close()

	minDelay := 50 * time.Millisecond
	limiter := fetch.NewDomainLimiter(minDelay)
	defer limiter.Stop()

	a := New(fetch.NewHTTPClient(""), nil, nil, limiter, testRetryPolicy(), testAnalyzerConfig())
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 3; i++ {
		if _, err := a.get(ctx, srv.URL); err != nil {
			t.Fatalf("get: %v", err)
		}
	}
	// First request is free (burst 1); the next two each wait minDelay.
	if elapsed := time.Since(start); elapsed < 2*minDelay {
		t.Errorf("3 fetches finished in %v, want at least %v between same-domain requests", elapsed, 2*minDelay)
	}
}

func TestSitemapIndexRecursion(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <sitemap><loc>http://%s/sitemap-a.xml</loc></sitemap>
  <sitemap><loc>http://%s/sitemap-b.xml</loc></sitemap>
</sitemapindex>`, r.Host, r.Host)
	})
	for _, name := range []string{"a", "b"} {
		name := name
		mux.HandleFunc("/sitemap-"+name+".xml", func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprintf(w, `<?xml version="1.0"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url><loc>http://%s/%s/page-1</loc></url>
  <url><loc>http://%s/%s/page-2</loc></url>
</urlset>`, r.Host, name, r.Host, name)
		})
	}
	srv := httptest.NewServer(mux)
	defer srv.Close()

	a := newTestAnalyzer()
	pages := a.collectSitemaps(context.Background(), srv.URL, nil)
	if len(pages) != 4 {
		t.Errorf("pages = %v, want 4 entries", pages)
	}
}

func TestSitemapCap(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
		for i := 0; i < 50; i++ {
			fmt.Fprintf(w, "<url><loc>http://%s/page-%d</loc></url>", r.Host, i)
		}
		fmt.Fprint(w, `</urlset>`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testAnalyzerConfig()
	cfg.MaxSitemapURLs = 10
	a := New(fetch.NewHTTPClient(""), nil, nil, nil, testRetryPolicy(), cfg)
	pages := a.collectSitemaps(context.Background(), srv.URL, nil)
	if len(pages) != 10 {
		t.Errorf("pages = %d, want cap of 10", len(pages))
	}
}
