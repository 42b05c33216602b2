package extractor

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/use-agent/scout/fetch"
	"github.com/use-agent/scout/models"
)

const samplePage = `<!DOCTYPE html>
<html lang="en">
<head>
<title>Beyonce - Halo</title>
<meta name="description" content="Official page for Halo by Beyonce, with lyrics and credits.">
<meta name="keywords" content="beyonce, halo, lyrics">
<meta name="author" content="Editorial Team">
<meta property="article:published_time" content="2024-01-15">
</head>
<body>
<img src="/img/cover.jpg"><img src="/img/band.jpg">
<a href="/songs/halo/credits">Credits</a>
<a href="https://example.org/external">External</a>
<p>Halo was released in 2008.</p>
</body>
</html>`

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	client := fetch.NewHTTPClient("")
	return New(client, nil, fetch.RetryPolicy{MaxRetries: 1}, testQualityConfig())
}

func TestExtract(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, samplePage)
	}))
	defer srv.Close()

	ex := newTestExtractor(t)
	term := &models.SearchTerm{ID: 7, Fields: map[string]string{"Artist": "Beyonce", "Title": "Halo"}}
	candidate := &models.CandidateResult{URL: srv.URL + "/songs/halo", Title: "Halo", SourceURL: srv.URL}

	record, err := ex.Extract(context.Background(), term, "Beyonce Halo", candidate)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if record.SearchTermID != 7 {
		t.Errorf("SearchTermID = %d", record.SearchTermID)
	}
	if record.Title != "Beyonce - Halo" {
		t.Errorf("Title = %q, want page title", record.Title)
	}
	if !strings.Contains(record.Description, "Official page for Halo") {
		t.Errorf("Description = %q", record.Description)
	}
	if record.Page.Keywords != "beyonce, halo, lyrics" {
		t.Errorf("Keywords = %q", record.Page.Keywords)
	}
	if record.Page.Language != "en" {
		t.Errorf("Language = %q", record.Page.Language)
	}
	if record.Page.Author != "Editorial Team" {
		t.Errorf("Author = %q", record.Page.Author)
	}
	if len(record.Page.ImageURLs) != 2 {
		t.Errorf("ImageURLs = %v", record.Page.ImageURLs)
	}
	for _, u := range record.Page.ImageURLs {
		if !strings.HasPrefix(u, srv.URL) {
			t.Errorf("image URL not absolute: %q", u)
		}
	}
	if record.QualityScore <= 50 {
		t.Errorf("QualityScore = %v, expected high score for rich page", record.QualityScore)
	}
	if record.ExtractedAt.IsZero() {
		t.Error("ExtractedAt not set")
	}
}

func TestExtractNonHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		fmt.Fprint(w, "%PDF-1.4")
	}))
	defer srv.Close()

	ex := newTestExtractor(t)
	term := &models.SearchTerm{ID: 1, Fields: map[string]string{"Title": "x"}}
	_, err := ex.Extract(context.Background(), term, "x", &models.CandidateResult{URL: srv.URL})
	if err == nil {
		t.Fatal("expected error for non-HTML page")
	}
	if models.CodeOf(err) != models.ErrCodeParse {
		t.Errorf("code = %s, want %s", models.CodeOf(err), models.ErrCodeParse)
	}
}

func TestExtractNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	ex := newTestExtractor(t)
	term := &models.SearchTerm{ID: 1, Fields: map[string]string{"Title": "x"}}
	_, err := ex.Extract(context.Background(), term, "x", &models.CandidateResult{URL: srv.URL + "/gone"})
	if err == nil {
		t.Fatal("expected error for 404 page")
	}
}

func TestImageLinkCaps(t *testing.T) {
	var sb strings.Builder
	sb.WriteString(`<html><head><title>t</title></head><body>`)
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&sb, `<img src="/img/%d.jpg"><a href="/page/%d">page %d</a>`, i, i, i)
	}
	sb.WriteString(`</body></html>`)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, sb.String())
	}))
	defer srv.Close()

	ex := newTestExtractor(t)
	term := &models.SearchTerm{ID: 1, Fields: map[string]string{"Title": "x"}}
	record, err := ex.Extract(context.Background(), term, "x", &models.CandidateResult{URL: srv.URL})
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if len(record.Page.ImageURLs) != maxImageURLs {
		t.Errorf("ImageURLs len = %d, want %d", len(record.Page.ImageURLs), maxImageURLs)
	}
	if len(record.Page.LinkURLs) != maxLinkURLs {
		t.Errorf("LinkURLs len = %d, want %d", len(record.Page.LinkURLs), maxLinkURLs)
	}
}
