// Package extractor fetches candidate result pages and turns them into
// verified output records with parsed metadata and a quality score.
package extractor

import (
	"bytes"
	"context"
	"log/slog"
	nurl "net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/fetch"
	"github.com/use-agent/scout/models"
)

const (
	maxImageURLs = 10
	maxLinkURLs  = 20
)

// Extractor fetches candidate pages through the shared rate limiter and
// retry policy, then parses them into ExtractedRecords.
type Extractor struct {
	client  fetch.Client
	limiter *fetch.DomainLimiter
	retry   fetch.RetryPolicy
	quality config.QualityConfig
}

// New returns an Extractor. The limiter may be nil in tests.
func New(client fetch.Client, limiter *fetch.DomainLimiter, retry fetch.RetryPolicy, quality config.QualityConfig) *Extractor {
	return &Extractor{client: client, limiter: limiter, retry: retry, quality: quality}
}

// Extract fetches the candidate's page and builds the output record.
// A failed fetch or non-HTML response returns an error; the caller drops
// the candidate and moves on.
func (e *Extractor) Extract(ctx context.Context, term *models.SearchTerm, query string, candidate *models.CandidateResult) (*models.ExtractedRecord, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx, fetch.Domain(candidate.URL)); err != nil {
			return nil, err
		}
	}
	resp, err := fetch.DoWithRetry(ctx, e.client, &fetch.Request{Method: "GET", URL: candidate.URL}, e.retry)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != 200 {
		return nil, models.NewError(models.ErrCodeNavigation, "candidate page returned non-200", nil)
	}
	if !fetch.IsHTML(resp.Header.Get("Content-Type")) {
		return nil, models.NewError(models.ErrCodeParse, "candidate page is not HTML", nil)
	}

	record := e.buildRecord(resp.Body, resp.FinalURL, term, query, candidate)
	return record, nil
}

// buildRecord parses page HTML into an ExtractedRecord. It never fails:
// missing metadata just leaves fields empty and lowers the score.
func (e *Extractor) buildRecord(body []byte, pageURL string, term *models.SearchTerm, query string, candidate *models.CandidateResult) *models.ExtractedRecord {
	record := &models.ExtractedRecord{
		SearchTermID:   term.ID,
		SearchTermData: term.Fields,
		URL:            pageURL,
		Title:          candidate.Title,
		Query:          query,
		SourceURL:      candidate.SourceURL,
		ExtractedAt:    time.Now().UTC(),
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		slog.Debug("candidate page parse failed", "url", pageURL, "error", err)
		record.QualityScore = Score(record, query, e.quality)
		return record
	}

	if t := strings.TrimSpace(doc.Find("title").First().Text()); t != "" {
		record.Title = collapseSpace(t)
	}
	record.Description = firstMeta(doc,
		`meta[name="description"]`,
		`meta[property="og:description"]`,
		`meta[name="twitter:description"]`)

	record.Page = models.PageMetadata{
		Keywords:      firstMeta(doc, `meta[name="keywords"]`),
		Author:        firstMeta(doc, `meta[name="author"]`, `meta[property="article:author"]`),
		Published:     firstMeta(doc, `meta[property="article:published_time"]`, `meta[name="date"]`),
		Modified:      firstMeta(doc, `meta[property="article:modified_time"]`),
		Language:      pageLanguage(doc),
		ImageURLs:     collectURLs(doc, pageURL, "img[src]", "src", maxImageURLs),
		LinkURLs:      collectURLs(doc, pageURL, "a[href]", "href", maxLinkURLs),
		ContentLength: len(body),
	}

	// When the page declares no description, fall back to readability's
	// extracted excerpt.
	if record.Description == "" {
		if u, perr := nurl.Parse(pageURL); perr == nil {
			if article, rerr := readability.FromReader(bytes.NewReader(body), u); rerr == nil {
				record.Description = collapseSpace(article.Excerpt)
				if record.Title == "" {
					record.Title = collapseSpace(article.Title)
				}
			}
		}
	}

	record.QualityScore = Score(record, query, e.quality)
	return record
}

// firstMeta returns the content of the first matching meta selector.
func firstMeta(doc *goquery.Document, selectors ...string) string {
	for _, sel := range selectors {
		if content, ok := doc.Find(sel).First().Attr("content"); ok {
			if c := collapseSpace(content); c != "" {
				return c
			}
		}
	}
	return ""
}

// pageLanguage reads the html lang attribute or og:locale.
func pageLanguage(doc *goquery.Document) string {
	if lang, ok := doc.Find("html").First().Attr("lang"); ok && lang != "" {
		return lang
	}
	return firstMeta(doc, `meta[property="og:locale"]`)
}

// collectURLs gathers up to max absolute URLs from the given selector.
func collectURLs(doc *goquery.Document, baseURL, selector, attr string, max int) []string {
	base, _ := nurl.Parse(baseURL)
	seen := map[string]struct{}{}
	var out []string
	doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		raw, _ := s.Attr(attr)
		raw = strings.TrimSpace(raw)
		if raw == "" || strings.HasPrefix(raw, "data:") || strings.HasPrefix(raw, "javascript:") {
			return true
		}
		ref, err := nurl.Parse(raw)
		if err != nil {
			return true
		}
		if base != nil {
			ref = base.ResolveReference(ref)
		}
		if ref.Scheme != "http" && ref.Scheme != "https" {
			return true
		}
		abs := ref.String()
		if _, dup := seen[abs]; dup {
			return true
		}
		seen[abs] = struct{}{}
		out = append(out, abs)
		return len(out) < max
	})
	return out
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
