package strategy

import (
	"bytes"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/use-agent/scout/models"
)

// resultContainers are selectors tried first when parsing a results
// page. When one matches, only links inside it are harvested.
var resultContainers = []string{
	".search-result",
	".search-results li",
	".result",
	".results li",
	"[class*='search-result']",
	"article",
	"li.item",
	".product",
}

// skipPrefixes identify link targets that are not navigable pages.
var skipPrefixes = []string{"javascript:", "mailto:", "tel:", "data:", "#"}

// skipURLPatterns filter out links that can never be search results:
// social share links and auth pages.
var skipURLPatterns = []string{
	"facebook.com",
	"twitter.com",
	"instagram.com",
	"youtube.com",
	"login",
	"register",
	"signup",
	"signin",
}

// parseResults extracts candidate results from a results page. Container
// selectors are tried first; when none match, content-rich links from the
// whole page are used. Results are deduplicated by URL and capped.
func parseResults(body []byte, pageURL, strategyName string, limit int) ([]models.CandidateResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, models.NewError(models.ErrCodeParse, "results page parse failed", err)
	}

	base, _ := url.Parse(pageURL)
	seen := map[string]struct{}{}
	var out []models.CandidateResult

	harvest := func(scope *goquery.Selection) {
		scope.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
			if limit > 0 && len(out) >= limit {
				return
			}
			href, _ := a.Attr("href")
			abs, ok := normalizeLink(base, href)
			if !ok {
				return
			}
			title := candidateTitle(a)
			snippet := candidateSnippet(a)
			if !validCandidate(abs, title, snippet, pageURL) {
				return
			}
			if _, dup := seen[abs]; dup {
				return
			}
			seen[abs] = struct{}{}
			out = append(out, models.CandidateResult{
				URL:            abs,
				Title:          title,
				Snippet:        snippet,
				SourceStrategy: strategyName,
				SourceURL:      pageURL,
			})
		})
	}

	for _, sel := range resultContainers {
		if containers := doc.Find(sel); containers.Length() > 0 {
			harvest(containers)
			if len(out) > 0 {
				return out, nil
			}
		}
	}

	// No recognizable result container: fall back to content-rich links
	// anywhere outside navigation chrome.
	doc.Find("nav, header, footer, aside").Remove()
	harvest(doc.Selection)
	return out, nil
}

// normalizeLink resolves href against base and rejects non-navigable links.
func normalizeLink(base *url.URL, href string) (string, bool) {
	href = strings.TrimSpace(href)
	if href == "" {
		return "", false
	}
	lower := strings.ToLower(href)
	for _, p := range skipPrefixes {
		if strings.HasPrefix(lower, p) {
			return "", false
		}
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", false
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return "", false
	}
	ref.Fragment = ""
	return ref.String(), true
}

// validCandidate filters out links that cannot be search results: links
// back to the results page, social/auth URLs, anchors with no content,
// and titles too short to mean anything (likely navigation).
func validCandidate(absURL, title, snippet, pageURL string) bool {
	if absURL == pageURL || absURL == strings.TrimSuffix(pageURL, "/") {
		return false
	}
	lower := strings.ToLower(absURL)
	for _, pattern := range skipURLPatterns {
		if strings.Contains(lower, pattern) {
			return false
		}
	}
	title = strings.TrimSpace(title)
	if title == "" && strings.TrimSpace(snippet) == "" {
		return false
	}
	if title != "" && utf8.RuneCountInString(title) < 3 {
		return false
	}
	return true
}

// candidateTitle prefers the anchor's own text, falling back to a title
// or aria-label attribute for image links.
func candidateTitle(a *goquery.Selection) string {
	if t := strings.TrimSpace(a.Text()); t != "" {
		return collapseSpace(t)
	}
	if t, ok := a.Attr("title"); ok {
		return collapseSpace(t)
	}
	if t, ok := a.Attr("aria-label"); ok {
		return collapseSpace(t)
	}
	return ""
}

// candidateSnippet grabs nearby text from the anchor's parent block,
// truncated on a rune boundary.
func candidateSnippet(a *goquery.Selection) string {
	parent := a.Parent()
	if parent.Length() == 0 {
		return ""
	}
	text := collapseSpace(parent.Text())
	if len(text) > 300 {
		cut := 300
		for cut > 0 && !utf8.RuneStart(text[cut]) {
			cut--
		}
		text = text[:cut]
	}
	return text
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
