package strategy

import (
	"context"
	"net/url"
	"sort"
	"strings"
	"unicode"

	"github.com/use-agent/scout/models"
)

// SitemapStrategy matches query tokens against sitemap URL slugs. It
// needs no extra requests, making it a useful offline fallback when the
// site exposes no working search endpoint.
type SitemapStrategy struct {
	deps *Deps
}

func (s *SitemapStrategy) Name() string { return "sitemap" }

func (s *SitemapStrategy) Supports(profile *models.WebsiteProfile) bool {
	return len(profile.SitemapURLs) > 0
}

// Execute ranks sitemap URLs by query-token overlap with the URL path.
// URLs matching no token are dropped; ties keep sitemap order.
func (s *SitemapStrategy) Execute(ctx context.Context, profile *models.WebsiteProfile, query string, limit int) ([]models.CandidateResult, error) {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return nil, nil
	}

	type scored struct {
		url   string
		score int
		pos   int
	}
	var matches []scored
	for i, pageURL := range profile.SitemapURLs {
		if !profile.Allowed(pageURL) {
			continue
		}
		overlap := tokenOverlap(tokens, pageURL)
		if overlap == 0 {
			continue
		}
		matches = append(matches, scored{url: pageURL, score: overlap, pos: i})
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score != matches[j].score {
			return matches[i].score > matches[j].score
		}
		return matches[i].pos < matches[j].pos
	})

	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	out := make([]models.CandidateResult, 0, len(matches))
	for _, m := range matches {
		out = append(out, models.CandidateResult{
			URL:            m.url,
			Title:          slugTitle(m.url),
			SourceStrategy: s.Name(),
			SourceURL:      profile.BaseURL,
		})
	}
	return out, nil
}

// tokenize lowercases and splits on non-alphanumeric runes, dropping
// single-character tokens.
func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	out := fields[:0]
	for _, f := range fields {
		if len(f) > 1 {
			out = append(out, f)
		}
	}
	return out
}

// tokenOverlap counts how many distinct query tokens appear in the URL path.
func tokenOverlap(tokens []string, pageURL string) int {
	u, err := url.Parse(pageURL)
	if err != nil {
		return 0
	}
	path := strings.ToLower(u.Path)
	count := 0
	for _, t := range tokens {
		if strings.Contains(path, t) {
			count++
		}
	}
	return count
}

// slugTitle derives a human-readable title from the last path segment.
func slugTitle(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return pageURL
	}
	path := strings.Trim(u.Path, "/")
	if path == "" {
		return u.Host
	}
	segs := strings.Split(path, "/")
	last := segs[len(segs)-1]
	last = strings.TrimSuffix(last, ".html")
	last = strings.TrimSuffix(last, ".htm")
	words := strings.FieldsFunc(last, func(r rune) bool { return r == '-' || r == '_' })
	return strings.Join(words, " ")
}
