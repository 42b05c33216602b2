package analyzer

import (
	"context"
	"encoding/xml"
	"log/slog"
	"net/url"
	"strings"
)

// sitemapURLSet matches a <urlset> sitemap document.
type sitemapURLSet struct {
	XMLName xml.Name     `xml:"urlset"`
	URLs    []sitemapLoc `xml:"url"`
}

// sitemapIndex matches a <sitemapindex> document pointing at child sitemaps.
type sitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []sitemapLoc `xml:"sitemap"`
}

type sitemapLoc struct {
	Loc string `xml:"loc"`
}

// maxSitemapDepth bounds recursion into nested sitemap indexes.
const maxSitemapDepth = 2

// collectSitemaps gathers page URLs from the conventional sitemap
// locations plus any Sitemap: directives from robots.txt. The result is
// deduplicated and capped at MaxSitemapURLs.
func (a *Analyzer) collectSitemaps(ctx context.Context, baseURL string, declared []string) []string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil
	}
	origin := u.Scheme + "://" + u.Host

	candidates := []string{origin + "/sitemap.xml", origin + "/sitemap_index.xml"}
	for _, d := range declared {
		candidates = append(candidates, d)
	}

	seen := map[string]struct{}{}
	var pages []string
	for _, sm := range candidates {
		if len(pages) >= a.cfg.MaxSitemapURLs {
			break
		}
		pages = a.walkSitemap(ctx, sm, 0, seen, pages)
	}
	return pages
}

// walkSitemap fetches one sitemap file and appends its page URLs,
// recursing into index entries up to maxSitemapDepth.
func (a *Analyzer) walkSitemap(ctx context.Context, sitemapURL string, depth int, seen map[string]struct{}, pages []string) []string {
	if depth > maxSitemapDepth || len(pages) >= a.cfg.MaxSitemapURLs {
		return pages
	}
	if _, dup := seen[sitemapURL]; dup {
		return pages
	}
	seen[sitemapURL] = struct{}{}

	resp, err := a.fetchCached(ctx, sitemapURL)
	if err != nil || resp.StatusCode != 200 {
		return pages
	}

	var index sitemapIndex
	if err := xml.Unmarshal(resp.Body, &index); err == nil && len(index.Sitemaps) > 0 {
		for _, child := range index.Sitemaps {
			loc := strings.TrimSpace(child.Loc)
			if loc == "" {
				continue
			}
			pages = a.walkSitemap(ctx, loc, depth+1, seen, pages)
			if len(pages) >= a.cfg.MaxSitemapURLs {
				return pages
			}
		}
		return pages
	}

	var urlset sitemapURLSet
	if err := xml.Unmarshal(resp.Body, &urlset); err != nil {
		slog.Debug("sitemap parse failed", "url", sitemapURL, "error", err)
		return pages
	}
	for _, entry := range urlset.URLs {
		loc := strings.TrimSpace(entry.Loc)
		if loc == "" {
			continue
		}
		if _, dup := seen[loc]; dup {
			continue
		}
		seen[loc] = struct{}{}
		pages = append(pages, loc)
		if len(pages) >= a.cfg.MaxSitemapURLs {
			return pages
		}
	}
	return pages
}
