package analyzer

import (
	"context"
	"log/slog"
	"strings"

	"github.com/use-agent/scout/browser"
)

// staticJSMarkers are substrings whose presence in a thin static page
// strongly suggests client-side rendering.
var staticJSMarkers = []string{
	`id="root"`,
	`id="app"`,
	`id="__next"`,
	"enable javascript",
	"requires javascript",
}

// minStaticTextBytes is the visible-text size below which a static page
// counts as thin for the marker heuristic.
const minStaticTextBytes = 200

// detectRequiresJS decides whether the site needs a browser to produce
// meaningful content. When a browser client is available it compares
// rendered visible text against the static fetch; otherwise it falls
// back to static heuristics alone.
func (a *Analyzer) detectRequiresJS(ctx context.Context, pageURL string, staticBody []byte) bool {
	staticText := strings.TrimSpace(VisibleText(staticBody))

	if a.browser != nil {
		req := &browser.RenderRequest{URL: pageURL}
		res, err := a.browser.Render(ctx, req)
		if err == nil {
			rendered := strings.TrimSpace(res.Text)
			if len(staticText) == 0 {
				return len(rendered) > 0
			}
			ratio := float64(len(rendered)) / float64(len(staticText))
			if ratio >= a.cfg.JSDetectionRatio {
				slog.Debug("rendered page materially larger than static fetch",
					"url", pageURL, "static_bytes", len(staticText), "rendered_bytes", len(rendered))
				return true
			}
			return false
		}
		slog.Debug("render failed during JS detection, using static heuristics", "url", pageURL, "error", err)
	}

	if len(staticText) >= minStaticTextBytes {
		return false
	}
	lower := strings.ToLower(string(staticBody))
	for _, marker := range staticJSMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return len(staticText) == 0
}
