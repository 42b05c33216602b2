package analyzer

import (
	"context"
	"log/slog"
	"math"
	"net/url"

	"github.com/use-agent/scout/fetch"
	"github.com/use-agent/scout/simhash"
)

// probeToken is a nonsense query guaranteed not to appear on a normal
// page, so any structural change in the response is attributable to the
// parameter being interpreted.
const probeToken = "scoutprobe7319"

// probeParams are tried in order; the first one producing a materially
// different response wins.
var probeParams = []string{"q", "s", "query", "search", "keyword"}

// simhashProbeDistance is the DOM-fingerprint Hamming distance above
// which two pages count as structurally different.
const simhashProbeDistance = 12

// probeQueryParams tests common search parameter names against the
// homepage and reports which ones the site appears to interpret.
// The baseline response is reused across parameters.
func (a *Analyzer) probeQueryParams(ctx context.Context, baseURL string) []string {
	baseline, err := a.fetchCached(ctx, baseURL)
	if err != nil || baseline.StatusCode != 200 {
		return nil
	}
	baseLen := len(baseline.Body)
	baseFP := simhash.FingerprintDOM(string(baseline.Body))

	var hits []string
	for _, param := range probeParams {
		probeURL, ok := withParam(baseURL, param, probeToken)
		if !ok {
			continue
		}
		resp, err := a.get(ctx, probeURL)
		if err != nil || resp.StatusCode != 200 {
			continue
		}
		if a.materiallyDifferent(baseLen, baseFP, resp) {
			slog.Debug("query parameter probe hit", "param", param, "url", probeURL)
			hits = append(hits, param)
		}
	}
	return hits
}

// materiallyDifferent reports whether a probe response differs from the
// baseline by more than noise: either the body length delta exceeds the
// configured ratio, or the DOM structure fingerprint diverges.
func (a *Analyzer) materiallyDifferent(baseLen int, baseFP uint64, resp *fetch.Response) bool {
	if baseLen > 0 {
		delta := math.Abs(float64(len(resp.Body))-float64(baseLen)) / float64(baseLen)
		if delta > a.cfg.ProbeThreshold {
			return true
		}
	}
	fp := simhash.FingerprintDOM(string(resp.Body))
	return simhash.Distance(baseFP, fp) > simhashProbeDistance
}

// withParam returns rawURL with param=value appended to the query string.
func withParam(rawURL, param, value string) (string, bool) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", false
	}
	q := u.Query()
	q.Set(param, value)
	u.RawQuery = q.Encode()
	return u.String(), true
}
