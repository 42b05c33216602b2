package extractor

import (
	"strings"
	"unicode"

	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/models"
)

// Score computes the deterministic quality score for a record in [0, 100].
// Components: title present, description present, keywords present,
// description length in the ideal range, and query-token overlap with
// the title. Weights come from configuration.
func Score(record *models.ExtractedRecord, query string, cfg config.QualityConfig) float64 {
	score := 0.0
	if strings.TrimSpace(record.Title) != "" {
		score += cfg.WeightTitle
	}
	if strings.TrimSpace(record.Description) != "" {
		score += cfg.WeightDescription
	}
	if strings.TrimSpace(record.Page.Keywords) != "" {
		score += cfg.WeightKeywords
	}
	if n := len(record.Description); n >= cfg.DescLengthMin && n <= cfg.DescLengthMax {
		score += cfg.WeightDescLength
	}
	score += cfg.WeightTitleOverlap * titleOverlap(query, record.Title)

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// titleOverlap returns the fraction of distinct query tokens present in
// the title, in [0, 1].
func titleOverlap(query, title string) float64 {
	tokens := scoreTokens(query)
	if len(tokens) == 0 {
		return 0
	}
	titleLower := strings.ToLower(title)
	matched := 0
	for _, t := range tokens {
		if strings.Contains(titleLower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(tokens))
}

// scoreTokens lowercases and splits on non-alphanumeric runes, dropping
// duplicates and single characters.
func scoreTokens(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	seen := map[string]struct{}{}
	var out []string
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		out = append(out, f)
	}
	return out
}
