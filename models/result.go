package models

import "time"

// CandidateResult is a not-yet-verified hit produced by a search strategy.
// Transient: the extractor either promotes it to an ExtractedRecord or
// drops it.
type CandidateResult struct {
	// URL is absolute and acts as the deduplication key within one term.
	URL string `json:"url"`

	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`

	// SourceStrategy tags which strategy produced the candidate.
	SourceStrategy string `json:"source_strategy"`

	// SourceURL is the results page (or sitemap) the candidate came from.
	SourceURL string `json:"source_url"`
}

// PageMetadata holds fields parsed from a candidate's own page.
type PageMetadata struct {
	Keywords      string   `json:"keywords,omitempty"`
	Language      string   `json:"language,omitempty"`
	Author        string   `json:"author,omitempty"`
	Published     string   `json:"published,omitempty"`
	Modified      string   `json:"modified,omitempty"`
	ImageURLs     []string `json:"image_urls,omitempty"`
	LinkURLs      []string `json:"link_urls,omitempty"`
	ContentLength int      `json:"content_length"`
}

// ExtractedRecord is the terminal output entity for one verified result.
// Never mutated after creation.
type ExtractedRecord struct {
	SearchTermID   int               `json:"search_term_id"`
	SearchTermData map[string]string `json:"search_term_data"`

	URL         string `json:"url"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`

	// Query is the query string the strategy searched with.
	Query string `json:"query"`

	// SourceURL is where the candidate was discovered.
	SourceURL string `json:"source_url"`

	Page PageMetadata `json:"page_metadata"`

	// QualityScore is the deterministic rubric score in [0, 100].
	QualityScore float64 `json:"quality_score"`

	ExtractedAt time.Time `json:"extraction_timestamp"`
}

// TermOutcome records how a single search term fared.
type TermOutcome struct {
	SearchTermID int    `json:"search_term_id"`
	Strategy     string `json:"strategy,omitempty"`
	Results      int    `json:"results"`

	// Status is "ok", "no_results", or "failed".
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Term outcome statuses.
const (
	TermStatusOK        = "ok"
	TermStatusNoResults = "no_results"
	TermStatusFailed    = "failed"
)

// RunMetadata is the header section of the output document.
type RunMetadata struct {
	TargetURL          string          `json:"target_url"`
	Domain             string          `json:"domain"`
	SelectedStrategy   string          `json:"search_strategy"`
	EligibleStrategies []string        `json:"eligible_strategies"`
	Timestamp          time.Time       `json:"timestamp"`
	TotalSearchTerms   int             `json:"total_search_terms"`
	Profile            *WebsiteProfile `json:"website_profile"`
	TermOutcomes       []TermOutcome   `json:"term_outcomes"`
}

// RunResult is the full output document.
type RunResult struct {
	Metadata RunMetadata       `json:"metadata"`
	Results  []ExtractedRecord `json:"results"`
}
