package engine

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/use-agent/scout/models"
	"github.com/use-agent/scout/strategy"
)

// termResult is one worker's output, kept per-term until assembly so
// workers never contend on shared slices.
type termResult struct {
	outcome models.TermOutcome
	records []models.ExtractedRecord
}

// Run executes every search term against the target website. Only
// invalid input fails the run; per-term failures are recorded in the
// term outcomes, and a run timeout yields the results gathered so far.
func (e *Engine) Run(ctx context.Context, targetURL string, terms []models.SearchTerm) (*models.RunResult, error) {
	if err := models.ValidateTerms(terms); err != nil {
		return nil, err
	}

	if e.cfg.Run.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.Run.RunTimeout)
		defer cancel()
	}

	profile, err := e.analyzer.Analyze(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	eligible := e.registry.Eligible(profile)
	names := make([]string, 0, len(eligible))
	for _, s := range eligible {
		names = append(names, s.Name())
	}
	slog.Info("starting run",
		"domain", profile.Domain,
		"terms", len(terms),
		"eligible_strategies", names)

	results := make([]termResult, len(terms))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Run.MaxConcurrency)
	for i := range terms {
		i := i
		g.Go(func() error {
			results[i] = e.runTerm(gctx, profile, eligible, &terms[i])
			return nil
		})
	}
	// Workers only report failures through their outcome; the group error
	// is always nil. A cancelled context still lets finished terms stand.
	_ = g.Wait()

	run := &models.RunResult{
		Metadata: models.RunMetadata{
			TargetURL:          targetURL,
			Domain:             profile.Domain,
			EligibleStrategies: names,
			Timestamp:          time.Now().UTC(),
			TotalSearchTerms:   len(terms),
			Profile:            profile,
		},
	}
	strategyWins := map[string]int{}
	for _, tr := range results {
		run.Metadata.TermOutcomes = append(run.Metadata.TermOutcomes, tr.outcome)
		run.Results = append(run.Results, tr.records...)
		if tr.outcome.Status == models.TermStatusOK {
			strategyWins[tr.outcome.Strategy]++
		}
	}
	run.Metadata.SelectedStrategy = dominantStrategy(strategyWins)

	// Worker completion order is nondeterministic; output order is not.
	sort.SliceStable(run.Results, func(i, j int) bool {
		return run.Results[i].SearchTermID < run.Results[j].SearchTermID
	})
	return run, nil
}

// runTerm executes one search term: strategies in order, first non-empty
// result set wins, then each candidate is extracted up to the cap.
func (e *Engine) runTerm(ctx context.Context, profile *models.WebsiteProfile, eligible []strategy.Strategy, term *models.SearchTerm) termResult {
	outcome := models.TermOutcome{SearchTermID: term.ID, Status: models.TermStatusNoResults}
	query := term.BuildQuery()
	if query == "" {
		outcome.Status = models.TermStatusFailed
		outcome.Error = "term has no searchable fields"
		return termResult{outcome: outcome}
	}

	// Strategies return more candidates than the per-term cap so the
	// extractor can keep the best-scoring ones rather than the first ones.
	budget := e.cfg.Run.MaxResultsPerTerm * 2

	var lastErr error
	for _, s := range eligible {
		if ctx.Err() != nil {
			break
		}
		candidates, err := s.Execute(ctx, profile, query, budget)
		if err != nil {
			slog.Debug("strategy failed for term",
				"term_id", term.ID, "strategy", s.Name(), "error", err)
			lastErr = err
			continue
		}
		if len(candidates) == 0 {
			continue
		}

		// The first strategy producing candidates wins the term, even
		// when extraction later drops every one of them.
		outcome.Strategy = s.Name()
		records := e.extractAll(ctx, term, query, candidates)
		if len(records) == 0 {
			break
		}
		outcome.Status = models.TermStatusOK
		outcome.Results = len(records)
		slog.Info("term resolved",
			"term_id", term.ID, "strategy", s.Name(), "results", len(records), "query", query)
		return termResult{outcome: outcome, records: records}
	}

	if ctx.Err() != nil && outcome.Status == models.TermStatusNoResults {
		outcome.Status = models.TermStatusFailed
		outcome.Error = "run deadline exceeded"
	} else if lastErr != nil && outcome.Status == models.TermStatusNoResults {
		outcome.Status = models.TermStatusFailed
		outcome.Error = lastErr.Error()
	}
	return termResult{outcome: outcome}
}

// extractAll promotes candidates to records, dropping ones whose page
// cannot be fetched or parsed. Records are ordered by descending quality
// score and capped at MaxResultsPerTerm.
func (e *Engine) extractAll(ctx context.Context, term *models.SearchTerm, query string, candidates []models.CandidateResult) []models.ExtractedRecord {
	var records []models.ExtractedRecord
	for i := range candidates {
		if ctx.Err() != nil {
			break
		}
		record, err := e.extractor.Extract(ctx, term, query, &candidates[i])
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				break
			}
			slog.Debug("candidate dropped",
				"term_id", term.ID, "url", candidates[i].URL, "error", err)
			continue
		}
		records = append(records, *record)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].QualityScore > records[j].QualityScore
	})
	if max := e.cfg.Run.MaxResultsPerTerm; max > 0 && len(records) > max {
		records = records[:max]
	}
	return records
}

// dominantStrategy picks the strategy that resolved the most terms,
// breaking ties by name for determinism.
func dominantStrategy(wins map[string]int) string {
	best := ""
	bestCount := 0
	for name, count := range wins {
		if count > bestCount || (count == bestCount && best != "" && name < best) {
			best = name
			bestCount = count
		}
	}
	return best
}
