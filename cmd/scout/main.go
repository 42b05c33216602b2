// Command scout discovers how a website's search works and runs a batch
// of search terms through it, writing verified results as JSON or JSONL.
package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/use-agent/scout/browser"
	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/engine"
	"github.com/use-agent/scout/fetch"
	"github.com/use-agent/scout/models"
	"github.com/use-agent/scout/output"
)

var (
	flagURL        string
	flagTerms      string
	flagOutput     string
	flagFormat     string
	flagMaxResults int
	flagTimeout    time.Duration
	flagNoBrowser  bool
	flagVerbose    bool
)

func main() {
	root := &cobra.Command{
		Use:          "scout",
		Short:        "Discover a website's search surface and run search terms through it",
		SilenceUsage: true,
		RunE:         run,
	}
	root.Flags().StringVarP(&flagURL, "url", "u", "", "target website URL (required)")
	root.Flags().StringVarP(&flagTerms, "search-terms", "s", "", "search terms: path to a JSON file, or inline JSON (required)")
	root.Flags().StringVarP(&flagOutput, "output", "o", "-", "output path, or - for stdout")
	root.Flags().StringVar(&flagFormat, "format", output.FormatJSON, "output format: json or jsonl")
	root.Flags().IntVar(&flagMaxResults, "max-results", 0, "max results per term (0 uses the configured default)")
	root.Flags().DurationVar(&flagTimeout, "timeout", 0, "overall run timeout (0 disables)")
	root.Flags().BoolVar(&flagNoBrowser, "no-browser", false, "disable the headless browser strategy")
	root.Flags().BoolVarP(&flagVerbose, "verbose", "v", false, "debug logging")
	_ = root.MarkFlagRequired("url")
	_ = root.MarkFlagRequired("search-terms")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, _ []string) error {
	cfg := config.Load()
	if flagMaxResults > 0 {
		cfg.Run.MaxResultsPerTerm = flagMaxResults
	}
	if flagTimeout > 0 {
		cfg.Run.RunTimeout = flagTimeout
	}
	if flagVerbose {
		cfg.Log.Level = "debug"
	}
	initLogger(cfg.Log)

	terms, err := loadTerms(flagTerms)
	if err != nil {
		return err
	}

	client := fetch.NewHTTPClient(cfg.Fetch.DefaultProxy,
		fetch.WithTimeout(cfg.Fetch.RequestTimeout),
		fetch.WithMaxBodyBytes(cfg.Fetch.MaxBodyBytes))

	var bc browser.Client
	if !flagNoBrowser {
		rc, berr := browser.NewRodClient(cfg.Browser)
		if berr != nil {
			slog.Warn("browser unavailable, continuing without it", "error", berr)
		} else {
			bc = rc
		}
	}

	eng := engine.New(cfg, client, bc)
	defer eng.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run, err := eng.Run(ctx, flagURL, terms)
	if err != nil {
		return err
	}
	if err := output.WriteFile(flagOutput, run, flagFormat); err != nil {
		return err
	}
	printSummary(run)
	return nil
}

// initLogger configures the process-wide slog default.
func initLogger(cfg config.LogConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "json" {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// loadTerms accepts either a path to a JSON file or inline JSON. Both
// carry an array of term objects: {"id": 1, "Artist": "...", ...}.
func loadTerms(arg string) ([]models.SearchTerm, error) {
	data := []byte(arg)
	if !strings.HasPrefix(strings.TrimSpace(arg), "[") {
		b, err := os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("reading search terms: %w", err)
		}
		data = b
	}
	var terms []models.SearchTerm
	if err := json.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("parsing search terms: %w", err)
	}
	return terms, nil
}

// printSummary writes a short human-readable recap to stderr so stdout
// stays clean for piped output.
func printSummary(run *models.RunResult) {
	ok, failed, empty := 0, 0, 0
	for _, o := range run.Metadata.TermOutcomes {
		switch o.Status {
		case models.TermStatusOK:
			ok++
		case models.TermStatusFailed:
			failed++
		default:
			empty++
		}
	}
	fmt.Fprintf(os.Stderr, "\n%s: %d terms, %d resolved, %d empty, %d failed, %d results (strategy: %s)\n",
		run.Metadata.Domain, run.Metadata.TotalSearchTerms, ok, empty, failed,
		len(run.Results), orDash(run.Metadata.SelectedStrategy))
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
