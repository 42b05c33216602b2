// Package browser wraps headless Chrome behind a small rendering interface.
// The analyzer uses it to measure rendered page text; the browser search
// strategy uses it to fill and submit search inputs on JS-driven sites.
package browser

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/use-agent/scout/config"
	"github.com/use-agent/scout/models"
)

// Interaction is one scripted step executed on a rendered page.
type Interaction struct {
	// Type is "fill", "submit", "click", or "wait".
	Type string

	// Selector is the CSS selector the step targets ("fill", "click",
	// "submit", and selector-based "wait").
	Selector string

	// Value is the text typed by a "fill" step.
	Value string

	// Milliseconds is the sleep duration for a duration-based "wait".
	Milliseconds int
}

// RenderRequest asks for a URL to be loaded and optionally interacted with.
type RenderRequest struct {
	URL          string
	Interactions []Interaction

	// Timeout bounds the whole render; falls back to the client default.
	Timeout time.Duration
}

// RenderResult is the rendered outcome.
type RenderResult struct {
	HTML     string
	Text     string
	Title    string
	FinalURL string
}

// Client is the abstract headless-browser collaborator.
type Client interface {
	Render(ctx context.Context, req *RenderRequest) (*RenderResult, error)
	Close()
}

// RodClient drives a shared headless Chrome instance with a reusable page
// pool. Safe for concurrent use.
type RodClient struct {
	browser     *rod.Browser
	pagePool    rod.Pool[rod.Page]
	cfg         config.BrowserConfig
	activePages atomic.Int32
}

// NewRodClient launches a headless browser and initialises the page pool.
func NewRodClient(cfg config.BrowserConfig) (*RodClient, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}

	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, models.NewError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	return &RodClient{
		browser:  b,
		pagePool: rod.NewPagePool(cfg.MaxPages),
		cfg:      cfg,
	}, nil
}

// Render loads the URL, waits for the DOM to settle, executes the scripted
// interactions, and returns the rendered document.
func (c *RodClient) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.cfg.NavigationTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c.activePages.Add(1)
	defer c.activePages.Add(-1)

	page, err := c.pagePool.Get(func() (*rod.Page, error) {
		return c.browser.Page(proto.TargetCreateTarget{})
	})
	if err != nil {
		return nil, models.NewError(models.ErrCodeBrowserCrash, "failed to acquire page from pool", err)
	}

	// Park on about:blank before returning to the pool so a huge DOM does
	// not stay resident, and return the ORIGINAL page reference: cleanup
	// must succeed even after the request context has expired.
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank", "error", navErr)
		}
		c.pagePool.Put(page)
	}()

	// Stealth must be installed before navigation to take effect.
	if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
		slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
	}

	p := page.Context(ctx)

	if err := p.Navigate(req.URL); err != nil {
		return nil, categorizeError(err, "navigation failed")
	}
	waitStable(p)

	if len(req.Interactions) > 0 {
		if err := runInteractions(ctx, page, req.Interactions); err != nil {
			return nil, err
		}
		waitStable(p)
	}

	rawHTML, err := p.HTML()
	if err != nil {
		return nil, categorizeError(err, "failed to extract rendered HTML")
	}

	text := evalStringOrEmpty(p, `() => document.body ? document.body.innerText : ""`)
	title := evalStringOrEmpty(p, `() => document.title`)
	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = req.URL
	}

	return &RenderResult{
		HTML:     rawHTML,
		Text:     text,
		Title:    title,
		FinalURL: finalURL,
	}, nil
}

// ActivePages returns the number of pages currently borrowed from the pool.
func (c *RodClient) ActivePages() int {
	return int(c.activePages.Load())
}

// Close drains the page pool and kills the browser process. Call on
// shutdown to prevent zombie Chrome processes.
func (c *RodClient) Close() {
	slog.Info("browser shutting down: draining page pool")
	c.pagePool.Cleanup(func(p *rod.Page) {
		_ = p.Close()
	})
	c.browser.MustClose()
	slog.Info("browser shutdown complete")
}

// waitStable waits for the DOM to stop mutating; non-convergence is fine,
// we proceed with whatever is rendered.
func waitStable(p *rod.Page) {
	if err := p.WaitDOMStable(300*time.Millisecond, 0.1); err != nil {
		slog.Debug("WaitDOMStable did not converge, proceeding with current DOM", "error", err)
	}
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors.
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}

// categorizeError wraps raw rod errors into typed errors so call sites can
// tell timeouts from navigation failures.
func categorizeError(err error, msg string) *models.Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewError(models.ErrCodeTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewError(models.ErrCodeTimeout, "render canceled", err)
	default:
		return models.NewError(models.ErrCodeNavigation, msg, err)
	}
}
