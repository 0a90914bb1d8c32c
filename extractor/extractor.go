// Package extractor turns a share link into an ExtractedRecord: it validates
// the link, drives one browser session through navigation and the locator
// cascade, parses the fragment, and always releases the session.
package extractor

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/use-agent/teraprobe/config"
	"github.com/use-agent/teraprobe/models"
	"github.com/use-agent/teraprobe/scraper"
)

// stage names the step an extraction is in, for logs.
type stage string

const (
	stageValidating      stage = "validating"
	stageSessionAcquired stage = "session_acquired"
	stageLocating        stage = "locating"
	stageParsed          stage = "parsed"
)

// Options are the per-extraction limits.
type Options struct {
	Navigation    scraper.GotoOptions
	Timeout       time.Duration
	TargetDomains []string
}

// OptionsFromConfig derives Options from the loaded configuration.
func OptionsFromConfig(cfg config.ExtractorConfig) Options {
	return Options{
		Navigation: scraper.GotoOptions{
			WaitUntil: scraper.ParseWaitUntil(cfg.WaitUntil),
			Timeout:   cfg.NavigationTimeout,
		},
		Timeout:       cfg.ExtractTimeout,
		TargetDomains: cfg.TargetDomains,
	}
}

// Extractor composes the provisioner, the locator and the parser.
// It is safe for concurrent use; every call owns its own session.
type Extractor struct {
	provisioner *scraper.Provisioner
	locator     *Locator
	opts        Options
}

// New creates an Extractor.
func New(p *scraper.Provisioner, l *Locator, opts Options) *Extractor {
	return &Extractor{provisioner: p, locator: l, opts: opts}
}

// ActiveSessions reports the number of browser sessions currently open.
func (e *Extractor) ActiveSessions() int {
	return e.provisioner.Active()
}

// Extract validates rawURL, then provisions a session, navigates, locates and
// parses. The session is released on every path after acquisition, and a
// release failure never replaces the result. ctx cancellation aborts
// navigation and the locate loop.
func (e *Extractor) Extract(ctx context.Context, rawURL string) (result *models.ExtractResult, err error) {
	st := stageValidating
	defer func() {
		if err != nil {
			slog.Warn("extraction failed",
				"url", rawURL,
				"stage", st,
				"code", models.CodeOf(err),
				"error", err,
			)
		}
	}()

	// ── 1. Validate before spending any browser resources ────────────
	target, err := ValidateURL(rawURL, e.opts.TargetDomains)
	if err != nil {
		return nil, err
	}

	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	// ── 2. Acquire session ───────────────────────────────────────────
	session, err := e.provisioner.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	// ── 3. DEFER: unconditional release ──────────────────────────────
	defer func() {
		session.Release()
		slog.Debug("session released", "url", rawURL, "stage", st)
	}()
	st = stageSessionAcquired
	page := session.Page()

	// ── 4. Navigate ──────────────────────────────────────────────────
	slog.Info("navigating", "url", target.String(), "waitUntil", e.opts.Navigation.WaitUntil)
	if navErr := page.Goto(ctx, target.String(), e.opts.Navigation); navErr != nil {
		return nil, navigationError(navErr, e.opts.Navigation.Timeout)
	}

	// ── 5. Locate ────────────────────────────────────────────────────
	st = stageLocating
	frag, err := e.locator.Locate(ctx, page)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(frag.Text) == "" {
		return nil, models.NewExtractError(models.ErrCodeNotFound, "located fragment is empty", nil)
	}

	// ── 6. Parse ─────────────────────────────────────────────────────
	record := ParseFragment(frag.Text)
	st = stageParsed
	slog.Info("extraction succeeded",
		"url", target.String(),
		"strategy", frag.Strategy,
		"duration", record.Duration,
		"fileSize", record.FileSize,
	)

	return &models.ExtractResult{
		URL:         rawURL,
		Record:      record,
		Strategy:    frag.Strategy,
		Selector:    frag.Selector,
		ExtractedAt: time.Now().UTC(),
	}, nil
}
