package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/andybalholm/cascadia"
	"github.com/use-agent/teraprobe/models"
	"github.com/use-agent/teraprobe/scraper"
)

// SelectorRule is one step of the selector cascade.
type SelectorRule struct {
	Selector string
	Strategy models.Strategy
}

// DefaultRules lists the share page's size container from most to least
// specific. Earlier rules win ties within one attempt.
var DefaultRules = []SelectorRule{
	{Selector: `div[data-v-5380f836].size`, Strategy: models.StrategyStructural},
	{Selector: `div.size`, Strategy: models.StrategyStructural},
	{Selector: `.size`, Strategy: models.StrategyStructural},
	{Selector: `[class*="size"]`, Strategy: models.StrategyAttributePattern},
	{Selector: `div[data-v-5380f836]`, Strategy: models.StrategyAttributePattern},
}

// fallbackPattern finds "<duration> | <size>" anywhere in rendered text.
var fallbackPattern = regexp.MustCompile(`(?i)(\d{2}:\d{2}:\d{2}|\d{1,2}:\d{2})\s*\|\s*(\d+(?:\.\d+)?\s*(?:KB|MB|GB))`)

var sizeUnits = []string{"KB", "MB", "GB"}

// Budget bounds how long the cascade is retried.
type Budget struct {
	MaxAttempts  int
	AttemptDelay time.Duration
}

// Locator finds the duration/size fragment on a navigated page.
type Locator struct {
	rules     []SelectorRule
	siteToken string
	budget    Budget
	settle    time.Duration
}

// NewLocator validates every rule's selector up front so a typo fails at
// startup rather than silently never matching.
func NewLocator(rules []SelectorRule, siteToken string, budget Budget, settle time.Duration) (*Locator, error) {
	if len(rules) == 0 {
		return nil, fmt.Errorf("extractor: no selector rules")
	}
	for _, r := range rules {
		if _, err := cascadia.Parse(r.Selector); err != nil {
			return nil, fmt.Errorf("extractor: selector %q: %w", r.Selector, err)
		}
	}
	if budget.MaxAttempts < 1 {
		budget.MaxAttempts = 1
	}
	return &Locator{
		rules:     rules,
		siteToken: strings.ToLower(siteToken),
		budget:    budget,
		settle:    settle,
	}, nil
}

// Locate runs the cascade until a fragment qualifies or the budget is spent,
// then falls back to a regex over the page text.
//
// Steps:
//
//  1. Settle         – one fixed wait for client-side rendering
//  2. Cascade        – rules in order, elements in DOM order, first hit wins
//  3. Retry          – query errors count as a failed attempt, never abort
//  4. Site check     – markup without the site token is INVALID_PAGE
//  5. Regex fallback – first "<duration> | <size>" in the body text
func (l *Locator) Locate(ctx context.Context, page scraper.Page) (*models.CandidateFragment, error) {
	// ── 1. Settle ─────────────────────────────────────────────────────
	if err := sleep(ctx, l.settle); err != nil {
		return nil, categorizeError(err, "locate aborted while waiting for rendering")
	}

	// ── 2-3. Bounded cascade ──────────────────────────────────────────
	for attempt := 1; attempt <= l.budget.MaxAttempts; attempt++ {
		frag, err := l.scan(ctx, page)
		if frag != nil {
			slog.Debug("fragment found",
				"selector", frag.Selector,
				"attempt", attempt,
				"text", frag.Text,
			)
			return frag, nil
		}
		if ctx.Err() != nil {
			return nil, categorizeError(ctx.Err(), "locate aborted")
		}
		if err != nil {
			slog.Debug("locate attempt failed",
				"attempt", attempt,
				"maxAttempts", l.budget.MaxAttempts,
				"error", err,
			)
		} else {
			slog.Debug("fragment not rendered yet",
				"attempt", attempt,
				"maxAttempts", l.budget.MaxAttempts,
			)
		}

		if attempt < l.budget.MaxAttempts {
			if err := sleep(ctx, l.budget.AttemptDelay); err != nil {
				return nil, categorizeError(err, "locate aborted between attempts")
			}
		}
	}

	// ── 4. Site check ─────────────────────────────────────────────────
	content, err := page.Content(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, categorizeError(ctx.Err(), "locate aborted")
		}
		return nil, models.NewExtractError(models.ErrCodeInvalidPage,
			"page failed to load properly", err)
	}
	if !strings.Contains(strings.ToLower(content), l.siteToken) {
		return nil, models.NewExtractError(models.ErrCodeInvalidPage,
			"page does not appear to be a valid TeraBox page or failed to load properly", nil)
	}

	// ── 5. Regex fallback ─────────────────────────────────────────────
	body, err := page.BodyText(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil, categorizeError(ctx.Err(), "locate aborted")
		}
		return nil, models.NewExtractError(models.ErrCodeNotFound,
			"could not read page text", err)
	}
	if m := fallbackPattern.FindString(body); m != "" {
		slog.Debug("fragment found by text pattern", "text", m)
		return &models.CandidateFragment{Text: m, Strategy: models.StrategyRegexFallback}, nil
	}

	return nil, models.NewExtractError(models.ErrCodeNotFound,
		"could not find file size and duration information; the content may not have loaded or the page structure has changed", nil)
}

// scan makes one pass over the cascade. An error means the pass was cut
// short; a nil fragment with nil error means nothing qualified.
func (l *Locator) scan(ctx context.Context, page scraper.Page) (*models.CandidateFragment, error) {
	for _, rule := range l.rules {
		els, err := page.QuerySelectorAll(ctx, rule.Selector)
		if err != nil {
			return nil, fmt.Errorf("query %q: %w", rule.Selector, err)
		}
		for _, el := range els {
			text, err := page.TextContent(ctx, el)
			if err != nil {
				return nil, fmt.Errorf("read text of %q: %w", rule.Selector, err)
			}
			if qualifies(text) {
				return &models.CandidateFragment{
					Text:     text,
					Strategy: rule.Strategy,
					Selector: rule.Selector,
				}, nil
			}
		}
	}
	return nil, nil
}

// qualifies is the cheap "looks like duration | size" filter: a size unit
// and a colon.
func qualifies(text string) bool {
	if !strings.Contains(text, ":") {
		return false
	}
	for _, unit := range sizeUnits {
		if strings.Contains(text, unit) {
			return true
		}
	}
	return false
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
