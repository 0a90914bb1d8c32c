package scraper

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/use-agent/teraprobe/config"
)

// WaitUntil is the readiness predicate Goto waits for after navigation.
type WaitUntil string

const (
	WaitNetworkIdle      WaitUntil = "networkidle"
	WaitDOMContentLoaded WaitUntil = "domcontentloaded"
	WaitLoad             WaitUntil = "load"
)

// ParseWaitUntil maps a config string to a WaitUntil, defaulting to network idle.
func ParseWaitUntil(s string) WaitUntil {
	switch WaitUntil(strings.ToLower(strings.TrimSpace(s))) {
	case WaitDOMContentLoaded:
		return WaitDOMContentLoaded
	case WaitLoad:
		return WaitLoad
	default:
		return WaitNetworkIdle
	}
}

// GotoOptions bounds a navigation.
type GotoOptions struct {
	WaitUntil WaitUntil
	Timeout   time.Duration
}

// Viewport describes the emulated screen.
type Viewport struct {
	Width             int
	Height            int
	DeviceScaleFactor float64
	Mobile            bool
	HasTouch          bool
}

// Element is an opaque handle to a DOM node owned by the Page that returned it.
type Element any

// Launcher starts one browser process per call.
type Launcher interface {
	Launch(ctx context.Context) (Browser, error)
}

// Browser owns a running browser process.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is the narrow surface the extractor drives. Implementations must not
// require callers to know anything beyond these methods.
type Page interface {
	// SetUserAgent overrides the user agent and, when acceptLanguage is not
	// empty, the language the browser advertises.
	SetUserAgent(ua, acceptLanguage string) error
	SetViewport(v Viewport) error
	SetExtraHTTPHeaders(headers map[string]string) error

	// Goto navigates and blocks until opts.WaitUntil is reached. A missed
	// deadline is reported as context.DeadlineExceeded.
	Goto(ctx context.Context, url string, opts GotoOptions) error

	// QuerySelectorAll returns matching elements in DOM order.
	QuerySelectorAll(ctx context.Context, selector string) ([]Element, error)

	// TextContent returns the trimmed textContent of el.
	TextContent(ctx context.Context, el Element) (string, error)

	// Content returns the full serialized markup.
	Content(ctx context.Context) (string, error)

	// BodyText returns the rendered text of document.body.
	BodyText(ctx context.Context) (string, error)

	Close() error
}

// NewLauncher builds the Launcher selected by cfg.Engine.
func NewLauncher(cfg config.BrowserConfig) (Launcher, error) {
	switch cfg.Engine {
	case "", "rod":
		return NewRodLauncher(cfg), nil
	case "http":
		l, err := NewHTTPLauncher(cfg.Proxy)
		if err != nil {
			return nil, err
		}
		return l, nil
	default:
		return nil, fmt.Errorf("scraper: unknown browser engine %q", cfg.Engine)
	}
}
