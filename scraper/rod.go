package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/teraprobe/config"
	"github.com/ysmood/gson"
)

// defaultBlockedResources keeps heavy assets off the wire; none of them
// contribute text to the page.
var defaultBlockedResources = []string{"Image", "Font", "Media"}

// RodLauncher starts a dedicated headless Chromium per Launch call.
type RodLauncher struct {
	cfg     config.BrowserConfig
	blocked []string
}

// NewRodLauncher creates a RodLauncher from a pre-built browser config.
func NewRodLauncher(cfg config.BrowserConfig) *RodLauncher {
	return &RodLauncher{cfg: cfg, blocked: defaultBlockedResources}
}

// Launch starts Chromium and connects to it over CDP.
func (r *RodLauncher) Launch(ctx context.Context) (Browser, error) {
	l := launcher.New().
		Headless(r.cfg.Headless).
		NoSandbox(r.cfg.NoSandbox)

	if r.cfg.BrowserBin != "" {
		l = l.Bin(r.cfg.BrowserBin)
	}
	if r.cfg.Proxy != "" {
		l = l.Proxy(r.cfg.Proxy)
	}

	// ── Container-friendly flags ─────────────────────────────────────
	l.Set(flags.Flag("disable-setuid-sandbox"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-gpu"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-features"), "TranslateUI,VizDisplayCompositor")
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("memory-pressure-off"))
	l.Set(flags.Flag("no-zygote"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}
	slog.Debug("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		l.Cleanup()
		return nil, fmt.Errorf("connect to chromium: %w", err)
	}

	return &rodBrowser{
		browser:  browser,
		launcher: l,
		stealth:  r.cfg.Stealth,
		blocked:  r.blocked,
	}, nil
}

type rodBrowser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	stealth  bool
	blocked  []string
}

func (b *rodBrowser) NewPage(ctx context.Context) (Page, error) {
	page, err := b.browser.Context(ctx).Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	// Detach the creation context; each operation binds its own below.
	page = page.Context(context.Background())

	if b.stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", evalErr)
		}
	}

	return &rodPage{
		page:   page,
		router: setupHijack(page, b.blocked),
	}, nil
}

// Close asks Chromium to exit, then makes sure the process and its profile
// directory are gone.
func (b *rodBrowser) Close() error {
	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	return err
}

type rodPage struct {
	page   *rod.Page
	router *rod.HijackRouter
}

func (p *rodPage) SetUserAgent(ua, acceptLanguage string) error {
	return p.page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      ua,
		AcceptLanguage: acceptLanguage,
		Platform:       "iPhone",
	})
}

func (p *rodPage) SetViewport(v Viewport) error {
	if err := p.page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             v.Width,
		Height:            v.Height,
		DeviceScaleFactor: v.DeviceScaleFactor,
		Mobile:            v.Mobile,
	}); err != nil {
		return err
	}
	if !v.HasTouch {
		return nil
	}
	return proto.EmulationSetTouchEmulationEnabled{
		Enabled:        true,
		MaxTouchPoints: gson.Int(5),
	}.Call(p.page)
}

func (p *rodPage) SetExtraHTTPHeaders(headers map[string]string) error {
	return proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(headers),
	}.Call(p.page)
}

// Goto registers the lifecycle waiter BEFORE navigating, otherwise a fast
// page can fire the event before anyone listens.
func (p *rodPage) Goto(ctx context.Context, url string, opts GotoOptions) error {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}
	pg := p.page.Context(ctx)

	wait := pg.WaitNavigation(lifecycleEvent(opts.WaitUntil))
	if err := pg.Navigate(url); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	wait()
	return ctx.Err()
}

func (p *rodPage) QuerySelectorAll(ctx context.Context, selector string) ([]Element, error) {
	els, err := p.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, err
	}
	out := make([]Element, len(els))
	for i, el := range els {
		out[i] = el
	}
	return out, nil
}

func (p *rodPage) TextContent(ctx context.Context, el Element) (string, error) {
	rel, ok := el.(*rod.Element)
	if !ok {
		return "", fmt.Errorf("scraper: foreign element %T", el)
	}
	res, err := rel.Context(ctx).Eval(`() => this.textContent`)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(res.Value.Str()), nil
}

func (p *rodPage) Content(ctx context.Context) (string, error) {
	return p.page.Context(ctx).HTML()
}

func (p *rodPage) BodyText(ctx context.Context) (string, error) {
	res, err := p.page.Context(ctx).Eval(`() => document.body ? document.body.innerText : ""`)
	if err != nil {
		return "", err
	}
	return res.Value.Str(), nil
}

func (p *rodPage) Close() error {
	if p.router != nil {
		_ = p.router.Stop()
	}
	return p.page.Close()
}

func lifecycleEvent(w WaitUntil) proto.PageLifecycleEventName {
	switch w {
	case WaitDOMContentLoaded:
		return proto.PageLifecycleEventNameDOMContentLoaded
	case WaitLoad:
		return proto.PageLifecycleEventNameLoad
	default:
		return proto.PageLifecycleEventNameNetworkAlmostIdle
	}
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}
