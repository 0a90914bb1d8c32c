package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
)

// errNotLoaded is returned by StaticPage queries before a document exists.
var errNotLoaded = errors.New("scraper: page has no document")

// HTTPLauncher is a Launcher that fetches pages without executing JavaScript.
// It serves server-rendered variants of the share page and offline runs.
type HTTPLauncher struct {
	fetcher *httpFetcher
}

// NewHTTPLauncher creates an HTTPLauncher routing through proxy (may be
// empty). It fails on a proxy it cannot dial through rather than going direct.
func NewHTTPLauncher(proxy string) (*HTTPLauncher, error) {
	fetcher, err := newHTTPFetcher(proxy)
	if err != nil {
		return nil, err
	}
	return &HTTPLauncher{fetcher: fetcher}, nil
}

// Launch returns a Browser that owns no process.
func (l *HTTPLauncher) Launch(ctx context.Context) (Browser, error) {
	return &staticBrowser{fetcher: l.fetcher}, nil
}

type staticBrowser struct {
	fetcher *httpFetcher
}

func (b *staticBrowser) NewPage(ctx context.Context) (Page, error) {
	return &StaticPage{fetcher: b.fetcher, headers: map[string]string{}}, nil
}

func (b *staticBrowser) Close() error { return nil }

// StaticPage is a Page backed by a parsed HTML document.
type StaticPage struct {
	fetcher *httpFetcher
	headers map[string]string
	raw     string
	doc     *goquery.Document
}

// NewStaticPage builds a loaded page from markup. Goto is not supported on it.
func NewStaticPage(markup string) (*StaticPage, error) {
	p := &StaticPage{headers: map[string]string{}}
	if err := p.load(markup); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *StaticPage) load(markup string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("scraper: parse document: %w", err)
	}
	p.raw = markup
	p.doc = doc
	return nil
}

func (p *StaticPage) SetUserAgent(ua, acceptLanguage string) error {
	p.headers["User-Agent"] = ua
	if acceptLanguage != "" {
		p.headers["Accept-Language"] = acceptLanguage
	}
	return nil
}

// SetViewport is a no-op: nothing is laid out.
func (p *StaticPage) SetViewport(v Viewport) error { return nil }

func (p *StaticPage) SetExtraHTTPHeaders(headers map[string]string) error {
	for k, v := range headers {
		p.headers[k] = v
	}
	return nil
}

// Goto fetches url. Every readiness predicate is reached once the body is read.
func (p *StaticPage) Goto(ctx context.Context, url string, opts GotoOptions) error {
	if p.fetcher == nil {
		return errors.New("scraper: static page has no fetcher")
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	body, err := p.fetcher.fetch(ctx, url, p.headers)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return p.load(string(body))
}

func (p *StaticPage) QuerySelectorAll(ctx context.Context, selector string) ([]Element, error) {
	if p.doc == nil {
		return nil, errNotLoaded
	}
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("scraper: selector %q: %w", selector, err)
	}

	var out []Element
	p.doc.FindMatcher(sel).Each(func(_ int, s *goquery.Selection) {
		out = append(out, s)
	})
	return out, nil
}

func (p *StaticPage) TextContent(ctx context.Context, el Element) (string, error) {
	s, ok := el.(*goquery.Selection)
	if !ok {
		return "", fmt.Errorf("scraper: foreign element %T", el)
	}
	return strings.TrimSpace(s.Text()), nil
}

func (p *StaticPage) Content(ctx context.Context) (string, error) {
	if p.doc == nil {
		return "", errNotLoaded
	}
	return p.raw, nil
}

func (p *StaticPage) BodyText(ctx context.Context) (string, error) {
	if p.doc == nil {
		return "", errNotLoaded
	}
	return extractVisibleText([]byte(p.raw)), nil
}

func (p *StaticPage) Close() error {
	p.doc = nil
	return nil
}
