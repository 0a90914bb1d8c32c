package extractor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/use-agent/teraprobe/models"
	"github.com/use-agent/teraprobe/scraper"
)

var (
	primaryRule   = SelectorRule{Selector: "#primary", Strategy: models.StrategyStructural}
	secondaryRule = SelectorRule{Selector: ".secondary", Strategy: models.StrategyAttributePattern}
	testRules     = []SelectorRule{primaryRule, secondaryRule}
)

// errDetached simulates a node removed by a re-render between query and read.
var errDetached = errors.New("node is detached from document")

type fakeElement struct {
	text string
}

// fakePage renders one frame per locate attempt. A frame starts whenever the
// first rule's selector is queried; after the last frame the DOM stays put.
type fakePage struct {
	mu        sync.Mutex
	frames    []map[string][]string
	frame     int
	queryErrs map[int]error
	content   string
	body      string
	gotoErr   error
	hang      bool
	closes    int
}

func newFakePage(frames ...map[string][]string) *fakePage {
	return &fakePage{
		frames:  frames,
		frame:   -1,
		content: "<html><title>TeraBox</title></html>",
	}
}

func (p *fakePage) SetUserAgent(string, string) error           { return nil }
func (p *fakePage) SetViewport(scraper.Viewport) error          { return nil }
func (p *fakePage) SetExtraHTTPHeaders(map[string]string) error { return nil }

func (p *fakePage) Goto(ctx context.Context, url string, opts scraper.GotoOptions) error {
	if p.hang {
		t := time.NewTimer(opts.Timeout)
		defer t.Stop()
		select {
		case <-t.C:
			return context.DeadlineExceeded
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return p.gotoErr
}

func (p *fakePage) QuerySelectorAll(ctx context.Context, selector string) ([]scraper.Element, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if selector == testRules[0].Selector || selector == DefaultRules[0].Selector {
		p.frame++
	}
	if err := p.queryErrs[p.frame]; err != nil {
		return nil, err
	}
	if len(p.frames) == 0 {
		return nil, nil
	}
	f := p.frame
	if f >= len(p.frames) {
		f = len(p.frames) - 1
	}
	var out []scraper.Element
	for _, text := range p.frames[f][selector] {
		out = append(out, fakeElement{text: text})
	}
	return out, nil
}

func (p *fakePage) TextContent(ctx context.Context, el scraper.Element) (string, error) {
	fe := el.(fakeElement)
	if fe.text == "<detached>" {
		return "", errDetached
	}
	return fe.text, nil
}

func (p *fakePage) Content(context.Context) (string, error)  { return p.content, nil }
func (p *fakePage) BodyText(context.Context) (string, error) { return p.body, nil }

func (p *fakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closes++
	return nil
}

// attempts reports how many cascade passes the page has seen.
func (p *fakePage) attempts() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.frame + 1
}

type fakeBrowser struct {
	page     *fakePage
	pageErr  error
	closeErr error
	closes   int
}

func (b *fakeBrowser) NewPage(context.Context) (scraper.Page, error) {
	if b.pageErr != nil {
		return nil, b.pageErr
	}
	return b.page, nil
}

func (b *fakeBrowser) Close() error {
	b.closes++
	return b.closeErr
}

type fakeLauncher struct {
	browser   *fakeBrowser
	launchErr error
	launches  int
}

func (l *fakeLauncher) Launch(context.Context) (scraper.Browser, error) {
	l.launches++
	if l.launchErr != nil {
		return nil, l.launchErr
	}
	return l.browser, nil
}
