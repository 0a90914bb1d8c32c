package scraper

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/use-agent/teraprobe/models"
)

// Provisioner hands out one freshly launched, identity-configured browser
// page per Acquire call. Sessions are never pooled or shared.
type Provisioner struct {
	launcher Launcher
	identity Identity
	active   atomic.Int32
}

// NewProvisioner creates a Provisioner that launches through l and presents id.
func NewProvisioner(l Launcher, id Identity) *Provisioner {
	return &Provisioner{launcher: l, identity: id}
}

// Active reports the number of sessions acquired and not yet released.
func (p *Provisioner) Active() int {
	return int(p.active.Load())
}

// Acquire launches a browser, opens a page and applies the identity.
//
// Any failure is returned as a SESSION_ERROR; whatever was opened before the
// failure is closed again. There is no retry at this layer.
func (p *Provisioner) Acquire(ctx context.Context) (*Session, error) {
	browser, err := p.launcher.Launch(ctx)
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeSession, "failed to launch browser", err)
	}

	page, err := browser.NewPage(ctx)
	if err != nil {
		closeQuietly("browser", browser.Close)
		return nil, models.NewExtractError(models.ErrCodeSession, "failed to create page", err)
	}

	if err := p.identity.apply(page); err != nil {
		closeQuietly("page", page.Close)
		closeQuietly("browser", browser.Close)
		return nil, models.NewExtractError(models.ErrCodeSession, "failed to configure mobile page", err)
	}

	p.active.Add(1)
	return &Session{
		browser:   browser,
		page:      page,
		onRelease: func() { p.active.Add(-1) },
	}, nil
}

// Session exclusively owns one browser process and one page.
type Session struct {
	browser   Browser
	page      Page
	once      sync.Once
	onRelease func()
}

// Page returns the session's page.
func (s *Session) Page() Page {
	return s.page
}

// Release closes the page, then the browser. Errors are logged and swallowed.
// Only the first call has an effect.
func (s *Session) Release() {
	s.once.Do(func() {
		closeQuietly("page", s.page.Close)
		closeQuietly("browser", s.browser.Close)
		if s.onRelease != nil {
			s.onRelease()
		}
	})
}

func closeQuietly(what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		slog.Warn("cleanup: close failed", "resource", what, "error", err)
	}
}
