package scraper

// Identity is the user agent, viewport and headers a page presents.
type Identity struct {
	UserAgent string
	Viewport  Viewport
	Headers   map[string]string
}

const iPhoneUA = "Mozilla/5.0 (iPhone; CPU iPhone OS 14_7_1 like Mac OS X) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/14.1.2 Mobile/15E148 Safari/604.1"

// MobileIdentity returns the iPhone identity the share pages render their
// compact layout for. The locator's selectors target that layout.
func MobileIdentity() Identity {
	return Identity{
		UserAgent: iPhoneUA,
		Viewport: Viewport{
			Width:             375,
			Height:            812,
			DeviceScaleFactor: 3,
			Mobile:            true,
			HasTouch:          true,
		},
		Headers: map[string]string{
			"Accept-Language": "en-US,en;q=0.9",
			"Accept-Encoding": "gzip, deflate, br",
			"Accept":          "text/html,application/xhtml+xml,application/xml;q=0.9,image/webp,image/apng,*/*;q=0.8",
		},
	}
}

// apply configures page with the identity, stopping at the first failure.
func (id Identity) apply(page Page) error {
	if err := page.SetUserAgent(id.UserAgent, id.Headers["Accept-Language"]); err != nil {
		return err
	}
	if err := page.SetViewport(id.Viewport); err != nil {
		return err
	}
	if len(id.Headers) > 0 {
		return page.SetExtraHTTPHeaders(id.Headers)
	}
	return nil
}
