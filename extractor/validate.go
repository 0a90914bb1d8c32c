package extractor

import (
	"net/url"
	"strings"

	"github.com/use-agent/teraprobe/models"
)

// ValidateURL checks that raw is an absolute http(s) URL whose host is one of
// domains or a subdomain of one. It never touches the network.
func ValidateURL(raw string, domains []string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, models.NewExtractError(models.ErrCodeInvalidInput,
			`missing required parameter: provide a "url" with the share link`, nil)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeInvalidInput, "invalid URL format", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Hostname() == "" {
		return nil, models.NewExtractError(models.ErrCodeInvalidInput, "invalid URL format", nil)
	}

	if !hostMatches(u.Hostname(), domains) {
		return nil, models.NewExtractError(models.ErrCodeInvalidInput,
			"URL must be a valid TeraBox link", nil)
	}
	return u, nil
}

func hostMatches(host string, domains []string) bool {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	for _, d := range domains {
		d = strings.ToLower(strings.TrimSpace(d))
		if d == "" {
			continue
		}
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}
