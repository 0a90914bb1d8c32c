package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "rod", cfg.Browser.Engine)
	assert.Equal(t, 30*time.Second, cfg.Extractor.NavigationTimeout)
	assert.Equal(t, 10, cfg.Extractor.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.Extractor.AttemptDelay)
	assert.Equal(t, []string{"terabox.com", "1024terabox.com"}, cfg.Extractor.TargetDomains)
	assert.Equal(t, 5, cfg.Batch.MaxURLs)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TERAPROBE_PORT", "9090")
	t.Setenv("TERAPROBE_BROWSER_ENGINE", "http")
	t.Setenv("TERAPROBE_MAX_ATTEMPTS", "3")
	t.Setenv("TERAPROBE_ATTEMPT_DELAY", "250ms")
	t.Setenv("TERAPROBE_TARGET_DOMAINS", " terabox.app , ,example.org")
	t.Setenv("TERAPROBE_AUTH_ENABLED", "true")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "http", cfg.Browser.Engine)
	assert.Equal(t, 3, cfg.Extractor.MaxAttempts)
	assert.Equal(t, 250*time.Millisecond, cfg.Extractor.AttemptDelay)
	assert.Equal(t, []string{"terabox.app", "example.org"}, cfg.Extractor.TargetDomains)
	assert.True(t, cfg.Auth.Enabled)
}

func TestLoad_MalformedValuesFallBack(t *testing.T) {
	t.Setenv("TERAPROBE_PORT", "not-a-number")
	t.Setenv("TERAPROBE_NAV_TIMEOUT", "soon")
	t.Setenv("TERAPROBE_HEADLESS", "maybe")

	cfg := Load()

	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Extractor.NavigationTimeout)
	assert.True(t, cfg.Browser.Headless)
}
