package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/teraprobe/config"
	"github.com/use-agent/teraprobe/models"
	"github.com/use-agent/teraprobe/scraper"
)

// Version is reported by /health and /docs.
const Version = "1.0.0"

// Health returns a handler for GET /health.
//
// Reports degraded when the rod engine is selected but no Chromium binary
// can be found.
func Health(ex Extractor, browser config.BrowserConfig, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		engine := browser.Engine
		if engine == "" {
			engine = "rod"
		}

		status := "healthy"
		var bin string
		if engine == "rod" {
			found, ok := scraper.DetectBrowser(browser.BrowserBin)
			if ok {
				bin = found
			} else {
				status = "degraded"
			}
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:            status,
			Uptime:            time.Since(startTime).Round(time.Second).String(),
			ActiveExtractions: ex.ActiveSessions(),
			BrowserEngine:     engine,
			BrowserBin:        bin,
			Version:           Version,
		})
	}
}
