package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// endpoint describes one route for /docs.
type endpoint struct {
	Description string            `json:"description"`
	Parameters  map[string]string `json:"parameters,omitempty"`
	Body        map[string]string `json:"body,omitempty"`
	Example     string            `json:"example,omitempty"`
}

// Docs returns a handler for GET /docs.
func Docs(maxURLs int) gin.HandlerFunc {
	doc := gin.H{
		"title":       "TeraBox File Info Extractor API",
		"version":     Version,
		"description": "Extract file size and duration from TeraBox share links using mobile browser simulation",
		"endpoints": map[string]endpoint{
			"GET /": {
				Description: "Extract file information from a single share URL",
				Parameters: map[string]string{
					"url":     "Required query parameter containing the share link",
					"max_age": "Optional, serve a cached result younger than this many milliseconds",
				},
				Example: "/?url=https://1024terabox.com/s/1Pc4wBeMRpG-ePB1DI_kkPw",
			},
			"POST /batch": {
				Description: "Extract file information from multiple share URLs, processed one at a time",
				Body: map[string]string{
					"urls": "Array of share URLs",
				},
				Example: `{"urls": ["https://1024terabox.com/s/url1", "https://1024terabox.com/s/url2"]}`,
			},
			"GET /health": {Description: "Health check endpoint"},
			"GET /docs":   {Description: "API documentation"},
			"GET /test":   {Description: "Route listing"},
		},
		"limits": gin.H{
			"batchMaxURLs": maxURLs,
		},
		"responseFormat": gin.H{
			"success": "Boolean indicating if the request was successful",
			"data": gin.H{
				"duration": "Video duration in HH:MM:SS or MM:SS format, or N/A",
				"fileSize": "File size with unit (KB, MB, GB), or N/A",
				"rawText":  "Original extracted text for reference",
			},
			"strategy": "structural, attribute_pattern or regex_fallback",
			"error":    "Error label if request failed",
			"code":     "INVALID_INPUT, NAVIGATION_TIMEOUT, NAVIGATION_FAILED, INVALID_PAGE, NOT_FOUND, SESSION_ERROR or INTERNAL_ERROR",
		},
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, doc)
	}
}

// Test returns a handler for GET /test listing the available routes.
func Test() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success":   true,
			"message":   "API routes are working correctly",
			"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
			"availableEndpoints": []string{
				"GET /?url=<share_url> - Extract file info",
				"POST /batch - Batch processing",
				"GET /docs - API documentation",
				"GET /health - Health check",
				"GET /test - This test endpoint",
			},
		})
	}
}
