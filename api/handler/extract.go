package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/teraprobe/cache"
	"github.com/use-agent/teraprobe/models"
)

// Extractor is the extraction engine as the handlers see it.
type Extractor interface {
	Extract(ctx context.Context, rawURL string) (*models.ExtractResult, error)
	ActiveSessions() int
}

// Extract returns a handler for GET /?url=.
//
// Orchestration flow:
//  1. Bind & validate the query.
//  2. Cache lookup when max_age > 0.
//  3. Extractor.Extract → record + strategy.
//  4. Cache store, respond 200.
func Extract(ex Extractor, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		// ── 1. Parse request ────────────────────────────────────────
		var req models.ExtractRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   "Invalid request",
				Code:    models.ErrCodeInvalidInput,
				Message: err.Error(),
			})
			return
		}
		req.URL = strings.TrimSpace(req.URL)
		if req.URL == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   "Missing required parameter",
				Code:    models.ErrCodeInvalidInput,
				Message: `please provide a "url" query parameter with the share link`,
			})
			return
		}

		// ── 2. Cache lookup ─────────────────────────────────────────
		cacheKey := cache.Key(req.URL)
		if cc != nil && req.MaxAge > 0 {
			if cached, hit := cc.Get(cacheKey, req.MaxAge); hit {
				resp := toExtractResponse(cached)
				resp.CacheStatus = "hit"
				c.JSON(http.StatusOK, resp)
				return
			}
		}

		// ── 3. Extract ──────────────────────────────────────────────
		res, err := ex.Extract(c.Request.Context(), req.URL)
		if err != nil {
			respondError(c, err, req.URL)
			return
		}

		// ── 4. Cache store and respond ──────────────────────────────
		resp := toExtractResponse(res)
		if cc != nil && req.MaxAge > 0 {
			cc.Set(cacheKey, res)
			resp.CacheStatus = "miss"
		}

		c.JSON(http.StatusOK, resp)
	}
}

func toExtractResponse(res *models.ExtractResult) models.ExtractResponse {
	return models.ExtractResponse{
		Success:     true,
		URL:         res.URL,
		ExtractedAt: res.ExtractedAt.Format(time.RFC3339Nano),
		Data:        res.Record,
		Strategy:    res.Strategy,
	}
}

// respondError maps an ExtractError to the correct HTTP status code and
// writes a structured JSON error response.
func respondError(c *gin.Context, err error, url string) {
	extractErr := models.AsExtractError(err)
	status := mapErrorToStatus(extractErr)

	c.JSON(status, models.ErrorResponse{
		Success: false,
		Error:   errorLabel(status),
		Code:    extractErr.Code,
		Message: extractErr.Error(),
		URL:     url,
	})
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ExtractError) int {
	switch e.Code {
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeNavigationTimeout:
		return http.StatusRequestTimeout // 408
	case models.ErrCodeNotFound, models.ErrCodeInvalidPage:
		return http.StatusNotFound // 404
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	default:
		return http.StatusInternalServerError // 500
	}
}

func errorLabel(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "Invalid request"
	case http.StatusRequestTimeout:
		return "Request timeout"
	case http.StatusNotFound:
		return "Content not found"
	case http.StatusTooManyRequests:
		return "Too many requests"
	case http.StatusUnauthorized:
		return "Unauthorized"
	default:
		return "Internal server error"
	}
}
