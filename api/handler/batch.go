package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/teraprobe/models"
)

// Batch returns a handler for POST /batch.
//
// URLs are extracted one at a time in input order; each extraction releases
// its browser before the next one starts. A failed URL only affects its own
// entry.
func Batch(ex Extractor, maxURLs int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BatchRequest
		if err := c.ShouldBindJSON(&req); err != nil || len(req.URLs) == 0 {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   "Invalid input",
				Code:    models.ErrCodeInvalidInput,
				Message: "please provide an array of URLs in the request body",
			})
			return
		}

		if maxURLs > 0 && len(req.URLs) > maxURLs {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error:   "Too many URLs",
				Code:    models.ErrCodeInvalidInput,
				Message: fmt.Sprintf("maximum %d URLs allowed per batch request", maxURLs),
			})
			return
		}

		slog.Info("batch started", "total", len(req.URLs))

		ctx := c.Request.Context()
		results := make([]models.BatchItem, 0, len(req.URLs))
		failed := 0
		for _, entry := range req.URLs {
			rawURL, ok := decodeURL(entry)
			if !ok {
				failed++
				results = append(results, models.BatchItem{
					URL:     string(entry),
					Success: false,
					Error:   "URL must be a string",
					Code:    models.ErrCodeInvalidInput,
				})
				continue
			}
			res, err := ex.Extract(ctx, rawURL)
			if err != nil {
				failed++
				ee := models.AsExtractError(err)
				results = append(results, models.BatchItem{
					URL:     rawURL,
					Success: false,
					Error:   ee.Error(),
					Code:    ee.Code,
				})
				continue
			}
			record := res.Record
			results = append(results, models.BatchItem{
				URL:      rawURL,
				Success:  true,
				Data:     &record,
				Strategy: res.Strategy,
			})
		}

		slog.Info("batch finished",
			"total", len(req.URLs),
			"succeeded", len(req.URLs)-failed,
			"failed", failed,
		)

		c.JSON(http.StatusOK, models.BatchResponse{
			Success:       true,
			ProcessedAt:   time.Now().UTC().Format(time.RFC3339Nano),
			TotalRequests: len(req.URLs),
			Results:       results,
		})
	}
}

// decodeURL reports whether entry is a JSON string and returns its value.
func decodeURL(entry json.RawMessage) (string, bool) {
	var v any
	if err := json.Unmarshal(entry, &v); err != nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}
