package extractor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/use-agent/teraprobe/models"
)

// categorizeError wraps raw errors into typed ExtractErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ExtractError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewExtractError(models.ErrCodeNavigationTimeout, msg, err)
	case errors.Is(err, context.Canceled):
		return models.NewExtractError(models.ErrCodeNavigationTimeout, "request canceled", err)
	default:
		return models.NewExtractError(models.ErrCodeNavigation, msg, err)
	}
}

// navigationError distinguishes a missed readiness deadline from a failed load.
func navigationError(err error, timeout time.Duration) *models.ExtractError {
	if errors.Is(err, context.DeadlineExceeded) {
		return models.NewExtractError(models.ErrCodeNavigationTimeout,
			fmt.Sprintf("navigation timeout: page did not become ready within %s", timeout), err)
	}
	return categorizeError(err, "navigation to target URL failed")
}
