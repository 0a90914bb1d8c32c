package models

// ExtractResponse is the success envelope for GET /?url=.
type ExtractResponse struct {
	Success     bool            `json:"success"`
	URL         string          `json:"url"`
	ExtractedAt string          `json:"extractedAt"`
	Data        ExtractedRecord `json:"data"`

	// Strategy records which discovery step found the fragment.
	Strategy Strategy `json:"strategy,omitempty"`

	// CacheStatus is "hit", "miss", or empty when caching was not requested.
	CacheStatus string `json:"cacheStatus,omitempty"`
}

// ErrorResponse is the failure envelope shared by every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	URL     string `json:"url,omitempty"`
}

// BatchItem is one per-URL entry in a batch response.
type BatchItem struct {
	URL      string           `json:"url"`
	Success  bool             `json:"success"`
	Data     *ExtractedRecord `json:"data,omitempty"`
	Strategy Strategy         `json:"strategy,omitempty"`
	Error    string           `json:"error,omitempty"`
	Code     string           `json:"code,omitempty"`
}

// BatchResponse is the response for POST /batch.
type BatchResponse struct {
	Success       bool        `json:"success"`
	ProcessedAt   string      `json:"processedAt"`
	TotalRequests int         `json:"totalRequests"`
	Results       []BatchItem `json:"results"`
}

// HealthResponse is the response for GET /health.
type HealthResponse struct {
	Status            string `json:"status"` // "healthy" or "degraded"
	Uptime            string `json:"uptime"`
	ActiveExtractions int    `json:"activeExtractions"`
	BrowserEngine     string `json:"browserEngine"`
	BrowserBin        string `json:"browserBin,omitempty"`
	Version           string `json:"version"`
}
