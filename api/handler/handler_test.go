package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/teraprobe/cache"
	"github.com/use-agent/teraprobe/config"
	"github.com/use-agent/teraprobe/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const (
	goodURL  = "https://1024terabox.com/s/1good"
	otherURL = "https://terabox.com/s/1other"
)

// scriptedExtractor answers from fixed tables and records call order.
type scriptedExtractor struct {
	mu          sync.Mutex
	errs        map[string]error
	calls       []string
	inFlight    int
	maxInFlight int
	active      int
}

func (s *scriptedExtractor) Extract(ctx context.Context, rawURL string) (*models.ExtractResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, rawURL)
	s.inFlight++
	if s.inFlight > s.maxInFlight {
		s.maxInFlight = s.inFlight
	}
	s.mu.Unlock()

	time.Sleep(time.Millisecond)

	s.mu.Lock()
	s.inFlight--
	err := s.errs[rawURL]
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	return &models.ExtractResult{
		URL: rawURL,
		Record: models.ExtractedRecord{
			Duration: "00:08:50",
			FileSize: "55.3MB",
			RawText:  "00:08:50 | 55.3MB",
		},
		Strategy:    models.StrategyStructural,
		Selector:    "div.size",
		ExtractedAt: time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
	}, nil
}

func (s *scriptedExtractor) ActiveSessions() int { return s.active }

func (s *scriptedExtractor) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func newEngine(ex Extractor, cc *cache.Cache) *gin.Engine {
	r := gin.New()
	r.GET("/", Extract(ex, cc))
	r.POST("/batch", Batch(ex, 5))
	r.GET("/health", Health(ex, config.BrowserConfig{Engine: "http"}, time.Now()))
	r.GET("/docs", Docs(5))
	r.GET("/test", Test())
	return r
}

func get(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func post(r http.Handler, target, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func extractPath(u string) string {
	return "/?url=" + url.QueryEscape(u)
}

func TestExtract_Success(t *testing.T) {
	r := newEngine(&scriptedExtractor{}, nil)

	w := get(r, extractPath(goodURL))

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.ExtractResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, goodURL, resp.URL)
	assert.Equal(t, "00:08:50", resp.Data.Duration)
	assert.Equal(t, "55.3MB", resp.Data.FileSize)
	assert.Equal(t, "00:08:50 | 55.3MB", resp.Data.RawText)
	assert.Equal(t, models.StrategyStructural, resp.Strategy)
	assert.Equal(t, "2026-10-19T12:00:00Z", resp.ExtractedAt)
	assert.Empty(t, resp.CacheStatus)
}

func TestExtract_MissingURL(t *testing.T) {
	ex := &scriptedExtractor{}
	r := newEngine(ex, nil)

	for _, target := range []string{"/", "/?url=", "/?url=%20%20"} {
		w := get(r, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)

		var resp models.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.False(t, resp.Success)
		assert.Equal(t, "Missing required parameter", resp.Error)
		assert.Equal(t, models.ErrCodeInvalidInput, resp.Code)
	}
	assert.Zero(t, ex.callCount())
}

func TestExtract_ErrorStatusMapping(t *testing.T) {
	tests := []struct {
		code      string
		wantState int
		wantLabel string
	}{
		{models.ErrCodeInvalidInput, http.StatusBadRequest, "Invalid request"},
		{models.ErrCodeNavigationTimeout, http.StatusRequestTimeout, "Request timeout"},
		{models.ErrCodeNotFound, http.StatusNotFound, "Content not found"},
		{models.ErrCodeInvalidPage, http.StatusNotFound, "Content not found"},
		{models.ErrCodeNavigation, http.StatusInternalServerError, "Internal server error"},
		{models.ErrCodeSession, http.StatusInternalServerError, "Internal server error"},
		{models.ErrCodeInternal, http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			ex := &scriptedExtractor{errs: map[string]error{
				goodURL: models.NewExtractError(tt.code, "boom", nil),
			}}

			w := get(newEngine(ex, nil), extractPath(goodURL))

			assert.Equal(t, tt.wantState, w.Code)
			var resp models.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			assert.Equal(t, tt.code, resp.Code)
			assert.Equal(t, tt.wantLabel, resp.Error)
			assert.Contains(t, resp.Message, "boom")
			assert.Equal(t, goodURL, resp.URL)
		})
	}
}

func TestExtract_UntypedErrorIsInternal(t *testing.T) {
	ex := &scriptedExtractor{errs: map[string]error{goodURL: errors.New("kaboom")}}

	w := get(newEngine(ex, nil), extractPath(goodURL))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), models.ErrCodeInternal)
}

func TestExtract_CacheHit(t *testing.T) {
	cc := cache.New(10)
	defer cc.Close()
	ex := &scriptedExtractor{}
	r := newEngine(ex, cc)
	target := extractPath(goodURL) + "&max_age=60000"

	first := get(r, target)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Contains(t, first.Body.String(), `"cacheStatus":"miss"`)

	second := get(r, target)
	require.Equal(t, http.StatusOK, second.Code)
	assert.Contains(t, second.Body.String(), `"cacheStatus":"hit"`)
	assert.Equal(t, 1, ex.callCount())

	// Without max_age the cache is bypassed.
	third := get(r, extractPath(goodURL))
	require.Equal(t, http.StatusOK, third.Code)
	assert.Equal(t, 2, ex.callCount())
}

func TestExtract_FailuresAreNotCached(t *testing.T) {
	cc := cache.New(10)
	defer cc.Close()
	ex := &scriptedExtractor{errs: map[string]error{
		goodURL: models.NewExtractError(models.ErrCodeNotFound, "nothing", nil),
	}}
	r := newEngine(ex, cc)
	target := extractPath(goodURL) + "&max_age=60000"

	get(r, target)
	get(r, target)

	assert.Equal(t, 2, ex.callCount())
	assert.Zero(t, cc.Len())
}

func TestExtract_BadMaxAge(t *testing.T) {
	w := get(newEngine(&scriptedExtractor{}, nil), extractPath(goodURL)+"&max_age=soon")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBatch_RejectsBadInput(t *testing.T) {
	ex := &scriptedExtractor{}
	r := newEngine(ex, nil)

	tests := map[string]string{
		"not json":   `{urls:`,
		"missing":    `{}`,
		"empty":      `{"urls": []}`,
		"wrong type": `{"urls": "https://terabox.com/s/1"}`,
		"too many":   `{"urls": ["a","b","c","d","e","f"]}`,
	}
	for name, body := range tests {
		w := post(r, "/batch", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, name)
		assert.Contains(t, w.Body.String(), `"success":false`, name)
	}
	assert.Zero(t, ex.callCount())
}

func TestBatch_SerialInOrderAndIndependent(t *testing.T) {
	ex := &scriptedExtractor{errs: map[string]error{
		"not-a-url": models.NewExtractError(models.ErrCodeInvalidInput, "invalid URL", nil),
	}}
	r := newEngine(ex, nil)

	w := post(r, "/batch", `{"urls": ["`+goodURL+`", "not-a-url", "`+otherURL+`"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 3, resp.TotalRequests)
	assert.NotEmpty(t, resp.ProcessedAt)
	require.Len(t, resp.Results, 3)

	assert.Equal(t, goodURL, resp.Results[0].URL)
	assert.True(t, resp.Results[0].Success)
	require.NotNil(t, resp.Results[0].Data)
	assert.Equal(t, "55.3MB", resp.Results[0].Data.FileSize)

	assert.Equal(t, "not-a-url", resp.Results[1].URL)
	assert.False(t, resp.Results[1].Success)
	assert.Nil(t, resp.Results[1].Data)
	assert.Equal(t, models.ErrCodeInvalidInput, resp.Results[1].Code)
	assert.Contains(t, resp.Results[1].Error, "invalid URL")

	assert.Equal(t, otherURL, resp.Results[2].URL)
	assert.True(t, resp.Results[2].Success)

	assert.Equal(t, []string{goodURL, "not-a-url", otherURL}, ex.calls)
	assert.Equal(t, 1, ex.maxInFlight)
}

func TestBatch_NonStringEntryFailsAlone(t *testing.T) {
	ex := &scriptedExtractor{}
	r := newEngine(ex, nil)

	w := post(r, "/batch", `{"urls": ["`+goodURL+`", 42, null, "`+otherURL+`"]}`)

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 4, resp.TotalRequests)
	require.Len(t, resp.Results, 4)

	assert.True(t, resp.Results[0].Success)
	for i, raw := range []string{"42", "null"} {
		item := resp.Results[i+1]
		assert.Equal(t, raw, item.URL)
		assert.False(t, item.Success)
		assert.Nil(t, item.Data)
		assert.Equal(t, models.ErrCodeInvalidInput, item.Code)
		assert.Equal(t, "URL must be a string", item.Error)
	}
	assert.True(t, resp.Results[3].Success)

	assert.Equal(t, []string{goodURL, otherURL}, ex.calls)
}

func TestHealth(t *testing.T) {
	w := get(newEngine(&scriptedExtractor{active: 2}, nil), "/health")

	require.Equal(t, http.StatusOK, w.Code)
	var resp models.HealthResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 2, resp.ActiveExtractions)
	assert.Equal(t, "http", resp.BrowserEngine)
	assert.Empty(t, resp.BrowserBin)
	assert.Equal(t, Version, resp.Version)
}

func TestHealth_MissingBrowserIsDegraded(t *testing.T) {
	r := gin.New()
	r.GET("/health", Health(&scriptedExtractor{}, config.BrowserConfig{
		Engine:     "rod",
		BrowserBin: "/nonexistent/chromium",
	}, time.Now()))

	w := get(r, "/health")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"degraded"`)
}

func TestDocsAndTest(t *testing.T) {
	r := newEngine(&scriptedExtractor{}, nil)

	docs := get(r, "/docs")
	require.Equal(t, http.StatusOK, docs.Code)
	assert.Contains(t, docs.Body.String(), "POST /batch")
	assert.Contains(t, docs.Body.String(), `"batchMaxURLs":5`)

	test := get(r, "/test")
	require.Equal(t, http.StatusOK, test.Code)
	assert.Contains(t, test.Body.String(), "availableEndpoints")
}
