package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// fileInfo mirrors the data block of the teraprobe API.
type fileInfo struct {
	Duration string `json:"duration"`
	FileSize string `json:"fileSize"`
	RawText  string `json:"rawText"`
}

// extractResponse mirrors GET /?url= for both outcomes.
type extractResponse struct {
	Success     bool     `json:"success"`
	URL         string   `json:"url"`
	Data        fileInfo `json:"data"`
	Strategy    string   `json:"strategy"`
	CacheStatus string   `json:"cacheStatus"`
	Error       string   `json:"error"`
	Code        string   `json:"code"`
	Message     string   `json:"message"`
}

// batchResponse mirrors POST /batch.
type batchResponse struct {
	Success       bool   `json:"success"`
	TotalRequests int    `json:"totalRequests"`
	Error         string `json:"error"`
	Message       string `json:"message"`
	Results       []struct {
		URL     string    `json:"url"`
		Success bool      `json:"success"`
		Data    *fileInfo `json:"data"`
		Error   string    `json:"error"`
		Code    string    `json:"code"`
	} `json:"results"`
}

// apiClient calls a running teraprobe server.
type apiClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

func main() {
	apiURL := os.Getenv("TERAPROBE_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:3000"
	}

	s := newServer(&apiClient{
		baseURL: strings.TrimRight(apiURL, "/"),
		apiKey:  os.Getenv("TERAPROBE_API_KEY"),
		http:    &http.Client{Timeout: 600 * time.Second},
	})

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(c *apiClient) *server.MCPServer {
	s := server.NewMCPServer(
		"teraprobe",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	extractTool := mcp.NewTool("extract_file_info",
		mcp.WithDescription("Open a TeraBox share link in a headless mobile browser and return the media duration and file size."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The TeraBox share link, e.g. https://1024terabox.com/s/1abc"),
		),
		mcp.WithNumber("max_age",
			mcp.Description("Serve a cached result younger than this many milliseconds (default: 0, always extract)"),
			mcp.Min(0),
		),
	)
	s.AddTool(extractTool, handleExtract(c))

	batchTool := mcp.NewTool("batch_extract",
		mcp.WithDescription("Extract duration and file size for up to 5 TeraBox share links. Links are processed one after another."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("List of TeraBox share links"),
			mcp.WithStringItems(),
		),
	)
	s.AddTool(batchTool, handleBatch(c))

	return s
}

// do sends a request and returns the body regardless of status; the API
// always answers with a JSON envelope.
func (c *apiClient) do(req *http.Request) ([]byte, error) {
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

func (c *apiClient) extract(ctx context.Context, shareURL string, maxAge int) (*extractResponse, error) {
	q := url.Values{"url": {shareURL}}
	if maxAge > 0 {
		q.Set("max_age", strconv.Itoa(maxAge))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var out extractResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &out, nil
}

func (c *apiClient) batch(ctx context.Context, urls []string) (*batchResponse, error) {
	payload, err := json.Marshal(map[string][]string{"urls": urls})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/batch", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	var out batchResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	return &out, nil
}

func handleExtract(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		shareURL, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		resp, err := c.extract(ctx, shareURL, request.GetInt("max_age", 0))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(fmt.Sprintf("[%s] %s", resp.Code, resp.Message)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "URL: %s\n", resp.URL)
		fmt.Fprintf(&sb, "Duration: %s\n", resp.Data.Duration)
		fmt.Fprintf(&sb, "File size: %s\n", resp.Data.FileSize)
		fmt.Fprintf(&sb, "Raw text: %s\n", resp.Data.RawText)
		if resp.Strategy != "" {
			fmt.Fprintf(&sb, "Found by: %s\n", resp.Strategy)
		}
		if resp.CacheStatus != "" {
			fmt.Fprintf(&sb, "Cache: %s\n", resp.CacheStatus)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleBatch(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}

		resp, err := c.batch(ctx, urls)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if !resp.Success {
			return mcp.NewToolResultError(fmt.Sprintf("%s: %s", resp.Error, resp.Message)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Processed %d links\n\n", resp.TotalRequests)
		for i, r := range resp.Results {
			if r.Success && r.Data != nil {
				fmt.Fprintf(&sb, "[%d] %s\n    duration: %s, size: %s\n", i+1, r.URL, r.Data.Duration, r.Data.FileSize)
				continue
			}
			fmt.Fprintf(&sb, "[%d] %s\n    FAILED [%s]: %s\n", i+1, r.URL, r.Code, r.Error)
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}
