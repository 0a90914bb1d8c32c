package models

import "encoding/json"

// ExtractRequest is the query binding for GET /?url=.
type ExtractRequest struct {
	// URL is the share link to inspect. Required.
	URL string `form:"url"`

	// MaxAge, in milliseconds, allows serving a cached record younger than
	// this. Zero disables the cache for the request.
	MaxAge int `form:"max_age" binding:"omitempty,min=0"`
}

// BatchRequest is the payload for POST /batch.
type BatchRequest struct {
	// URLs is the list of share links to inspect, processed in order. Entries
	// are kept raw so that a non-string entry fails alone.
	URLs []json.RawMessage `json:"urls"`
}
