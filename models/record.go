package models

import "time"

// NotAvailable is the placeholder for a field the parser could not resolve.
const NotAvailable = "N/A"

// Strategy identifies which discovery step produced a fragment.
type Strategy string

const (
	StrategyStructural       Strategy = "structural"
	StrategyAttributePattern Strategy = "attribute_pattern"
	StrategyRegexFallback    Strategy = "regex_fallback"
)

// CandidateFragment is a short piece of page text believed to encode
// "duration | size".
type CandidateFragment struct {
	Text     string
	Strategy Strategy

	// Selector is the CSS selector that matched. Empty for the regex fallback.
	Selector string
}

// ExtractedRecord is the normalized result of parsing a fragment.
type ExtractedRecord struct {
	Duration string `json:"duration"`
	FileSize string `json:"fileSize"`
	RawText  string `json:"rawText"`
}

// ExtractResult is what the orchestrator hands back to the HTTP layer.
type ExtractResult struct {
	URL         string
	Record      ExtractedRecord
	Strategy    Strategy
	Selector    string
	ExtractedAt time.Time
}
