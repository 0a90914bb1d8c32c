package extractor

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/use-agent/teraprobe/models"
)

var (
	// delimiterPattern splits "00:08:50 | 55.3MB", "3:45 · 120KB" and "1:02 • 3GB".
	delimiterPattern = regexp.MustCompile(`\s*[|·•]\s*`)

	durationPart     = regexp.MustCompile(`^\d{1,2}:\d{2}(:\d{2})?$`)
	durationAnywhere = regexp.MustCompile(`\d{1,2}:\d{2}(?::\d{2})?`)
	sizePattern      = regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s*(?:KB|MB|GB)`)
)

// ParseFragment classifies a fragment into duration and size. It never
// fails: a field it cannot resolve is "N/A", and RawText is always the input.
func ParseFragment(text string) (rec models.ExtractedRecord) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("fragment parsing panicked", "rawText", text, "panic", r)
			rec = models.ExtractedRecord{
				Duration: models.NotAvailable,
				FileSize: models.NotAvailable,
				RawText:  text,
			}
		}
	}()

	var duration, size string
	for _, part := range delimiterPattern.Split(text, -1) {
		part = strings.TrimSpace(part)
		switch {
		case duration == "" && durationPart.MatchString(part):
			duration = part
		case size == "" && sizePattern.MatchString(part):
			size = part
		}
	}

	// Not delimiter-shaped: look for each field anywhere in the text.
	if duration == "" {
		duration = durationAnywhere.FindString(text)
	}
	if size == "" {
		size = sizePattern.FindString(text)
	}

	return models.ExtractedRecord{
		Duration: orNotAvailable(duration),
		FileSize: orNotAvailable(size),
		RawText:  text,
	}
}

func orNotAvailable(s string) string {
	if s == "" {
		return models.NotAvailable
	}
	return s
}
