package scraper

import (
	"os"

	"github.com/go-rod/rod/lib/launcher"
)

// DetectBrowser reports which Chromium binary a rod session would start and
// whether it exists. An explicit bin wins over the PATH lookup.
func DetectBrowser(bin string) (string, bool) {
	if bin != "" {
		_, err := os.Stat(bin)
		return bin, err == nil
	}
	return launcher.LookPath()
}
