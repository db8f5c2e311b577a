package fetcher

import (
	"os/exec"

	"github.com/jmylchreest/staylens/internal/logger"
)

// chromeBinaries are tried in order by FindChrome.
var chromeBinaries = []string{
	"google-chrome-stable",
	"google-chrome",
	"chromium",
	"chromium-browser",
	"chrome",
	"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	"/Applications/Chromium.app/Contents/MacOS/Chromium",
	"/snap/bin/chromium",
	`C:\Program Files\Google\Chrome\Application\chrome.exe`,
	`C:\Program Files (x86)\Google\Chrome\Application\chrome.exe`,
}

var lookPath = exec.LookPath

// FindChrome returns the first Chrome or Chromium binary found, or "" so
// that chromedp falls back to its own search.
func FindChrome() string {
	for _, name := range chromeBinaries {
		if path, err := lookPath(name); err == nil {
			logger.Debug("found browser binary", "name", name, "path", path)
			return path
		}
	}
	logger.Warn("no Chrome binary found, dynamic fetch mode may not work")
	return ""
}
