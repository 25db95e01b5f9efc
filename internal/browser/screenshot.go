package browser

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
	"go.uber.org/zap"
)

// CaptureScreenshot writes a full-page PNG named <tag>-<timestamp>.png
// under dir. Diagnostics only: failures are logged and swallowed so a
// broken screenshot never fails the operation that asked for it.
func CaptureScreenshot(page playwright.Page, dir, tag string, log *zap.Logger) string {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Warn("screenshot dir", zap.Error(err))
		return ""
	}
	name := fmt.Sprintf("%s-%s.png", tag, time.Now().Format("20060102-150405"))
	path := filepath.Join(dir, name)
	if _, err := page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(true),
	}); err != nil {
		log.Warn("screenshot capture", zap.String("tag", tag), zap.Error(err))
		return ""
	}
	log.Debug("screenshot saved", zap.String("path", path))
	return path
}
