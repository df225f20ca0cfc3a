package snapshot

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/chromedp/chromedp"

	"vehicle-dashboard/utils"
)

// Capturer takes full-page screenshots of the dashboard in headless Chrome.
type Capturer struct {
	chromeBin string
	timeout   time.Duration
	retry     *utils.RetryConfig
	logger    *utils.Logger
}

// New creates a Capturer. An empty chromeBin searches the usual locations.
func New(chromeBin string, retry *utils.RetryConfig, logger *utils.Logger) *Capturer {
	return &Capturer{chromeBin: chromeBin, timeout: 60 * time.Second, retry: retry, logger: logger}
}

// Capture loads pageURL, waits for the dashboard footer and every chart
// image, and returns the page as PNG.
func (c *Capturer) Capture(ctx context.Context, pageURL string) ([]byte, error) {
	bin := c.chromeBin
	if bin == "" {
		bin = FindChromeBinary()
	}
	c.logger.Info("[snapshot] Using browser binary: %s", displayBinary(bin))

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.WindowSize(1280, 900),
	)
	if bin != "" {
		opts = append(opts, chromedp.ExecPath(bin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	var (
		png    []byte
		loaded bool
	)
	err := c.retry.Do(ctx, "dashboard-snapshot", func() error {
		runCtx, cancel := context.WithTimeout(browserCtx, c.timeout)
		defer cancel()

		return chromedp.Run(runCtx,
			chromedp.Navigate(pageURL),
			chromedp.WaitVisible("footer", chromedp.ByQuery),
			chromedp.Poll(`Array.from(document.images).every(i => i.complete)`, &loaded,
				chromedp.WithPollingInterval(200*time.Millisecond)),
			chromedp.FullScreenshot(&png, 100),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return png, nil
}

// CaptureToFile captures pageURL and writes the PNG to path, creating
// intermediate directories.
func (c *Capturer) CaptureToFile(ctx context.Context, pageURL, path string) error {
	png, err := c.Capture(ctx, pageURL)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("snapshot: create output dir: %w", err)
	}
	if err := os.WriteFile(path, png, 0644); err != nil {
		return fmt.Errorf("snapshot: write %q: %w", path, err)
	}
	c.logger.Info("[snapshot] Saved %d bytes to %s", len(png), path)
	return nil
}

// FindChromeBinary returns the first Chrome/Chromium found, or "" to let
// chromedp use its own default lookup.
func FindChromeBinary() string {
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}
	for _, name := range []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"} {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	for _, p := range []string{
		"/usr/bin/google-chrome-stable",
		"/usr/bin/chromium",
		"/snap/bin/chromium",
		"/opt/google/chrome/google-chrome",
		"/Applications/Google Chrome.app/Contents/MacOS/Google Chrome",
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

func displayBinary(bin string) string {
	if bin == "" {
		return "(chromedp default)"
	}
	return bin
}
