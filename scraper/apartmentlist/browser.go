package apartmentlist

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/chromedp"

	"rental-ingest/models"
	"rental-ingest/utils"
)

// BrowserPageSource renders pages in headless Chrome before returning their
// HTML. Use it when the plain GET is served a bot challenge instead of the
// listings page.
type BrowserPageSource struct {
	chromeBin string
	settle    time.Duration
	logger    *utils.Logger
}

// NewBrowserPageSource creates a BrowserPageSource. An empty chromeBin means
// the binary is looked up on PATH and in the usual install locations.
func NewBrowserPageSource(chromeBin string, logger *utils.Logger) *BrowserPageSource {
	if chromeBin == "" {
		chromeBin = findChromeBinary()
	}
	return &BrowserPageSource{chromeBin: chromeBin, settle: 3 * time.Second, logger: logger}
}

// FetchPage navigates to pageURL and returns document.documentElement.outerHTML.
func (b *BrowserPageSource) FetchPage(ctx context.Context, pageURL string) (string, error) {
	b.logger.Info("[browser] Using browser binary: %s", b.chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(userAgent),
	)
	if b.chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(b.chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	// Suppress chromedp log noise
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	resp, err := chromedp.RunResponse(browserCtx, chromedp.Navigate(pageURL))
	if err != nil {
		return "", &models.FetchError{Batch: -1, URL: pageURL, Err: fmt.Errorf("browser: navigate: %w", err)}
	}
	if resp != nil {
		if err := checkRenderStatus(pageURL, resp.Status); err != nil {
			return "", err
		}
	}

	var html string
	err = chromedp.Run(browserCtx,
		chromedp.Sleep(b.settle),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	if err != nil {
		return "", &models.FetchError{Batch: -1, URL: pageURL, Err: fmt.Errorf("browser: render: %w", err)}
	}
	return html, nil
}

// checkRenderStatus rejects the document response of a navigation that was
// not 2xx. Chrome renders error pages without reporting a failure.
func checkRenderStatus(pageURL string, status int64) error {
	if status >= 200 && status < 300 {
		return nil
	}
	return &models.FetchError{StatusCode: int(status), Batch: -1, URL: pageURL}
}

func findChromeBinary() string {
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
	} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}
