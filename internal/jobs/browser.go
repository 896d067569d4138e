package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// Renderer returns the HTML of a page after it has been rendered.
type Renderer interface {
	Render(ctx context.Context, url string) (string, error)
}

// BrowserRenderer renders pages in Chrome through chromedp.
// Requires Chrome or Chromium to be installed.
type BrowserRenderer struct {
	Timeout  time.Duration
	Headless bool
	// Settle is how long to wait after the body is ready for scripts to fill the page.
	Settle time.Duration
	Logger *zap.Logger
}

func NewBrowserRenderer(timeout time.Duration, headless bool, logger *zap.Logger) *BrowserRenderer {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BrowserRenderer{
		Timeout:  timeout,
		Headless: headless,
		Settle:   3 * time.Second,
		Logger:   logger,
	}
}

func (b *BrowserRenderer) Render(ctx context.Context, url string) (string, error) {
	b.Logger.Debug("rendering page", zap.String("url", url), zap.Bool("headless", b.Headless))

	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", b.Headless),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(DefaultUserAgent),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, b.Timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		chromedp.Sleep(b.Settle),
		// Lazy-loaded result lists fill in on scroll.
		chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
		chromedp.Sleep(time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("rendering %q: %w", url, err)
	}

	b.Logger.Debug("page rendered", zap.String("url", url), zap.Int("bytes", len(html)))

	return html, nil
}
