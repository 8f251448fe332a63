package services

import (
	"context"
	"log/slog"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/justsurfingit/jobboard/internal/config"
)

// ChromeFetcher drives a local Chrome through the DevTools protocol.
// Every call gets its own browser process.
type ChromeFetcher struct {
	cfg      config.BrowserConfig
	execPath string
	logger   *slog.Logger
}

func NewChromeFetcher(cfg config.BrowserConfig, logger *slog.Logger) *ChromeFetcher {
	return &ChromeFetcher{cfg: cfg, logger: logger}
}

// WithExecPath pins the Chrome binary instead of searching PATH.
func (f *ChromeFetcher) WithExecPath(path string) *ChromeFetcher {
	f.execPath = path
	return f
}

func (f *ChromeFetcher) Fetch(ctx context.Context, url, selector string, maxItems int) string {
	if maxItems < 1 {
		return ""
	}

	ctx, cancel := context.WithTimeout(ctx, navigationBudget+f.cfg.WaitTimeout+f.cfg.SettleDelay)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", f.cfg.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("start-maximized", true),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.UserAgent(f.cfg.UserAgent),
	)
	if f.execPath != "" {
		opts = append(opts, chromedp.ExecPath(f.execPath))
	}

	// Cancelling the allocator kills the browser process on every return path
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	var fragments []string
	err := chromedp.Run(browserCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(hideWebdriverJS).Do(ctx)
			return err
		}),
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			waitCtx, cancel := context.WithTimeout(ctx, f.cfg.WaitTimeout)
			defer cancel()
			return chromedp.WaitReady(selector, chromedp.ByQuery).Do(waitCtx)
		}),
		chromedp.Sleep(f.cfg.SettleDelay),
		chromedp.Evaluate(collectScript(selector, maxItems), &fragments),
	)
	if err != nil {
		f.logger.Warn("chrome fetch failed", "url", url, "selector", selector, "error", err)
		return ""
	}

	f.logger.Info("captured job cards", "url", url, "count", len(fragments))
	return joinFragments(fragments)
}
