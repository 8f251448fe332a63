package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/justsurfingit/jobboard/internal/config"
	"github.com/playwright-community/playwright-go"
)

// PlaywrightFetcher is the alternate backend for hosts where the
// playwright-managed Chromium is installed instead of a system Chrome.
type PlaywrightFetcher struct {
	cfg    config.BrowserConfig
	logger *slog.Logger
}

func NewPlaywrightFetcher(cfg config.BrowserConfig, logger *slog.Logger) *PlaywrightFetcher {
	return &PlaywrightFetcher{cfg: cfg, logger: logger}
}

func (f *PlaywrightFetcher) Fetch(ctx context.Context, url, selector string, maxItems int) string {
	if maxItems < 1 {
		return ""
	}

	fragments, err := f.fetch(ctx, url, selector, maxItems)
	if err != nil {
		f.logger.Warn("playwright fetch failed", "url", url, "selector", selector, "error", err)
		return ""
	}

	f.logger.Info("captured job cards", "url", url, "count", len(fragments))
	return joinFragments(fragments)
}

func (f *PlaywrightFetcher) fetch(ctx context.Context, url, selector string, maxItems int) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("could not start playwright: %w", err)
	}
	defer pw.Stop()

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(f.cfg.Headless),
		Args: []string{
			"--disable-blink-features=AutomationControlled",
			"--start-maximized",
			"--disable-notifications",
		},
		IgnoreDefaultArgs: []string{"--enable-automation"},
	})
	if err != nil {
		return nil, fmt.Errorf("could not launch chromium browser: %w", err)
	}
	defer browser.Close()

	browserCtx, err := browser.NewContext(playwright.BrowserNewContextOptions{
		UserAgent:  playwright.String(f.cfg.UserAgent),
		NoViewport: playwright.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("could not create browser context: %w", err)
	}
	defer browserCtx.Close()

	if err := browserCtx.AddInitScript(playwright.Script{Content: playwright.String(hideWebdriverJS)}); err != nil {
		return nil, fmt.Errorf("add init script: %w", err)
	}

	page, err := browserCtx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("could not create new page: %w", err)
	}

	if _, err := page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
		Timeout:   playwright.Float(float64(navigationBudget.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("navigate: %w", err)
	}

	cards := page.Locator(selector)
	if err := cards.First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateAttached,
		Timeout: playwright.Float(float64(f.cfg.WaitTimeout.Milliseconds())),
	}); err != nil {
		return nil, fmt.Errorf("wait for %q: %w", selector, err)
	}

	if err := sleepContext(ctx, f.cfg.SettleDelay); err != nil {
		return nil, err
	}

	all, err := cards.All()
	if err != nil {
		return nil, fmt.Errorf("list job cards: %w", err)
	}

	fragments := make([]string, 0, min(len(all), maxItems))
	for _, card := range all {
		if len(fragments) == maxItems {
			break
		}
		v, err := card.Evaluate("el => el.outerHTML", nil)
		if err != nil {
			return nil, fmt.Errorf("read outerHTML: %w", err)
		}
		if html, ok := v.(string); ok {
			fragments = append(fragments, html)
		}
	}
	return fragments, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
