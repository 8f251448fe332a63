package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/justsurfingit/jobboard/internal/config"
)

// PageFetcher loads a listing page in a real browser and returns the outer
// markup of up to maxItems elements matching selector. Failures are logged
// and reported as "", never as an error.
type PageFetcher interface {
	Fetch(ctx context.Context, url, selector string, maxItems int) string
}

// navigationBudget bounds page load, on top of the selector wait and settle delay.
const navigationBudget = 60 * time.Second

const hideWebdriverJS = `Object.defineProperty(navigator, 'webdriver', {get: () => undefined})`

// NewPageFetcher returns the fetcher for the configured backend.
func NewPageFetcher(cfg config.BrowserConfig, logger *slog.Logger) (PageFetcher, error) {
	switch cfg.Backend {
	case config.BackendChrome:
		return NewChromeFetcher(cfg, logger), nil
	case config.BackendPlaywright:
		return NewPlaywrightFetcher(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported browser backend %q", cfg.Backend)
	}
}

// collectScript returns a JS expression yielding the outerHTML of the
// first n matches of selector.
func collectScript(selector string, n int) string {
	quoted, _ := json.Marshal(selector)
	return fmt.Sprintf(`Array.from(document.querySelectorAll(%s)).slice(0, %d).map(el => el.outerHTML)`, quoted, n)
}

func joinFragments(fragments []string) string {
	return strings.Join(fragments, "\n")
}
