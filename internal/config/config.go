// Package config loads runtime configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds everything the services need at construction time.
type Config struct {
	Port            string
	DefaultMaxItems int
	Database        DatabaseConfig
	LLM             LLMConfig
	Browser         BrowserConfig
	SitesFile       string
	RedisURL        string
	ScrapeSchedule  string // cron spec, empty disables periodic runs
}

// DatabaseConfig selects the gorm dialector.
type DatabaseConfig struct {
	Driver string // "sqlite" or "postgres"
	URL    string
}

// LLMConfig describes the hosted text-generation endpoint.
type LLMConfig struct {
	Provider  string // "groq" or "googleai"
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

// BrowserConfig controls the page fetcher.
type BrowserConfig struct {
	Backend     string // "chrome" or "playwright"
	Headless    bool
	UserAgent   string
	WaitTimeout time.Duration
	SettleDelay time.Duration
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	ProviderGroq     = "groq"
	ProviderGoogleAI = "googleai"

	BackendChrome     = "chrome"
	BackendPlaywright = "playwright"

	defaultSQLiteURL = "file:jobs.db?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on"
	defaultGroqURL   = "https://api.groq.com/openai/v1"
	defaultGroqModel = "meta-llama/llama-4-maverick-17b-128e-instruct"
	defaultGemini    = "gemini-2.5-flash"

	DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
)

// Load reads environment variables and returns a validated Config.
// The LLM API key is read but not required here; the extraction client
// reports a missing key when it is built.
func Load() (*Config, error) {
	cfg := &Config{
		Port:           getenv("PORT", "8000"),
		SitesFile:      os.Getenv("SITES_FILE"),
		RedisURL:       os.Getenv("REDIS_URL"),
		ScrapeSchedule: os.Getenv("SCRAPE_SCHEDULE"),
		Database: DatabaseConfig{
			Driver: getenv("DB_DRIVER", DriverSQLite),
			URL:    os.Getenv("DATABASE_URL"),
		},
		LLM: LLMConfig{
			Provider: getenv("LLM_PROVIDER", ProviderGroq),
			Model:    os.Getenv("LLM_MODEL"),
			BaseURL:  getenv("LLM_BASE_URL", defaultGroqURL),
		},
		Browser: BrowserConfig{
			Backend:   getenv("BROWSER", BackendChrome),
			UserAgent: getenv("BROWSER_USER_AGENT", DefaultUserAgent),
		},
	}

	var err error
	if cfg.DefaultMaxItems, err = intEnv("DEFAULT_MAX_ITEMS", 3); err != nil {
		return nil, err
	}
	if cfg.LLM.MaxTokens, err = intEnv("LLM_MAX_TOKENS", 2048); err != nil {
		return nil, err
	}
	if cfg.LLM.Timeout, err = durationEnv("LLM_TIMEOUT", 60*time.Second); err != nil {
		return nil, err
	}
	if cfg.Browser.WaitTimeout, err = durationEnv("BROWSER_WAIT_TIMEOUT", 20*time.Second); err != nil {
		return nil, err
	}
	if cfg.Browser.SettleDelay, err = durationEnv("BROWSER_SETTLE_DELAY", 5*time.Second); err != nil {
		return nil, err
	}
	if cfg.Browser.Headless, err = boolEnv("BROWSER_HEADLESS", true); err != nil {
		return nil, err
	}

	switch cfg.LLM.Provider {
	case ProviderGroq:
		cfg.LLM.APIKey = os.Getenv("GROQ_API_KEY")
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = defaultGroqModel
		}
	case ProviderGoogleAI:
		cfg.LLM.APIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.LLM.Model == "" {
			cfg.LLM.Model = defaultGemini
		}
	}

	if cfg.Database.URL == "" && cfg.Database.Driver == DriverSQLite {
		cfg.Database.URL = defaultSQLiteURL
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case DriverSQLite:
	case DriverPostgres:
		if cfg.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when DB_DRIVER is %q", DriverPostgres)
		}
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, cfg.Database.Driver)
	}

	if cfg.LLM.Provider != ProviderGroq && cfg.LLM.Provider != ProviderGoogleAI {
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderGroq, ProviderGoogleAI, cfg.LLM.Provider)
	}
	if cfg.Browser.Backend != BackendChrome && cfg.Browser.Backend != BackendPlaywright {
		return fmt.Errorf("BROWSER must be %q or %q, got %q", BackendChrome, BackendPlaywright, cfg.Browser.Backend)
	}

	if cfg.DefaultMaxItems < 1 {
		return fmt.Errorf("DEFAULT_MAX_ITEMS must be positive, got %d", cfg.DefaultMaxItems)
	}
	if cfg.LLM.MaxTokens < 1 {
		return fmt.Errorf("LLM_MAX_TOKENS must be positive, got %d", cfg.LLM.MaxTokens)
	}
	if cfg.LLM.Timeout <= 0 || cfg.Browser.WaitTimeout <= 0 {
		return fmt.Errorf("LLM_TIMEOUT and BROWSER_WAIT_TIMEOUT must be positive")
	}
	if cfg.Browser.SettleDelay < 0 {
		return fmt.Errorf("BROWSER_SETTLE_DELAY must not be negative, got %v", cfg.Browser.SettleDelay)
	}
	return nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func intEnv(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, s)
	}
	return v, nil
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, s, err)
	}
	return d, nil
}

func boolEnv(key string, fallback bool) (bool, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", key, s)
	}
	return b, nil
}
