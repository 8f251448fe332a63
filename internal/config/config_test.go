package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "DEFAULT_MAX_ITEMS", "DB_DRIVER", "DATABASE_URL",
		"LLM_PROVIDER", "GROQ_API_KEY", "GEMINI_API_KEY", "LLM_MODEL", "LLM_BASE_URL",
		"LLM_MAX_TOKENS", "LLM_TIMEOUT", "BROWSER", "BROWSER_HEADLESS", "BROWSER_USER_AGENT",
		"BROWSER_WAIT_TIMEOUT", "BROWSER_SETTLE_DELAY", "SITES_FILE", "REDIS_URL", "SCRAPE_SCHEDULE",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gsk-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8000", cfg.Port)
	assert.Equal(t, 3, cfg.DefaultMaxItems)
	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, defaultSQLiteURL, cfg.Database.URL)
	assert.Equal(t, ProviderGroq, cfg.LLM.Provider)
	assert.Equal(t, "gsk-test", cfg.LLM.APIKey)
	assert.Equal(t, defaultGroqModel, cfg.LLM.Model)
	assert.Equal(t, 2048, cfg.LLM.MaxTokens)
	assert.Equal(t, 20*time.Second, cfg.Browser.WaitTimeout)
	assert.Equal(t, 5*time.Second, cfg.Browser.SettleDelay)
	assert.True(t, cfg.Browser.Headless)
	assert.Equal(t, BackendChrome, cfg.Browser.Backend)
}

func TestLoad_GoogleAIUsesGeminiKey(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_PROVIDER", ProviderGoogleAI)
	t.Setenv("GEMINI_API_KEY", "gem-key")
	t.Setenv("GROQ_API_KEY", "gsk-ignored")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "gem-key", cfg.LLM.APIKey)
	assert.Equal(t, defaultGemini, cfg.LLM.Model)
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("DB_DRIVER", DriverPostgres)

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_RejectsInvalidValues(t *testing.T) {
	cases := map[string][2]string{
		"unknown driver":   {"DB_DRIVER", "mysql"},
		"unknown provider": {"LLM_PROVIDER", "anthropic"},
		"unknown browser":  {"BROWSER", "firefox"},
		"bad max items":    {"DEFAULT_MAX_ITEMS", "three"},
		"zero max items":   {"DEFAULT_MAX_ITEMS", "0"},
		"bad duration":     {"BROWSER_WAIT_TIMEOUT", "soon"},
		"bad bool":         {"BROWSER_HEADLESS", "maybe"},
		"negative settle":  {"BROWSER_SETTLE_DELAY", "-1s"},
	}
	for name, kv := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(kv[0], kv[1])
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestSiteLabel(t *testing.T) {
	assert.Equal(t, "ola-jobs-careers-706807", Site{URL: "https://www.naukri.com/ola-jobs-careers-706807"}.Label())
	assert.Equal(t, "swiggy-jobs?k=swiggy", Site{URL: "https://www.naukri.com/swiggy-jobs?k=swiggy"}.Label())
	assert.Equal(t, "custom", Site{Name: "custom", URL: "https://example.com/x"}.Label())
}

func TestDefaultSites_Order(t *testing.T) {
	sites := DefaultSites()
	require.Len(t, sites, 3)
	assert.Contains(t, sites[0].URL, "ola")
	assert.Contains(t, sites[1].URL, "swiggy")
	assert.Contains(t, sites[2].URL, "zepto")
	for _, s := range sites {
		assert.NotEmpty(t, s.Selector)
		assert.Equal(t, NaukriGuide, s.Guide)
	}
}

func TestLoadSites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sites.yaml")
	content := `
- name: acme
  url: https://jobs.example.com/acme
  selector: .job-card
  source: Example Jobs
  guide: "- For title: h2"
- url: https://www.naukri.com/ola-jobs
  selector: .srp-jobtuple-wrapper
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	sites, err := LoadSites(path)
	require.NoError(t, err)
	require.Len(t, sites, 2)

	assert.Equal(t, "acme", sites[0].Label())
	assert.Equal(t, "Example Jobs", sites[0].Source)
	assert.Equal(t, "- For title: h2", sites[0].Guide)

	assert.Equal(t, "Naukri.com", sites[1].Source)
	assert.Equal(t, NaukriGuide, sites[1].Guide)
}

func TestLoadSites_Invalid(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadSites(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	empty := filepath.Join(dir, "empty.yaml")
	require.NoError(t, os.WriteFile(empty, []byte("[]"), 0644))
	_, err = LoadSites(empty)
	assert.Error(t, err)

	noSelector := filepath.Join(dir, "noselector.yaml")
	require.NoError(t, os.WriteFile(noSelector, []byte("- url: https://example.com\n"), 0644))
	_, err = LoadSites(noSelector)
	assert.Error(t, err)
}

func TestConfigSites_FallsBackToDefaults(t *testing.T) {
	cfg := &Config{}
	sites, err := cfg.Sites()
	require.NoError(t, err)
	assert.Equal(t, DefaultSites(), sites)
}
