package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/lookup"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Len(t, cfg.Attempts, 8)
	assert.Equal(t, lookup.SourceGoogleBooks, cfg.Attempts[0].Source)
	assert.Equal(t, lookup.SourceRetailer, cfg.Attempts[7].Source)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("APP_ADDR", ":9090")
	t.Setenv("LOG_MODE", "prod")
	t.Setenv("SOURCE_TIMEOUT", "3s")
	t.Setenv("OPENLIBRARY_RPS", "2")
	t.Setenv("RETAILER_ENABLED", "true")
	t.Setenv("RETAILER_URL_TEMPLATE", "https://shop.example/search?q={isbn}")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "prod", cfg.LogMode)
	assert.Equal(t, 3*time.Second, cfg.SourceTimeout)
	assert.Equal(t, 2, cfg.OpenLibraryRPS)
	assert.True(t, cfg.RetailerEnabled)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
}

func TestLoadReportsMalformedValues(t *testing.T) {
	t.Setenv("SOURCE_TIMEOUT", "soon")
	t.Setenv("LOOKUP_LRU_SIZE", "many")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SOURCE_TIMEOUT")
	assert.Contains(t, err.Error(), "LOOKUP_LRU_SIZE")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty dsn", func(c *Config) { c.DBDSN = "" }},
		{"bad log mode", func(c *Config) { c.LogMode = "verbose" }},
		{"zero timeout", func(c *Config) { c.SourceTimeout = 0 }},
		{"retailer without template", func(c *Config) { c.RetailerEnabled = true }},
		{"retailer relative template", func(c *Config) {
			c.RetailerEnabled = true
			c.RetailerURLTemplate = "/search?q={isbn}"
		}},
		{"no attempts", func(c *Config) { c.Attempts = nil }},
		{"unknown source", func(c *Config) {
			c.Attempts = []AttemptConfig{{Source: "amazon", Form: lookup.KeyISBN13}}
		}},
		{"bad public base url", func(c *Config) { c.StoragePublicBaseURL = "cdn" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadAttempts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
attempts:
  - source: open_library
    form: isbn13
  - source: open_library
    form: isbn10
  - source: retailer
    form: isbn13
    enabled: false
`), 0o600))

	attempts, err := LoadAttempts(path)
	require.NoError(t, err)
	require.Len(t, attempts, 3)
	assert.Equal(t, lookup.KeyISBN10, attempts[1].Form)
	assert.True(t, attempts[0].IsEnabled())
	assert.False(t, attempts[2].IsEnabled())

	t.Setenv("SOURCES_FILE", path)
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, attempts, cfg.Attempts)
}

func TestParseAttemptsRejectsUnknown(t *testing.T) {
	_, err := ParseAttempts([]byte("attempts:\n  - source: open_library\n    form: issn\n"))
	assert.ErrorContains(t, err, "unknown key form")

	_, err = ParseAttempts([]byte("attempts:\n  - source: open_library\n    form: isbn13\n    weight: 3\n"))
	assert.Error(t, err)
}

func TestRedactDSN(t *testing.T) {
	assert.Equal(t, "postgres://***@db:5432/bookshelf", RedactDSN("postgres://user:secret@db:5432/bookshelf"))
	assert.Equal(t, "bookshelf.db", RedactDSN("bookshelf.db"))
}
