package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "https://docs.python.org/3/", cfg.MainDocURL)
	assert.Equal(t, "https://peps.python.org/", cfg.PepsURL)
	assert.Equal(t, 30*time.Second, cfg.Timeout)
	assert.Equal(t, 24*time.Hour, cfg.CacheTTL)
	assert.Equal(t, "results", cfg.ResultsDir)
	assert.Equal(t, "logs/parser.log", cfg.LogFile)
	assert.Equal(t, "2006-01-02_15-04-05", cfg.DatetimeFormat)
	assert.True(t, cfg.CacheEnabled())

	home, err := os.UserHomeDir()
	if err == nil {
		assert.Equal(t, filepath.Join(home, ".cache/pep-parser/http_cache.sqlite"), cfg.CachePath)
	}
}

func TestLoad_FileEnvAndFlags(t *testing.T) {
	file := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
peps_url: https://peps.example.org/
results_dir: /tmp/from-file
log_level: debug
cache_ttl: 0s
requests_per_second: 2
`), 0644))

	t.Setenv("PEP_PARSER_RESULTS_DIR", "/tmp/from-env")
	t.Setenv("PEP_PARSER_TIMEOUT", "5s")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.String("taxonomy-file", "", "")
	require.NoError(t, flags.Parse([]string{"--taxonomy-file", "/etc/taxonomy.yaml"}))

	cfg, err := Load(file, flags)
	require.NoError(t, err)

	assert.Equal(t, "https://peps.example.org/", cfg.PepsURL)
	assert.Equal(t, "/tmp/from-env", cfg.ResultsDir, "env overrides file")
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel, "unset flag does not override file")
	assert.Equal(t, "/etc/taxonomy.yaml", cfg.TaxonomyFile, "set flag overrides default")
	assert.Equal(t, 2.0, cfg.RequestsPerSecond)
	assert.False(t, cfg.CacheEnabled())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{
			MainDocURL:     "https://docs.python.org/3/",
			PepsURL:        "https://peps.python.org/",
			CachePath:      "/tmp/cache.sqlite",
			CacheTTL:       time.Hour,
			LogLevel:       "info",
			DatetimeFormat: "2006",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(c *Config) {}, false},
		{"relative peps url", func(c *Config) { c.PepsURL = "peps/" }, true},
		{"empty doc url", func(c *Config) { c.MainDocURL = "" }, true},
		{"negative rate", func(c *Config) { c.RequestsPerSecond = -1 }, true},
		{"negative timeout", func(c *Config) { c.Timeout = -time.Second }, true},
		{"cache without path", func(c *Config) { c.CachePath = "" }, true},
		{"no cache no path", func(c *Config) { c.CachePath = ""; c.CacheTTL = 0 }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }, true},
		{"empty datetime format", func(c *Config) { c.DatetimeFormat = "" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
