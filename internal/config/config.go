// Package config loads pep-parser settings from defaults, an optional YAML
// file, PEP_PARSER_* environment variables and command-line flags, in
// increasing order of precedence.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/agatinet31/pep-parser/internal/logger"
	"github.com/agatinet31/pep-parser/internal/storage"
)

const EnvPrefix = "PEP_PARSER"

// Config holds every runtime setting.
type Config struct {
	MainDocURL        string        `mapstructure:"main_doc_url"`
	PepsURL           string        `mapstructure:"peps_url"`
	UserAgent         string        `mapstructure:"user_agent"`
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	CachePath         string        `mapstructure:"cache_path"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"` // 0 disables caching
	ResultsDir        string        `mapstructure:"results_dir"`
	DownloadsDir      string        `mapstructure:"downloads_dir"`
	LogFile           string        `mapstructure:"log_file"`
	LogLevel          string        `mapstructure:"log_level"`
	TaxonomyFile      string        `mapstructure:"taxonomy_file"`
	DatetimeFormat    string        `mapstructure:"datetime_format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("main_doc_url", "https://docs.python.org/3/")
	v.SetDefault("peps_url", "https://peps.python.org/")
	v.SetDefault("user_agent", "pep-parser/1.0 (github.com/agatinet31/pep-parser)")
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("requests_per_second", 0.0)
	v.SetDefault("cache_path", "~/.cache/pep-parser/http_cache.sqlite")
	v.SetDefault("cache_ttl", 24*time.Hour)
	v.SetDefault("results_dir", "results")
	v.SetDefault("downloads_dir", "downloads")
	v.SetDefault("log_file", "logs/parser.log")
	v.SetDefault("log_level", "info")
	v.SetDefault("taxonomy_file", "")
	v.SetDefault("datetime_format", "2006-01-02_15-04-05")
}

// Load resolves the configuration. file may be empty. Flags in flags whose
// names match a key (with - for _) override every other source when set.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", file, err)
		}
	}

	if flags != nil {
		for _, key := range v.AllKeys() {
			if f := flags.Lookup(strings.ReplaceAll(key, "_", "-")); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", f.Name, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if err := cfg.expandPaths(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) expandPaths() error {
	for _, p := range []*string{&c.CachePath, &c.ResultsDir, &c.DownloadsDir, &c.LogFile, &c.TaxonomyFile} {
		expanded, err := storage.ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// Validate checks settings that would otherwise fail later in a run.
func (c *Config) Validate() error {
	for name, raw := range map[string]string{"main_doc_url": c.MainDocURL, "peps_url": c.PepsURL} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if c.RequestsPerSecond < 0 {
		return fmt.Errorf("requests_per_second must not be negative")
	}
	if c.Timeout < 0 || c.CacheTTL < 0 {
		return fmt.Errorf("timeout and cache_ttl must not be negative")
	}
	if c.CacheTTL > 0 && c.CachePath == "" {
		return fmt.Errorf("cache_path is required when caching is enabled")
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.DatetimeFormat == "" {
		return fmt.Errorf("datetime_format must not be empty")
	}
	return nil
}

// CacheEnabled reports whether responses should be cached.
func (c *Config) CacheEnabled() bool {
	return c.CacheTTL > 0
}
