// Package config layers global and per-API configuration over config.toml,
// the same viper-backed pattern the teacher uses for its own config file
// (spec.md §6 "Persisted layout").
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// SecretOverride is one `api_configs[name].secrets[scheme]` entry.
type SecretOverride struct {
	Source string `mapstructure:"source" toml:"source"`
	Name   string `mapstructure:"name" toml:"name"`
}

// APIConfig is one API's overrides, per original_source/src/config/mapping.rs.
type APIConfig struct {
	BaseURLOverride  string                    `mapstructure:"base_url_override" toml:"base_url_override,omitempty"`
	EnvironmentURLs  map[string]string         `mapstructure:"environment_urls" toml:"environment_urls,omitempty"`
	StrictMode       bool                      `mapstructure:"strict_mode" toml:"strict_mode,omitempty"`
	Secrets          map[string]SecretOverride `mapstructure:"secrets" toml:"secrets,omitempty"`
}

// Global is the resolved configuration struct threaded explicitly through
// the pipeline (spec.md §9 "Process-wide state... treat every read as an
// input, never a default").
type Global struct {
	DefaultTimeoutSecs int                   `mapstructure:"default_timeout_secs" toml:"default_timeout_secs"`
	CacheEnabled       bool                  `mapstructure:"cache_enabled" toml:"cache_enabled"`
	CacheDefaultTTL    int                   `mapstructure:"cache_default_ttl_secs" toml:"cache_default_ttl_secs"`
	CacheMaxEntries    int                   `mapstructure:"cache_max_entries" toml:"cache_max_entries"`
	BatchConcurrency   int                   `mapstructure:"batch_concurrency" toml:"batch_concurrency"`
	APIConfigs         map[string]APIConfig  `mapstructure:"api_configs" toml:"api_configs,omitempty"`
}

func defaults() Global {
	return Global{
		DefaultTimeoutSecs: 30,
		CacheEnabled:       false,
		CacheDefaultTTL:    300,
		CacheMaxEntries:    1000,
		BatchConcurrency:   5,
		APIConfigs:         map[string]APIConfig{},
	}
}

// Store wraps a viper instance bound to one config.toml file.
type Store struct {
	v    *viper.Viper
	Dir  string
	Path string
}

// Dir resolves the config directory: $APERTURE_CONFIG_DIR, else
// os.UserConfigDir()/aperture (spec.md §6).
func Dir() (string, error) {
	if d := os.Getenv("APERTURE_CONFIG_DIR"); d != "" {
		return d, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", apperr.Wrap(apperr.Configuration, "failed to resolve user config directory", err)
	}
	return filepath.Join(base, "aperture"), nil
}

// Load reads config.toml from dir, creating dir (but not the file) if
// absent. A missing file is not an error; defaults apply.
func Load() (*Store, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.Configuration, fmt.Sprintf("failed to create config directory %q", dir), err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)
	v.AutomaticEnv()

	def := defaults()
	v.SetDefault("default_timeout_secs", def.DefaultTimeoutSecs)
	v.SetDefault("cache_enabled", def.CacheEnabled)
	v.SetDefault("cache_default_ttl_secs", def.CacheDefaultTTL)
	v.SetDefault("cache_max_entries", def.CacheMaxEntries)
	v.SetDefault("batch_concurrency", def.BatchConcurrency)

	path := filepath.Join(dir, "config.toml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, apperr.Wrap(apperr.Configuration, fmt.Sprintf("failed to parse %q", path), err)
		}
	}

	return &Store{v: v, Dir: dir, Path: path}, nil
}

// Resolve materializes the Global struct from the loaded viper state.
func (s *Store) Resolve() (Global, error) {
	g := defaults()
	if err := s.v.Unmarshal(&g); err != nil {
		return Global{}, apperr.Wrap(apperr.Configuration, "failed to decode config.toml", err)
	}
	if g.APIConfigs == nil {
		g.APIConfigs = map[string]APIConfig{}
	}
	return g, nil
}

// Save persists g back to config.toml.
func (s *Store) Save(g Global) error {
	for k, v := range toMap(g) {
		s.v.Set(k, v)
	}
	if err := s.v.WriteConfigAs(s.Path); err != nil {
		return apperr.Wrap(apperr.Configuration, fmt.Sprintf("failed to write %q", s.Path), err)
	}
	return nil
}

func toMap(g Global) map[string]any {
	return map[string]any{
		"default_timeout_secs":  g.DefaultTimeoutSecs,
		"cache_enabled":          g.CacheEnabled,
		"cache_default_ttl_secs": g.CacheDefaultTTL,
		"cache_max_entries":      g.CacheMaxEntries,
		"batch_concurrency":      g.BatchConcurrency,
		"api_configs":            g.APIConfigs,
	}
}

// SpecsDir returns the directory holding original spec bodies.
func (s *Store) SpecsDir() string { return filepath.Join(s.Dir, "specs") }

// CacheDir returns the directory holding binary Cached Spec files.
func (s *Store) CacheDir() string { return filepath.Join(s.Dir, ".cache") }

// ResponseCacheDir returns the directory holding per-response cache entries.
func (s *Store) ResponseCacheDir() string { return filepath.Join(s.CacheDir(), "responses") }
