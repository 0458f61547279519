package config

import (
	"fmt"
	"strconv"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// settingKeys are the global settings addressable by `config set`/`config
// get`/`config settings`, each with a type-checked setter.
var settingKeys = map[string]bool{
	"default_timeout_secs":  true,
	"cache_enabled":          true,
	"cache_default_ttl_secs": true,
	"cache_max_entries":      true,
	"batch_concurrency":      true,
}

// SettingKeys lists every valid setting name, for `config settings`.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKeys))
	for k := range settingKeys {
		keys = append(keys, k)
	}
	return keys
}

// GetSetting returns the string form of a named setting.
func GetSetting(g Global, key string) (string, error) {
	switch key {
	case "default_timeout_secs":
		return strconv.Itoa(g.DefaultTimeoutSecs), nil
	case "cache_enabled":
		return strconv.FormatBool(g.CacheEnabled), nil
	case "cache_default_ttl_secs":
		return strconv.Itoa(g.CacheDefaultTTL), nil
	case "cache_max_entries":
		return strconv.Itoa(g.CacheMaxEntries), nil
	case "batch_concurrency":
		return strconv.Itoa(g.BatchConcurrency), nil
	default:
		return "", apperr.New(apperr.Configuration, fmt.Sprintf("unknown setting key %q", key))
	}
}

// SetSetting parses value for key and applies it to g, validating both the
// key and the value's type.
func SetSetting(g *Global, key, value string) error {
	if !settingKeys[key] {
		return apperr.New(apperr.Configuration, fmt.Sprintf("unknown setting key %q", key))
	}
	switch key {
	case "default_timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return apperr.New(apperr.Configuration, fmt.Sprintf("invalid integer value %q for %q", value, key))
		}
		g.DefaultTimeoutSecs = n
	case "cache_enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return apperr.New(apperr.Configuration, fmt.Sprintf("invalid boolean value %q for %q", value, key))
		}
		g.CacheEnabled = b
	case "cache_default_ttl_secs":
		n, err := strconv.Atoi(value)
		if err != nil {
			return apperr.New(apperr.Configuration, fmt.Sprintf("invalid integer value %q for %q", value, key))
		}
		g.CacheDefaultTTL = n
	case "cache_max_entries":
		n, err := strconv.Atoi(value)
		if err != nil {
			return apperr.New(apperr.Configuration, fmt.Sprintf("invalid integer value %q for %q", value, key))
		}
		g.CacheMaxEntries = n
	case "batch_concurrency":
		n, err := strconv.Atoi(value)
		if err != nil {
			return apperr.New(apperr.Configuration, fmt.Sprintf("invalid integer value %q for %q", value, key))
		}
		g.BatchConcurrency = n
	}
	return nil
}
