// Package respcache implements the Executor's content-addressed response
// cache (spec.md §4.11), ported conceptually from response_cache.rs.
package respcache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/blackcoderx/aperture/internal/apperr"
)

// Config mirrors the Rust CacheConfig.
type Config struct {
	Dir                string
	DefaultTTL         time.Duration
	MaxEntries         int
	Enabled            bool
	AllowAuthenticated bool
}

// Entry is one stored response.
type Entry struct {
	Body        string            `json:"body"`
	StatusCode  int               `json:"status_code"`
	Headers     map[string]string `json:"headers"`
	CachedAt    int64             `json:"cached_at"`
	TTLSeconds  int64             `json:"ttl_seconds"`
	RequestInfo RequestInfo       `json:"request_info"`
}

// RequestInfo records the request that produced an Entry, for diagnostics.
type RequestInfo struct {
	Method  string            `json:"method"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
}

// Key identifies one cache slot.
type Key struct {
	API         string
	OperationID string
	RequestHash string
}

var authHeaderPrefixes = []string{"x-auth-", "x-api-"}
var authHeaderExact = map[string]bool{
	"authorization": true, "x-api-key": true, "api-key": true,
	"token": true, "bearer": true, "cookie": true,
}

func isAuthHeader(name string) bool {
	lower := strings.ToLower(name)
	if authHeaderExact[lower] {
		return true
	}
	for _, p := range authHeaderPrefixes {
		if strings.HasPrefix(lower, p) {
			return true
		}
	}
	return false
}

// Fingerprint hashes method, URL, and every non-auth header (sorted), plus
// the body if present. This is what testable property #4 checks.
func Fingerprint(method, url string, headers map[string]string, body []byte) string {
	h := sha256.New()
	h.Write([]byte(method))
	h.Write([]byte(url))

	keys := make([]string, 0, len(headers))
	for k := range headers {
		if !isAuthHeader(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	for _, k := range keys {
		h.Write([]byte(k))
		h.Write([]byte(headers[k]))
	}

	if len(body) > 0 {
		h.Write(body)
	}

	return hex.EncodeToString(h.Sum(nil))
}

// NewKey builds a Key from request components.
func NewKey(api, operationID, method, url string, headers map[string]string, body []byte) Key {
	return Key{API: api, OperationID: operationID, RequestHash: Fingerprint(method, url, headers, body)}
}

func (k Key) filename() string {
	hash := k.RequestHash
	if len(hash) > 16 {
		hash = hash[:16]
	}
	return fmt.Sprintf("%s_%s_%s_cache.json", k.API, k.OperationID, hash)
}

// IsCacheable reports whether a call with this method/header set may be
// cached at all (spec.md §4.6 "Caching rules").
func IsCacheable(cfg Config, method string, headers map[string]string) bool {
	if !cfg.Enabled {
		return false
	}
	if method != "GET" && method != "HEAD" {
		return false
	}
	if _, hasAuth := headers["Authorization"]; hasAuth && !cfg.AllowAuthenticated {
		return false
	}
	return true
}

// Cache is a filesystem-backed response cache, one file per entry.
type Cache struct {
	Config Config
}

func New(cfg Config) (*Cache, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, apperr.Wrap(apperr.CacheUnavailable, "failed to create response cache directory", err)
	}
	return &Cache{Config: cfg}, nil
}

func (c *Cache) path(key Key) string {
	return filepath.Join(c.Config.Dir, key.filename())
}

// Store writes entry under key, applying the default TTL when ttl <= 0, then
// evicts the oldest entries for this API past MaxEntries.
func (c *Cache) Store(key Key, entry Entry, ttl time.Duration) error {
	if !c.Config.Enabled {
		return nil
	}
	if ttl <= 0 {
		ttl = c.Config.DefaultTTL
	}
	entry.CachedAt = time.Now().Unix()
	entry.TTLSeconds = int64(ttl.Seconds())

	raw, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return apperr.Wrap(apperr.CacheUnavailable, "failed to encode cache entry", err)
	}
	if err := os.WriteFile(c.path(key), raw, 0o644); err != nil {
		return apperr.Wrap(apperr.CacheUnavailable, "failed to write cache entry", err)
	}
	c.evictOldest(key.API)
	return nil
}

// Get returns the cached entry for key if present and unexpired. A parse
// failure or expiry is treated as a miss, never an error (spec.md §5).
func (c *Cache) Get(key Key) (*Entry, bool) {
	if !c.Config.Enabled {
		return nil, false
	}
	raw, err := os.ReadFile(c.path(key))
	if err != nil {
		return nil, false
	}
	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, false
	}
	if time.Now().Unix() > entry.CachedAt+entry.TTLSeconds {
		os.Remove(c.path(key))
		return nil, false
	}
	return &entry, true
}

func (c *Cache) evictOldest(api string) {
	entries, err := os.ReadDir(c.Config.Dir)
	if err != nil {
		return
	}
	prefix := api + "_"
	type fileInfo struct {
		path    string
		modTime time.Time
	}
	var matched []fileInfo
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || !strings.HasSuffix(e.Name(), "_cache.json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		matched = append(matched, fileInfo{path: filepath.Join(c.Config.Dir, e.Name()), modTime: info.ModTime()})
	}
	if len(matched) <= c.Config.MaxEntries || c.Config.MaxEntries <= 0 {
		return
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].modTime.Before(matched[j].modTime) })
	toRemove := len(matched) - c.Config.MaxEntries
	for i := 0; i < toRemove; i++ {
		os.Remove(matched[i].path)
	}
}

// ClearAPI removes every entry for one API.
func (c *Cache) ClearAPI(api string) (int, error) {
	return c.clearMatching(func(name string) bool {
		return strings.HasPrefix(name, api+"_") && strings.HasSuffix(name, "_cache.json")
	})
}

// ClearAll removes every cached response.
func (c *Cache) ClearAll() (int, error) {
	return c.clearMatching(func(name string) bool {
		return strings.HasSuffix(name, "_cache.json")
	})
}

func (c *Cache) clearMatching(match func(string) bool) (int, error) {
	entries, err := os.ReadDir(c.Config.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, apperr.Wrap(apperr.CacheUnavailable, "failed to list cache directory", err)
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() || !match(e.Name()) {
			continue
		}
		if err := os.Remove(filepath.Join(c.Config.Dir, e.Name())); err == nil {
			count++
		}
	}
	return count, nil
}

// Stats summarizes one API's cache entries.
type Stats struct {
	Total   int
	Valid   int
	Expired int
	Bytes   int64
}

// StatsFor computes per-API totals (spec.md §4.11 "stats").
func (c *Cache) StatsFor(api string) (Stats, error) {
	var s Stats
	entries, err := os.ReadDir(c.Config.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, apperr.Wrap(apperr.CacheUnavailable, "failed to list cache directory", err)
	}
	prefix := api + "_"
	now := time.Now().Unix()
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), prefix) || !strings.HasSuffix(e.Name(), "_cache.json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		s.Total++
		s.Bytes += info.Size()

		raw, err := os.ReadFile(filepath.Join(c.Config.Dir, e.Name()))
		if err != nil {
			continue
		}
		var entry Entry
		if err := json.Unmarshal(raw, &entry); err != nil {
			continue
		}
		if now > entry.CachedAt+entry.TTLSeconds {
			s.Expired++
		} else {
			s.Valid++
		}
	}
	return s, nil
}
