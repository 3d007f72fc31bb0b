package http

import (
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/PentesterFlow/NetScan/internal/scope"
)

// DefaultCacheTTL is how long a cached GET response stays valid.
const DefaultCacheTTL = 300 * time.Second

type cacheEntry struct {
	resp    *Response
	expires time.Time
}

// Cache stores successful GET responses. Expired entries are removed when
// they are next looked up.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache creates a cache with the given TTL.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns a copy of the cached response for key, if present and fresh.
func (c *Cache) Get(key string) (*Response, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.resp.clone(true), true
}

// Put stores a copy of resp under key.
func (c *Cache) Put(key string, resp *Response) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		resp:    resp.clone(false),
		expires: c.now().Add(c.ttl),
	}
}

// Len returns the number of stored entries, fresh or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// CacheKey builds the lookup key from the method, the normalized URL and a
// canonical encoding of the per-request headers.
func CacheKey(method, rawURL string, headers http.Header) string {
	normalized, err := scope.CanonicalURL(rawURL)
	if err != nil {
		normalized = rawURL
	}

	var b strings.Builder
	b.WriteString(strings.ToUpper(method))
	b.WriteByte(' ')
	b.WriteString(normalized)

	if len(headers) > 0 {
		keys := make([]string, 0, len(headers))
		for k := range headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			b.WriteByte('|')
			b.WriteString(strings.ToLower(k))
			b.WriteByte('=')
			b.WriteString(strings.Join(headers[k], ","))
		}
	}
	return b.String()
}
