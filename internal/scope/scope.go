// Package scope decides which URLs belong to a scan target.
package scope

import (
	"fmt"
	"net/url"
	"strings"
)

// Checker validates URLs against the target origin.
type Checker struct {
	origin *url.URL
	host   string
}

// NewChecker creates a checker bound to the host of startURL.
func NewChecker(startURL string) (*Checker, error) {
	parsed, err := url.Parse(startURL)
	if err != nil {
		return nil, err
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("url %q has no host", startURL)
	}

	return &Checker{
		origin: &url.URL{Scheme: parsed.Scheme, Host: parsed.Host},
		host:   strings.ToLower(parsed.Host),
	}, nil
}

// Host returns the lowercased target host (including any port).
func (c *Checker) Host() string {
	return c.host
}

// Origin returns scheme://host of the target.
func (c *Checker) Origin() string {
	return c.origin.String()
}

// SameOrigin reports whether urlStr points at the target host.
// Hosts are compared case-insensitively.
func (c *Checker) SameOrigin(urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}
	return strings.EqualFold(parsed.Host, c.host)
}

// IsInScope checks if a URL may be fetched by the crawler: http(s),
// same-origin and not a static asset.
func (c *Checker) IsInScope(urlStr string) bool {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	if !strings.EqualFold(parsed.Host, c.host) {
		return false
	}

	return !HasExcludedExtension(urlStr)
}

// Resolve resolves ref against the origin root.
func (c *Checker) Resolve(ref string) string {
	parsed, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return c.origin.ResolveReference(parsed).String()
}

// SameHost reports whether a and b share a host, ignoring case.
func SameHost(a, b string) bool {
	ua, err := url.Parse(a)
	if err != nil || ua.Host == "" {
		return false
	}
	ub, err := url.Parse(b)
	if err != nil {
		return false
	}
	return strings.EqualFold(ua.Host, ub.Host)
}

// NormalizeURL normalizes a URL for deduplication. A trailing slash is
// dropped from any path but the root.
func NormalizeURL(rawURL string) (string, error) {
	return normalize(rawURL, true)
}

// CanonicalURL normalizes scheme, host, default port, fragment and query
// order like NormalizeURL but keeps the path as given, so /a and /a/ stay
// distinct.
func CanonicalURL(rawURL string) (string, error) {
	return normalize(rawURL, false)
}

func normalize(rawURL string, trimSlash bool) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}

	parsed.Scheme = strings.ToLower(parsed.Scheme)
	parsed.Host = strings.ToLower(parsed.Host)

	// Remove default ports
	if (parsed.Scheme == "http" && strings.HasSuffix(parsed.Host, ":80")) ||
		(parsed.Scheme == "https" && strings.HasSuffix(parsed.Host, ":443")) {
		parsed.Host = parsed.Host[:strings.LastIndex(parsed.Host, ":")]
	}

	parsed.Fragment = ""

	if trimSlash && parsed.Path != "/" && strings.HasSuffix(parsed.Path, "/") {
		parsed.Path = strings.TrimSuffix(parsed.Path, "/")
	}

	if parsed.Path == "" {
		parsed.Path = "/"
	}

	// Sort query parameters for consistent comparison
	if parsed.RawQuery != "" {
		parsed.RawQuery = parsed.Query().Encode()
	}

	return parsed.String(), nil
}

// ResolveURL resolves a relative URL against a base URL.
func ResolveURL(baseURL, relativeURL string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", err
	}

	ref, err := url.Parse(relativeURL)
	if err != nil {
		return "", err
	}

	return base.ResolveReference(ref).String(), nil
}

// StripFragment removes the #fragment part of a URL.
func StripFragment(rawURL string) string {
	if i := strings.IndexByte(rawURL, '#'); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// QueryParams returns the query parameter names of rawURL in first-seen
// order.
func QueryParams(rawURL string) []string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.RawQuery == "" {
		return nil
	}

	seen := make(map[string]struct{})
	var names []string
	for _, pair := range strings.Split(parsed.RawQuery, "&") {
		if pair == "" {
			continue
		}
		name := pair
		if i := strings.IndexByte(pair, '='); i >= 0 {
			name = pair[:i]
		}
		if unescaped, err := url.QueryUnescape(name); err == nil {
			name = unescaped
		}
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}
	return names
}

// EnsureScheme prefixes https:// when rawURL carries no scheme.
func EnsureScheme(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" || strings.Contains(rawURL, "://") {
		return rawURL
	}
	return "https://" + rawURL
}
