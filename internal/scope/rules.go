package scope

import (
	"net/url"
	"strings"
)

// ExcludedExtensions are never fetched by the crawler.
var ExcludedExtensions = []string{
	".jpg", ".jpeg", ".png", ".gif", ".pdf", ".zip", ".exe", ".iso",
	".mp4", ".mp3", ".css", ".js", ".woff", ".woff2", ".ttf",
}

// WellKnownPaths are probed on every target whether or not the crawler
// reached them.
var WellKnownPaths = []string{
	"/admin", "/api", "/login", "/config", "/health", "/status", "/debug", "/backup",
}

// HasExcludedExtension reports whether the URL path ends in one of
// ExcludedExtensions. The query string is ignored.
func HasExcludedExtension(urlStr string) bool {
	path := urlStr
	if parsed, err := url.Parse(urlStr); err == nil {
		path = parsed.Path
	}
	path = strings.ToLower(path)

	for _, ext := range ExcludedExtensions {
		if strings.HasSuffix(path, ext) {
			return true
		}
	}
	return false
}

// IsAPIPath checks if a path looks like an API endpoint.
func IsAPIPath(path string) bool {
	return strings.Contains(strings.ToLower(path), "/api/")
}

// IsSkippableLink reports links that never lead to a page:
// javascript:, mailto:, tel:, data: and bare #fragments.
func IsSkippableLink(href string) bool {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return true
	}

	lower := strings.ToLower(href)
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}
