// Package crawler discovers the pages, forms and endpoints of a web
// application with a bounded breadth-first crawl.
package crawler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/PentesterFlow/NetScan/internal/browser"
	"github.com/PentesterFlow/NetScan/internal/parser"
	"github.com/PentesterFlow/NetScan/internal/state"
)

// Form is a form or script-derived request target found on a page.
type Form = parser.Form

// Field is a named input.
type Field = parser.Field

// Rendered is the output of a Renderer.
type Rendered = browser.Page

// Page is one crawled page. It is not modified after it is stored.
type Page struct {
	URL        string      `json:"url"`
	Method     string      `json:"method"`
	HTML       string      `json:"-"`
	StatusCode int         `json:"status_code"`
	Headers    http.Header `json:"-"`
	Forms      []Form      `json:"forms"`
	Inputs     []Field     `json:"inputs"`
	Links      []string    `json:"links"`
	Parameters []string    `json:"parameters,omitempty"`
	Rendered   bool        `json:"rendered"`
	Depth      int         `json:"depth"`
	CrawledAt  time.Time   `json:"crawled_at"`
}

// EndpointKind says how an endpoint was derived.
type EndpointKind string

const (
	KindURLParam       EndpointKind = "url_param"
	KindForm           EndpointKind = "form"
	KindInjectedParam  EndpointKind = "injected_param"
	KindPathTest       EndpointKind = "path_test"
	KindCommonEndpoint EndpointKind = "common_endpoint"
)

// Endpoint is a testable target.
type Endpoint struct {
	URL        string       `json:"url"`
	Method     string       `json:"method"`
	Parameters []string     `json:"parameters,omitempty"`
	Kind       EndpointKind `json:"kind"`
}

func (e Endpoint) key() string {
	return string(e.Kind) + " " + e.Method + " " + e.URL + " " + strings.Join(e.Parameters, "&")
}

// CrawlStats contains statistics about the crawl.
type CrawlStats struct {
	URLsDiscovered   int           `json:"urls_discovered"`
	PagesCrawled     int           `json:"pages_crawled"`
	PagesRendered    int           `json:"pages_rendered"`
	FormsFound       int           `json:"forms_found"`
	Skipped          int           `json:"skipped"`
	ErrorCount       int           `json:"error_count"`
	Duration         time.Duration `json:"duration"`
	BytesTransferred int64         `json:"bytes_transferred"`
}

// CrawlError represents an error encountered during crawling.
type CrawlError struct {
	URL       string    `json:"url"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

// Result represents the complete result of a crawl session.
type Result struct {
	Target      string       `json:"target"`
	StartedAt   time.Time    `json:"started_at"`
	CompletedAt time.Time    `json:"completed_at,omitempty"`
	Stats       CrawlStats   `json:"stats"`
	Pages       []*Page      `json:"pages"`
	Endpoints   []Endpoint   `json:"endpoints"`
	Rendered    bool         `json:"rendered"`
	Errors      []CrawlError `json:"errors,omitempty"`
}

// Renderer fetches a page with script execution.
type Renderer interface {
	Render(ctx context.Context, url string) (*Rendered, error)
	Close() error
}

// RendererFactory starts a renderer. It is called once per crawl.
type RendererFactory func(ctx context.Context) (Renderer, error)

func convertStateCrawlStats(s state.CrawlStats) CrawlStats {
	return CrawlStats{
		URLsDiscovered:   s.URLsDiscovered,
		PagesCrawled:     s.PagesCrawled,
		PagesRendered:    s.PagesRendered,
		FormsFound:       s.FormsFound,
		Skipped:          s.Skipped,
		ErrorCount:       s.ErrorCount,
		Duration:         s.Duration,
		BytesTransferred: s.BytesTransferred,
	}
}
