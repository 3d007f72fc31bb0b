package crawler

import (
	"context"
	"testing"
	"time"

	"github.com/PentesterFlow/NetScan/internal/browser"
	"github.com/PentesterFlow/NetScan/internal/logger"
	"github.com/PentesterFlow/NetScan/internal/metrics"
)

// Helper to create a minimal crawler for option testing
func newTestCrawler() *Crawler {
	return &Crawler{
		config: DefaultConfig(),
	}
}

// =============================================================================
// Bound Tests
// =============================================================================

func TestWithMaxDepth(t *testing.T) {
	tests := []struct {
		name   string
		input  int
		expect int
	}{
		{"normal value", 5, 5},
		{"zero", 0, 0},
		{"negative", -3, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCrawler()
			if err := WithMaxDepth(tt.input)(c); err != nil {
				t.Fatalf("WithMaxDepth() error = %v", err)
			}
			if c.config.MaxDepth != tt.expect {
				t.Errorf("MaxDepth = %d, want %d", c.config.MaxDepth, tt.expect)
			}
		})
	}
}

func TestWithMaxPages(t *testing.T) {
	tests := []struct {
		name   string
		input  int
		expect int
	}{
		{"normal value", 30, 30},
		{"zero", 0, 1},
		{"negative", -5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCrawler()
			if err := WithMaxPages(tt.input)(c); err != nil {
				t.Fatalf("WithMaxPages() error = %v", err)
			}
			if c.config.MaxPages != tt.expect {
				t.Errorf("MaxPages = %d, want %d", c.config.MaxPages, tt.expect)
			}
		})
	}
}

func TestWithTimingOptions(t *testing.T) {
	c := newTestCrawler()
	WithTimeout(5 * time.Second)(c)
	WithPoliteness(0)(c)
	WithMaxRetries(2)(c)

	if c.config.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", c.config.Timeout)
	}
	if c.config.Politeness != 0 {
		t.Errorf("Politeness = %v, want 0", c.config.Politeness)
	}
	if c.config.MaxRetries != 2 {
		t.Errorf("MaxRetries = %d, want 2", c.config.MaxRetries)
	}
}

// =============================================================================
// Request Option Tests
// =============================================================================

func TestWithUserAgent(t *testing.T) {
	c := newTestCrawler()
	WithUserAgent("Custom/1.0")(c)

	if c.config.UserAgent != "Custom/1.0" {
		t.Errorf("UserAgent = %s, want Custom/1.0", c.config.UserAgent)
	}
	if c.config.Browser.UserAgent != "Custom/1.0" {
		t.Errorf("Browser.UserAgent = %s, want Custom/1.0", c.config.Browser.UserAgent)
	}
}

func TestWithProxy(t *testing.T) {
	c := newTestCrawler()
	WithProxy("http://127.0.0.1:8080")(c)

	if c.config.Proxy != "http://127.0.0.1:8080" || c.config.Browser.Proxy != "http://127.0.0.1:8080" {
		t.Errorf("Proxy = %q / %q", c.config.Proxy, c.config.Browser.Proxy)
	}
}

func TestWithCustomHeaders(t *testing.T) {
	c := newTestCrawler()
	WithCustomHeaders(map[string]string{"X-A": "1"})(c)
	WithCustomHeaders(map[string]string{"X-B": "2"})(c)

	if len(c.config.CustomHeaders) != 2 {
		t.Errorf("CustomHeaders = %v, want 2 entries", c.config.CustomHeaders)
	}
	if c.config.Browser.Headers["X-B"] != "2" {
		t.Error("browser headers should follow custom headers")
	}
}

// =============================================================================
// Renderer Option Tests
// =============================================================================

func TestWithRender(t *testing.T) {
	c := newTestCrawler()
	WithRender(false)(c)
	if c.config.Render {
		t.Error("Render should be false")
	}
}

func TestWithBrowserConfig(t *testing.T) {
	c := newTestCrawler()
	cfg := browser.DefaultConfig()
	cfg.Headless = false

	WithBrowserConfig(cfg)(c)
	if c.config.Browser.Headless {
		t.Error("Browser config was not applied")
	}
}

func TestWithRendererFactory(t *testing.T) {
	c := newTestCrawler()
	c.config.Render = false

	factory := func(ctx context.Context) (Renderer, error) { return nil, nil }
	WithRendererFactory(factory)(c)

	if c.rendererFactory == nil {
		t.Error("rendererFactory not set")
	}
	if !c.config.Render {
		t.Error("a renderer factory should enable rendering")
	}
}

// =============================================================================
// Dependency Option Tests
// =============================================================================

func TestWithLoggerAndMetrics(t *testing.T) {
	c := newTestCrawler()
	l := logger.Nop()
	m := metrics.New()

	WithLogger(l)(c)
	WithMetrics(m)(c)

	if c.logger != l {
		t.Error("logger not set")
	}
	if c.metrics != m {
		t.Error("metrics not set")
	}
}

func TestWithConfig(t *testing.T) {
	c := newTestCrawler()
	cfg := DefaultConfig()
	cfg.Target = "https://other.example"

	WithConfig(cfg)(c)
	if c.config != cfg {
		t.Error("config not replaced")
	}
}
