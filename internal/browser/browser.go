// Package browser renders pages in headless Chrome via Rod.
package browser

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/ysmood/gson"

	"github.com/PentesterFlow/NetScan/internal/logger"
)

// Config defines browser configuration.
type Config struct {
	Headless          bool              `json:"headless" yaml:"headless"`
	Timeout           time.Duration     `json:"timeout" yaml:"timeout"`
	Settle            time.Duration     `json:"settle" yaml:"settle"` // Extra wait after load for scripts to run
	UserAgent         string            `json:"user_agent" yaml:"user_agent"`
	Proxy             string            `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	Headers           map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	ViewportWidth     int               `json:"viewport_width" yaml:"viewport_width"`
	ViewportHeight    int               `json:"viewport_height" yaml:"viewport_height"`
	IgnoreHTTPSErrors bool              `json:"ignore_https_errors" yaml:"ignore_https_errors"`
	Bin               string            `json:"bin,omitempty" yaml:"bin,omitempty"` // Chrome binary; empty lets rod find or download one
}

// DefaultConfig returns default browser configuration.
func DefaultConfig() Config {
	return Config{
		Headless:          true,
		Timeout:           15 * time.Second,
		Settle:            200 * time.Millisecond,
		UserAgent:         "NetScan/1.0 (Security Scanner)",
		ViewportWidth:     1920,
		ViewportHeight:    1080,
		IgnoreHTTPSErrors: true,
	}
}

// Page is one rendered document.
type Page struct {
	URL        string
	FinalURL   string
	StatusCode int
	Headers    http.Header
	HTML       string
	Duration   time.Duration
}

// Browser wraps a Rod browser instance. Render calls are serialized.
type Browser struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	config   Config
	log      *logger.Logger

	mu        sync.Mutex
	pageCount int
	closed    bool
}

// New launches Chrome and connects to it.
func New(ctx context.Context, config Config, log *logger.Logger) (*Browser, error) {
	def := DefaultConfig()
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.ViewportWidth <= 0 || config.ViewportHeight <= 0 {
		config.ViewportWidth, config.ViewportHeight = def.ViewportWidth, def.ViewportHeight
	}

	l := launcher.New().Context(ctx)
	if config.Bin != "" {
		l = l.Bin(config.Bin)
	}
	l = l.Headless(config.Headless)
	if config.IgnoreHTTPSErrors {
		l = l.Set("ignore-certificate-errors", "true")
	}
	if config.Proxy != "" {
		l = l.Proxy(config.Proxy)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	return &Browser{
		browser:  browser,
		launcher: l,
		config:   config,
		log:      logger.OrNop(log).WithComponent("browser"),
	}, nil
}

// Render navigates to url and returns the DOM after scripts have run. The
// status and headers come from the main document response; when the
// browser reports none the status is 200.
func (b *Browser) Render(ctx context.Context, url string) (*Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("browser is closed")
	}
	b.pageCount++

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, b.config.Timeout)
	defer cancel()

	page, err := b.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	defer page.Close()
	page = page.Context(ctx)

	// Set viewport (ignore errors, not critical)
	_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:  b.config.ViewportWidth,
		Height: b.config.ViewportHeight,
	})
	if b.config.UserAgent != "" {
		_ = proto.NetworkSetUserAgentOverride{UserAgent: b.config.UserAgent}.Call(page)
	}
	if len(b.config.Headers) > 0 {
		_ = proto.NetworkSetExtraHTTPHeaders{Headers: networkHeaders(b.config.Headers)}.Call(page)
	}

	doc := &documentResponse{}
	_ = proto.NetworkEnable{}.Call(page)
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument || e.Response == nil {
			return false
		}
		doc.set(e.Response.Status, httpHeader(e.Response.Headers))
		return true
	})
	go wait()

	if err := page.Navigate(url); err != nil {
		return nil, fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := page.WaitLoad(); err != nil {
		return nil, fmt.Errorf("wait load %s: %w", url, err)
	}

	if b.config.Settle > 0 {
		select {
		case <-time.After(b.config.Settle):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	html, err := page.HTML()
	if err != nil {
		return nil, fmt.Errorf("read DOM %s: %w", url, err)
	}

	result := &Page{URL: url, FinalURL: url, HTML: html}
	if info, err := page.Info(); err == nil && info != nil && info.URL != "" {
		result.FinalURL = info.URL
	}
	result.StatusCode, result.Headers = doc.get()
	result.Duration = time.Since(start)

	b.log.Debugf("rendered %s (status %d, %d bytes)", url, result.StatusCode, len(html))
	return result, nil
}

// Close shuts the browser down and removes its profile directory. It is
// idempotent.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true

	err := b.browser.Close()
	b.launcher.Kill()
	b.launcher.Cleanup()
	return err
}

// PageCount returns the number of pages rendered.
func (b *Browser) PageCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pageCount
}

// documentResponse holds what the event listener saw for the main
// document.
type documentResponse struct {
	mu      sync.Mutex
	status  int
	headers http.Header
}

func (d *documentResponse) set(status int, h http.Header) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status == 0 {
		d.status, d.headers = status, h
	}
}

func (d *documentResponse) get() (int, http.Header) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.status == 0 {
		return http.StatusOK, http.Header{}
	}
	return d.status, d.headers
}

func networkHeaders(headers map[string]string) proto.NetworkHeaders {
	out := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		out[k] = gson.New(v)
	}
	return out
}

func httpHeader(h proto.NetworkHeaders) http.Header {
	out := make(http.Header, len(h))
	for k, v := range h {
		out.Set(k, v.Str())
	}
	return out
}
