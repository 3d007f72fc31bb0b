package crawler

import (
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/PentesterFlow/NetScan/internal/browser"
	scanerrors "github.com/PentesterFlow/NetScan/internal/errors"
	"github.com/PentesterFlow/NetScan/internal/ratelimit"
)

// Config holds all crawler configuration.
type Config struct {
	// Target URL to crawl
	Target string `json:"target" yaml:"target"`

	// Maximum crawl depth; the start page is depth 0
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// Maximum number of URLs visited
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// Request timeout for static fetches
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Minimum spacing between two page fetches
	Politeness time.Duration `json:"politeness" yaml:"politeness"`

	// Retries for static fetches
	MaxRetries int `json:"max_retries" yaml:"max_retries"`

	// Render pages in a headless browser when one can be started
	Render bool `json:"render" yaml:"render"`

	// Browser configuration
	Browser browser.Config `json:"browser" yaml:"browser"`

	// Custom headers to include in all requests
	CustomHeaders map[string]string `json:"custom_headers" yaml:"custom_headers"`

	// Proxy URL
	Proxy string `json:"proxy" yaml:"proxy"`

	// User agent for static fetches (empty uses the request layer default)
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		MaxDepth:   3,
		MaxPages:   100,
		Timeout:    30 * time.Second,
		Politeness: ratelimit.DefaultInterval,
		MaxRetries: 1,
		Render:     true,
		Browser:    browser.DefaultConfig(),
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Target == "" {
		return scanerrors.NewConfigError("target URL is required", nil)
	}

	u, err := url.Parse(c.Target)
	if err != nil {
		return scanerrors.NewConfigError(fmt.Sprintf("invalid target URL %q", c.Target), err)
	}
	if u.Host == "" {
		return scanerrors.NewConfigError(fmt.Sprintf("target URL %q has no host", c.Target), nil)
	}

	if c.MaxDepth < 0 {
		return scanerrors.NewConfigError("max depth must not be negative", nil)
	}

	if c.MaxPages < 1 {
		return scanerrors.NewConfigError("max pages must be at least 1", nil)
	}

	if c.Politeness < 0 {
		return scanerrors.NewConfigError("politeness interval must not be negative", nil)
	}

	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := json.Marshal(c)
	clone := &Config{}
	json.Unmarshal(data, clone)
	return clone
}
