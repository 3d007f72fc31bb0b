package scanner

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	scanerrors "github.com/PentesterFlow/NetScan/internal/errors"
	nshttp "github.com/PentesterFlow/NetScan/internal/http"
	"github.com/PentesterFlow/NetScan/internal/payloads"
	"github.com/PentesterFlow/NetScan/internal/ratelimit"
	"github.com/PentesterFlow/NetScan/internal/scope"
	"github.com/PentesterFlow/NetScan/pkg/crawler"
)

// Config holds all scan configuration. Zero MaxDepth, MaxPages and
// Timeout take the profile's value.
type Config struct {
	// Target URL; https:// is assumed when no scheme is given
	Target string `json:"target" yaml:"target"`

	// Profile name: quick, balanced or aggressive
	Profile string `json:"profile" yaml:"profile"`

	// Optional subset of the profile's tests
	Tests []string `json:"tests,omitempty" yaml:"tests,omitempty"`

	// Crawl limits
	MaxDepth int `json:"max_depth" yaml:"max_depth"`
	MaxPages int `json:"max_pages" yaml:"max_pages"`

	// Per-request timeout
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// Proxy URL for crawling and probing
	Proxy string `json:"proxy,omitempty" yaml:"proxy,omitempty"`

	// Render pages in a headless browser when one can be started
	Render bool `json:"render" yaml:"render"`

	// Encoded payload variants added to XSS, traversal and SSRF probes
	Evasion []string `json:"evasion,omitempty" yaml:"evasion,omitempty"`

	// Request layer
	UserAgent    string            `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	Headers      map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	RateInterval time.Duration     `json:"rate_interval" yaml:"rate_interval"`
	CacheTTL     time.Duration     `json:"cache_ttl" yaml:"cache_ttl"`
	MaxRetries   int               `json:"max_retries" yaml:"max_retries"`

	// Spacing between crawler fetches
	Politeness time.Duration `json:"politeness" yaml:"politeness"`

	// XSS payloads sampled per parameter
	XSSSamples int `json:"xss_samples" yaml:"xss_samples"`

	// Endpoint derivation
	Endpoints crawler.EndpointConfig `json:"endpoints" yaml:"endpoints"`
}

// DefaultConfig returns the balanced profile with limits left to the
// profile.
func DefaultConfig() *Config {
	return &Config{
		Profile:      ProfileBalanced,
		Render:       true,
		RateInterval: ratelimit.DefaultInterval,
		CacheTTL:     nshttp.DefaultCacheTTL,
		MaxRetries:   3,
		Politeness:   ratelimit.DefaultInterval,
		XSSSamples:   5,
		Endpoints:    crawler.EndpointConfig{CommonParamLimit: crawler.DefaultCommonParamLimit},
	}
}

// ProfileConfig returns a configuration with the named profile's limits
// spelled out.
func ProfileConfig(name string) (*Config, error) {
	p, err := LookupProfile(name)
	if err != nil {
		return nil, err
	}
	c := DefaultConfig()
	c.Profile = p.Name
	c.MaxDepth = p.MaxDepth
	c.MaxPages = p.MaxPages
	c.Timeout = p.Timeout
	return c, nil
}

func mustProfileConfig(name string) *Config {
	c, err := ProfileConfig(name)
	if err != nil {
		panic(err)
	}
	return c
}

// QuickConfig returns a configuration for a fast, shallow scan.
func QuickConfig() *Config { return mustProfileConfig(ProfileQuick) }

// BalancedConfig returns the default scan configuration.
func BalancedConfig() *Config { return mustProfileConfig(ProfileBalanced) }

// AggressiveConfig returns a configuration that runs every test.
func AggressiveConfig() *Config { return mustProfileConfig(ProfileAggressive) }

// LoadFromFile loads configuration from a file (JSON or YAML).
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()

	// Try YAML first, then JSON
	if err := yaml.Unmarshal(data, config); err != nil {
		if err := json.Unmarshal(data, config); err != nil {
			return nil, scanerrors.NewConfigError("failed to parse config file", err)
		}
	}

	return config, nil
}

// SaveToFile saves configuration to a file. A .json extension writes JSON,
// anything else YAML.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err = json.MarshalIndent(c, "", "  ")
	} else {
		data, err = yaml.Marshal(c)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// Validate validates the configuration without touching the network.
func (c *Config) Validate() error {
	if _, err := NormalizeTarget(c.Target); err != nil {
		return err
	}

	p, err := LookupProfile(c.Profile)
	if err != nil {
		return err
	}

	if _, err := selectTests(p, c.Tests); err != nil {
		return err
	}

	if c.MaxDepth < 0 || c.MaxPages < 0 || c.Timeout < 0 {
		return scanerrors.NewConfigError("crawl limits and timeout must not be negative", nil)
	}

	if c.RateInterval < 0 || c.Politeness < 0 || c.CacheTTL < 0 {
		return scanerrors.NewConfigError("intervals must not be negative", nil)
	}

	if c.Proxy != "" {
		u, err := url.Parse(c.Proxy)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return scanerrors.NewConfigError(fmt.Sprintf("invalid proxy URL %q", c.Proxy), err)
		}
	}

	if _, err := c.techniques(); err != nil {
		return err
	}

	return nil
}

func (c *Config) techniques() ([]payloads.Technique, error) {
	if len(c.Evasion) == 0 {
		return nil, nil
	}
	t, err := payloads.ParseTechniques(strings.Join(c.Evasion, ","))
	if err != nil {
		return nil, scanerrors.NewConfigError("invalid evasion technique", err)
	}
	return t, nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	data, _ := json.Marshal(c)
	clone := &Config{}
	json.Unmarshal(data, clone)
	return clone
}

// NormalizeTarget adds https:// when the target has no scheme and an empty
// path becomes "/". A target that does not parse or has no host is a
// configuration error.
func NormalizeTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", scanerrors.NewConfigError("target URL is required", nil)
	}

	u, err := url.Parse(scope.EnsureScheme(raw))
	if err != nil {
		return "", scanerrors.NewConfigError(fmt.Sprintf("invalid target URL %q", raw), err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", scanerrors.NewConfigError(fmt.Sprintf("unsupported scheme in target %q", raw), nil)
	}
	if u.Host == "" {
		return "", scanerrors.NewConfigError(fmt.Sprintf("target URL %q has no host", raw), nil)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	return u.String(), nil
}
