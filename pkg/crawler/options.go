package crawler

import (
	"time"

	"github.com/PentesterFlow/NetScan/internal/browser"
	"github.com/PentesterFlow/NetScan/internal/logger"
	"github.com/PentesterFlow/NetScan/internal/metrics"
)

// Option is a functional option for configuring the Crawler.
type Option func(*Crawler) error

// WithTarget sets the target URL to crawl.
func WithTarget(url string) Option {
	return func(c *Crawler) error {
		c.config.Target = url
		return nil
	}
}

// WithMaxDepth sets the maximum crawl depth.
func WithMaxDepth(depth int) Option {
	return func(c *Crawler) error {
		if depth < 0 {
			depth = 0
		}
		c.config.MaxDepth = depth
		return nil
	}
}

// WithMaxPages sets the maximum number of visited URLs.
func WithMaxPages(n int) Option {
	return func(c *Crawler) error {
		if n < 1 {
			n = 1
		}
		c.config.MaxPages = n
		return nil
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Crawler) error {
		c.config.Timeout = timeout
		return nil
	}
}

// WithPoliteness sets the minimum spacing between page fetches.
func WithPoliteness(interval time.Duration) Option {
	return func(c *Crawler) error {
		c.config.Politeness = interval
		return nil
	}
}

// WithMaxRetries sets retries for static fetches.
func WithMaxRetries(n int) Option {
	return func(c *Crawler) error {
		c.config.MaxRetries = n
		return nil
	}
}

// WithRender enables/disables headless rendering.
func WithRender(enabled bool) Option {
	return func(c *Crawler) error {
		c.config.Render = enabled
		return nil
	}
}

// WithBrowserConfig sets the headless browser configuration.
func WithBrowserConfig(cfg browser.Config) Option {
	return func(c *Crawler) error {
		c.config.Browser = cfg
		return nil
	}
}

// WithRendererFactory replaces the headless browser with another renderer.
// It implies WithRender(true).
func WithRendererFactory(f RendererFactory) Option {
	return func(c *Crawler) error {
		c.rendererFactory = f
		c.config.Render = f != nil
		return nil
	}
}

// WithEndpointConfig tunes endpoint derivation.
func WithEndpointConfig(cfg EndpointConfig) Option {
	return func(c *Crawler) error {
		c.endpointConfig = cfg
		return nil
	}
}

// WithUserAgent sets the user agent string.
func WithUserAgent(ua string) Option {
	return func(c *Crawler) error {
		c.config.UserAgent = ua
		c.config.Browser.UserAgent = ua
		return nil
	}
}

// WithProxy sets the proxy URL.
func WithProxy(proxy string) Option {
	return func(c *Crawler) error {
		c.config.Proxy = proxy
		c.config.Browser.Proxy = proxy
		return nil
	}
}

// WithCustomHeaders sets custom headers for all requests.
func WithCustomHeaders(headers map[string]string) Option {
	return func(c *Crawler) error {
		if c.config.CustomHeaders == nil {
			c.config.CustomHeaders = make(map[string]string)
		}
		for k, v := range headers {
			c.config.CustomHeaders[k] = v
		}
		c.config.Browser.Headers = c.config.CustomHeaders
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Crawler) error {
		c.logger = l
		return nil
	}
}

// WithMetrics sets a custom metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(c *Crawler) error {
		c.metrics = m
		return nil
	}
}

// WithConfig sets the entire configuration.
func WithConfig(config *Config) Option {
	return func(c *Crawler) error {
		c.config = config
		return nil
	}
}
