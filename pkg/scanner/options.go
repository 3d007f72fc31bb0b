package scanner

import (
	"math/rand"
	"time"

	"github.com/PentesterFlow/NetScan/internal/detector"
	"github.com/PentesterFlow/NetScan/internal/logger"
	"github.com/PentesterFlow/NetScan/internal/metrics"
	"github.com/PentesterFlow/NetScan/pkg/crawler"
)

// Option is a functional option for configuring the Scanner.
type Option func(*Scanner) error

// WithConfig sets the entire configuration.
func WithConfig(config *Config) Option {
	return func(s *Scanner) error {
		s.config = config.Clone()
		return nil
	}
}

// WithTarget sets the target URL.
func WithTarget(url string) Option {
	return func(s *Scanner) error {
		s.config.Target = url
		return nil
	}
}

// WithProfile selects a scan profile.
func WithProfile(name string) Option {
	return func(s *Scanner) error {
		s.config.Profile = name
		return nil
	}
}

// WithTests restricts the scan to a subset of the profile's tests.
func WithTests(tests ...string) Option {
	return func(s *Scanner) error {
		s.config.Tests = append([]string(nil), tests...)
		return nil
	}
}

// WithProxy sets the proxy URL.
func WithProxy(proxy string) Option {
	return func(s *Scanner) error {
		s.config.Proxy = proxy
		return nil
	}
}

// WithMaxDepth overrides the profile's crawl depth.
func WithMaxDepth(depth int) Option {
	return func(s *Scanner) error {
		s.config.MaxDepth = depth
		return nil
	}
}

// WithMaxPages overrides the profile's page budget.
func WithMaxPages(n int) Option {
	return func(s *Scanner) error {
		s.config.MaxPages = n
		return nil
	}
}

// WithTimeout overrides the profile's request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(s *Scanner) error {
		s.config.Timeout = timeout
		return nil
	}
}

// WithRender enables/disables headless rendering.
func WithRender(enabled bool) Option {
	return func(s *Scanner) error {
		s.config.Render = enabled
		return nil
	}
}

// WithRendererFactory replaces the headless browser used when rendering
// is enabled.
func WithRendererFactory(f crawler.RendererFactory) Option {
	return func(s *Scanner) error {
		s.rendererFactory = f
		return nil
	}
}

// WithEvasion adds encoded payload variants, e.g. "url", "double_url".
func WithEvasion(techniques ...string) Option {
	return func(s *Scanner) error {
		s.config.Evasion = append([]string(nil), techniques...)
		return nil
	}
}

// WithRateInterval sets the minimum spacing between probe requests.
func WithRateInterval(interval time.Duration) Option {
	return func(s *Scanner) error {
		s.config.RateInterval = interval
		return nil
	}
}

// WithPoliteness sets the minimum spacing between crawler fetches.
func WithPoliteness(interval time.Duration) Option {
	return func(s *Scanner) error {
		s.config.Politeness = interval
		return nil
	}
}

// WithMaxRetries sets retries after a failed request.
func WithMaxRetries(n int) Option {
	return func(s *Scanner) error {
		s.config.MaxRetries = n
		return nil
	}
}

// WithEndpointConfig tunes endpoint derivation.
func WithEndpointConfig(cfg crawler.EndpointConfig) Option {
	return func(s *Scanner) error {
		s.config.Endpoints = cfg
		return nil
	}
}

// WithDetectorConfig sets detector thresholds and signals. Logger,
// metrics, evasion and sampling are filled in by the scanner.
func WithDetectorConfig(cfg detector.Config) Option {
	return func(s *Scanner) error {
		s.detectorConfig = cfg
		return nil
	}
}

// WithRand sets the random source used for XSS payload sampling.
func WithRand(r *rand.Rand) Option {
	return func(s *Scanner) error {
		s.rand = r
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Scanner) error {
		s.logger = l
		return nil
	}
}

// WithMetrics sets a custom metrics collector.
func WithMetrics(m *metrics.Collector) Option {
	return func(s *Scanner) error {
		s.metrics = m
		return nil
	}
}

// WithProgress reports probe-phase progress to p.
func WithProgress(p Progress) Option {
	return func(s *Scanner) error {
		s.progress = p
		return nil
	}
}
