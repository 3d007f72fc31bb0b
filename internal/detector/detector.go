// Package detector implements the vulnerability probes run against crawled
// endpoints.
//
// Detectors never return errors or panic past their boundary: a failed
// request or a recovered panic is logged at debug level and counts as no
// finding.
package detector

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	scanerrors "github.com/PentesterFlow/NetScan/internal/errors"
	"github.com/PentesterFlow/NetScan/internal/finding"
	nshttp "github.com/PentesterFlow/NetScan/internal/http"
	"github.com/PentesterFlow/NetScan/internal/logger"
	"github.com/PentesterFlow/NetScan/internal/metrics"
	"github.com/PentesterFlow/NetScan/internal/payloads"
)

// Test names as used by scan profiles.
const (
	NameSQLi          = "sqli"
	NameXSS           = "xss"
	NameCmd           = "cmd"
	NamePathTraversal = "path_traversal"
	NameXXE           = "xxe"
	NameSSRF          = "ssrf"
	NameCSRF          = "csrf"
)

// inertValue is sent to measure baseline behaviour.
const inertValue = "test"

// Requester is the subset of the request layer the detectors use.
// *nshttp.Client satisfies it.
type Requester interface {
	Get(ctx context.Context, rawURL string, opts ...nshttp.RequestOption) (*nshttp.Response, error)
	Post(ctx context.Context, rawURL string, form url.Values, opts ...nshttp.RequestOption) (*nshttp.Response, error)
	PostBody(ctx context.Context, rawURL, contentType, body string, opts ...nshttp.RequestOption) (*nshttp.Response, error)
	Send(ctx context.Context, method, rawURL string, form url.Values, opts ...nshttp.RequestOption) (*nshttp.Response, error)
}

// Target is one injectable parameter of an endpoint.
type Target struct {
	URL       string
	Method    string
	Parameter string
}

func (t Target) method() string {
	if t.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(t.Method)
}

// ParamDetector probes a single parameter.
type ParamDetector interface {
	Name() string
	TestParam(ctx context.Context, t Target) []finding.Finding
}

// EndpointDetector probes a URL as a whole.
type EndpointDetector interface {
	Name() string
	TestEndpoint(ctx context.Context, rawURL string) []finding.Finding
}

// PageDetector inspects stored page markup without sending requests.
type PageDetector interface {
	Name() string
	TestPage(ctx context.Context, pageURL, markup string) []finding.Finding
}

// Config holds detector tuning shared by all probes.
type Config struct {
	Logger  *logger.Logger
	Metrics *metrics.Collector

	// Rand drives XSS payload sampling. Nil seeds from the clock.
	Rand *rand.Rand
	// Evasion appends encoded variants to XSS, traversal and SSRF payloads.
	Evasion []payloads.Technique

	XSSSamples int

	// SQLTimeDelta and SQLTimeFloor gate time-based SQLi: the payload must
	// be slower than the baseline by more than SQLTimeDelta and take longer
	// than SQLTimeFloor overall.
	SQLTimeDelta time.Duration
	SQLTimeFloor time.Duration
	CmdTimeDelta time.Duration

	XXESignal  Signal
	SSRFSignal Signal
}

// DefaultConfig returns the standard thresholds.
func DefaultConfig() Config {
	return Config{
		XSSSamples:   5,
		SQLTimeDelta: 3 * time.Second,
		SQLTimeFloor: 4 * time.Second,
		CmdTimeDelta: 4 * time.Second,
		XXESignal:    XXEAcceptedSignal{},
		SSRFSignal:   DefaultSSRFSignal(),
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.XSSSamples <= 0 {
		c.XSSSamples = def.XSSSamples
	}
	if c.SQLTimeDelta <= 0 {
		c.SQLTimeDelta = def.SQLTimeDelta
	}
	if c.SQLTimeFloor <= 0 {
		c.SQLTimeFloor = def.SQLTimeFloor
	}
	if c.CmdTimeDelta <= 0 {
		c.CmdTimeDelta = def.CmdTimeDelta
	}
	if c.XXESignal == nil {
		c.XXESignal = def.XXESignal
	}
	if c.SSRFSignal == nil {
		c.SSRFSignal = def.SSRFSignal
	}
	if c.Rand == nil {
		c.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	c.Logger = logger.OrNop(c.Logger)
	return c
}

// base carries what every request-sending detector needs.
type base struct {
	name    string
	req     Requester
	log     *logger.Logger
	metrics *metrics.Collector
}

func newBase(name string, req Requester, cfg Config) base {
	return base{
		name:    name,
		req:     req,
		log:     logger.OrNop(cfg.Logger).WithComponent("detector").WithField("detector", name),
		metrics: cfg.Metrics,
	}
}

// Name returns the test name.
func (b *base) Name() string {
	return b.name
}

// inject sends value as t.Parameter. GET replaces the query value and keeps
// the other query parameters; other methods send a form body holding only
// that parameter.
func (b *base) inject(ctx context.Context, t Target, value string, opts ...nshttp.RequestOption) (*nshttp.Response, error) {
	b.metrics.RecordProbe(b.name)

	switch t.method() {
	case http.MethodGet:
		u, err := url.Parse(t.URL)
		if err != nil {
			return nil, scanerrors.NewParseError(t.URL, b.name, err)
		}
		q := u.Query()
		q.Set(t.Parameter, value)
		u.RawQuery = q.Encode()
		return b.req.Get(ctx, u.String(), opts...)
	case http.MethodPost:
		return b.req.Post(ctx, t.URL, url.Values{t.Parameter: {value}}, opts...)
	default:
		return b.req.Send(ctx, t.method(), t.URL, url.Values{t.Parameter: {value}}, opts...)
	}
}

// timed injects value bypassing the cache and returns the response time.
// The request layer's own measurement is preferred so limiter waits are
// not counted.
func (b *base) timed(ctx context.Context, t Target, value string) (time.Duration, *nshttp.Response, error) {
	start := time.Now()
	resp, err := b.inject(ctx, t, value, nshttp.WithSkipCache())
	if err != nil {
		return 0, nil, err
	}
	if resp.Duration > 0 {
		return resp.Duration, resp, nil
	}
	return time.Since(start), resp, nil
}

// failed logs a request failure for this probe.
func (b *base) failed(t Target, value string, err error) {
	b.log.WithError(err).Debugf("probe request failed for %s %s (%s=%.40q)", t.method(), t.URL, t.Parameter, value)
}

// safely runs fn, converting a panic into an empty result.
func (b *base) safely(rawURL string, fn func() []finding.Finding) (out []finding.Finding) {
	defer func() {
		if r := recover(); r != nil {
			err := scanerrors.NewDetectorError(b.name, rawURL, fmt.Errorf("panic: %v", r))
			b.log.WithError(err).Debug("probe aborted")
			out = nil
		}
	}()
	return fn()
}

func (b *base) newFinding(c finding.Class, t Target, payload, evidence string) finding.Finding {
	return finding.New(c, t.URL, t.Parameter, t.method(), payload, evidence)
}

func seconds(d time.Duration) string {
	return fmt.Sprintf("%.2fs", d.Seconds())
}

// truncate shortens s to at most n bytes.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
