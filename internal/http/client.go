// Package http is the scanner's request layer: a pooled client with a
// response cache, a rate limiter and retries for transient failures.
package http

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	scanerrors "github.com/PentesterFlow/NetScan/internal/errors"
	"github.com/PentesterFlow/NetScan/internal/logger"
	"github.com/PentesterFlow/NetScan/internal/metrics"
	"github.com/PentesterFlow/NetScan/internal/ratelimit"
	"golang.org/x/net/html/charset"
)

// ErrClientClosed is returned by every request on a client that is not open.
var ErrClientClosed = errors.New("http client is closed")

const (
	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize = 5 * 1024 * 1024
	// DefaultMaxRedirects is the redirect chain limit.
	DefaultMaxRedirects = 10
	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) NetScan/1.0"
)

// Config holds request layer configuration.
type Config struct {
	Timeout       time.Duration     // Per-request timeout
	RateInterval  time.Duration     // Minimum spacing between requests (0 = unlimited)
	CacheTTL      time.Duration     // GET cache lifetime (0 = no cache)
	MaxRetries    int               // Retries after the first attempt
	BackoffBase   time.Duration     // Wait before the first retry; doubles each retry
	MaxRedirects  int               // Redirects followed before stopping
	MaxBodySize   int64             // Bytes read from each body
	Proxy         string            // Proxy URL; empty uses the environment
	UserAgent     string            // User-Agent header
	Headers       map[string]string // Headers added to every request
	SkipTLSVerify bool
}

// DefaultConfig returns the probe client defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:       30 * time.Second,
		RateInterval:  ratelimit.DefaultInterval,
		CacheTTL:      DefaultCacheTTL,
		MaxRetries:    3,
		BackoffBase:   time.Second,
		MaxRedirects:  DefaultMaxRedirects,
		MaxBodySize:   DefaultMaxBodySize,
		UserAgent:     DefaultUserAgent,
		SkipTLSVerify: true,
	}
}

// Response is an immutable record of one HTTP exchange.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       string
	URL        string // Effective URL after redirects
	Timestamp  time.Time
	Duration   time.Duration
	FromCache  bool
}

func (r *Response) clone(fromCache bool) *Response {
	c := *r
	c.Headers = r.Headers.Clone()
	c.FromCache = fromCache
	return &c
}

// ClientOption configures a Client at Open time.
type ClientOption func(*Client)

// WithLogger sets the client logger.
func WithLogger(l *logger.Logger) ClientOption {
	return func(c *Client) {
		c.log = logger.OrNop(l).WithComponent("http")
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(m *metrics.Collector) ClientOption {
	return func(c *Client) {
		c.metrics = m
	}
}

// RequestOption adjusts a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	skipCache bool
	headers   http.Header
}

// WithSkipCache bypasses the cache for both lookup and store.
func WithSkipCache() RequestOption {
	return func(o *requestOptions) {
		o.skipCache = true
	}
}

// WithHeader sets a header on a single request.
func WithHeader(key, value string) RequestOption {
	return func(o *requestOptions) {
		if o.headers == nil {
			o.headers = make(http.Header)
		}
		o.headers.Set(key, value)
	}
}

// Client sends scanner requests. It is safe for concurrent use.
type Client struct {
	cfg     Config
	client  *http.Client
	limiter *ratelimit.Limiter
	cache   *Cache
	retrier *scanerrors.Retrier
	log     *logger.Logger
	metrics *metrics.Collector

	mu     sync.RWMutex
	closed bool
}

// Open creates a ready client. An invalid proxy URL is a config error.
func Open(cfg Config, opts ...ClientOption) (*Client, error) {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRedirects <= 0 {
		cfg.MaxRedirects = defaults.MaxRedirects
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = defaults.MaxBodySize
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = defaults.BackoffBase
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaults.UserAgent
	}

	proxy := http.ProxyFromEnvironment
	if cfg.Proxy != "" {
		proxyURL, err := url.Parse(cfg.Proxy)
		if err != nil || proxyURL.Scheme == "" || proxyURL.Host == "" {
			return nil, scanerrors.NewConfigError(fmt.Sprintf("invalid proxy URL %q", cfg.Proxy), err)
		}
		proxy = http.ProxyURL(proxyURL)
	}

	transport := &http.Transport{
		Proxy: proxy,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.SkipTLSVerify,
		},
	}

	maxRedirects := cfg.MaxRedirects
	c := &Client{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return http.ErrUseLastResponse
				}
				return nil
			},
		},
		limiter: ratelimit.NewInterval(cfg.RateInterval),
		retrier: scanerrors.NewRetrier(scanerrors.RetryConfig{
			MaxRetries:     cfg.MaxRetries,
			InitialDelay:   cfg.BackoffBase,
			Multiplier:     2.0,
			RetryableTypes: []scanerrors.ErrorType{scanerrors.Network, scanerrors.Timeout},
		}),
		log: logger.Nop(),
	}
	if cfg.CacheTTL > 0 {
		c.cache = NewCache(cfg.CacheTTL)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// With opens a client, passes it to fn and closes it on every exit path,
// including a panic in fn.
func With(ctx context.Context, cfg Config, fn func(*Client) error, opts ...ClientOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c, err := Open(cfg, opts...)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

// Close releases pooled connections. It is idempotent.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return nil
	}
	c.closed = true
	c.client.CloseIdleConnections()
	if c.cache != nil {
		c.cache.Clear()
	}
	return nil
}

// Get sends a GET request. Status 200 responses are cached.
func (c *Client) Get(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodGet, rawURL, "", nil, opts)
}

// Post sends form as an application/x-www-form-urlencoded body.
func (c *Client) Post(ctx context.Context, rawURL string, form url.Values, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, rawURL, "application/x-www-form-urlencoded", []byte(form.Encode()), opts)
}

// PostBody sends body with the given content type.
func (c *Client) PostBody(ctx context.Context, rawURL, contentType, body string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodPost, rawURL, contentType, []byte(body), opts)
}

// Head sends a HEAD request.
func (c *Client) Head(ctx context.Context, rawURL string, opts ...RequestOption) (*Response, error) {
	return c.do(ctx, http.MethodHead, rawURL, "", nil, opts)
}

// Send issues a request with an arbitrary method and form body.
func (c *Client) Send(ctx context.Context, method, rawURL string, form url.Values, opts ...RequestOption) (*Response, error) {
	method = strings.ToUpper(method)
	switch method {
	case http.MethodGet, "":
		return c.Get(ctx, rawURL, opts...)
	case http.MethodHead:
		return c.Head(ctx, rawURL, opts...)
	}
	return c.do(ctx, method, rawURL, "application/x-www-form-urlencoded", []byte(form.Encode()), opts)
}

// CacheLen returns the number of cached entries.
func (c *Client) CacheLen() int {
	if c.cache == nil {
		return 0
	}
	return c.cache.Len()
}

func (c *Client) isClosed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.closed
}

func (c *Client) do(ctx context.Context, method, rawURL, contentType string, body []byte, opts []RequestOption) (*Response, error) {
	if c == nil || c.isClosed() {
		return nil, ErrClientClosed
	}

	ro := requestOptions{}
	for _, opt := range opts {
		opt(&ro)
	}

	cacheable := c.cache != nil && method == http.MethodGet && !ro.skipCache
	var key string
	if cacheable {
		key = CacheKey(method, rawURL, ro.headers)
		if resp, ok := c.cache.Get(key); ok {
			c.metrics.RecordCacheHit()
			c.log.RequestEvent(method, rawURL, resp.StatusCode, 0, true)
			return resp, nil
		}
	}

	var resp *Response
	result := c.retrier.Do(ctx, strings.ToLower(method), rawURL, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		var err error
		resp, err = c.roundTrip(ctx, method, rawURL, contentType, body, ro.headers)
		return err
	})

	for i := 1; i < result.Attempts; i++ {
		c.metrics.RecordRetry()
	}

	if !result.Success {
		scanErr := scanerrors.Categorize(result.LastError, rawURL)
		c.metrics.RecordError(scanErr.Type.String())
		c.log.Event(logger.DebugLevel).
			Err(scanErr).
			Str("method", method).
			Str("url", rawURL).
			Int("attempts", result.Attempts).
			Msg("Request failed")
		return nil, scanErr
	}

	c.metrics.RecordRequest(method, resp.StatusCode, resp.Duration, int64(len(resp.Body)))
	c.log.RequestEvent(method, rawURL, resp.StatusCode, resp.Duration, false)

	if cacheable && resp.StatusCode == http.StatusOK {
		c.cache.Put(key, resp)
	}
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, method, rawURL, contentType string, body []byte, headers http.Header) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, scanerrors.New(scanerrors.Config, rawURL, "request_creation", "failed to create request", err)
	}

	req.Header.Set("User-Agent", c.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}
	for k, v := range headers {
		req.Header[k] = v
	}

	start := time.Now()
	httpResp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	text, err := readBody(httpResp, c.cfg.MaxBodySize)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       text,
		URL:        httpResp.Request.URL.String(),
		Timestamp:  start,
		Duration:   time.Since(start),
	}, nil
}

// readBody reads at most limit bytes and decodes them to UTF-8 using the
// declared or sniffed charset.
func readBody(resp *http.Response, limit int64) (string, error) {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return "", err
	}
	if len(raw) == 0 {
		return "", nil
	}

	decoded, err := charset.NewReader(bytes.NewReader(raw), resp.Header.Get("Content-Type"))
	if err != nil {
		return string(raw), nil
	}
	text, err := io.ReadAll(decoded)
	if err != nil {
		return string(raw), nil
	}
	return string(text), nil
}
