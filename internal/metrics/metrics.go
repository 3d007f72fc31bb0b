// Package metrics provides metrics collection for a scan.
//
// Every Collector owns its own Prometheus registry so concurrent scans in
// one process never share series. All Record methods are safe on a nil
// Collector.
package metrics

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector collects and aggregates metrics.
type Collector struct {
	// Counters
	requestsTotal  atomic.Int64
	cacheHitsTotal atomic.Int64
	retriesTotal   atomic.Int64
	errorsTotal    atomic.Int64
	bytesTotal     atomic.Int64
	pagesCrawled   atomic.Int64
	formsFound     atomic.Int64
	endpointsFound atomic.Int64
	probesTotal    atomic.Int64
	findingsTotal  atomic.Int64

	// Response time tracking
	responseTimesSum atomic.Int64
	responseTimesNum atomic.Int64

	// Histograms (buckets for response times in ms)
	responseTimeBuckets [10]atomic.Int64 // <10, <50, <100, <250, <500, <1000, <2500, <5000, <10000, >=10000

	// Error breakdown
	errorCounts map[string]*atomic.Int64
	errorMu     sync.RWMutex

	// Status code breakdown
	statusCodes map[int]*atomic.Int64
	statusMu    sync.RWMutex

	registry    *prometheus.Registry
	promReqs    *prometheus.CounterVec
	promCache   prometheus.Counter
	promRetries prometheus.Counter
	promErrors  *prometheus.CounterVec
	promPages   prometheus.Counter
	promProbes  *prometheus.CounterVec
	promFinds   *prometheus.CounterVec
	promLatency prometheus.Histogram

	startTime time.Time
}

// New creates a new metrics collector.
func New() *Collector {
	c := &Collector{
		errorCounts: make(map[string]*atomic.Int64),
		statusCodes: make(map[int]*atomic.Int64),
		registry:    prometheus.NewRegistry(),
		startTime:   time.Now(),
	}

	c.promReqs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netscan_requests_total",
		Help: "HTTP requests sent, by method and status code",
	}, []string{"method", "code"})
	c.promCache = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netscan_cache_hits_total",
		Help: "GET requests answered from the response cache",
	})
	c.promRetries = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netscan_retries_total",
		Help: "Request retries after timeouts or connection failures",
	})
	c.promErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netscan_errors_total",
		Help: "Failed requests, by error type",
	}, []string{"type"})
	c.promPages = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "netscan_pages_crawled_total",
		Help: "Pages stored by the crawler",
	})
	c.promProbes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netscan_probes_total",
		Help: "Detector invocations, by detector",
	}, []string{"detector"})
	c.promFinds = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "netscan_findings_total",
		Help: "Reported findings, by class and severity",
	}, []string{"class", "severity"})
	c.promLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "netscan_response_time_seconds",
		Help:    "Response time distribution in seconds",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	c.registry.MustRegister(
		c.promReqs, c.promCache, c.promRetries, c.promErrors,
		c.promPages, c.promProbes, c.promFinds, c.promLatency,
	)
	return c
}

// Registry returns the collector's Prometheus registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler returns an HTTP handler exposing the registry.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordRequest records a completed HTTP exchange.
func (c *Collector) RecordRequest(method string, statusCode int, d time.Duration, bytes int64) {
	if c == nil {
		return
	}
	c.requestsTotal.Add(1)
	c.bytesTotal.Add(bytes)
	c.promReqs.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.recordStatusCode(statusCode)
	c.recordResponseTime(d)
}

// RecordCacheHit records a response served from cache.
func (c *Collector) RecordCacheHit() {
	if c == nil {
		return
	}
	c.cacheHitsTotal.Add(1)
	c.promCache.Inc()
}

// RecordRetry records a retry attempt.
func (c *Collector) RecordRetry() {
	if c == nil {
		return
	}
	c.retriesTotal.Add(1)
	c.promRetries.Inc()
}

// RecordError records a failed request.
func (c *Collector) RecordError(errorType string) {
	if c == nil {
		return
	}
	c.errorsTotal.Add(1)
	c.promErrors.WithLabelValues(errorType).Inc()

	c.errorMu.Lock()
	if c.errorCounts[errorType] == nil {
		c.errorCounts[errorType] = &atomic.Int64{}
	}
	c.errorCounts[errorType].Add(1)
	c.errorMu.Unlock()
}

// RecordPageCrawled increments crawled pages.
func (c *Collector) RecordPageCrawled(forms int) {
	if c == nil {
		return
	}
	c.pagesCrawled.Add(1)
	c.formsFound.Add(int64(forms))
	c.promPages.Inc()
}

// RecordEndpoints adds derived endpoints.
func (c *Collector) RecordEndpoints(n int) {
	if c == nil {
		return
	}
	c.endpointsFound.Add(int64(n))
}

// RecordProbe records one detector invocation.
func (c *Collector) RecordProbe(detector string) {
	if c == nil {
		return
	}
	c.probesTotal.Add(1)
	c.promProbes.WithLabelValues(detector).Inc()
}

// RecordFinding records a reported finding.
func (c *Collector) RecordFinding(class, severity string) {
	if c == nil {
		return
	}
	c.findingsTotal.Add(1)
	c.promFinds.WithLabelValues(class, severity).Inc()
}

func (c *Collector) recordResponseTime(d time.Duration) {
	ms := d.Milliseconds()
	c.responseTimesSum.Add(ms)
	c.responseTimesNum.Add(1)
	c.responseTimeBuckets[getBucket(ms)].Add(1)
	c.promLatency.Observe(d.Seconds())
}

// getBucket returns the histogram bucket for a given response time.
func getBucket(ms int64) int {
	switch {
	case ms < 10:
		return 0
	case ms < 50:
		return 1
	case ms < 100:
		return 2
	case ms < 250:
		return 3
	case ms < 500:
		return 4
	case ms < 1000:
		return 5
	case ms < 2500:
		return 6
	case ms < 5000:
		return 7
	case ms < 10000:
		return 8
	default:
		return 9
	}
}

func (c *Collector) recordStatusCode(code int) {
	c.statusMu.Lock()
	if c.statusCodes[code] == nil {
		c.statusCodes[code] = &atomic.Int64{}
	}
	c.statusCodes[code].Add(1)
	c.statusMu.Unlock()
}

// GetAverageResponseTime returns the average response time.
func (c *Collector) GetAverageResponseTime() time.Duration {
	sum := c.responseTimesSum.Load()
	num := c.responseTimesNum.Load()
	if num == 0 {
		return 0
	}
	return time.Duration(sum/num) * time.Millisecond
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() *Snapshot {
	s := &Snapshot{
		Timestamp:           time.Now(),
		Uptime:              time.Since(c.startTime),
		RequestsTotal:       c.requestsTotal.Load(),
		CacheHitsTotal:      c.cacheHitsTotal.Load(),
		RetriesTotal:        c.retriesTotal.Load(),
		ErrorsTotal:         c.errorsTotal.Load(),
		BytesTotal:          c.bytesTotal.Load(),
		PagesCrawled:        c.pagesCrawled.Load(),
		FormsFound:          c.formsFound.Load(),
		EndpointsFound:      c.endpointsFound.Load(),
		ProbesTotal:         c.probesTotal.Load(),
		FindingsTotal:       c.findingsTotal.Load(),
		AverageResponseTime: c.GetAverageResponseTime(),
		ErrorCounts:         make(map[string]int64),
		StatusCodes:         make(map[int]int64),
		ResponseTimeHist:    make([]int64, 10),
	}

	c.errorMu.RLock()
	for k, v := range c.errorCounts {
		s.ErrorCounts[k] = v.Load()
	}
	c.errorMu.RUnlock()

	c.statusMu.RLock()
	for k, v := range c.statusCodes {
		s.StatusCodes[k] = v.Load()
	}
	c.statusMu.RUnlock()

	for i := 0; i < 10; i++ {
		s.ResponseTimeHist[i] = c.responseTimeBuckets[i].Load()
	}

	return s
}

// Snapshot represents a point-in-time view of metrics.
type Snapshot struct {
	Timestamp           time.Time        `json:"timestamp"`
	Uptime              time.Duration    `json:"uptime"`
	RequestsTotal       int64            `json:"requests_total"`
	CacheHitsTotal      int64            `json:"cache_hits_total"`
	RetriesTotal        int64            `json:"retries_total"`
	ErrorsTotal         int64            `json:"errors_total"`
	BytesTotal          int64            `json:"bytes_total"`
	PagesCrawled        int64            `json:"pages_crawled"`
	FormsFound          int64            `json:"forms_found"`
	EndpointsFound      int64            `json:"endpoints_found"`
	ProbesTotal         int64            `json:"probes_total"`
	FindingsTotal       int64            `json:"findings_total"`
	AverageResponseTime time.Duration    `json:"average_response_time"`
	ErrorCounts         map[string]int64 `json:"error_counts"`
	StatusCodes         map[int]int64    `json:"status_codes"`
	ResponseTimeHist    []int64          `json:"response_time_histogram"`
}

// ErrorRate returns the error rate (errors/requests).
func (s *Snapshot) ErrorRate() float64 {
	total := s.RequestsTotal + s.ErrorsTotal
	if total == 0 {
		return 0
	}
	return float64(s.ErrorsTotal) / float64(total)
}

// CacheHitRate returns cache hits over all GET lookups answered.
func (s *Snapshot) CacheHitRate() float64 {
	total := s.RequestsTotal + s.CacheHitsTotal
	if total == 0 {
		return 0
	}
	return float64(s.CacheHitsTotal) / float64(total)
}

// Summary returns a flat map for structured logging.
func (s *Snapshot) Summary() map[string]interface{} {
	return map[string]interface{}{
		"uptime":               s.Uptime.String(),
		"requests_total":       s.RequestsTotal,
		"cache_hits":           s.CacheHitsTotal,
		"retries":              s.RetriesTotal,
		"errors_total":         s.ErrorsTotal,
		"pages_crawled":        s.PagesCrawled,
		"endpoints":            s.EndpointsFound,
		"probes":               s.ProbesTotal,
		"findings":             s.FindingsTotal,
		"avg_response_time_ms": s.AverageResponseTime.Milliseconds(),
	}
}

// Server exposes a collector over HTTP at /metrics.
type Server struct {
	srv  *http.Server
	ln   net.Listener
	done chan struct{}
}

// Serve starts serving c at addr until Shutdown is called.
func Serve(addr string, c *Collector) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())

	s := &Server{
		srv: &http.Server{
			Handler:      mux,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		ln:   ln,
		done: make(chan struct{}),
	}

	go func() {
		defer close(s.done)
		// Serve returns http.ErrServerClosed after Shutdown.
		_ = s.srv.Serve(ln)
	}()

	return s, nil
}

// Addr returns the bound listen address.
func (s *Server) Addr() string {
	return s.ln.Addr().String()
}

// Shutdown stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	err := s.srv.Shutdown(ctx)
	<-s.done
	return err
}
