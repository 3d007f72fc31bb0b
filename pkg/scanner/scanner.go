// Package scanner runs a complete scan: crawl the target under a profile,
// then probe every derived endpoint with the enabled detectors.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/PentesterFlow/NetScan/internal/detector"
	"github.com/PentesterFlow/NetScan/internal/finding"
	nshttp "github.com/PentesterFlow/NetScan/internal/http"
	"github.com/PentesterFlow/NetScan/internal/logger"
	"github.com/PentesterFlow/NetScan/internal/metrics"
	"github.com/PentesterFlow/NetScan/internal/output"
	"github.com/PentesterFlow/NetScan/pkg/crawler"
)

// Progress receives probe-phase progress. *progress.Display satisfies it.
type Progress interface {
	Start(target string, total int)
	Update(done, findings int)
	Stop()
}

// Scanner orchestrates one scan at a time.
type Scanner struct {
	config          *Config
	target          string
	profile         Profile
	tests           []string
	detectorConfig  detector.Config
	rendererFactory crawler.RendererFactory
	rand            *rand.Rand
	logger          *logger.Logger
	metrics         *metrics.Collector
	progress        Progress

	running atomic.Bool
}

// New creates a scanner. Configuration errors are reported here, before
// any network activity.
func New(opts ...Option) (*Scanner, error) {
	s := &Scanner{
		config:         DefaultConfig(),
		detectorConfig: detector.DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := s.config.Validate(); err != nil {
		return nil, err
	}

	s.target, _ = NormalizeTarget(s.config.Target)
	s.profile, _ = LookupProfile(s.config.Profile)
	s.tests, _ = selectTests(s.profile, s.config.Tests)

	if s.config.MaxDepth > 0 {
		s.profile.MaxDepth = s.config.MaxDepth
	}
	if s.config.MaxPages > 0 {
		s.profile.MaxPages = s.config.MaxPages
	}
	if s.config.Timeout > 0 {
		s.profile.Timeout = s.config.Timeout
	}

	s.logger = logger.OrNop(s.logger).WithComponent("scanner")
	if s.metrics == nil {
		s.metrics = metrics.New()
	}
	if s.rand == nil {
		s.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return s, nil
}

// Target returns the normalized target URL.
func (s *Scanner) Target() string { return s.target }

// Profile returns the profile with overrides applied.
func (s *Scanner) Profile() Profile { return s.profile.clone() }

// Tests returns the enabled tests in profile order.
func (s *Scanner) Tests() []string { return append([]string(nil), s.tests...) }

// Metrics returns the scan's metrics collector.
func (s *Scanner) Metrics() *metrics.Collector { return s.metrics }

// Run crawls the target and probes every endpoint. It always returns a
// Result. On cancellation the error wraps ErrInterrupted and the result
// holds the findings made so far.
func (s *Scanner) Run(ctx context.Context) (*Result, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("scanner is already running")
	}
	defer s.running.Store(false)

	res := &Result{
		ID:       uuid.NewString(),
		Outcome:  OutcomeFailed,
		Findings: []finding.Finding{},
		Summary: Summary{
			Target:    s.target,
			Profile:   s.profile.Name,
			Tests:     s.Tests(),
			StartedAt: time.Now(),
		},
	}
	log := s.logger.WithField("scan_id", res.ID)
	log.Infof("scanning %s with profile %s (tests: %v)", s.target, s.profile.Name, s.tests)

	cr, err := crawler.New(s.crawlerOptions(log)...)
	if err != nil {
		return s.stop(res, err)
	}

	crawled, err := cr.Crawl(ctx)
	if crawled != nil {
		res.Pages = crawled.Pages
		res.Endpoints = crawled.Endpoints
		res.Summary.Rendered = crawled.Rendered
	}
	if err != nil {
		return s.stop(res, err)
	}

	if len(res.Endpoints) == 0 {
		log.Warn("no testable endpoints found")
		return s.finish(res, OutcomeCompleted), nil
	}

	err = nshttp.With(ctx, s.httpConfig(), func(client *nshttp.Client) error {
		return s.probe(ctx, client, res, log)
	}, nshttp.WithLogger(log), nshttp.WithMetrics(s.metrics))
	if err != nil {
		return s.stop(res, err)
	}

	return s.finish(res, OutcomeCompleted), nil
}

func (s *Scanner) crawlerOptions(log *logger.Logger) []crawler.Option {
	retries := s.config.MaxRetries
	if retries > 1 {
		retries = 1
	}

	opts := []crawler.Option{
		crawler.WithTarget(s.target),
		crawler.WithMaxDepth(s.profile.MaxDepth),
		crawler.WithMaxPages(s.profile.MaxPages),
		crawler.WithTimeout(s.profile.Timeout),
		crawler.WithPoliteness(s.config.Politeness),
		crawler.WithMaxRetries(retries),
		crawler.WithRender(s.config.Render),
		crawler.WithEndpointConfig(s.config.Endpoints),
		crawler.WithLogger(log),
		crawler.WithMetrics(s.metrics),
	}
	if s.config.Render && s.rendererFactory != nil {
		opts = append(opts, crawler.WithRendererFactory(s.rendererFactory))
	}
	if s.config.Proxy != "" {
		opts = append(opts, crawler.WithProxy(s.config.Proxy))
	}
	if s.config.UserAgent != "" {
		opts = append(opts, crawler.WithUserAgent(s.config.UserAgent))
	}
	if len(s.config.Headers) > 0 {
		opts = append(opts, crawler.WithCustomHeaders(s.config.Headers))
	}
	return opts
}

func (s *Scanner) httpConfig() nshttp.Config {
	cfg := nshttp.DefaultConfig()
	cfg.Timeout = s.profile.Timeout
	cfg.RateInterval = s.config.RateInterval
	cfg.CacheTTL = s.config.CacheTTL
	cfg.MaxRetries = s.config.MaxRetries
	cfg.Proxy = s.config.Proxy
	cfg.Headers = s.config.Headers
	if s.config.UserAgent != "" {
		cfg.UserAgent = s.config.UserAgent
	}
	return cfg
}

// detectors builds the enabled detectors for one probing client.
func (s *Scanner) detectors(client detector.Requester, log *logger.Logger) ([]detector.ParamDetector, *detector.XXE, *detector.CSRF) {
	cfg := s.detectorConfig
	cfg.Logger = log
	cfg.Metrics = s.metrics
	cfg.Rand = s.rand
	cfg.Evasion, _ = s.config.techniques()
	if s.config.XSSSamples > 0 {
		cfg.XSSSamples = s.config.XSSSamples
	}

	enabled := make(map[string]bool, len(s.tests))
	for _, t := range s.tests {
		enabled[t] = true
	}

	var params []detector.ParamDetector
	if enabled[detector.NameSQLi] {
		params = append(params, detector.NewSQLi(client, cfg))
	}
	if enabled[detector.NameXSS] {
		params = append(params, detector.NewXSS(client, cfg))
	}
	if enabled[detector.NameCmd] {
		params = append(params, detector.NewCmd(client, cfg))
	}
	if enabled[detector.NamePathTraversal] {
		params = append(params, detector.NewPathTraversal(client, cfg))
	}
	if enabled[detector.NameSSRF] {
		params = append(params, detector.NewSSRF(client, cfg))
	}

	var xxe *detector.XXE
	if enabled[detector.NameXXE] {
		xxe = detector.NewXXE(client, cfg)
	}
	var csrf *detector.CSRF
	if enabled[detector.NameCSRF] {
		csrf = detector.NewCSRF(cfg)
	}
	return params, xxe, csrf
}

// probe runs the detectors over every endpoint in order. It returns only
// the context's error.
func (s *Scanner) probe(ctx context.Context, client detector.Requester, res *Result, log *logger.Logger) error {
	params, xxe, csrf := s.detectors(client, log)

	pages := make(map[string]*crawler.Page, len(res.Pages))
	for _, p := range res.Pages {
		if _, ok := pages[p.URL]; !ok {
			pages[p.URL] = p
		}
	}
	xxeDone := make(map[string]bool)
	csrfDone := make(map[string]bool)

	if s.progress != nil {
		s.progress.Start(s.target, len(res.Endpoints))
		defer s.progress.Stop()
	}

	for i, ep := range res.Endpoints {
		for _, param := range ep.Parameters {
			target := detector.Target{URL: ep.URL, Method: ep.Method, Parameter: param}
			for _, d := range params {
				if err := ctx.Err(); err != nil {
					return err
				}
				s.add(res, log, d.TestParam(ctx, target))
			}
		}

		if xxe != nil && !xxeDone[ep.URL] && (ep.Method == http.MethodPost || ep.Kind == crawler.KindCommonEndpoint) {
			if err := ctx.Err(); err != nil {
				return err
			}
			xxeDone[ep.URL] = true
			s.add(res, log, xxe.TestEndpoint(ctx, ep.URL))
		}

		if page, ok := pages[ep.URL]; ok && csrf != nil && !csrfDone[ep.URL] {
			if err := ctx.Err(); err != nil {
				return err
			}
			csrfDone[ep.URL] = true
			s.add(res, log, csrf.TestPage(ctx, page.URL, page.HTML))
		}

		if s.progress != nil {
			s.progress.Update(i+1, len(res.Findings))
		}
	}
	return ctx.Err()
}

// add assigns IDs and records findings in discovery order.
func (s *Scanner) add(res *Result, log *logger.Logger, found []finding.Finding) {
	for _, f := range found {
		f.ID = uuid.NewString()
		res.Findings = append(res.Findings, f)
		s.metrics.RecordFinding(string(f.Class), string(f.Severity))
		log.FindingEvent(f.Type, string(f.Severity), f.URL, f.Parameter)
	}
}

// stop ends a scan that did not complete.
func (s *Scanner) stop(res *Result, err error) (*Result, error) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		s.finish(res, OutcomeInterrupted)
		s.logger.Warnf("scan interrupted with %d findings", len(res.Findings))
		return res, fmt.Errorf("%w (%v)", ErrInterrupted, err)
	}
	s.finish(res, OutcomeFailed)
	s.logger.WithError(err).Error("scan failed")
	return res, fmt.Errorf("scan failed: %w", err)
}

// finish fills in the summary.
func (s *Scanner) finish(res *Result, outcome Outcome) *Result {
	res.Outcome = outcome
	sum := &res.Summary
	sum.FinishedAt = time.Now()
	sum.Duration = sum.FinishedAt.Sub(sum.StartedAt)
	sum.PagesCrawled = len(res.Pages)
	sum.EndpointsTested = len(res.Endpoints)
	sum.TotalFindings = len(res.Findings)

	sum.Counts = make(map[string]int)
	for sev, n := range finding.Counts(res.Findings) {
		sum.Counts[string(sev)] = n
	}

	snap := s.metrics.Snapshot()
	sum.Requests = output.RequestStats{
		Total:     snap.RequestsTotal,
		CacheHits: snap.CacheHitsTotal,
		Retries:   snap.RetriesTotal,
		Errors:    snap.ErrorsTotal,
	}

	s.logger.StatsEvent("scan finished", map[string]interface{}{
		"outcome":   string(outcome),
		"pages":     sum.PagesCrawled,
		"endpoints": sum.EndpointsTested,
		"findings":  sum.TotalFindings,
		"duration":  sum.Duration.String(),
	})
	return res
}
