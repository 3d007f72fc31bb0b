package crawler

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PentesterFlow/NetScan/internal/browser"
	nshttp "github.com/PentesterFlow/NetScan/internal/http"
	"github.com/PentesterFlow/NetScan/internal/logger"
	"github.com/PentesterFlow/NetScan/internal/metrics"
	"github.com/PentesterFlow/NetScan/internal/parser"
	"github.com/PentesterFlow/NetScan/internal/queue"
	"github.com/PentesterFlow/NetScan/internal/ratelimit"
	"github.com/PentesterFlow/NetScan/internal/scope"
	"github.com/PentesterFlow/NetScan/internal/state"
)

// Crawler is a single-threaded breadth-first crawler bound to one origin.
type Crawler struct {
	config          *Config
	client          *nshttp.Client
	queue           *queue.MemoryQueue
	state           *state.Manager
	scope           *scope.Checker
	limiter         *ratelimit.Limiter
	renderer        Renderer
	rendererFactory RendererFactory
	endpointConfig  EndpointConfig
	logger          *logger.Logger
	metrics         *metrics.Collector

	mu        sync.RWMutex
	running   atomic.Bool
	startTime time.Time
	pages     []*Page
	endpoints []Endpoint
	errors    []CrawlError
}

// New creates a new crawler with the given options. Configuration errors
// are reported here, before any network activity.
func New(opts ...Option) (*Crawler, error) {
	c := &Crawler{
		config: DefaultConfig(),
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if err := c.config.Validate(); err != nil {
		return nil, err
	}

	c.logger = logger.OrNop(c.logger).WithComponent("crawler")

	if c.config.Render && c.rendererFactory == nil {
		c.rendererFactory = BrowserRenderer(c.config.Browser, c.logger)
	}
	if !c.config.Render {
		c.rendererFactory = nil
	}

	return c, nil
}

// BrowserRenderer returns a factory that launches a headless browser.
func BrowserRenderer(cfg browser.Config, log *logger.Logger) RendererFactory {
	return func(ctx context.Context) (Renderer, error) {
		b, err := browser.New(ctx, cfg, log)
		if err != nil {
			return nil, err
		}
		return b, nil
	}
}

// initialize sets up per-crawl components.
func (c *Crawler) initialize() error {
	var err error

	c.scope, err = scope.NewChecker(c.config.Target)
	if err != nil {
		return fmt.Errorf("failed to create scope checker: %w", err)
	}

	// Politeness is enforced by c.limiter, so the fetch client runs
	// unlimited and uncached.
	httpCfg := nshttp.DefaultConfig()
	httpCfg.Timeout = c.config.Timeout
	httpCfg.RateInterval = 0
	httpCfg.CacheTTL = 0
	httpCfg.MaxRetries = c.config.MaxRetries
	httpCfg.Proxy = c.config.Proxy
	httpCfg.Headers = c.config.CustomHeaders
	if c.config.UserAgent != "" {
		httpCfg.UserAgent = c.config.UserAgent
	}
	c.client, err = nshttp.Open(httpCfg, nshttp.WithLogger(c.logger), nshttp.WithMetrics(c.metrics))
	if err != nil {
		return err
	}

	c.queue = queue.NewMemoryQueue(0)
	c.state = state.NewManager(c.config.MaxPages * 10)
	c.state.Start(c.config.Target)
	c.limiter = ratelimit.NewInterval(c.config.Politeness)

	c.mu.Lock()
	c.pages = nil
	c.endpoints = nil
	c.errors = nil
	c.mu.Unlock()

	return nil
}

// Crawl runs the crawl to completion or until ctx is cancelled. On
// cancellation it returns the partial result together with ctx's error.
func (c *Crawler) Crawl(ctx context.Context) (*Result, error) {
	if !c.running.CompareAndSwap(false, true) {
		return nil, fmt.Errorf("crawler is already running")
	}
	defer c.running.Store(false)

	c.startTime = time.Now()
	if err := c.initialize(); err != nil {
		return nil, err
	}
	defer c.cleanup()

	c.startRenderer(ctx)

	c.queue.Push(&queue.Item{URL: c.config.Target, Depth: 0})

	var crawlErr error
	for !c.queue.IsEmpty() && c.pageCount() < c.config.MaxPages {
		if err := ctx.Err(); err != nil {
			crawlErr = err
			break
		}

		item, err := c.queue.Pop()
		if err != nil {
			break
		}

		if err := c.processURL(ctx, item); err != nil {
			crawlErr = err
			break
		}
	}

	pages := c.Pages()
	endpoints := DeriveEndpoints(c.config.Target, pages, c.endpointConfig)
	c.metrics.RecordEndpoints(len(endpoints))

	c.mu.Lock()
	c.endpoints = endpoints
	errs := append([]CrawlError(nil), c.errors...)
	c.mu.Unlock()

	stats := convertStateCrawlStats(c.state.Stats())
	c.logger.StatsEvent("crawl finished", map[string]interface{}{
		"pages":     stats.PagesCrawled,
		"rendered":  stats.PagesRendered,
		"skipped":   stats.Skipped,
		"errors":    stats.ErrorCount,
		"endpoints": len(endpoints),
	})

	return &Result{
		Target:      c.config.Target,
		StartedAt:   c.startTime,
		CompletedAt: time.Now(),
		Stats:       stats,
		Pages:       pages,
		Endpoints:   endpoints,
		Rendered:    c.renderer != nil,
		Errors:      errs,
	}, crawlErr
}

// startRenderer asks the factory for a renderer once. Failure leaves the
// crawl on static fetch.
func (c *Crawler) startRenderer(ctx context.Context) {
	c.renderer = nil
	if c.rendererFactory == nil {
		return
	}

	r, err := c.rendererFactory(ctx)
	if err != nil {
		c.logger.WithError(err).Warn("renderer unavailable, using static fetch")
		return
	}
	c.renderer = r
}

// pageCount is the number of stored pages. Only stored pages use up
// MaxPages; failed and non-200 fetches do not.
func (c *Crawler) pageCount() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pages)
}

// processURL handles one dequeued item. Only a cancelled context is
// returned as an error; everything else is logged and skipped.
func (c *Crawler) processURL(ctx context.Context, item *queue.Item) error {
	if item.Depth > c.config.MaxDepth || !c.scope.IsInScope(item.URL) {
		c.state.AddSkipped()
		return nil
	}
	if !c.state.MarkVisited(item.URL) {
		c.state.AddSkipped()
		return nil
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	page, err := c.fetch(ctx, item.URL)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.addError(item.URL, err)
		return nil
	}
	if page == nil {
		return nil
	}
	page.Depth = item.Depth

	p, err := parser.NewHTMLParser(item.URL)
	if err != nil {
		c.addError(item.URL, err)
		return nil
	}
	parsed, err := p.Parse(page.HTML)
	if err != nil {
		c.addError(item.URL, fmt.Errorf("parse: %w", err))
		return nil
	}

	page.Forms = parsed.Forms
	page.Inputs = parsed.Inputs
	page.Links = parsed.Links
	page.Parameters = scope.QueryParams(item.URL)
	c.addPage(page)

	added := 0
	for _, link := range page.Links {
		if !c.scope.SameOrigin(link) || c.state.HasVisited(link) || c.queue.Contains(link) {
			continue
		}
		if err := c.queue.Push(&queue.Item{URL: link, Depth: item.Depth + 1, ParentURL: item.URL}); err == nil {
			added++
		}
	}
	c.state.AddDiscovered(added)

	return nil
}

// fetch loads url through the renderer when there is one, falling back to
// a static GET. A nil page means the response was not storable.
func (c *Crawler) fetch(ctx context.Context, url string) (*Page, error) {
	if c.renderer != nil {
		r, err := c.renderer.Render(ctx, url)
		if err == nil {
			return c.storable(&Page{
				URL:        url,
				Method:     http.MethodGet,
				HTML:       r.HTML,
				StatusCode: r.StatusCode,
				Headers:    r.Headers,
				Rendered:   true,
				CrawledAt:  time.Now(),
			}), nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		c.logger.WithURL(url).WithError(err).Debug("render failed, falling back to static fetch")
	}

	resp, err := c.client.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return c.storable(&Page{
		URL:        url,
		Method:     http.MethodGet,
		HTML:       resp.Body,
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		CrawledAt:  time.Now(),
	}), nil
}

// storable drops non-200 pages.
func (c *Crawler) storable(p *Page) *Page {
	if p.StatusCode != http.StatusOK {
		c.logger.WithURL(p.URL).Debugf("skipping page with status %d", p.StatusCode)
		c.state.AddSkipped()
		return nil
	}
	return p
}

func (c *Crawler) addPage(p *Page) {
	c.mu.Lock()
	c.pages = append(c.pages, p)
	c.mu.Unlock()

	c.state.AddPage(len(p.Forms), p.Rendered)
	c.state.AddBytes(int64(len(p.HTML)))
	c.metrics.RecordPageCrawled(len(p.Forms))
	c.logger.PageEvent(p.URL, p.Depth, len(p.Forms), len(p.Links), p.Rendered)
}

func (c *Crawler) addError(url string, err error) {
	c.state.AddError()
	c.logger.ErrorEvent(err, url, "crawl")

	c.mu.Lock()
	defer c.mu.Unlock()
	c.errors = append(c.errors, CrawlError{
		URL:       url,
		Error:     err.Error(),
		Timestamp: time.Now(),
	})
}

// cleanup releases per-crawl resources.
func (c *Crawler) cleanup() {
	if c.renderer != nil {
		if err := c.renderer.Close(); err != nil {
			c.logger.WithError(err).Debug("renderer close failed")
		}
	}
	if c.client != nil {
		c.client.Close()
	}
	if c.queue != nil {
		c.queue.Close()
	}
}

// Pages returns the stored pages in crawl order.
func (c *Crawler) Pages() []*Page {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*Page(nil), c.pages...)
}

// Endpoints returns the endpoints derived by the last crawl.
func (c *Crawler) Endpoints() []Endpoint {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Endpoint(nil), c.endpoints...)
}

// Stats returns current crawl statistics.
func (c *Crawler) Stats() CrawlStats {
	if c.state == nil {
		return CrawlStats{}
	}
	return convertStateCrawlStats(c.state.Stats())
}

// IsRunning reports whether a crawl is in progress.
func (c *Crawler) IsRunning() bool {
	return c.running.Load()
}
