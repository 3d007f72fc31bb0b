// Package state keeps crawl bookkeeping and the scan history.
package state

import (
	"sync"
	"time"
)

// Manager tracks the visited set and counters of one crawl. It is safe for
// concurrent readers such as a progress reporter.
type Manager struct {
	dedup     *Deduplicator
	mu        sync.RWMutex
	stats     CrawlStats
	startTime time.Time
	target    string
}

// NewManager creates a manager sized for estimatedURLs.
func NewManager(estimatedURLs int) *Manager {
	return &Manager{
		dedup:     NewDeduplicator(estimatedURLs),
		startTime: time.Now(),
	}
}

// Start resets counters for a crawl of target.
func (m *Manager) Start(target string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.target = target
	m.startTime = time.Now()
	m.stats = CrawlStats{}
	m.dedup.Reset()
}

// Target returns the crawl target.
func (m *Manager) Target() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.target
}

// MarkVisited records url and reports whether it was new.
func (m *Manager) MarkVisited(url string) bool {
	return m.dedup.Visit(url)
}

// HasVisited checks if a URL has been visited.
func (m *Manager) HasVisited(url string) bool {
	return m.dedup.HasSeen(url)
}

// VisitedCount returns the number of visited URLs.
func (m *Manager) VisitedCount() int {
	return m.dedup.Count()
}

// AddDiscovered adds n to the discovered URL counter.
func (m *Manager) AddDiscovered(n int) {
	m.update(func(s *CrawlStats) { s.URLsDiscovered += n })
}

// AddPage counts a stored page and its forms.
func (m *Manager) AddPage(forms int, rendered bool) {
	m.update(func(s *CrawlStats) {
		s.PagesCrawled++
		s.FormsFound += forms
		if rendered {
			s.PagesRendered++
		}
	})
}

// AddSkipped counts a dequeued URL that was not fetched.
func (m *Manager) AddSkipped() {
	m.update(func(s *CrawlStats) { s.Skipped++ })
}

// AddError increments the error counter.
func (m *Manager) AddError() {
	m.update(func(s *CrawlStats) { s.ErrorCount++ })
}

// AddBytes adds to the transferred byte count.
func (m *Manager) AddBytes(n int64) {
	m.update(func(s *CrawlStats) { s.BytesTransferred += n })
}

// Stats returns a copy of the counters with Duration filled in.
func (m *Manager) Stats() CrawlStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.stats
	s.Duration = time.Since(m.startTime)
	return s
}

func (m *Manager) update(fn func(*CrawlStats)) {
	m.mu.Lock()
	fn(&m.stats)
	m.mu.Unlock()
}
