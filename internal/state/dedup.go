package state

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

// Deduplicator is a visited set backed by a Bloom filter, with an exact
// set behind it to rule out false positives.
type Deduplicator struct {
	mu     sync.RWMutex
	filter *bloom.BloomFilter
	exact  map[string]struct{}
}

// NewDeduplicator sizes the filter for estimatedItems at a 0.1% false
// positive rate.
func NewDeduplicator(estimatedItems int) *Deduplicator {
	if estimatedItems < 1000 {
		estimatedItems = 1000
	}
	return &Deduplicator{
		filter: bloom.NewWithEstimates(uint(estimatedItems), 0.001),
		exact:  make(map[string]struct{}),
	}
}

// Visit records url and reports whether it was new.
func (d *Deduplicator) Visit(url string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.filter.TestString(url) {
		if _, exists := d.exact[url]; exists {
			return false
		}
	}
	d.filter.AddString(url)
	d.exact[url] = struct{}{}
	return true
}

// HasSeen checks if a URL has been visited.
func (d *Deduplicator) HasSeen(url string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.filter.TestString(url) {
		return false
	}
	_, exists := d.exact[url]
	return exists
}

// Count returns the number of unique URLs seen.
func (d *Deduplicator) Count() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.exact)
}

// Reset forgets every URL.
func (d *Deduplicator) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.filter.ClearAll()
	d.exact = make(map[string]struct{})
}
