package queue

import (
	"container/heap"
	"errors"
	"sync"
	"time"
)

var (
	ErrQueueEmpty  = errors.New("queue is empty")
	ErrQueueClosed = errors.New("queue is closed")
	ErrQueueFull   = errors.New("queue at capacity")
)

// frontier implements heap.Interface ordered by depth, then arrival.
type frontier []*Item

func (f frontier) Len() int { return len(f) }

func (f frontier) Less(i, j int) bool {
	if f[i].Depth != f[j].Depth {
		return f[i].Depth < f[j].Depth
	}
	return f[i].seq < f[j].seq
}

func (f frontier) Swap(i, j int) {
	f[i], f[j] = f[j], f[i]
}

func (f *frontier) Push(x interface{}) {
	*f = append(*f, x.(*Item))
}

func (f *frontier) Pop() interface{} {
	old := *f
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*f = old[0 : n-1]
	return item
}

// MemoryQueue is a thread-safe in-memory breadth-first queue.
type MemoryQueue struct {
	mu       sync.RWMutex
	items    frontier
	urlSet   map[string]struct{}
	seq      uint64
	closed   bool
	capacity int
}

// NewMemoryQueue creates a queue. A capacity of zero means unbounded.
func NewMemoryQueue(capacity int) *MemoryQueue {
	mq := &MemoryQueue{
		items:    make(frontier, 0),
		urlSet:   make(map[string]struct{}),
		capacity: capacity,
	}
	heap.Init(&mq.items)
	return mq
}

// Push adds an item to the queue.
func (mq *MemoryQueue) Push(item *Item) error {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.closed {
		return ErrQueueClosed
	}
	if mq.capacity > 0 && len(mq.items) >= mq.capacity {
		return ErrQueueFull
	}
	if _, exists := mq.urlSet[item.URL]; exists {
		return nil
	}

	if item.Timestamp.IsZero() {
		item.Timestamp = time.Now()
	}
	item.seq = mq.seq
	mq.seq++

	mq.urlSet[item.URL] = struct{}{}
	heap.Push(&mq.items, item)
	return nil
}

// Pop removes and returns the next item from the queue.
func (mq *MemoryQueue) Pop() (*Item, error) {
	mq.mu.Lock()
	defer mq.mu.Unlock()

	if mq.closed {
		return nil, ErrQueueClosed
	}
	if len(mq.items) == 0 {
		return nil, ErrQueueEmpty
	}

	item := heap.Pop(&mq.items).(*Item)
	delete(mq.urlSet, item.URL)
	return item, nil
}

// Len returns the number of items in the queue.
func (mq *MemoryQueue) Len() int {
	mq.mu.RLock()
	defer mq.mu.RUnlock()
	return len(mq.items)
}

// IsEmpty returns true if the queue is empty.
func (mq *MemoryQueue) IsEmpty() bool {
	return mq.Len() == 0
}

// Contains checks if a URL is in the queue.
func (mq *MemoryQueue) Contains(url string) bool {
	mq.mu.RLock()
	defer mq.mu.RUnlock()
	_, exists := mq.urlSet[url]
	return exists
}

// Close closes the queue. Later calls to Push and Pop fail.
func (mq *MemoryQueue) Close() error {
	mq.mu.Lock()
	defer mq.mu.Unlock()
	mq.closed = true
	return nil
}
