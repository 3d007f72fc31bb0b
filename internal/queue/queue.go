// Package queue holds the crawl frontier.
package queue

// Queue is a crawl frontier. Items come out shallowest first and in
// insertion order within a depth.
type Queue interface {
	// Push adds an item. A URL already waiting in the queue is ignored.
	Push(item *Item) error

	// Pop removes and returns the next item.
	Pop() (*Item, error)

	Len() int
	IsEmpty() bool

	// Contains reports whether url is waiting in the queue.
	Contains(url string) bool

	Close() error
}
