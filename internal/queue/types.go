package queue

import "time"

// Item is one URL waiting to be fetched.
type Item struct {
	URL       string
	Depth     int
	ParentURL string
	Timestamp time.Time

	seq uint64
}
