package state

import (
	"time"

	"github.com/PentesterFlow/NetScan/internal/finding"
)

// CrawlStats counts crawl activity.
type CrawlStats struct {
	URLsDiscovered   int           `json:"urls_discovered"`
	PagesCrawled     int           `json:"pages_crawled"`
	PagesRendered    int           `json:"pages_rendered"`
	FormsFound       int           `json:"forms_found"`
	Skipped          int           `json:"skipped"`
	ErrorCount       int           `json:"error_count"`
	BytesTransferred int64         `json:"bytes_transferred"`
	Duration         time.Duration `json:"duration"`
}

// ScanRecord is one finished scan as kept in the history store.
type ScanRecord struct {
	ID              string            `json:"id"`
	Target          string            `json:"target"`
	Profile         string            `json:"profile"`
	Outcome         string            `json:"outcome"`
	StartedAt       time.Time         `json:"started_at"`
	FinishedAt      time.Time         `json:"finished_at"`
	PagesCrawled    int               `json:"pages_crawled"`
	EndpointsTested int               `json:"endpoints_tested"`
	Counts          map[string]int    `json:"counts"`
	Findings        []finding.Finding `json:"findings"`
	Reports         []string          `json:"reports,omitempty"`
}

// Total returns the number of findings recorded.
func (r *ScanRecord) Total() int {
	return len(r.Findings)
}
