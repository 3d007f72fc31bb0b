package output

import (
	"time"

	"github.com/PentesterFlow/NetScan/internal/finding"
)

// Report is everything a report writer renders.
type Report struct {
	ScanInfo ScanInfo          `json:"scan_info"`
	Findings []finding.Finding `json:"findings"`
}

// ScanInfo summarizes the scan a report covers.
type ScanInfo struct {
	ScanID          string         `json:"scan_id"`
	Target          string         `json:"target_url"`
	Profile         string         `json:"profile"`
	Outcome         string         `json:"outcome"`
	Tests           []string       `json:"tests"`
	ScanDate        time.Time      `json:"scan_date"`
	FinishedAt      time.Time      `json:"finished_at"`
	Duration        time.Duration  `json:"duration_ns"`
	PagesCrawled    int            `json:"pages_crawled"`
	EndpointsTested int            `json:"endpoints_tested"`
	Rendered        bool           `json:"rendered"`
	TotalFindings   int            `json:"total_findings"`
	SeveritySummary map[string]int `json:"severity_summary"`
	Requests        RequestStats   `json:"requests"`
	PayloadVersion  string         `json:"payload_version"`
}

// RequestStats are request-layer counters.
type RequestStats struct {
	Total     int64 `json:"total"`
	CacheHits int64 `json:"cache_hits"`
	Retries   int64 `json:"retries"`
	Errors    int64 `json:"errors"`
}

// SeverityCount is one row of the severity breakdown.
type SeverityCount struct {
	Severity finding.Severity
	Count    int
}

// NewReport builds a report and fills in the finding totals.
func NewReport(info ScanInfo, findings []finding.Finding) *Report {
	counts := finding.Counts(findings)
	info.TotalFindings = len(findings)
	info.SeveritySummary = make(map[string]int, len(counts))
	for sev, n := range counts {
		info.SeveritySummary[string(sev)] = n
	}
	if findings == nil {
		findings = []finding.Finding{}
	}
	return &Report{ScanInfo: info, Findings: findings}
}

// Breakdown lists every severity, most severe first, with its count.
func (r *Report) Breakdown() []SeverityCount {
	out := make([]SeverityCount, 0, 4)
	for _, s := range finding.Severities() {
		out = append(out, SeverityCount{Severity: s, Count: r.ScanInfo.SeveritySummary[string(s)]})
	}
	return out
}
