package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/PentesterFlow/NetScan/internal/finding"
	"github.com/PentesterFlow/NetScan/internal/output"
	"github.com/PentesterFlow/NetScan/internal/payloads"
	"github.com/PentesterFlow/NetScan/internal/state"
	"github.com/PentesterFlow/NetScan/pkg/crawler"
)

// Outcome is how a scan ended.
type Outcome string

const (
	OutcomeCompleted   Outcome = "completed"
	OutcomeInterrupted Outcome = "interrupted"
	OutcomeFailed      Outcome = "failed"
)

// ErrInterrupted is returned by Run when the context is cancelled.
var ErrInterrupted = fmt.Errorf("scan interrupted: %w", context.Canceled)

// Summary describes a finished scan.
type Summary struct {
	Target          string              `json:"target"`
	Profile         string              `json:"profile"`
	Tests           []string            `json:"tests"`
	PagesCrawled    int                 `json:"pages_crawled"`
	EndpointsTested int                 `json:"endpoints_tested"`
	Counts          map[string]int      `json:"counts"`
	TotalFindings   int                 `json:"total_findings"`
	StartedAt       time.Time           `json:"started_at"`
	FinishedAt      time.Time           `json:"finished_at"`
	Duration        time.Duration       `json:"duration"`
	Rendered        bool                `json:"rendered"`
	Requests        output.RequestStats `json:"requests"`
}

// Result is the output of Scanner.Run.
type Result struct {
	ID        string             `json:"id"`
	Outcome   Outcome            `json:"outcome"`
	Findings  []finding.Finding  `json:"findings"`
	Summary   Summary            `json:"summary"`
	Pages     []*crawler.Page    `json:"-"`
	Endpoints []crawler.Endpoint `json:"endpoints"`
}

// Top returns up to n findings, most severe first.
func (r *Result) Top(n int) []finding.Finding {
	return finding.Top(r.Findings, n)
}

// Report converts the result for the report writers.
func (r *Result) Report() *output.Report {
	return output.NewReport(output.ScanInfo{
		ScanID:          r.ID,
		Target:          r.Summary.Target,
		Profile:         r.Summary.Profile,
		Outcome:         string(r.Outcome),
		Tests:           r.Summary.Tests,
		ScanDate:        r.Summary.StartedAt,
		FinishedAt:      r.Summary.FinishedAt,
		Duration:        r.Summary.Duration,
		PagesCrawled:    r.Summary.PagesCrawled,
		EndpointsTested: r.Summary.EndpointsTested,
		Rendered:        r.Summary.Rendered,
		Requests:        r.Summary.Requests,
		PayloadVersion:  payloads.Version,
	}, r.Findings)
}

// Record converts the result for the history store.
func (r *Result) Record(reports []string) *state.ScanRecord {
	counts := make(map[string]int, len(r.Summary.Counts))
	for k, v := range r.Summary.Counts {
		counts[k] = v
	}
	return &state.ScanRecord{
		ID:              r.ID,
		Target:          r.Summary.Target,
		Profile:         r.Summary.Profile,
		Outcome:         string(r.Outcome),
		StartedAt:       r.Summary.StartedAt,
		FinishedAt:      r.Summary.FinishedAt,
		PagesCrawled:    r.Summary.PagesCrawled,
		EndpointsTested: r.Summary.EndpointsTested,
		Counts:          counts,
		Findings:        append([]finding.Finding(nil), r.Findings...),
		Reports:         append([]string(nil), reports...),
	}
}
