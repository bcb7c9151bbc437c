package model

import "time"

// TargetReport records what the run did for one target.
// Findings themselves live in the shared Session; this holds per-target counters.
type TargetReport struct {
	// Target is the normalized origin URL.
	Target string `json:"target"`

	// StartedAt is when the first step began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the last step ended.
	FinishedAt time.Time `json:"finished_at"`

	// SensitiveFiles is the number of exposed sensitive paths found.
	SensitiveFiles int `json:"sensitive_files"`

	// PagesFetched is the number of crawled pages that were scanned.
	PagesFetched int `json:"pages_fetched"`

	// PagesFailed is the number of crawl nodes dropped on fetch errors.
	PagesFailed int `json:"pages_failed"`

	// LeakFindings is the number of leak pattern findings from the crawl.
	LeakFindings int `json:"leak_findings"`

	// ExternalScanReported is true when the external scanner produced output.
	ExternalScanReported bool `json:"external_scan_reported"`

	// PerformedSteps lists the steps that ran, in order.
	PerformedSteps []string `json:"performed_steps"`

	// Error is the error that stopped the target, if any.
	Error error `json:"-"`

	// ErrorMessage is Error as text.
	ErrorMessage string `json:"error,omitempty"`
}

// NewTargetReport creates a report for target.
func NewTargetReport(target string) *TargetReport {
	return &TargetReport{
		Target:         target,
		StartedAt:      time.Now(),
		PerformedSteps: make([]string, 0),
	}
}

// FindingCount returns the total number of findings attributed to the target.
func (r *TargetReport) FindingCount() int {
	n := r.SensitiveFiles + r.LeakFindings
	if r.ExternalScanReported {
		n++
	}
	return n
}
