package model

import (
	"sort"
	"sync"
)

// Finding kinds produced outside the leak pattern catalogue.
const (
	// KindSensitiveFile is used for sensitive paths that were served successfully.
	KindSensitiveFile = "Sensitive File"

	// KindExternalScan is used for raw output captured from the external scanner.
	KindExternalScan = "External Scan"
)

// Finding is a single signal observed during a run.
//
// Evidence is informational: for leak patterns it is the pattern expression,
// for sensitive files the probed path, and for external scans the raw
// scanner output. It never contains a captured secret.
type Finding struct {
	// Kind is the pattern or category name (e.g. "AWS Key", "Sensitive File").
	Kind string `json:"type"`

	// URL is where the signal was observed.
	URL string `json:"url"`

	// Evidence identifies what matched.
	Evidence string `json:"evidence"`
}

// Key returns a stable identity for the finding, used when comparing runs.
func (f Finding) Key() string {
	return f.Kind + "|" + f.URL + "|" + f.Evidence
}

// Findings is an ordered, append-only sequence of findings that is safe
// for concurrent writers. Findings are never deduplicated or merged.
type Findings struct {
	mu    sync.Mutex
	items []Finding
}

// NewFindings creates an empty Findings sequence.
func NewFindings() *Findings {
	return &Findings{items: make([]Finding, 0)}
}

// Add appends one or more findings in the given order.
func (f *Findings) Add(findings ...Finding) {
	if len(findings) == 0 {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, findings...)
}

// All returns a copy of all findings in append order.
func (f *Findings) All() []Finding {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Finding, len(f.items))
	copy(out, f.items)
	return out
}

// Len returns the number of findings appended so far.
func (f *Findings) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

// KindCount is the number of findings of a single kind.
type KindCount struct {
	Kind  string `json:"type"`
	Count int    `json:"count"`
}

// CountByKind returns per-kind totals for the given findings, ordered by
// descending count and then by kind name.
func CountByKind(findings []Finding) []KindCount {
	counts := make(map[string]int)
	for _, f := range findings {
		counts[f.Kind]++
	}

	result := make([]KindCount, 0, len(counts))
	for kind, n := range counts {
		result = append(result, KindCount{Kind: kind, Count: n})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Count != result[j].Count {
			return result[i].Count > result[j].Count
		}
		return result[i].Kind < result[j].Kind
	})
	return result
}
