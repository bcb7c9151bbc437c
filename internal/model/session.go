package model

import "sync"

// VisitedSet tracks exact URL strings that have been handed to the fetcher.
// It spans the whole run: a URL reachable from several targets is still
// fetched only once.
type VisitedSet struct {
	mu   sync.Mutex
	urls map[string]struct{}
}

// NewVisitedSet creates an empty VisitedSet.
func NewVisitedSet() *VisitedSet {
	return &VisitedSet{urls: make(map[string]struct{})}
}

// MarkVisited records rawURL as visited and reports whether this call was
// the first to do so. Check and insert happen under one lock, so two
// concurrent callers can never both receive true for the same URL.
func (v *VisitedSet) MarkVisited(rawURL string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.urls[rawURL]; ok {
		return false
	}
	v.urls[rawURL] = struct{}{}
	return true
}

// Contains reports whether rawURL has been marked.
func (v *VisitedSet) Contains(rawURL string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.urls[rawURL]
	return ok
}

// Len returns the number of visited URLs.
func (v *VisitedSet) Len() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return len(v.urls)
}

// Session holds the mutable state of one run. It is created at run start,
// passed to every component that needs it, and discarded after reporting.
type Session struct {
	// Visited is shared by every crawl in the run and is never reset.
	Visited *VisitedSet

	// Findings collects every detection in append order.
	Findings *Findings
}

// NewSession creates a Session with empty state.
func NewSession() *Session {
	return &Session{
		Visited:  NewVisitedSet(),
		Findings: NewFindings(),
	}
}
