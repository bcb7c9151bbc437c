// Package model defines the core data structures shared across leakscan.
//
// This package contains the following main types:
//   - Finding: A single detection (kind, location, evidence)
//   - Findings: The run-wide, append-only sequence of findings
//   - VisitedSet: The run-wide set of URLs that have already been fetched
//   - Session: Owner of the VisitedSet and Findings for one run
//
// The models live in their own package so that the crawler, detect,
// pipeline and report packages can share them without import cycles.
// A Session is constructed once per run and passed by pointer to every
// component that reads or appends; there is no package-level state.
package model
