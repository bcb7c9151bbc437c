package report

import (
	"io"
	"time"

	"github.com/nao1215/leakscan/internal/model"
)

// Result is everything a report is rendered from.
type Result struct {
	// Findings is the run-wide ordered findings sequence.
	Findings []model.Finding

	// Targets holds one report per target in input order.
	// Entries are nil for targets that never started.
	Targets []*model.TargetReport

	// StartedAt is when the run began.
	StartedAt time.Time

	// FinishedAt is when the last target completed.
	FinishedAt time.Time
}

// NewResult collects the findings of session and the target reports.
func NewResult(session *model.Session, targets []*model.TargetReport, startedAt time.Time) *Result {
	return &Result{
		Findings:   session.Findings.All(),
		Targets:    targets,
		StartedAt:  startedAt,
		FinishedAt: time.Now(),
	}
}

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the result to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(result *Result) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the result to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(result *Result) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(result)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// truncateString truncates a string to maxLen bytes with ellipsis.
// Newlines are flattened so multi-line evidence fits in one table cell.
func truncateString(s string, maxLen int) string {
	s = flatten(s)
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// flatten replaces line breaks with spaces.
func flatten(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\r':
		case '\n':
			out = append(out, ' ')
		default:
			out = append(out, s[i])
		}
	}
	return string(out)
}
