package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/leakscan/internal/model"
)

// JSONWriter outputs the findings as a JSON array of
// {"type", "url", "evidence"} objects. This is the report.json format.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// indentPrefix is the prefix for each line in indented output.
	indentPrefix string

	// indentString is the indentation string (typically "  " or "\t").
	indentString string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
// The prefix is prepended to each line, and indent is used for each level.
func WithIndent(prefix, indent string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
		w.indentPrefix = prefix
		w.indentString = indent
	}
}

// WithPrettyPrint enables pretty-printed JSON with default indentation.
// This is a convenience wrapper for WithIndent("", "  ").
func WithPrettyPrint() JSONWriterOption {
	return WithIndent("", "  ")
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the findings array. An empty run is written as [].
func (w *JSONWriter) Write(result *Result) (int, error) {
	findings := result.Findings
	if findings == nil {
		findings = []model.Finding{}
	}
	return w.writeJSON(findings)
}

// writeJSON marshals the given value to JSON and writes it to the output.
func (w *JSONWriter) writeJSON(v any) (int, error) {
	var data []byte
	var err error

	if w.indent {
		data, err = json.MarshalIndent(v, w.indentPrefix, w.indentString)
	} else {
		data, err = json.Marshal(v)
	}
	if err != nil {
		return 0, err
	}

	// Add trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}

// RunJSON is the full run document with metadata, printed by scan --json.
type RunJSON struct {
	// Version is the leakscan version that generated this report.
	Version string `json:"version"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run ended.
	FinishedAt time.Time `json:"finished_at"`

	// Targets holds per-target counters.
	Targets []*model.TargetReport `json:"targets"`

	// Summary counts findings by kind.
	Summary []model.KindCount `json:"summary"`

	// Findings is the ordered findings sequence.
	Findings []model.Finding `json:"findings"`
}

// NewRunJSON builds the full run document.
func NewRunJSON(result *Result, version string) *RunJSON {
	targets := make([]*model.TargetReport, 0, len(result.Targets))
	for _, t := range result.Targets {
		if t != nil {
			targets = append(targets, t)
		}
	}
	findings := result.Findings
	if findings == nil {
		findings = []model.Finding{}
	}
	return &RunJSON{
		Version:    version,
		StartedAt:  result.StartedAt,
		FinishedAt: result.FinishedAt,
		Targets:    targets,
		Summary:    model.CountByKind(findings),
		Findings:   findings,
	}
}

// FullJSONWriter outputs the run document with metadata.
type FullJSONWriter struct {
	*JSONWriter

	// version is the leakscan version string.
	version string
}

// NewFullJSONWriter creates a writer for complete run documents.
func NewFullJSONWriter(output io.Writer, version string, opts ...JSONWriterOption) *FullJSONWriter {
	return &FullJSONWriter{
		JSONWriter: NewJSONWriter(output, opts...),
		version:    version,
	}
}

// Write outputs the full run document.
func (w *FullJSONWriter) Write(result *Result) (int, error) {
	return w.writeJSON(NewRunJSON(result, w.version))
}
