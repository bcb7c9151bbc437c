package report

import (
	"io"
	"strings"
)

// textSeparator ends every block in the text report.
const textSeparator = "----------------------------"

// TextWriter outputs one block per finding. This is the report.txt format:
//
//	Type     : AWS Key
//	URL      : https://example.com/app.js
//	Evidence : AKIA[0-9A-Z]{16}
//	----------------------------
type TextWriter struct {
	baseWriter
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer) *TextWriter {
	return &TextWriter{baseWriter: newBaseWriter(output)}
}

// Write outputs all findings in order. An empty run writes nothing.
func (w *TextWriter) Write(result *Result) (int, error) {
	var sb strings.Builder
	for _, f := range result.Findings {
		sb.WriteString("\n")
		sb.WriteString("Type     : " + f.Kind + "\n")
		sb.WriteString("URL      : " + f.URL + "\n")
		sb.WriteString("Evidence : " + f.Evidence + "\n")
		sb.WriteString(textSeparator + "\n")
	}
	return io.WriteString(w.output, sb.String())
}
