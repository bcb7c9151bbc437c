package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/leakscan/internal/model"
)

// SummaryWriter outputs the human-readable console summary printed at the
// end of a scan: per-target status, counts by type and the findings table.
type SummaryWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose prints evidence in full instead of truncated.
	verbose bool
}

// SummaryWriterOption configures a SummaryWriter.
type SummaryWriterOption func(*SummaryWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SummaryWriterOption {
	return func(w *SummaryWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with untruncated evidence.
func WithVerbose(verbose bool) SummaryWriterOption {
	return func(w *SummaryWriter) {
		w.verbose = verbose
	}
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer, opts ...SummaryWriterOption) *SummaryWriter {
	w := &SummaryWriter{
		baseWriter: newBaseWriter(output),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Write outputs the summary.
func (w *SummaryWriter) Write(result *Result) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeTargets(&sb, result)
	w.writeSummary(&sb, result)
	w.writeFindings(&sb, result)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// section writes a titled divider.
func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title + "\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with run information.
func (w *SummaryWriter) writeHeader(sb *strings.Builder, result *Result) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                          LEAKSCAN REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Scan Date:  %s\n", result.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Targets:    %d\n", startedTargets(result))
	fmt.Fprintf(sb, "Findings:   %d\n", len(result.Findings))
	sb.WriteString("\n")
}

// writeTargets writes one line per target.
func (w *SummaryWriter) writeTargets(sb *strings.Builder, result *Result) {
	section(sb, "TARGETS")

	for _, t := range result.Targets {
		if t == nil {
			continue
		}
		status := "ok"
		if t.ErrorMessage != "" {
			status = "error: " + t.ErrorMessage
		}
		fmt.Fprintf(sb, "  [*] %s\n", t.Target)
		fmt.Fprintf(sb, "      pages: %d  failed: %d  findings: %d  (%s)\n",
			t.PagesFetched, t.PagesFailed, t.FindingCount(), status)
	}
	sb.WriteString("\n")
}

// writeSummary writes the per-kind counts.
func (w *SummaryWriter) writeSummary(sb *strings.Builder, result *Result) {
	counts := model.CountByKind(result.Findings)
	if len(counts) == 0 && !w.showEmpty {
		return
	}

	section(sb, "SUMMARY")

	if len(counts) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}
	for _, c := range counts {
		fmt.Fprintf(sb, "  %-16s %d\n", c.Kind+":", c.Count)
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  %-16s %d findings\n", "TOTAL:", len(result.Findings))
	sb.WriteString("\n")
}

// writeFindings writes every finding in run order.
func (w *SummaryWriter) writeFindings(sb *strings.Builder, result *Result) {
	if len(result.Findings) == 0 && !w.showEmpty {
		return
	}

	section(sb, "FINDINGS")

	if len(result.Findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}
	for _, f := range result.Findings {
		evidence := f.Evidence
		if !w.verbose {
			evidence = truncateString(evidence, 60)
		}
		fmt.Fprintf(sb, "  [!] %s\n", f.Kind)
		fmt.Fprintf(sb, "      URL:      %s\n", f.URL)
		fmt.Fprintf(sb, "      Evidence: %s\n", evidence)
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SummaryWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by leakscan\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
