package report

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/leakscan/internal/model"
)

// MarkdownWriter outputs the run in Markdown format for sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(result *Result) (int, error) {
	md := markdown.NewMarkdown(w.output)

	counts := model.CountByKind(result.Findings)

	w.writeHeader(md, result)
	w.writeSummary(md, result, counts)
	w.writeTargets(md, result)
	w.writeFindings(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *Result) {
	md.H1("LeakScan Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Scan Date", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", result.FinishedAt.Sub(result.StartedAt).Round(time.Millisecond).String()},
			{"Targets", strconv.Itoa(startedTargets(result))},
			{"Findings", strconv.Itoa(len(result.Findings))},
		},
	})
	md.PlainText("")
}

// writeSummary writes the per-kind summary section.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *Result, counts []model.KindCount) {
	md.H2("Summary")
	md.PlainText("")

	if len(counts) == 0 {
		md.Tip("No leaks or exposed files detected.")
		md.PlainText("")
		return
	}

	rows := make([][]string, 0, len(counts)+1)
	for _, c := range counts {
		rows = append(rows, []string{c.Kind, strconv.Itoa(c.Count)})
	}
	rows = append(rows, []string{"**Total**", "**" + strconv.Itoa(len(result.Findings)) + "**"})
	md.Table(markdown.TableSet{
		Header: []string{"Type", "Count"},
		Rows:   rows,
	})
	md.PlainText("")

	if len(counts) > 1 {
		w.writePieChart(md, counts)
	}
	w.writeAlert(md, counts)
}

// writePieChart writes a mermaid pie chart of the kind distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, counts []model.KindCount) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Findings by Type"),
		piechart.WithShowData(true),
	)
	for _, c := range counts {
		chart.LabelAndIntValue(c.Kind, uint64(c.Count)) //nolint:gosec // counts are non-negative
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert reflecting the most serious kind present.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, counts []model.KindCount) {
	var secrets, files, external int
	for _, c := range counts {
		switch c.Kind {
		case model.KindSensitiveFile:
			files += c.Count
		case model.KindExternalScan:
			external += c.Count
		default:
			secrets += c.Count
		}
	}

	switch {
	case secrets > 0:
		md.Cautionf("%d page(s) expose secret material. Rotate the affected credentials.", secrets)
	case files > 0:
		md.Warningf("%d sensitive file(s) are publicly reachable.", files)
	case external > 0:
		md.Importantf("The external scanner reported issues on %d target(s).", external)
	}
	md.PlainText("")
}

// writeTargets writes per-target counters.
func (w *MarkdownWriter) writeTargets(md *markdown.Markdown, result *Result) {
	md.H2("Targets")
	md.PlainText("")

	rows := make([][]string, 0, len(result.Targets))
	for _, t := range result.Targets {
		if t == nil {
			continue
		}
		status := "Complete"
		if t.ErrorMessage != "" {
			status = "Error - " + t.ErrorMessage
		}
		rows = append(rows, []string{
			"`" + t.Target + "`",
			strconv.Itoa(t.PagesFetched),
			strconv.Itoa(t.PagesFailed),
			strconv.Itoa(t.FindingCount()),
			status,
		})
	}
	if len(rows) == 0 {
		md.PlainText("No targets were scanned.")
		md.PlainText("")
		return
	}

	md.Table(markdown.TableSet{
		Header: []string{"Target", "Pages", "Failed", "Findings", "Status"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeFindings writes every finding in run order.
func (w *MarkdownWriter) writeFindings(md *markdown.Markdown, result *Result) {
	md.H2("Findings")
	md.PlainText("")

	if len(result.Findings) == 0 {
		md.PlainText("No findings.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(result.Findings))
	var external []model.Finding
	for i, f := range result.Findings {
		rows[i] = []string{
			f.Kind,
			truncateString(f.URL, 60),
			"`" + truncateString(f.Evidence, 50) + "`",
		}
		if f.Kind == model.KindExternalScan {
			external = append(external, f)
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Type", "URL", "Evidence"},
		Rows:   rows,
	})
	md.PlainText("")

	// Scanner output is multi-line; show it in full below the table.
	for _, f := range external {
		md.Details(f.URL, f.Evidence)
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [leakscan](https://github.com/nao1215/leakscan)*")
}

// startedTargets counts targets that produced a report.
func startedTargets(result *Result) int {
	n := 0
	for _, t := range result.Targets {
		if t != nil {
			n++
		}
	}
	return n
}
