// Package report renders the findings of a run.
//
// Writers:
//   - JSONWriter: report.json, an array of {"type", "url", "evidence"} objects
//   - TextWriter: report.txt, one Type/URL/Evidence block per finding
//   - MarkdownWriter: a shareable Markdown report with summary tables
//   - SummaryWriter: the console summary printed after a scan
//   - FullJSONWriter: the run document with per-target counters
//
// Writers implement the Writer interface and can be combined with MultiWriter.
package report
