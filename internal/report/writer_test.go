package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/nao1215/leakscan/internal/model"
)

// createTestResult creates a result with sample data for testing.
func createTestResult() *Result {
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	target := model.NewTargetReport("https://example.com")
	target.SensitiveFiles = 1
	target.LeakFindings = 2
	target.PagesFetched = 3
	target.ExternalScanReported = true

	return &Result{
		Findings: []model.Finding{
			{Kind: model.KindSensitiveFile, URL: "https://example.com/.env", Evidence: "/.env"},
			{Kind: "AWS Key", URL: "https://example.com/app.js", Evidence: "AKIA[0-9A-Z]{16}"},
			{Kind: "JWT", URL: "https://example.com/app.js", Evidence: "eyJ[a-zA-Z0-9_-]+\\.[a-zA-Z0-9._-]+"},
			{Kind: model.KindExternalScan, URL: "https://example.com", Evidence: "[exposure] https://example.com/.git\n[tech] nginx"},
		},
		Targets:    []*model.TargetReport{target},
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
	}
}

func emptyResult() *Result {
	return &Result{
		Targets:    []*model.TargetReport{model.NewTargetReport("https://quiet.example.com")},
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes findings array with type url evidence keys", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		result := createTestResult()
		if _, err := NewJSONWriter(&buf, WithPrettyPrint()).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var got []map[string]string
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not a JSON array: %v", err)
		}
		if len(got) != len(result.Findings) {
			t.Fatalf("expected %d entries, got %d", len(result.Findings), len(got))
		}
		want := map[string]string{
			"type":     "AWS Key",
			"url":      "https://example.com/app.js",
			"evidence": "AKIA[0-9A-Z]{16}",
		}
		if diff := cmp.Diff(want, got[1]); diff != "" {
			t.Errorf("entry mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("empty run writes empty array", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(emptyResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := strings.TrimSpace(buf.String()); got != "[]" {
			t.Errorf("expected [], got %q", got)
		}
	})

	t.Run("compact output has no indentation", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewJSONWriter(&buf).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "\n  ") {
			t.Error("expected compact output")
		}
		if !strings.HasSuffix(buf.String(), "\n") {
			t.Error("expected trailing newline")
		}
	})
}

func TestWithIndent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf, WithIndent("", "\t")).Write(createTestResult()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(buf.String(), "\n\t{") {
		t.Errorf("expected tab indentation, got:\n%s", buf.String())
	}
}

func TestFullJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	result := createTestResult()
	result.Targets = append(result.Targets, nil)

	if _, err := NewFullJSONWriter(&buf, "1.2.3").Write(result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var got RunJSON
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Version != "1.2.3" {
		t.Errorf("expected version 1.2.3, got %q", got.Version)
	}
	if len(got.Targets) != 1 {
		t.Errorf("expected nil targets to be skipped, got %d", len(got.Targets))
	}
	if len(got.Findings) != 4 {
		t.Errorf("expected 4 findings, got %d", len(got.Findings))
	}
	if len(got.Summary) != 4 {
		t.Errorf("expected 4 kinds in summary, got %d", len(got.Summary))
	}
}

func TestTextWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes one block per finding", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		result := &Result{Findings: []model.Finding{
			{Kind: "AWS Key", URL: "https://example.com/a", Evidence: "AKIA[0-9A-Z]{16}"},
		}}
		if _, err := NewTextWriter(&buf).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		want := "\nType     : AWS Key\n" +
			"URL      : https://example.com/a\n" +
			"Evidence : AKIA[0-9A-Z]{16}\n" +
			"----------------------------\n"
		if diff := cmp.Diff(want, buf.String()); diff != "" {
			t.Errorf("text mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("keeps run order", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewTextWriter(&buf).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if strings.Count(out, textSeparator) != 4 {
			t.Errorf("expected 4 blocks, got:\n%s", out)
		}
		if strings.Index(out, "Sensitive File") > strings.Index(out, "AWS Key") {
			t.Error("expected findings in append order")
		}
	})

	t.Run("empty run writes nothing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		n, err := NewTextWriter(&buf).Write(emptyResult())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != 0 || buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes summary and findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()

		for _, want := range []string{
			"# LeakScan Report",
			"## Summary",
			"## Targets",
			"## Findings",
			"AWS Key",
			"Sensitive File",
			"mermaid",
			"`https://example.com`",
			"CAUTION",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q", want)
			}
		}
	})

	t.Run("no findings shows tip", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(emptyResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()
		if !strings.Contains(out, "TIP") {
			t.Error("expected tip alert")
		}
		if !strings.Contains(out, "No findings.") {
			t.Error("expected empty findings section")
		}
		if strings.Contains(out, "mermaid") {
			t.Error("expected no chart without findings")
		}
	})

	t.Run("failed target shows error status", func(t *testing.T) {
		t.Parallel()

		result := emptyResult()
		result.Targets[0].ErrorMessage = "context canceled"

		var buf bytes.Buffer
		if _, err := NewMarkdownWriter(&buf).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Error - context canceled") {
			t.Error("expected error status")
		}
	})
}

func TestSummaryWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes header counts and findings", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSummaryWriter(&buf).Write(createTestResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		out := buf.String()

		for _, want := range []string{
			"LEAKSCAN REPORT",
			"Findings:   4",
			"[*] https://example.com",
			"findings: 4",
			"TOTAL:",
			"[!] AWS Key",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected output to contain %q\n%s", want, out)
			}
		}
	})

	t.Run("hides empty sections by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSummaryWriter(&buf).Write(emptyResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(buf.String(), "FINDINGS") {
			t.Error("expected findings section to be hidden")
		}
	})

	t.Run("shows empty sections when requested", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if _, err := NewSummaryWriter(&buf, WithShowEmpty(true)).Write(emptyResult()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No findings") {
			t.Error("expected empty findings notice")
		}
	})

	t.Run("verbose keeps evidence untruncated", func(t *testing.T) {
		t.Parallel()

		long := strings.Repeat("x", 100)
		result := &Result{Findings: []model.Finding{{Kind: "Password", URL: "https://example.com", Evidence: long}}}

		var short, full bytes.Buffer
		if _, err := NewSummaryWriter(&short).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := NewSummaryWriter(&full, WithVerbose(true)).Write(result); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if strings.Contains(short.String(), long) {
			t.Error("expected truncated evidence")
		}
		if !strings.Contains(full.String(), long) {
			t.Error("expected full evidence")
		}
	})
}

type failingWriter struct{}

func (failingWriter) Write(*Result) (int, error) {
	return 0, errors.New("disk full")
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	t.Run("writes to all writers", func(t *testing.T) {
		t.Parallel()

		var jsonBuf, textBuf bytes.Buffer
		mw := NewMultiWriter(NewJSONWriter(&jsonBuf), NewTextWriter(&textBuf))

		n, err := mw.Write(createTestResult())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if n != jsonBuf.Len()+textBuf.Len() {
			t.Errorf("expected total bytes %d, got %d", jsonBuf.Len()+textBuf.Len(), n)
		}
		if jsonBuf.Len() == 0 || textBuf.Len() == 0 {
			t.Error("expected both writers to receive output")
		}
	})

	t.Run("stops on first error", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		mw := NewMultiWriter(failingWriter{}, NewTextWriter(&buf))

		if _, err := mw.Write(createTestResult()); err == nil {
			t.Fatal("expected error")
		}
		if buf.Len() != 0 {
			t.Error("expected later writers to be skipped")
		}
	})
}

func TestNewResult(t *testing.T) {
	t.Parallel()

	session := model.NewSession()
	session.Findings.Add(model.Finding{Kind: "JWT", URL: "https://example.com", Evidence: "eyJ"})
	started := time.Now().Add(-time.Minute)

	result := NewResult(session, nil, started)
	if len(result.Findings) != 1 {
		t.Errorf("expected 1 finding, got %d", len(result.Findings))
	}
	if !result.StartedAt.Equal(started) {
		t.Error("expected start time to be kept")
	}
	if result.FinishedAt.Before(started) {
		t.Error("expected finish time after start")
	}
}

func TestTruncateString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short string unchanged", input: "abc", maxLen: 10, want: "abc"},
		{name: "long string gets ellipsis", input: "abcdefghij", maxLen: 6, want: "abc..."},
		{name: "tiny limit cuts without ellipsis", input: "abcdef", maxLen: 2, want: "ab"},
		{name: "newlines are flattened", input: "a\r\nb\nc", maxLen: 10, want: "a b c"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}
