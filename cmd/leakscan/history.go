package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/leakscan/internal/config"
	"github.com/nao1215/leakscan/internal/database"
	"github.com/nao1215/leakscan/internal/model"
	"github.com/nao1215/leakscan/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List past runs stored in the history database",
		Long: `History lists stored runs, newest first, with their target and finding counts.

Examples:
  # List all runs
  leakscan history

  # Print the findings of run 3
  leakscan history --run 3

  # Output as JSON
  leakscan history --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().Int64P("run", "r", 0, "Print the findings of this run ID")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	runID, err := cmd.Flags().GetInt64("run")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	db, err := openHistory(dbDir)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if runID > 0 {
		run, err := db.GetRun(ctx, runID)
		if err != nil {
			return err
		}
		findings, err := db.GetRunFindings(ctx, runID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return writeJSON(out, struct {
				Run      *database.RunSummary `json:"run"`
				Findings []model.Finding      `json:"findings"`
			}{run, findings})
		}
		return printRunFindings(out, run, findings)
	}

	runs, err := db.ListRuns(ctx)
	if err != nil {
		return err
	}
	if jsonOutput {
		if runs == nil {
			runs = []database.RunSummary{}
		}
		return writeJSON(out, runs)
	}
	return printRuns(out, runs)
}

// openHistory opens an existing history database.
func openHistory(dbDir string) (*database.Store, error) {
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false})
	if err != nil {
		return nil, fmt.Errorf("no run history found (run 'leakscan scan' first): %w", err)
	}
	return db, nil
}

func printRuns(w io.Writer, runs []database.RunSummary) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}

	fmt.Fprintf(w, "Runs (%d):\n\n", len(runs))
	fmt.Fprintf(w, "  %-6s  %-20s  %-8s  %s\n", "ID", "Date", "Targets", "Findings")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 50))
	for _, r := range runs {
		fmt.Fprintf(w, "  %-6d  %-20s  %-8d  %d\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.TargetCount,
			r.FindingCount,
		)
	}
	_, err := fmt.Fprintln(w, "\nUse 'leakscan history --run <id>' to see the findings of a run.")
	return err
}

func printRunFindings(w io.Writer, run *database.RunSummary, findings []model.Finding) error {
	fmt.Fprintf(w, "Run %d (%s), %d finding(s)\n",
		run.ID, run.StartedAt.Local().Format("2006-01-02 15:04:05"), len(findings))
	_, err := report.NewTextWriter(w).Write(&report.Result{Findings: findings})
	return err
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
