package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/nao1215/leakscan/internal/config"
	"github.com/nao1215/leakscan/internal/database"
	"github.com/nao1215/leakscan/internal/model"
	"github.com/nao1215/leakscan/internal/scope"
	"github.com/spf13/cobra"
)

// ErrNotEnoughRuns is returned when a target has fewer than two stored runs.
var ErrNotEnoughRuns = errors.New("at least 2 runs of the target are required for comparison")

// ComparisonResult holds the difference between two runs of one target.
type ComparisonResult struct {
	// Target is the compared target.
	Target string `json:"target"`

	// PreviousRun is the older run.
	PreviousRun database.RunSummary `json:"previous_run"`

	// CurrentRun is the newer run.
	CurrentRun database.RunSummary `json:"current_run"`

	model.FindingDiff
}

// NewCompareCmd creates the compare command.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <target>",
		Short: "Compare the findings of a target between two runs",
		Long: `Compare shows findings that are new or resolved for a target between its
latest two runs. Findings are matched by type, URL and evidence.

Examples:
  # Compare the latest two runs of a target
  leakscan compare https://example.com

  # Compare the latest run with run 5
  leakscan compare --with-run 5 example.com

  # Output as JSON
  leakscan compare --json example.com`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().Int64P("with-run", "w", 0, "Compare the latest run with this run ID")
	cmd.Flags().BoolP("json", "j", false, "Output in JSON format")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

func runCompareCmd(cmd *cobra.Command, args []string) error {
	withRun, err := cmd.Flags().GetInt64("with-run")
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

	target := scope.NormalizeTarget(args[0])

	db, err := openHistory(dbDir)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := compareRuns(cmd, db, target, withRun)
	if err != nil {
		return err
	}

	if jsonOutput {
		return writeJSON(cmd.OutOrStdout(), result)
	}
	return printComparison(cmd.OutOrStdout(), result)
}

// compareRuns diffs the latest run of target against the previous run or withRun.
func compareRuns(cmd *cobra.Command, db *database.Store, target string, withRun int64) (*ComparisonResult, error) {
	ctx := cmd.Context()

	ids, err := db.RunsForTarget(ctx, target, 2)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no runs found for %s", target)
	}

	currentID := ids[0]
	var previousID int64
	switch {
	case withRun > 0:
		previousID = withRun
	case len(ids) < 2:
		return nil, fmt.Errorf("%w (found 1 for %s)", ErrNotEnoughRuns, target)
	default:
		previousID = ids[1]
	}

	current, err := db.GetRun(ctx, currentID)
	if err != nil {
		return nil, err
	}
	previous, err := db.GetRun(ctx, previousID)
	if err != nil {
		return nil, err
	}

	after, err := db.GetTargetFindings(ctx, currentID, target)
	if err != nil {
		return nil, err
	}
	before, err := db.GetTargetFindings(ctx, previousID, target)
	if err != nil {
		return nil, err
	}

	return &ComparisonResult{
		Target:      target,
		PreviousRun: *previous,
		CurrentRun:  *current,
		FindingDiff: model.DiffFindings(before, after),
	}, nil
}

func printComparison(w io.Writer, r *ComparisonResult) error {
	const layout = "2006-01-02 15:04:05"

	fmt.Fprintf(w, "Target:   %s\n", r.Target)
	fmt.Fprintf(w, "Previous: run %d (%s)\n", r.PreviousRun.ID, r.PreviousRun.StartedAt.Local().Format(layout))
	fmt.Fprintf(w, "Current:  run %d (%s)\n\n", r.CurrentRun.ID, r.CurrentRun.StartedAt.Local().Format(layout))

	if !r.HasChanges() {
		_, err := fmt.Fprintf(w, "No changes (%d unchanged finding(s)).\n", r.Unchanged)
		return err
	}

	if len(r.Added) > 0 {
		fmt.Fprintf(w, "New findings (%d):\n", len(r.Added))
		for _, f := range r.Added {
			fmt.Fprintf(w, "  + [%s] %s (%s)\n", f.Kind, f.URL, f.Evidence)
		}
		fmt.Fprintln(w)
	}
	if len(r.Resolved) > 0 {
		fmt.Fprintf(w, "Resolved findings (%d):\n", len(r.Resolved))
		for _, f := range r.Resolved {
			fmt.Fprintf(w, "  - [%s] %s (%s)\n", f.Kind, f.URL, f.Evidence)
		}
		fmt.Fprintln(w)
	}
	_, err := fmt.Fprintf(w, "Unchanged: %d\n", r.Unchanged)
	return err
}
