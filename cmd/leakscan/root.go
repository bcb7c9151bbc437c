package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/leakscan/internal/log"
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for leakscan.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leakscan",
		Short: "Find leaked secrets and exposed files on web sites",
		Long: `leakscan crawls a list of web sites and reports leaked secrets and exposed
sensitive files.

For every target it probes a catalogue of sensitive paths (.env, .git/config,
database dumps, ...), crawls same-domain links to a bounded depth while scanning
each page for leak patterns (cloud keys, JWTs, passwords, private keys, ...),
and optionally runs nuclei once. Findings are written to report.json and
report.txt.

Only scan systems you are authorized to test.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("log-json", false, "Write logs as JSON")

	cmd.AddCommand(NewScanCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// getBoolFlag reads a bool flag from the command or the root's persistent flags.
func getBoolFlag(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		v, err = cmd.Root().PersistentFlags().GetBool(name)
		if err != nil {
			return false
		}
	}
	return v
}

// newLogger creates the sanitizing logger selected by --verbose and --log-json.
func newLogger(cmd *cobra.Command, w io.Writer) *slog.Logger {
	return log.NewLogger(w, log.Options{
		Verbose: getBoolFlag(cmd, "verbose"),
		JSON:    getBoolFlag(cmd, "log-json"),
	})
}
