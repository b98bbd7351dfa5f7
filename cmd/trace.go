package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/samsaffron/fencestream/internal/debuglog"
)

var (
	traceElementsOnly bool
	traceTimestamps   bool
)

var traceCmd = &cobra.Command{
	Use:   "trace",
	Short: "Read JSONL traces of parser sessions",
	Long: `Traces are written when tracing is enabled with --trace or
'log.trace: true'. Each session records every fragment fed to the parser and
every element it returned.

Examples:
  fencestream trace list
  fencestream trace show 1              # most recent session
  fencestream trace show 20260119-1     # by ID prefix
  fencestream trace show --elements 1   # parser output only
  fencestream trace clean`,
	RunE: runTraceList, // Default to list
}

var traceListCmd = &cobra.Command{
	Use:   "list",
	Short: "List trace sessions, most recent first",
	Args:  cobra.NoArgs,
	RunE:  runTraceList,
}

var traceShowCmd = &cobra.Command{
	Use:   "show <number|id>",
	Short: "Show one trace session",
	Args:  cobra.ExactArgs(1),
	RunE:  runTraceShow,
}

var traceCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove traces older than the retention period",
	Args:  cobra.NoArgs,
	RunE:  runTraceClean,
}

func init() {
	traceShowCmd.Flags().BoolVar(&traceElementsOnly, "elements", false, "Only show parser output")
	traceShowCmd.Flags().BoolVarP(&traceTimestamps, "timestamps", "t", false, "Show a timestamp for each entry")
	rootCmd.AddCommand(traceCmd)
	traceCmd.AddCommand(traceListCmd)
	traceCmd.AddCommand(traceShowCmd)
	traceCmd.AddCommand(traceCleanCmd)
}

func runTraceList(cmd *cobra.Command, args []string) error {
	dir, err := cfg.TraceDir()
	if err != nil {
		return err
	}
	sessions, err := debuglog.ListSessions(dir)
	if err != nil {
		return err
	}
	debuglog.FormatSessionList(cmd.OutOrStdout(), sessions, debuglog.FormatOptions{
		Color: cfg.Render.Color,
		Days:  cfg.Log.RetentionDays,
	})
	return nil
}

func runTraceShow(cmd *cobra.Command, args []string) error {
	dir, err := cfg.TraceDir()
	if err != nil {
		return err
	}
	summary, err := debuglog.ResolveSession(dir, args[0])
	if err != nil {
		return err
	}
	if summary == nil {
		return fmt.Errorf("trace session not found: %s (see `fencestream trace list`)", args[0])
	}
	session, err := debuglog.ParseSession(summary.FilePath)
	if err != nil {
		return fmt.Errorf("parse trace: %w", err)
	}
	debuglog.FormatSession(cmd.OutOrStdout(), session, debuglog.FormatOptions{
		Color:         cfg.Render.Color,
		ElementsOnly:  traceElementsOnly,
		ShowTimestamp: traceTimestamps,
	})
	return nil
}

func runTraceClean(cmd *cobra.Command, args []string) error {
	dir, err := cfg.TraceDir()
	if err != nil {
		return err
	}
	days := cfg.Log.RetentionDays
	if days <= 0 {
		return fmt.Errorf("log.retention_days is %d; nothing to clean", days)
	}
	if err := debuglog.CleanupOldLogs(dir, time.Duration(days)*24*time.Hour); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed traces older than %d days from %s\n", days, dir)
	return nil
}
