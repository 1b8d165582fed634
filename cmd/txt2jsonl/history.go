package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/txt2jsonl/internal/storage"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent conversion runs from the ledger",
		Args:  cobra.NoArgs,
		RunE:  runHistory,
	}
	cmd.Flags().Int("limit", storage.DefaultListLimit, "maximum number of runs to show")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ledger, err := openLedger(cfg.Ledger.Path)
	if err != nil {
		return err
	}
	defer func() { _ = ledger.Close() }()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := ledger.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}

	printRuns(cmd.OutOrStdout(), runs)
	return nil
}

// printRuns writes one line per run, newest first
func printRuns(w io.Writer, runs []*storage.Run) {
	if len(runs) == 0 {
		warnColor.Fprintln(w, "No runs recorded")
		return
	}

	for _, run := range runs {
		status := string(run.Status)
		switch run.Status {
		case storage.RunCompleted:
			status = successColor.Sprint(status)
		case storage.RunFailed:
			status = errorColor.Sprint(status)
		default:
			status = warnColor.Sprint(status)
		}

		fmt.Fprintf(w, "%s  %s  %s -> %s  files=%d failed=%d segments=%d",
			run.ID, status, run.SourceRoot, run.DestRoot,
			run.FilesConverted, run.FilesFailed, run.SegmentsWritten)
		if !run.FinishedAt.IsZero() {
			fmt.Fprintf(w, "  %v", run.Duration().Round(time.Millisecond))
		}
		fmt.Fprintf(w, "  %s\n", run.StartedAt.Local().Format(time.DateTime))
		if run.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", run.Error)
		}
	}
}
