package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/flatsurf/flatci/internal/history"
	"github.com/flatsurf/flatci/internal/results"
	"github.com/flatsurf/flatci/internal/ui"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent matrix runs",
		RunE:  runHistory,
	}
	cmd.Flags().Int("limit", 10, "Number of runs to show (0 for all)")
	cmd.Flags().Bool("rows", false, "Show the rows of each run")
	return cmd
}

func runHistory(cmd *cobra.Command, _ []string) error {
	limit, _ := cmd.Flags().GetInt("limit")
	showRows, _ := cmd.Flags().GetBool("rows")

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	ws, err := a.workspace()
	if err != nil {
		return err
	}
	store, err := history.Open(ws.HistoryPath())
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.List(limit)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		_, _ = fmt.Fprintln(out, "No runs recorded.")
		return nil
	}

	tbl := ui.NewTable(out, "RUN", "STARTED", "BRANCH", "COMMIT", "PASSED", "FAILED", "DURATION")
	for _, r := range runs {
		status := results.StatusPassed
		if !r.OK() {
			status = results.StatusFailed
		}
		tbl.Row(shortID(r.ID)+" "+ui.StatusLabel(status), humanize.Time(r.StartedAt), r.Branch, shortID(r.Commit), r.Passed, r.Failed, r.Duration)
		if showRows {
			for _, row := range r.Rows {
				tbl.Row("  "+row.Name, "", "", "", "", row.FailedPhase, row.Duration)
			}
		}
	}
	return tbl.Flush()
}

func shortID(s string) string {
	if len(s) > 8 {
		return s[:8]
	}
	return s
}
