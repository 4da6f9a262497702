package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/flatsurf/flatci/internal/workspace"
)

func newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove row environments, logs and results (destructive, requires --force)",
		RunE:  runClean,
	}
	cmd.Flags().Bool("force", false, "Required to confirm destructive operation")
	cmd.Flags().Bool("history", false, "Also remove the run history database")
	return cmd
}

func runClean(cmd *cobra.Command, _ []string) error {
	force, _ := cmd.Flags().GetBool("force")
	withHistory, _ := cmd.Flags().GetBool("history")

	if !force {
		return fmt.Errorf("clean is destructive; pass --force to confirm")
	}

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	abs, err := filepath.Abs(a.root)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	if _, err := os.Stat(filepath.Join(abs, workspace.MatrixFile)); err != nil {
		return fmt.Errorf("refusing to clean %s: no %s found (not a flatci project)", abs, workspace.MatrixFile)
	}
	ws, err := a.workspace()
	if err != nil {
		return err
	}

	targets := []string{
		filepath.Join(ws.StateDir, "rows"),
		ws.ResultsPath,
		ws.ArchivePath(),
	}
	if withHistory {
		targets = append(targets, ws.HistoryPath())
	}
	for _, p := range targets {
		if err := os.RemoveAll(p); err != nil {
			return fmt.Errorf("removing %s: %w", p, err)
		}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "State removed: %s\n", ws.StateDir)
	return nil
}
