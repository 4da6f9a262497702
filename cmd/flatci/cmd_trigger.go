package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flatsurf/flatci/internal/matrix"
	"github.com/flatsurf/flatci/internal/trigger"
	"github.com/flatsurf/flatci/internal/workspace"
)

func newTriggerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trigger",
		Short: "Decide whether a CI event runs the matrix",
		Long: `Trigger prints "run" when the event and branch match the matrix trigger and
"skip" otherwise. For pull requests the branch is the base branch. Defaults
are taken from the GitHub Actions environment when present.`,
		RunE: runTrigger,
	}
	cmd.Flags().String("event", os.Getenv("GITHUB_EVENT_NAME"), "Event name: push or pull_request")
	cmd.Flags().String("branch", defaultEventBranch(), "Pushed branch, or base branch of a pull request")
	cmd.Flags().Bool("exit-code", false, "Exit with status 1 when the matrix would not run")
	return cmd
}

func runTrigger(cmd *cobra.Command, _ []string) error {
	root, _ := cmd.Flags().GetString("root")
	event, _ := cmd.Flags().GetString("event")
	branch, _ := cmd.Flags().GetString("branch")
	exitCode, _ := cmd.Flags().GetBool("exit-code")

	if event == "" {
		return fmt.Errorf("--event is required")
	}
	m, err := matrix.Load(filepath.Join(root, workspace.MatrixFile))
	if err != nil {
		return err
	}

	run, reason := trigger.Decide(m.EffectiveTrigger(), trigger.Event{Name: event, Branch: branch})
	if run {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "run")
		return nil
	}
	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "skip: %s\n", reason)
	if exitCode {
		return fmt.Errorf("matrix not triggered")
	}
	return nil
}

func defaultEventBranch() string {
	if base := os.Getenv("GITHUB_BASE_REF"); base != "" {
		return base
	}
	return strings.TrimPrefix(os.Getenv("GITHUB_REF"), "refs/heads/")
}
