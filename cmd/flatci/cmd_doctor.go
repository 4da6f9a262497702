package main

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flatsurf/flatci/internal/env"
	"github.com/flatsurf/flatci/internal/features"
	"github.com/flatsurf/flatci/internal/git"
)

// lookPath is replaced in tests.
var lookPath = exec.LookPath

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose the environment for common issues",
		RunE:  runDoctor,
	}
	cmd.Flags().String("python", "", "Interpreter to probe optional features with (skip when empty)")
	return cmd
}

func runDoctor(cmd *cobra.Command, _ []string) error {
	python, _ := cmd.Flags().GetString("python")

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	ok := true

	if !checkTool(out, "git", "https://git-scm.com/") {
		ok = false
	}
	if !checkTool(out, a.cfg.PackageManager, "https://mamba.readthedocs.io/") {
		ok = false
	}

	ws, loadErr := a.workspace()
	if loadErr != nil {
		_, _ = fmt.Fprintf(out, "No flatci.yaml found (%v); skipping matrix checks\n", loadErr)
	} else {
		_, _ = fmt.Fprintf(out, "Matrix: %s (%d rows)\n", ws.Matrix.Name, len(ws.Matrix.Rows))
		needsEngine := false
		for _, r := range ws.Matrix.Rows {
			if _, c := r.ContainerImage(); c {
				needsEngine = true
			}
		}
		if needsEngine && !checkTool(out, "docker", "https://docs.docker.com/engine/install/") {
			ok = false
		}
		if git.IsRepo(ws.Root) {
			if id, err := git.Identify(ws.Root); err == nil {
				state := "clean"
				if id.Dirty {
					state = "dirty"
				}
				_, _ = fmt.Fprintf(out, "Source: %s @ %s (%s)\n", id.Branch, shortID(id.Commit), state)
			}
		}
	}

	if python != "" {
		checkFeatures(cmd.Context(), out, python)
	}

	if ok {
		_, _ = fmt.Fprintln(out, "\nAll checks passed.")
		return nil
	}
	_, _ = fmt.Fprintln(out, "\nSome checks failed. See above for details.")
	return fmt.Errorf("doctor checks failed")
}

func checkTool(out io.Writer, name, url string) bool {
	_, _ = fmt.Fprintf(out, "Checking %s... ", name)
	path, err := lookPath(name)
	if err != nil {
		_, _ = fmt.Fprintln(out, color.RedString("NOT FOUND"))
		_, _ = fmt.Fprintf(out, "  %s is required. Install it from %s\n", name, url)
		return false
	}
	_, _ = fmt.Fprintf(out, "%s %s\n", color.GreenString("found at"), path)
	return true
}

// checkFeatures reports which optional features the interpreter can import.
// Missing features are not an error.
func checkFeatures(ctx context.Context, out io.Writer, python string) {
	_, _ = fmt.Fprintf(out, "Optional features (%s):\n", python)
	var missing []string
	for _, f := range features.All() {
		if err := features.Probe(ctx, env.ExecRunner{}, python, f); err != nil {
			_, _ = fmt.Fprintf(out, "  %-11s %s  %s\n", f.Tag, color.YellowString("missing"), f.URL)
			missing = append(missing, f.Tag)
			continue
		}
		_, _ = fmt.Fprintf(out, "  %-11s %s\n", f.Tag, color.GreenString("ok"))
	}
	if len(missing) > 0 {
		_, _ = fmt.Fprintf(out, "  Rows enabling %s will fail on this interpreter.\n", strings.Join(missing, ", "))
	}
}
