package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/flatsurf/flatci/internal/features"
	"github.com/flatsurf/flatci/internal/manifest"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check flatci.yaml and the manifest for errors",
		RunE:  runValidate,
	}
}

func runValidate(cmd *cobra.Command, _ []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	ok := color.New(color.FgGreen).SprintFunc()
	warn := color.New(color.FgYellow).SprintFunc()

	ws, err := a.workspace()
	if err != nil {
		return fmt.Errorf("flatci.yaml: %w", err)
	}
	_, _ = fmt.Fprintf(out, "%s matrix %q: %d rows\n", ok("OK"), ws.Matrix.Name, len(ws.Matrix.Rows))

	m, err := manifest.Load(ws.ManifestPath())
	if err != nil {
		return err
	}
	tags := manifest.Tags(m.Entries)
	_, _ = fmt.Fprintf(out, "%s manifest %s: %d entries, optional tags %v\n", ok("OK"), ws.Matrix.EffectiveManifest(), len(m.Entries), tags)

	present := manifest.NewTagSet(tags...)
	warnings := 0
	for _, r := range ws.Matrix.Rows {
		if _, container := r.ContainerImage(); container {
			continue
		}
		for _, t := range r.Optionals {
			if !present.Has(t) {
				_, _ = fmt.Fprintf(out, "%s row %s: tag %q does not appear in the manifest\n", warn("WARN"), r.EffectiveName(), t)
				warnings++
			}
		}
	}
	for _, t := range features.Unknown(ws.Matrix.Tags()) {
		_, _ = fmt.Fprintf(out, "%s tag %q is not a known feature\n", warn("WARN"), t)
		warnings++
	}

	if warnings == 0 {
		_, _ = fmt.Fprintln(out, "Valid.")
	} else {
		_, _ = fmt.Fprintf(out, "Valid with %d warning(s).\n", warnings)
	}
	return nil
}
