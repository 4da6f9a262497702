package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/flatsurf/flatci/internal/features"
	"github.com/flatsurf/flatci/internal/manifest"
	"github.com/flatsurf/flatci/internal/matrix"
	"github.com/flatsurf/flatci/internal/workspace"
)

func newFilterCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Print the manifest with inactive optional entries dropped",
		Long: `Filter drops every manifest line tagged "# optional: <tag>" whose tag is
not active. Untagged lines are always kept. The active tags come from
--optionals or from a matrix row (--row).`,
		RunE: runFilter,
	}
	cmd.Flags().StringSlice("optionals", nil, "Active optional tags")
	cmd.Flags().String("row", "", "Take the active tags from this matrix row")
	cmd.Flags().String("manifest", "", "Manifest to filter (default from flatci.yaml, else environment.yml)")
	cmd.Flags().StringP("output", "o", "", "Write the filtered manifest to this file instead of stdout")
	cmd.Flags().Bool("diff", false, "Show which lines are dropped instead of the result")
	return cmd
}

func runFilter(cmd *cobra.Command, _ []string) error {
	root, _ := cmd.Flags().GetString("root")
	optionals, _ := cmd.Flags().GetStringSlice("optionals")
	rowName, _ := cmd.Flags().GetString("row")
	manifestPath, _ := cmd.Flags().GetString("manifest")
	output, _ := cmd.Flags().GetString("output")
	showDiff, _ := cmd.Flags().GetBool("diff")

	if rowName != "" && len(optionals) > 0 {
		return fmt.Errorf("--row and --optionals are mutually exclusive")
	}

	var m *matrix.Matrix
	if rowName != "" || manifestPath == "" {
		loaded, err := matrix.Load(filepath.Join(root, workspace.MatrixFile))
		switch {
		case err == nil:
			m = loaded
		case rowName != "":
			return err
		}
	}

	if manifestPath == "" {
		manifestPath = filepath.Join(root, matrix.DefaultManifest)
		if m != nil {
			manifestPath = filepath.Join(root, m.EffectiveManifest())
		}
	}

	active := manifest.ParseTags(strings.Join(optionals, ","))
	if rowName != "" {
		row, err := findRow(m, rowName)
		if err != nil {
			return err
		}
		active = row.Tags()
	}

	data, err := os.ReadFile(manifestPath) //nolint:gosec // user-provided manifest path
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	parsed, err := manifest.Parse(data)
	if err != nil {
		return fmt.Errorf("%s: %w", manifestPath, err)
	}
	warnTags(cmd, active, parsed)

	filtered := manifest.Filter(data, active)
	if showDiff {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), manifest.Diff(data, filtered))
		return nil
	}
	if output != "" {
		if err := os.WriteFile(output, filtered, 0644); err != nil { //nolint:gosec // generated manifest
			return fmt.Errorf("writing %s: %w", output, err)
		}
		return nil
	}
	_, err = cmd.OutOrStdout().Write(filtered)
	return err
}

func findRow(m *matrix.Matrix, name string) (matrix.Row, error) {
	for _, r := range m.Rows {
		if r.EffectiveName() == name {
			return r, nil
		}
	}
	return matrix.Row{}, fmt.Errorf("no matrix row named %q", name)
}

// warnTags reports active tags that no manifest entry carries or that name
// no known feature. Neither is fatal.
func warnTags(cmd *cobra.Command, active manifest.TagSet, m *manifest.Manifest) {
	present := manifest.NewTagSet(manifest.Tags(m.Entries)...)
	for _, t := range active.Sorted() {
		if !present.Has(t) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: tag %q does not appear in the manifest\n", t)
		}
	}
	for _, t := range features.Unknown(active.Sorted()) {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: tag %q is not a known feature\n", t)
	}
}
