package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flatsurf/flatci/internal/testutil"
)

func TestRunFilter_optionals(t *testing.T) {
	dir := testutil.CreateProject(t)

	out, err := execute(t, "--root", dir, "filter", "--optionals", "flipper")
	if err != nil {
		t.Fatalf("filter failed: %v", err)
	}
	if !strings.Contains(out, "  - flipper  # optional: flipper\n") {
		t.Errorf("active line missing or altered:\n%s", out)
	}
	if strings.Contains(out, "pyflatsurf") || strings.Contains(out, "pyeantic") {
		t.Errorf("inactive lines retained:\n%s", out)
	}
	if !strings.HasPrefix(out, "name: test-build\n") {
		t.Errorf("untagged header lost:\n%s", out)
	}
}

func TestRunFilter_noOptionalsKeepsExactlyUntagged(t *testing.T) {
	dir := testutil.CreateProject(t)

	out, err := execute(t, "--root", dir, "filter")
	if err != nil {
		t.Fatalf("filter failed: %v", err)
	}
	if strings.Contains(out, "# optional:") {
		t.Errorf("tagged line retained with empty active set:\n%s", out)
	}
	if !strings.Contains(out, "  - pytest\n") {
		t.Errorf("untagged entry dropped:\n%s", out)
	}
}

func TestRunFilter_row(t *testing.T) {
	dir := testutil.CreateProject(t)

	out, err := execute(t, "--root", dir, "filter", "--row", "full")
	if err != nil {
		t.Fatalf("filter --row failed: %v", err)
	}
	if !strings.Contains(out, "pyflatsurf>=3.10.1,<4  # optional: pyflatsurf") {
		t.Errorf("pyflatsurf should be retained verbatim for row full:\n%s", out)
	}

	out, err = execute(t, "--root", dir, "filter", "--row", "minimal")
	if err != nil {
		t.Fatalf("filter --row failed: %v", err)
	}
	if strings.Contains(out, "pyflatsurf") {
		t.Errorf("pyflatsurf should be dropped for row minimal:\n%s", out)
	}
}

func TestRunFilter_diff(t *testing.T) {
	dir := testutil.CreateProject(t)

	out, err := execute(t, "--root", dir, "filter", "--optionals", "pyflatsurf", "--diff")
	if err != nil {
		t.Fatalf("filter --diff failed: %v", err)
	}
	if !strings.Contains(out, "- ") || !strings.Contains(out, "flipper") {
		t.Errorf("diff should show dropped flipper line:\n%s", out)
	}
}

func TestRunFilter_outputAndExplicitManifest(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "requirements.txt")
	testutil.WriteFile(t, src, "numpy\npyflatsurf  # optional: pyflatsurf\n")
	dest := filepath.Join(dir, "out.txt")

	if _, err := execute(t, "--root", dir, "filter", "--manifest", src, "-o", dest); err != nil {
		t.Fatalf("filter failed: %v", err)
	}
	data, err := os.ReadFile(dest) //nolint:gosec // test file
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "numpy\n" {
		t.Errorf("filtered = %q, want %q", data, "numpy\n")
	}
}

func TestRunFilter_errors(t *testing.T) {
	dir := testutil.CreateProject(t)

	tests := []struct {
		name string
		args []string
	}{
		{"row and optionals", []string{"--row", "full", "--optionals", "sage"}},
		{"unknown row", []string{"--row", "nope"}},
		{"missing manifest", []string{"--manifest", filepath.Join(dir, "missing.yml")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--root", dir, "filter"}, tt.args...)
			if _, err := execute(t, args...); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
