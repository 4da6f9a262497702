package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/flatsurf/flatci/internal/matrix"
	"github.com/flatsurf/flatci/internal/testutil"
)

func TestRunInit_fromLocalFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(t.TempDir(), "source.yaml")
	testutil.WriteFile(t, src, testutil.MatrixYAML)

	if _, err := execute(t, "--root", dir, "init", "--from", src); err != nil {
		t.Fatalf("init --from failed: %v", err)
	}

	m, err := matrix.Load(filepath.Join(dir, "flatci.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if m.Name != "test-project" || len(m.Rows) != 2 {
		t.Errorf("unexpected matrix: %+v", m)
	}

	gitignore, err := os.ReadFile(filepath.Join(dir, ".gitignore")) //nolint:gosec // test file
	if err != nil {
		t.Fatalf("reading .gitignore: %v", err)
	}
	if string(gitignore) != ".flatci/\n" {
		t.Errorf(".gitignore = %q", gitignore)
	}
}

func TestRunInit_alreadyExists(t *testing.T) {
	dir := testutil.CreateProject(t)
	src := filepath.Join(t.TempDir(), "source.yaml")
	testutil.WriteFile(t, src, testutil.MatrixYAML)

	if _, err := execute(t, "--root", dir, "init", "--from", src); err == nil {
		t.Fatal("expected error when flatci.yaml already exists")
	}
	if _, err := execute(t, "--root", dir, "init", "--from", src, "--force"); err != nil {
		t.Fatalf("init --force failed: %v", err)
	}
}

func TestRunInit_invalidSource(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(t.TempDir(), "source.yaml")
	testutil.WriteFile(t, src, "version: 1\nname: x\n")

	if _, err := execute(t, "--root", dir, "init", "--from", src); err == nil {
		t.Fatal("expected error for an invalid matrix")
	}
	if _, err := os.Stat(filepath.Join(dir, "flatci.yaml")); !os.IsNotExist(err) {
		t.Error("no file should be written on error")
	}
}

func TestRunInit_nameConflict(t *testing.T) {
	src := filepath.Join(t.TempDir(), "source.yaml")
	testutil.WriteFile(t, src, testutil.MatrixYAML)

	if _, err := execute(t, "--root", t.TempDir(), "init", "--from", src, "--name", "other"); err == nil {
		t.Fatal("expected error for conflicting --name")
	}
}

func TestEnsureGitignored(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, filepath.Join(dir, ".gitignore"), "build")

	if err := ensureGitignored(dir, ".flatci/"); err != nil {
		t.Fatal(err)
	}
	if err := ensureGitignored(dir, ".flatci/"); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(filepath.Join(dir, ".gitignore")) //nolint:gosec // test file
	if string(data) != "build\n.flatci/\n" {
		t.Errorf(".gitignore = %q", data)
	}

	testutil.WriteFile(t, filepath.Join(dir, ".gitignore"), "/.flatci/\n")
	if err := ensureGitignored(dir, ".flatci/"); err != nil {
		t.Fatal(err)
	}
	data, _ = os.ReadFile(filepath.Join(dir, ".gitignore")) //nolint:gosec // test file
	if strings.Count(string(data), ".flatci") != 1 {
		t.Errorf("pattern duplicated: %q", data)
	}
}
