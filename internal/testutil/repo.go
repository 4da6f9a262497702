package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"
)

// MatrixYAML is a minimal valid flatci.yaml used across tests.
const MatrixYAML = `version: 1
name: test-project
rows:
  - name: full
    python: "3.9"
    base_version: "9.4"
    optionals: [sage, flipper, pyflatsurf]
  - name: minimal
    python: "3.10"
    base_version: "9.6"
    optionals: [sage]
`

// EnvironmentYML is a small conda environment file with tagged entries.
const EnvironmentYML = `name: test-build
channels:
  - conda-forge
dependencies:
  - pytest
  - flipper  # optional: flipper
  - pyflatsurf>=3.10.1,<4  # optional: pyflatsurf
  - pip: [pyeantic]  # optional: eantic
`

// CreateProject writes a project directory containing flatci.yaml and
// environment.yml. Returns the project root.
func CreateProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	WriteFile(t, filepath.Join(dir, "flatci.yaml"), MatrixYAML)
	WriteFile(t, filepath.Join(dir, "environment.yml"), EnvironmentYML)
	return dir
}

// CreateProjectRepo creates a project (see CreateProject) that is also a git
// repository with an initial commit on main.
func CreateProjectRepo(t *testing.T) string {
	t.Helper()
	dir := CreateProject(t)
	run(t, dir, "git", "init", "-b", "main")
	run(t, dir, "git", "config", "user.email", "test@example.com")
	run(t, dir, "git", "config", "user.name", "Test")
	run(t, dir, "git", "add", ".")
	run(t, dir, "git", "commit", "-m", "initial commit")
	return dir
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil { //nolint:gosec // test dir
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil { //nolint:gosec // test file
		t.Fatal(err)
	}
}

func run(t *testing.T, dir string, name string, args ...string) {
	t.Helper()
	cmd := exec.Command(name, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		t.Fatalf("command %s %v failed: %v", name, args, err)
	}
}
