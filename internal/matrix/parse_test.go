package matrix

import (
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse_valid(t *testing.T) {
	data := []byte(`
version: 1
name: sage-flatsurf
manifest: environment.yml
trigger:
  branches: [master]
env:
  PYTHONWARNINGS: ignore
rows:
  - python: "3.9"
    base_version: "9.4"
    optionals: [sage, flipper, eantic, exactreal, pyflatsurf]
  - name: minimal
    python: "3.10"
    base_version: "9.6"
    optionals: [sage]
  - environment: container:sagemath/sagemath:9.4
    optionals: [sage]
`)
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "sage-flatsurf" {
		t.Errorf("name = %q, want %q", m.Name, "sage-flatsurf")
	}
	if len(m.Rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(m.Rows))
	}

	var names []string
	for _, r := range m.Rows {
		names = append(names, r.EffectiveName())
	}
	want := []string{"py3.9-base9.4", "minimal", "container-sagemath-sagemath-9.4"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("row names mismatch (-want +got):\n%s", diff)
	}
	if got := m.Rows[0].OptionalsArg(); got != "sage,flipper,eantic,exactreal,pyflatsurf" {
		t.Errorf("OptionalsArg = %q", got)
	}
	if img, ok := m.Rows[2].ContainerImage(); !ok || img != "sagemath/sagemath:9.4" {
		t.Errorf("ContainerImage = %q, %v", img, ok)
	}
}

func TestParse_schemaErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing rows", `
version: 1
name: foo
`},
		{"unknown field", `
version: 1
name: foo
colour: blue
rows:
  - python: "3.9"
`},
		{"unquoted python version", `
version: 1
name: foo
rows:
  - python: 3.9
`},
		{"unknown event", `
version: 1
name: foo
trigger:
  events: [schedule]
rows:
  - python: "3.9"
`},
		{"empty phase", `
version: 1
name: foo
phases:
  unit: []
rows:
  - python: "3.9"
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParse_semanticErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad version", `
version: 2
name: foo
rows:
  - python: "3.9"
`},
		{"duplicate row", `
version: 1
name: foo
rows:
  - python: "3.9"
    base_version: "9.4"
  - python: "3.9"
    base_version: "9.4"
`},
		{"missing python", `
version: 1
name: foo
rows:
  - base_version: "9.4"
`},
		{"unknown environment mode", `
version: 1
name: foo
rows:
  - environment: docker
`},
		{"empty container image", `
version: 1
name: foo
rows:
  - environment: "container:"
`},
		{"duplicate tag", `
version: 1
name: foo
rows:
  - python: "3.9"
    optionals: [sage, sage]
`},
		{"absolute manifest", `
version: 1
name: foo
manifest: /etc/environment.yml
rows:
  - python: "3.9"
`},
		{"escaping package", `
version: 1
name: foo
package: ../other
rows:
  - python: "3.9"
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.yaml)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	m := &Matrix{}
	if m.EffectiveManifest() != "environment.yml" {
		t.Errorf("manifest default = %q", m.EffectiveManifest())
	}
	if m.EffectivePackage() != "." {
		t.Errorf("package default = %q", m.EffectivePackage())
	}
	if m.EffectiveBaseLibrary() != "sage" {
		t.Errorf("base library default = %q", m.EffectiveBaseLibrary())
	}
	tr := m.EffectiveTrigger()
	if diff := cmp.Diff([]string{"push", "pull_request"}, tr.Events); diff != "" {
		t.Errorf("events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"master"}, tr.Branches); diff != "" {
		t.Errorf("branches mismatch (-want +got):\n%s", diff)
	}
	if m.Phases.UnitCmd()[0] != "pytest" || m.Phases.DoctestCmd()[0] != "sage" || m.Phases.InstallCmd()[0] != "pip" {
		t.Error("phase defaults not applied")
	}
}

func TestPhases_defaultsNotShared(t *testing.T) {
	var p Phases
	cmd := p.UnitCmd()
	cmd[0] = "mutated"
	if p.UnitCmd()[0] != "pytest" {
		t.Error("default template was mutated through a returned slice")
	}
}

func TestFilterRows(t *testing.T) {
	rows := []Row{{Name: "a", Python: "3.9"}, {Name: "b", Python: "3.9"}, {Name: "c", Python: "3.9"}}

	t.Run("only", func(t *testing.T) {
		if got := FilterRows(rows, []string{"a", "c"}, nil); len(got) != 2 {
			t.Errorf("got %d, want 2", len(got))
		}
	})
	t.Run("skip", func(t *testing.T) {
		if got := FilterRows(rows, nil, []string{"b"}); len(got) != 2 {
			t.Errorf("got %d, want 2", len(got))
		}
	})
	t.Run("none", func(t *testing.T) {
		if got := FilterRows(rows, nil, nil); len(got) != 3 {
			t.Errorf("got %d, want 3", len(got))
		}
	})
}

func TestMatrix_Tags(t *testing.T) {
	m := &Matrix{Rows: []Row{
		{Optionals: []string{"sage", "flipper"}},
		{Optionals: []string{"sage", "pyflatsurf"}},
	}}
	if diff := cmp.Diff([]string{"sage", "flipper", "pyflatsurf"}, m.Tags()); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flatci.yaml")
	m := &Matrix{
		Version: 1,
		Name:    "test",
		Rows: []Row{
			{Python: "3.9", BaseVersion: "9.4", Optionals: []string{"sage"}},
		},
	}
	if err := Save(path, m); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(m, loaded); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}
