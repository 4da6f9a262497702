package manifest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

const environmentYML = `name: sage-flatsurf-build
channels:
  - conda-forge
dependencies:
  - pip
  - pytest
  - pytest-xdist
  - flipper  # optional: flipper
  - pyflatsurf>=3.10.1,<4  # optional: pyflatsurf
  - sage-flatsurf-deps
  - pip: [pyeantic]  # optional: eantic
  - pip:
    - pyexactreal  # optional: exactreal
    - surface-dynamics
`

func TestParse_environment(t *testing.T) {
	m, err := Parse([]byte(environmentYML))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.Name != "sage-flatsurf-build" {
		t.Errorf("name = %q, want %q", m.Name, "sage-flatsurf-build")
	}
	if diff := cmp.Diff([]string{"conda-forge"}, m.Channels); diff != "" {
		t.Errorf("channels mismatch (-want +got):\n%s", diff)
	}

	type got struct {
		Line     int
		Spec     string
		Pip      bool
		Optional string
	}
	var entries []got
	for _, e := range m.Entries {
		entries = append(entries, got{e.Line, e.Spec, e.Pip, e.Optional})
	}
	want := []got{
		{5, "pip", false, ""},
		{6, "pytest", false, ""},
		{7, "pytest-xdist", false, ""},
		{8, "flipper", false, "flipper"},
		{9, "pyflatsurf>=3.10.1,<4", false, "pyflatsurf"},
		{10, "sage-flatsurf-deps", false, ""},
		{11, "pyeantic", true, "eantic"},
		{13, "pyexactreal", true, "exactreal"},
		{14, "surface-dynamics", true, ""},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
	if m.Entries[4].Raw != "  - pyflatsurf>=3.10.1,<4  # optional: pyflatsurf" {
		t.Errorf("raw line not preserved: %q", m.Entries[4].Raw)
	}
}

func TestParse_plainList(t *testing.T) {
	data := []byte(`# build requirements
python>=3.8

pyflatsurf>=3.10.1,<4  # optional: pyflatsurf
pip: [pyeantic]  # optional: eantic
`)
	m, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(m.Entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(m.Entries))
	}
	if m.Entries[0].Spec != "python>=3.8" || m.Entries[0].IsOptional() {
		t.Errorf("entry 0 = %+v", m.Entries[0])
	}
	if m.Entries[1].Spec != "pyflatsurf>=3.10.1,<4" || m.Entries[1].Optional != "pyflatsurf" {
		t.Errorf("entry 1 = %+v", m.Entries[1])
	}
	if !m.Entries[2].Pip || m.Entries[2].Spec != "pyeantic" || m.Entries[2].Optional != "eantic" {
		t.Errorf("entry 2 = %+v", m.Entries[2])
	}
}

func TestParse_taggedPipBlockHeader(t *testing.T) {
	data := []byte(`dependencies:
  - python
  - pip:  # optional: eantic
    - pyeantic
`)
	if _, err := Parse(data); err == nil {
		t.Fatal("expected error for tag on a pip block header")
	}
}

func TestParse_malformedPipLine(t *testing.T) {
	if _, err := Parse([]byte("pip: pyeantic\n")); err == nil {
		t.Fatal("expected error for pip entry without brackets")
	}
}

func TestParse_dependenciesNotList(t *testing.T) {
	if _, err := Parse([]byte("dependencies: python\n")); err == nil {
		t.Fatal("expected error when dependencies is not a list")
	}
}

func TestTagOf(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{"  - flipper  # optional: flipper", "flipper"},
		{"pyflatsurf>=3.10.1,<4 #optional:pyflatsurf", "pyflatsurf"},
		{"  - pytest", ""},
		{"  - pytest  # pinned for xdist", ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			if got := TagOf(tt.line); got != tt.want {
				t.Errorf("TagOf(%q) = %q, want %q", tt.line, got, tt.want)
			}
		})
	}
}

func TestParseTags(t *testing.T) {
	got := ParseTags("sage,flipper  eantic,,").Sorted()
	want := []string{"eantic", "flipper", "sage"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if len(ParseTags("")) != 0 {
		t.Error("empty input should yield an empty set")
	}
}

func TestTags(t *testing.T) {
	m, err := Parse([]byte(environmentYML))
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"eantic", "exactreal", "flipper", "pyflatsurf"}
	if diff := cmp.Diff(want, Tags(m.Entries)); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
}
