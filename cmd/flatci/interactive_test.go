package main

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"gopkg.in/yaml.v3"

	"github.com/flatsurf/flatci/internal/matrix"
)

func TestVersionValidator(t *testing.T) {
	tests := []struct {
		input    string
		optional bool
		wantErr  bool
	}{
		{"3.9", false, false},
		{"3.10", false, false},
		{" 9.4 ", true, false},
		{"", true, false},
		{"", false, true},
		{"3.x", false, true},
		{"latest", true, true},
	}
	for _, tt := range tests {
		err := versionValidator(tt.optional)(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("versionValidator(%v)(%q) error = %v, wantErr %v", tt.optional, tt.input, err, tt.wantErr)
		}
	}
}

func TestTagsValidator(t *testing.T) {
	validate := tagsValidator([]string{"flipper", "pyflatsurf"})
	if err := validate("flipper, pyflatsurf"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := validate(""); err != nil {
		t.Errorf("empty tags should be accepted: %v", err)
	}
	if err := validate("flipper,eantic"); err == nil {
		t.Error("expected error for tag absent from the manifest")
	}
	if err := tagsValidator(nil)("anything"); err != nil {
		t.Errorf("without manifest tags any tag is accepted: %v", err)
	}
}

func TestNewRow(t *testing.T) {
	row := newRow(" 3.9 ", "9.4", "sage, pyflatsurf,sage flipper")
	if row.Python != "3.9" || row.BaseVersion != "9.4" {
		t.Errorf("unexpected row: %+v", row)
	}
	want := []string{"sage", "pyflatsurf", "flipper"}
	if len(row.Optionals) != len(want) {
		t.Fatalf("optionals = %v, want %v", row.Optionals, want)
	}
	for i := range want {
		if row.Optionals[i] != want[i] {
			t.Errorf("optionals = %v, want %v", row.Optionals, want)
		}
	}
}

func TestDescribeTags(t *testing.T) {
	if got := describeTags(nil); got != "no optional features" {
		t.Errorf("describeTags(nil) = %q", got)
	}
	if got := describeTags([]string{"sage", "mystery"}); got != "sage, mystery (unknown features: mystery)" {
		t.Errorf("describeTags = %q", got)
	}
}

func TestBuildMatrix(t *testing.T) {
	rows := []matrix.Row{
		newRow("3.9", "9.4", "sage,pyflatsurf"),
		newRow("3.10", "", "sage"),
	}
	data, err := buildMatrix("proj", rows)
	if err != nil {
		t.Fatalf("buildMatrix error: %v", err)
	}
	m, err := matrix.Parse(data)
	if err != nil {
		t.Fatalf("buildMatrix produced invalid matrix: %v\n%s", err, data)
	}
	if m.Name != "proj" || len(m.Rows) != 2 {
		t.Errorf("unexpected matrix: %+v", m)
	}
	if m.Rows[1].EffectiveName() != "py3.10" {
		t.Errorf("row name = %q", m.Rows[1].EffectiveName())
	}

	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		t.Fatal(err)
	}
	if _, ok := raw["trigger"]; ok {
		t.Error("empty trigger should be omitted")
	}
}

func TestBuildMatrix_empty(t *testing.T) {
	if _, err := buildMatrix("proj", nil); err == nil {
		t.Fatal("expected error for a matrix without rows")
	}
}

func TestConfirmModel_Update(t *testing.T) {
	m := confirmModel{title: "Add another row?"}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	if cm := next.(confirmModel); !cm.value || !cm.done {
		t.Errorf("y should confirm: %+v", cm)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	if cm := next.(confirmModel); !cm.value || cm.done {
		t.Errorf("tab should toggle without finishing: %+v", cm)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if cm := next.(confirmModel); !cm.aborted {
		t.Errorf("esc should abort: %+v", cm)
	}
}
