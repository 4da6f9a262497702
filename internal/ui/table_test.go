package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestTable_render(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "ROW", "STATUS", "OK")
	tbl.Row("full", "passed", true)
	tbl.Row("minimal", "failed", false)
	if err := tbl.Flush(); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3 {
		t.Errorf("expected 3 lines (header + 2 rows), got %d:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "ROW") {
		t.Errorf("header missing ROW: %q", lines[0])
	}
	if !strings.Contains(lines[1], "full") {
		t.Errorf("row 1 missing full: %q", lines[1])
	}
	if strings.Index(lines[1], "passed") != strings.Index(lines[2], "failed") {
		t.Errorf("columns not aligned:\n%s", out)
	}
}

func TestTable_emptyTable(t *testing.T) {
	var buf bytes.Buffer
	tbl := NewTable(&buf, "A", "B")
	if err := tbl.Flush(); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 1 {
		t.Errorf("expected 1 line (header only), got %d", len(lines))
	}
}
