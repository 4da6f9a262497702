package ui

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/flatsurf/flatci/internal/results"
)

func TestProgress_Done(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 3)

	p.Done("task A")
	p.Done("task B")
	p.Done("task C")

	out := buf.String()
	if !strings.Contains(out, "[1/3] task A") {
		t.Errorf("missing progress line for task A: %s", out)
	}
	if !strings.Contains(out, "[2/3] task B") {
		t.Errorf("missing progress line for task B: %s", out)
	}
	if !strings.Contains(out, "[3/3] task C") {
		t.Errorf("missing progress line for task C: %s", out)
	}
}

func TestProgress_RowDone(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 2)

	p.RowDone("full", &results.Row{Status: results.StatusPassed, Duration: 90 * time.Second})
	p.RowDone("minimal", &results.Row{
		Status:      results.StatusFailed,
		FailedPhase: "unit",
		LogPath:     "/state/rows/minimal/row.log",
		Duration:    time.Minute,
	})

	out := buf.String()
	if !strings.Contains(out, "[1/2]") || !strings.Contains(out, "full (1m30s)") {
		t.Errorf("missing line for full: %s", out)
	}
	if !strings.Contains(out, "unit failed, log /state/rows/minimal/row.log") {
		t.Errorf("missing failure detail: %s", out)
	}
}

func TestProgress_Log(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(&buf, 1)

	p.Log("hello %s", "world")

	out := buf.String()
	if !strings.Contains(out, "hello world") {
		t.Errorf("missing log message: %s", out)
	}
}

func TestBytes(t *testing.T) {
	if got := Bytes(2048); got != "2.0 kB" {
		t.Errorf("Bytes(2048) = %q", got)
	}
	if got := Bytes(-1); got != "0 B" {
		t.Errorf("Bytes(-1) = %q", got)
	}
}
