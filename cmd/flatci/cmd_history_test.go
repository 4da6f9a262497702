package main

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/flatsurf/flatci/internal/history"
	"github.com/flatsurf/flatci/internal/results"
	"github.com/flatsurf/flatci/internal/testutil"
)

func TestRunHistory_empty(t *testing.T) {
	dir := testutil.CreateProject(t)

	out, err := execute(t, "--root", dir, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "No runs recorded.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestRunHistory_listsRuns(t *testing.T) {
	dir := testutil.CreateProject(t)
	store, err := history.Open(filepath.Join(dir, ".flatci", "history.db"))
	if err != nil {
		t.Fatal(err)
	}
	err = store.Record(&results.File{
		RunID:       "abcdef0123456789",
		Name:        "test-project",
		GeneratedAt: time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
		Source:      results.Source{Branch: "master", Commit: "1234567890abcdef"},
		Duration:    time.Minute,
		Rows: map[string]*results.Row{
			"full": {Status: results.StatusFailed, FailedPhase: "install", Duration: time.Minute},
		},
		Order: []string{"full"},
	})
	if err != nil {
		t.Fatal(err)
	}
	_ = store.Close()

	out, err := execute(t, "--root", dir, "history", "--rows")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	for _, want := range []string{"abcdef01", "master", "12345678", "hour ago", "install"} {
		if !strings.Contains(out, want) {
			t.Errorf("history missing %q:\n%s", want, out)
		}
	}
}
