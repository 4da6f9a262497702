package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/flatsurf/flatci/internal/results"
)

// Markdown renders a results file as a Markdown report.
func Markdown(f *results.File) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", f.Name)

	verdict := "passed"
	if !f.Passed() {
		verdict = fmt.Sprintf("**failed** (%d of %d rows)", len(f.Failed()), len(f.Order))
	}
	fmt.Fprintf(&b, "Run `%s` %s in %s.\n\n", f.RunID, verdict, f.Duration.Round(1e9))
	if f.Source.Commit != "" {
		commit := f.Source.Commit
		if len(commit) > 12 {
			commit = commit[:12]
		}
		dirty := ""
		if f.Source.Dirty {
			dirty = " (dirty)"
		}
		fmt.Fprintf(&b, "Source: `%s` @ `%s`%s\n\n", f.Source.Branch, commit, dirty)
	}

	b.WriteString("| Row | Status | Environment | Optionals | Failed phase | Duration |\n")
	b.WriteString("|---|---|---|---|---|---|\n")
	for _, name := range f.Order {
		r := f.Rows[name]
		if r == nil {
			continue
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
			name, r.Status, r.Environment, strings.Join(r.Optionals, ", "), dash(r.FailedPhase), r.Duration.Round(1e9))
	}

	for _, name := range f.Failed() {
		r := f.Rows[name]
		fmt.Fprintf(&b, "\n## %s\n\n", name)
		fmt.Fprintf(&b, "- kind: %s\n- log: `%s`\n\n", dash(r.ErrorKind), r.LogPath)
		writeFence(&b, r.Error)
	}
	if f.Archive != "" {
		fmt.Fprintf(&b, "\nLogs: `%s`\n", f.Archive)
	}
	return b.String()
}

// RenderReport renders the Markdown report for a terminal with the given
// glamour style ("dark", "light", "notty").
func RenderReport(f *results.File, style string) (string, error) {
	out, err := glamour.Render(Markdown(f), style)
	if err != nil {
		return "", fmt.Errorf("rendering report: %w", err)
	}
	return out, nil
}

// writeFence writes text as a fenced code block whose fence is longer than
// any backtick run inside it.
func writeFence(b *strings.Builder, text string) {
	fence := "```"
	for strings.Contains(text, fence) {
		fence += "`"
	}
	fmt.Fprintf(b, "%s\n%s\n%s\n", fence, strings.TrimRight(text, "\n"), fence)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
