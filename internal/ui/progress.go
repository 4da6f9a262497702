package ui

import (
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/flatsurf/flatci/internal/results"
)

var (
	passedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("2")).Bold(true)
	failedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// StatusLabel renders a row or phase status with its color.
func StatusLabel(s results.Status) string {
	switch s {
	case results.StatusPassed:
		return passedStyle.Render("PASS")
	case results.StatusFailed:
		return failedStyle.Render("FAIL")
	default:
		return skippedStyle.Render("SKIP")
	}
}

// Progress tracks completion of parallel rows with a simple counter display.
type Progress struct {
	out       io.Writer
	total     int
	completed atomic.Int32
	mu        sync.Mutex
}

// NewProgress creates a progress tracker for n rows.
func NewProgress(out io.Writer, total int) *Progress {
	return &Progress{out: out, total: total}
}

// Done marks one task as completed and prints the current progress.
func (p *Progress) Done(label string) {
	n := int(p.completed.Add(1))
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, "[%d/%d] %s\n", n, p.total, label)
}

// RowDone marks a row as finished and prints its status.
func (p *Progress) RowDone(name string, r *results.Row) {
	label := fmt.Sprintf("%s %s (%s)", StatusLabel(r.Status), name, r.Duration.Round(1e9))
	if r.Status == results.StatusFailed {
		label += fmt.Sprintf(": %s failed, log %s", r.FailedPhase, r.LogPath)
	}
	p.Done(label)
}

// Log prints an informational message within the progress context.
func (p *Progress) Log(format string, args ...any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Bytes formats a byte count for humans.
func Bytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}
