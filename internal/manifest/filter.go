package manifest

import (
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
)

// Filter returns the manifest content restricted to the active tags. A line
// without an optional tag is always kept; a tagged line is kept only when its
// tag is active. Kept lines are emitted verbatim, in their original order.
func Filter(data []byte, active TagSet) []byte {
	var b strings.Builder
	b.Grow(len(data))
	for _, line := range strings.SplitAfter(string(data), "\n") {
		if line == "" {
			continue
		}
		if tag := TagOf(line); tag != "" && !active.Has(tag) {
			continue
		}
		b.WriteString(line)
	}
	return []byte(b.String())
}

// FilterEntries applies the Filter rule to parsed entries.
func FilterEntries(entries []Entry, active TagSet) []Entry {
	var result []Entry
	for _, e := range entries {
		if e.IsOptional() && !active.Has(e.Optional) {
			continue
		}
		result = append(result, e)
	}
	return result
}

// Diff renders a line diff between the original and the filtered manifest.
// Dropped lines are prefixed with "- ", kept lines with two spaces.
func Diff(original, filtered []byte) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(string(original), string(filtered))
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	for _, d := range diffs {
		prefix := "  "
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix = "- "
		case diffmatchpatch.DiffInsert:
			prefix = "+ "
		}
		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line == "" {
				continue
			}
			sb.WriteString(prefix)
			sb.WriteString(line)
			if !strings.HasSuffix(line, "\n") {
				sb.WriteString("\n")
			}
		}
	}
	return sb.String()
}
