// Package trigger decides whether a CI event starts a matrix run.
package trigger

import (
	"fmt"
	"slices"

	"github.com/flatsurf/flatci/internal/matrix"
)

// Event is a CI event. For pull requests Branch is the base branch.
type Event struct {
	Name   string
	Branch string
}

// Decide reports whether the event matches the trigger. The returned reason
// explains a negative decision.
func Decide(t matrix.Trigger, ev Event) (bool, string) {
	if !slices.Contains(t.Events, ev.Name) {
		return false, fmt.Sprintf("event %q is not one of %v", ev.Name, t.Events)
	}
	if !slices.Contains(t.Branches, ev.Branch) {
		return false, fmt.Sprintf("branch %q is not one of %v", ev.Branch, t.Branches)
	}
	return true, ""
}
