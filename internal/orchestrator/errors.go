package orchestrator

import (
	"context"
	"errors"
	"fmt"
)

// Failure kinds. A *PhaseError unwraps to exactly one of them.
var (
	ErrResolve = errors.New("dependency resolution failed")
	ErrInstall = errors.New("installation failed")
	ErrTest    = errors.New("tests failed")

	// ErrCanceled marks a row stopped by an interrupted run rather than by
	// its own failure.
	ErrCanceled = errors.New("canceled")
)

// ErrRowsFailed is returned by Run when at least one row failed.
var ErrRowsFailed = errors.New("matrix rows failed")

// Phase names in execution order.
const (
	PhaseFilter    = "filter"
	PhaseProvision = "provision"
	PhaseInstall   = "install"
	PhaseDoctest   = "doctest"
	PhaseUnit      = "unit"
)

// Phases lists the row phases in execution order.
var Phases = []string{PhaseFilter, PhaseProvision, PhaseInstall, PhaseDoctest, PhaseUnit}

// PhaseError is the failure of one phase of one row.
type PhaseError struct {
	Row   string
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("row %s: %s: %v", e.Row, e.Kind(), e.Err)
}

// Unwrap exposes both the failure kind and the underlying cause.
func (e *PhaseError) Unwrap() []error {
	return []error{e.Kind(), e.Err}
}

// Kind returns the failure kind sentinel of the phase.
func (e *PhaseError) Kind() error {
	if errors.Is(e.Err, context.Canceled) || errors.Is(e.Err, context.DeadlineExceeded) {
		return ErrCanceled
	}
	switch e.Phase {
	case PhaseInstall:
		return ErrInstall
	case PhaseDoctest, PhaseUnit:
		return ErrTest
	default:
		return ErrResolve
	}
}

// KindName returns a short name of the failure kind for reports.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrResolve):
		return "resolve"
	case errors.Is(err, ErrInstall):
		return "install"
	case errors.Is(err, ErrTest):
		return "test"
	case errors.Is(err, ErrCanceled):
		return "canceled"
	default:
		return ""
	}
}
