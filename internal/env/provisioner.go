package env

import (
	"context"
	"io"
)

// Kinds of provisioned environments.
const (
	KindConda     = "conda"
	KindContainer = "container"
)

// Spec describes the environment a row needs.
type Spec struct {
	Name        string // row name
	Dir         string // row state directory
	Source      string // project root, the tree under test
	Python      string
	BaseLibrary string
	BaseVersion string
	Manifest    string // filtered manifest path
	Image       string // container image, alternate mode only
	Env         map[string]string
	Log         io.Writer
}

// Environment is a provisioned, isolated package environment.
type Environment interface {
	// Exec runs argv inside the environment from the project root.
	Exec(ctx context.Context, args []string) error
	// Remove releases the environment.
	Remove(ctx context.Context) error
	// Kind names the provisioning source.
	Kind() string
}

// Provisioner materializes environments from a Spec. Failures come straight
// from the underlying package manager or container engine.
type Provisioner interface {
	Provision(ctx context.Context, spec Spec) (Environment, error)
}
