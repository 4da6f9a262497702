package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"go.uber.org/zap"

	"github.com/flatsurf/flatci/internal/config"
	"github.com/flatsurf/flatci/internal/env"
	"github.com/flatsurf/flatci/internal/matrix"
)

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

type stubProvisioner struct {
	// failOn makes Exec fail in every row whose name is a key, when argv[0] matches.
	failOn map[string]string
}

func (p stubProvisioner) Provision(_ context.Context, spec env.Spec) (env.Environment, error) {
	_, _ = io.WriteString(spec.Log, "provisioned "+spec.Name+"\n")
	return &stubEnv{failOn: p.failOn[spec.Name], log: spec.Log}, nil
}

type stubEnv struct {
	failOn string
	log    io.Writer
}

func (e *stubEnv) Exec(_ context.Context, args []string) error {
	_, _ = io.WriteString(e.log, "ran "+args[0]+"\n")
	if args[0] == e.failOn {
		return errors.New("exit status 1")
	}
	return nil
}

func (e *stubEnv) Remove(context.Context) error { return nil }

func (e *stubEnv) Kind() string { return env.KindConda }

// stubProvisioners replaces the run back ends for the duration of the test.
func stubProvisioners(t *testing.T, p stubProvisioner) {
	t.Helper()
	orig := provisioners
	provisioners = func(context.Context, *config.Config, []matrix.Row, io.Writer, *zap.Logger) (env.Provisioner, env.Provisioner, func() error) {
		return p, nil, func() error { return nil }
	}
	t.Cleanup(func() { provisioners = orig })
}

// okRunner succeeds for every command without running it.
type okRunner struct{}

func (okRunner) Run(_ context.Context, c env.Command) error {
	if c.Stdout != nil {
		_, _ = io.WriteString(c.Stdout, "ok "+c.String()+"\n")
	}
	return nil
}
