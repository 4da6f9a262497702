package env

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"dagger.io/dagger"
)

// ContainerWorkdir is where the project is copied inside the container.
const ContainerWorkdir = "/src"

// ContainerProvisioner substitutes a container image for the conda
// environment. The image is the environment; the manifest is not applied.
type ContainerProvisioner struct {
	client *dagger.Client
}

// NewContainerProvisioner connects to the dagger engine. Engine logs go to logOut.
func NewContainerProvisioner(ctx context.Context, logOut io.Writer) (*ContainerProvisioner, error) {
	client, err := dagger.Connect(ctx, dagger.WithLogOutput(logOut))
	if err != nil {
		return nil, fmt.Errorf("connecting to dagger engine: %w", err)
	}
	return &ContainerProvisioner{client: client}, nil
}

// Close disconnects from the engine.
func (p *ContainerProvisioner) Close() error {
	if p.client == nil {
		return nil
	}
	return p.client.Close()
}

// Provision starts from spec.Image with the project copied to /src.
func (p *ContainerProvisioner) Provision(ctx context.Context, spec Spec) (Environment, error) {
	if spec.Image == "" {
		return nil, fmt.Errorf("container image is required")
	}
	if p.client == nil {
		return nil, fmt.Errorf("container provisioner is not connected")
	}

	src := p.client.Host().Directory(spec.Source, dagger.HostDirectoryOpts{
		Exclude: []string{".git", ".flatci"},
	})

	ctr := p.client.Container().From(spec.Image).
		WithDirectory(ContainerWorkdir, src).
		WithWorkdir(ContainerWorkdir)

	keys := make([]string, 0, len(spec.Env))
	for k := range spec.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		ctr = ctr.WithEnvVariable(k, spec.Env[k])
	}

	fmt.Fprintf(logOrDiscard(spec.Log), "$ pull %s\n", spec.Image)
	ctr, err := ctr.Sync(ctx)
	if err != nil {
		return nil, fmt.Errorf("pulling %s: %w", spec.Image, err)
	}

	return &containerEnv{ctr: ctr, log: logOrDiscard(spec.Log)}, nil
}

type containerEnv struct {
	ctr *dagger.Container
	log io.Writer
}

func (e *containerEnv) Kind() string { return KindContainer }

// Exec chains argv onto the container so later phases see earlier effects
// (the installed package).
func (e *containerEnv) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("empty cmd")
	}
	fmt.Fprintf(e.log, "$ %s\n", strings.Join(args, " "))

	next := e.ctr.WithExec(args, dagger.ContainerWithExecOpts{SkipEntrypoint: true})
	stdout, err := next.Stdout(ctx)
	if stdout != "" {
		fmt.Fprint(e.log, stdout)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", strings.Join(args, " "), err)
	}
	if stderr, err := next.Stderr(ctx); err == nil && stderr != "" {
		fmt.Fprint(e.log, stderr)
	}
	e.ctr = next
	return nil
}

// Remove is a no-op: the engine garbage-collects unused containers.
func (e *containerEnv) Remove(_ context.Context) error { return nil }
