package env

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// DefaultPackageManager is the conda front end used when none is configured.
const DefaultPackageManager = "mamba"

// CondaProvisioner builds a fresh conda prefix per row: first the pinned
// interpreter and base library, then the filtered manifest on top.
type CondaProvisioner struct {
	Binary string
	Runner Runner
}

// NewCondaProvisioner returns a provisioner driving the given conda front end
// (mamba, conda).
func NewCondaProvisioner(binary string, r Runner) *CondaProvisioner {
	if binary == "" {
		binary = DefaultPackageManager
	}
	if r == nil {
		r = ExecRunner{}
	}
	return &CondaProvisioner{Binary: binary, Runner: r}
}

// Provision creates <spec.Dir>/env from scratch.
func (p *CondaProvisioner) Provision(ctx context.Context, spec Spec) (Environment, error) {
	if spec.Python == "" {
		return nil, fmt.Errorf("python version is required")
	}
	if spec.Manifest == "" {
		return nil, fmt.Errorf("manifest is required")
	}

	prefix := filepath.Join(spec.Dir, "env")
	if err := os.RemoveAll(prefix); err != nil {
		return nil, fmt.Errorf("removing stale environment: %w", err)
	}

	pins := []string{"python=" + spec.Python}
	if spec.BaseVersion != "" {
		pins = append(pins, spec.BaseLibrary+"="+spec.BaseVersion)
	}

	steps := [][]string{
		append([]string{p.Binary, "create", "--yes", "--quiet", "--prefix", prefix}, pins...),
		{p.Binary, "env", "update", "--quiet", "--prefix", prefix, "--file", spec.Manifest},
		{p.Binary, "list", "--prefix", prefix},
	}
	for _, args := range steps {
		c := Command{
			Args:   args,
			Dir:    spec.Source,
			Env:    EnvList(spec.Env),
			Stdout: spec.Log,
			Stderr: spec.Log,
		}
		fmt.Fprintf(logOrDiscard(spec.Log), "$ %s\n", c)
		if err := p.Runner.Run(ctx, c); err != nil {
			return nil, err
		}
	}

	return &condaEnv{
		prefix: prefix,
		source: spec.Source,
		vars:   spec.Env,
		log:    spec.Log,
		runner: p.Runner,
	}, nil
}

type condaEnv struct {
	prefix string
	source string
	vars   map[string]string
	log    io.Writer
	runner Runner
}

func (e *condaEnv) Kind() string { return KindConda }

// Exec runs argv with the prefix activated: <prefix>/bin first on PATH and
// CONDA_PREFIX set. The program is resolved in <prefix>/bin when present there.
func (e *condaEnv) Exec(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("empty cmd")
	}
	bin := filepath.Join(e.prefix, "bin")
	argv := append([]string(nil), args...)
	if p := filepath.Join(bin, argv[0]); isExecutable(p) {
		argv[0] = p
	}

	vars := EnvList(e.vars)
	vars = append(vars,
		"PATH="+bin+string(os.PathListSeparator)+os.Getenv("PATH"),
		"CONDA_PREFIX="+e.prefix,
	)

	c := Command{Args: argv, Dir: e.source, Env: vars, Stdout: e.log, Stderr: e.log}
	fmt.Fprintf(logOrDiscard(e.log), "$ %s\n", Command{Args: args})
	return e.runner.Run(ctx, c)
}

func (e *condaEnv) Remove(_ context.Context) error {
	if err := os.RemoveAll(e.prefix); err != nil {
		return fmt.Errorf("removing environment %s: %w", e.prefix, err)
	}
	return nil
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Mode()&0o111 != 0
}

func logOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return io.Discard
	}
	return w
}
