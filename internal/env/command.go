package env

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strings"
)

// Command is one external process invocation.
type Command struct {
	Args   []string
	Dir    string
	Env    []string // KEY=VALUE pairs added to the parent environment
	Stdout io.Writer
	Stderr io.Writer
}

// String renders the argv for logs.
func (c Command) String() string {
	return strings.Join(c.Args, " ")
}

// Runner executes commands.
type Runner interface {
	Run(ctx context.Context, c Command) error
}

// ExecRunner runs commands as local processes (no shell expansion).
type ExecRunner struct{}

// Run executes c and waits for it to finish.
func (ExecRunner) Run(ctx context.Context, c Command) error {
	if len(c.Args) == 0 {
		return fmt.Errorf("empty cmd")
	}
	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...) //nolint:gosec // argv comes from the matrix file
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", c, err)
	}
	return nil
}

// EnvList renders a variable map as sorted KEY=VALUE pairs.
func EnvList(vars map[string]string) []string {
	out := make([]string, 0, len(vars))
	for k, v := range vars {
		out = append(out, k+"="+v)
	}
	sort.Strings(out)
	return out
}
