package main

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/flatsurf/flatci/internal/manifest"
	"github.com/flatsurf/flatci/internal/matrix"
	"github.com/flatsurf/flatci/internal/workspace"
)

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create flatci.yaml interactively or from an existing matrix",
		Args:  cobra.NoArgs,
		RunE:  runInit,
	}
	cmd.Flags().String("from", "", "Import matrix from local path or repo#path")
	cmd.Flags().String("name", "", "Matrix name (default: project directory name)")
	cmd.Flags().Bool("force", false, "Overwrite an existing flatci.yaml")
	cmd.Flags().Bool("no-gitignore", false, "Do not add the state directory to .gitignore")
	return cmd
}

func runInit(cmd *cobra.Command, _ []string) error {
	root, _ := cmd.Flags().GetString("root")
	from, _ := cmd.Flags().GetString("from")
	name, _ := cmd.Flags().GetString("name")
	force, _ := cmd.Flags().GetBool("force")
	noGitignore, _ := cmd.Flags().GetBool("no-gitignore")

	abs, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving project root: %w", err)
	}
	matrixPath := filepath.Join(abs, workspace.MatrixFile)
	if _, err := os.Stat(matrixPath); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", matrixPath)
	}

	// Build the matrix before writing anything to avoid leaving partial files on error.
	var data []byte
	switch {
	case from != "":
		src, err := fetchFrom(from)
		if err != nil {
			return fmt.Errorf("reading --from source: %w", err)
		}
		m, err := matrix.Parse(src)
		if err != nil {
			return fmt.Errorf("invalid matrix from %s: %w", from, err)
		}
		if name != "" && name != m.Name {
			return fmt.Errorf("--name %q conflicts with imported matrix name %q", name, m.Name)
		}
		data = src
	default:
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			return fmt.Errorf("interactive init requires a TTY; use --from to specify a matrix")
		}
		if name == "" {
			name = filepath.Base(abs)
		}
		rows, err := interactiveRows(manifestTags(abs))
		if err != nil {
			return fmt.Errorf("interactive setup: %w", err)
		}
		var buildErr error
		data, buildErr = buildMatrix(name, rows)
		if buildErr != nil {
			return fmt.Errorf("building matrix: %w", buildErr)
		}
	}

	if err := os.WriteFile(matrixPath, data, 0644); err != nil { //nolint:gosec // matrix file is committed to the repo
		return fmt.Errorf("writing matrix: %w", err)
	}
	if !noGitignore {
		if err := ensureGitignored(abs, workspace.StateDirName+"/"); err != nil {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Warning: updating .gitignore: %v\n", err)
		}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Matrix written to %s\n", matrixPath)
	return nil
}

// manifestTags returns the optional tags of the project's default manifest,
// or nil when there is none.
func manifestTags(root string) []string {
	m, err := manifest.Load(filepath.Join(root, matrix.DefaultManifest))
	if err != nil {
		return nil
	}
	return manifest.Tags(m.Entries)
}

// ensureGitignored appends pattern to <root>/.gitignore unless it is listed.
func ensureGitignored(root, pattern string) error {
	path := filepath.Join(root, ".gitignore")
	data, err := os.ReadFile(path) //nolint:gosec // project .gitignore
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == pattern || line == strings.TrimSuffix(pattern, "/") || line == "/"+pattern {
			return nil
		}
	}
	if len(data) > 0 && !bytes.HasSuffix(data, []byte("\n")) {
		data = append(data, '\n')
	}
	data = append(data, pattern+"\n"...)
	return os.WriteFile(path, data, 0644) //nolint:gosec // .gitignore needs to be readable
}

// fetchFrom reads matrix content from a local path or repo#path format.
// For repo#path, it shallow-clones the repo and checks out the single file.
func fetchFrom(src string) ([]byte, error) {
	repo, path, ok := strings.Cut(src, "#")
	if !ok {
		return os.ReadFile(src) //nolint:gosec // user-provided --from path
	}

	tmpDir, err := os.MkdirTemp("", "flatci-from-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(tmpDir) }()

	cmd := exec.Command("git", "clone", "--depth", "1", "--no-checkout", repo, tmpDir) //nolint:gosec // repo URL from user-provided --from flag
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("cloning %s: %w", repo, err)
	}

	checkout := exec.Command("git", "checkout", "HEAD", "--", path) //nolint:gosec // path from user-provided --from flag
	checkout.Dir = tmpDir
	checkout.Stderr = os.Stderr
	if err := checkout.Run(); err != nil {
		return nil, fmt.Errorf("checking out %s from %s: %w", path, repo, err)
	}

	return os.ReadFile(filepath.Join(tmpDir, path)) //nolint:gosec // path from user-provided --from flag
}
