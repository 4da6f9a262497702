package workspace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/flatsurf/flatci/internal/matrix"
	"github.com/flatsurf/flatci/internal/results"
)

const (
	// MatrixFile is the name of the matrix file at the project root.
	MatrixFile = "flatci.yaml"
	// StateDirName is the default state directory under the project root.
	StateDirName = ".flatci"
)

// Context holds the resolved paths and loaded config for a project.
type Context struct {
	Root        string
	MatrixPath  string
	StateDir    string
	ResultsPath string
	Matrix      *matrix.Matrix
	Results     *results.File // may be nil
}

// Load resolves project paths and loads the matrix (and last results if
// present). An empty stateDir selects <root>/.flatci; a relative one is
// resolved against root.
func Load(root, stateDir string) (*Context, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving project root: %w", err)
	}

	switch {
	case stateDir == "":
		stateDir = filepath.Join(root, StateDirName)
	case !filepath.IsAbs(stateDir):
		stateDir = filepath.Join(root, stateDir)
	}

	matrixPath := filepath.Join(root, MatrixFile)
	m, err := matrix.Load(matrixPath)
	if err != nil {
		return nil, err
	}

	ctx := &Context{
		Root:        root,
		MatrixPath:  matrixPath,
		StateDir:    stateDir,
		ResultsPath: filepath.Join(stateDir, "results.yaml"),
		Matrix:      m,
	}

	if _, statErr := os.Stat(ctx.ResultsPath); statErr == nil {
		rf, err := results.Load(ctx.ResultsPath)
		if err != nil {
			return nil, err
		}
		ctx.Results = rf
	}

	return ctx, nil
}

// ManifestPath returns the absolute path of the dependency manifest.
func (c *Context) ManifestPath() string {
	return filepath.Join(c.Root, c.Matrix.EffectiveManifest())
}

// PackageDir returns the absolute path of the package under test.
func (c *Context) PackageDir() string {
	return filepath.Join(c.Root, c.Matrix.EffectivePackage())
}

// RowDir returns the state directory of a row.
func (c *Context) RowDir(row matrix.Row) string {
	return filepath.Join(c.StateDir, "rows", row.EffectiveName())
}

// LogPath returns the log file of a row.
func (c *Context) LogPath(row matrix.Row) string {
	return filepath.Join(c.RowDir(row), "row.log")
}

// HistoryPath returns the run history database path.
func (c *Context) HistoryPath() string {
	return filepath.Join(c.StateDir, "history.db")
}

// ArchivePath returns the path of the uploaded log archive.
func (c *Context) ArchivePath() string {
	return filepath.Join(c.StateDir, "logs.tar.lz4")
}

// Cleanup decides what happens to a row's provisioned environment after the row finishes.
type Cleanup string

const (
	CleanupAlways    Cleanup = "always"
	CleanupOnSuccess Cleanup = "on-success"
	CleanupNever     Cleanup = "never"
)

// ParseCleanup parses a cleanup policy, defaulting to "on-success".
func ParseCleanup(s string) (Cleanup, error) {
	switch Cleanup(s) {
	case CleanupOnSuccess, "":
		return CleanupOnSuccess, nil
	case CleanupAlways:
		return CleanupAlways, nil
	case CleanupNever:
		return CleanupNever, nil
	default:
		return "", fmt.Errorf("unknown cleanup policy: %q (must be always, on-success, or never)", s)
	}
}

// ShouldRemove reports whether an environment is removed for a row that
// passed or failed.
func (c Cleanup) ShouldRemove(passed bool) bool {
	switch c {
	case CleanupAlways:
		return true
	case CleanupNever:
		return false
	default:
		return passed
	}
}
