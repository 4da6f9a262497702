package git

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Identity describes the checked-out tree at a directory.
type Identity struct {
	Branch string // empty when HEAD is detached
	Commit string // full SHA
	Dirty  bool
}

// Identify returns the branch, HEAD commit and dirty state of the repository
// at dir.
func Identify(dir string) (Identity, error) {
	var id Identity
	branch, err := CurrentBranch(dir)
	if err != nil {
		return id, err
	}
	id.Branch = branch

	commit, err := HeadCommitFull(dir)
	if err != nil {
		return id, fmt.Errorf("reading HEAD: %w", err)
	}
	id.Commit = commit

	dirty, err := IsDirty(dir)
	if err != nil {
		return id, fmt.Errorf("checking dirty state: %w", err)
	}
	id.Dirty = dirty
	return id, nil
}

// CurrentBranch returns the current branch name, or empty string if detached.
func CurrentBranch(repoDir string) (string, error) {
	out, err := outputQuiet(repoDir, "symbolic-ref", "--short", "HEAD")
	if err != nil {
		// Detached HEAD: symbolic-ref fails.
		return "", nil
	}
	return strings.TrimSpace(out), nil
}

// HeadCommit returns the short SHA of HEAD.
func HeadCommit(repoDir string) (string, error) {
	out, err := output(repoDir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// HeadCommitFull returns the full SHA of HEAD.
func HeadCommitFull(repoDir string) (string, error) {
	out, err := output(repoDir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// IsDirty returns true if the working tree has uncommitted changes.
// Untracked files under the flatci state directory are ignored.
func IsDirty(repoDir string) (bool, error) {
	out, err := output(repoDir, "status", "--porcelain", "--", ".", ":(exclude).flatci")
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

// IsRepo returns true if the directory is the top of a git working tree.
func IsRepo(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	if err != nil {
		return false
	}
	return info.IsDir()
}

// IsGitInstalled returns true if git is available on the system PATH.
func IsGitInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// output executes a git command and returns its stdout.
func output(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w", strings.Join(args, " "), err)
	}
	return stdout.String(), nil
}

// outputQuiet executes a git command and returns its stdout without printing to the console.
func outputQuiet(dir string, args ...string) (string, error) {
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, stderr.String())
	}
	return stdout.String(), nil
}
