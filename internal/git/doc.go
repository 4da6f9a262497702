// Package git provides a wrapper around the Git CLI commands flatci uses to
// identify the source tree under test: current branch, HEAD commit and dirty
// state. It does not depend on other internal packages.
package git
