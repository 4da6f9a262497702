// Package workspace integrates matrix and results loading with path
// resolution. It provides the Context type that holds the resolved project
// and state paths and the loaded configuration, and the Cleanup policy for
// provisioned row environments.
package workspace
