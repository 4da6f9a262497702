// Package results handles reading and writing of .flatci/results.yaml.
// A results file records the outcome of every matrix row of the last run,
// down to the individual phases, together with the source tree identity.
package results
