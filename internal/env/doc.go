// Package env provisions isolated package environments for matrix rows and
// runs commands inside them. Two provisioning sources sit behind the
// Provisioner interface: conda/mamba prefix environments built from a
// filtered manifest, and container images run through dagger.
package env
