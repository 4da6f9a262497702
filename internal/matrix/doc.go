// Package matrix handles the flatci.yaml test matrix: the manifest and
// package locations, the install and test phase templates, the CI trigger
// surface, and the rows of interpreter, base library and feature tags.
package matrix
