// Package manifest parses dependency manifests (conda environment files or
// plain requirement lists) and filters them by optional feature tags.
// An entry tagged with a trailing "# optional: <tag>" comment is kept only
// when its tag is active; untagged entries are always kept.
package manifest
