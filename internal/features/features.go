// Package features knows the optional packages a matrix row may enable and
// how to check whether an interpreter can import them.
package features

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/flatsurf/flatci/internal/env"
)

// Feature is an optional Python module gated by an "# optional:" tag.
type Feature struct {
	Tag    string
	Module string
	URL    string
}

var known = []Feature{
	{Tag: "sage", Module: "sage.all", URL: "https://doc.sagemath.org/html/en/installation/"},
	{Tag: "flipper", Module: "flipper", URL: "https://flipper.readthedocs.io/en/latest/start.html#installation"},
	{Tag: "eantic", Module: "pyeantic", URL: "https://github.com/flatsurf/e-antic/#install-with-conda"},
	{Tag: "exactreal", Module: "pyexactreal", URL: "https://github.com/flatsurf/exact-real/#install-with-conda"},
	{Tag: "pyflatsurf", Module: "pyflatsurf", URL: "https://github.com/flatsurf/flatsurf/#install-with-conda"},
	{Tag: "cppyy", Module: "cppyy", URL: "https://cppyy.readthedocs.io/en/latest/installation.html"},
}

// All returns the known features.
func All() []Feature {
	return append([]Feature(nil), known...)
}

// Lookup returns the feature for a tag.
func Lookup(tag string) (Feature, bool) {
	for _, f := range known {
		if f.Tag == tag {
			return f, true
		}
	}
	return Feature{}, false
}

// Unknown returns the tags that name no known feature, sorted.
func Unknown(tags []string) []string {
	var out []string
	seen := map[string]bool{}
	for _, t := range tags {
		if _, ok := Lookup(t); !ok && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// Probe imports the feature's module with the given interpreter.
func Probe(ctx context.Context, r env.Runner, python string, f Feature) error {
	if python == "" {
		python = "python3"
	}
	err := r.Run(ctx, env.Command{
		Args:   []string{python, "-c", "import " + f.Module},
		Stdout: io.Discard,
		Stderr: io.Discard,
	})
	if err != nil {
		return fmt.Errorf("feature %s: module %s is not importable (see %s): %w", f.Tag, f.Module, f.URL, err)
	}
	return nil
}
