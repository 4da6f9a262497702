package results

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads a results.yaml file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the workspace results file
	if err != nil {
		return nil, fmt.Errorf("reading results file: %w", err)
	}
	return Parse(data)
}

// Parse parses results.yaml content.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing results YAML: %w", err)
	}
	return &f, nil
}

// Save writes the results file to disk, creating its directory.
func Save(path string, f *File) error {
	data, err := yaml.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshaling results file: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil { //nolint:gosec // state dir is readable by CI log collectors
		return fmt.Errorf("creating results directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // results file needs to be readable
		return fmt.Errorf("writing results file: %w", err)
	}
	return nil
}
