package matrix

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Validate checks the matrix for errors.
func Validate(m *Matrix) error { return validate(m) }

// Save validates and writes a matrix file to disk.
func Save(path string, m *Matrix) error {
	if err := validate(m); err != nil {
		return err
	}
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshaling matrix: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil { //nolint:gosec // matrix file is committed to the repo
		return fmt.Errorf("writing matrix: %w", err)
	}
	return nil
}

// Load reads and validates a flatci.yaml file.
func Load(path string) (*Matrix, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is the project matrix file
	if err != nil {
		return nil, fmt.Errorf("reading matrix: %w", err)
	}
	return Parse(data)
}

// Parse parses and validates flatci.yaml content.
func Parse(data []byte) (*Matrix, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing matrix YAML: %w", err)
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	var m Matrix
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parsing matrix YAML: %w", err)
	}
	if err := validate(&m); err != nil {
		return nil, err
	}
	return &m, nil
}

func validate(m *Matrix) error {
	if m.Version != 1 {
		return fmt.Errorf("unsupported matrix version: %d (expected 1)", m.Version)
	}
	if m.Name == "" {
		return fmt.Errorf("matrix: name is required")
	}
	if len(m.Rows) == 0 {
		return fmt.Errorf("matrix: at least one row is required")
	}
	if err := validatePath(m.EffectiveManifest(), "manifest"); err != nil {
		return err
	}
	if err := validatePath(m.EffectivePackage(), "package"); err != nil {
		return err
	}
	for _, ev := range m.Trigger.Events {
		if ev != EventPush && ev != EventPullRequest {
			return fmt.Errorf("matrix: trigger.events: unknown event %q (must be push or pull_request)", ev)
		}
	}

	seen := make(map[string]bool, len(m.Rows))
	for i, r := range m.Rows {
		if err := validateRow(i, r, seen); err != nil {
			return err
		}
		seen[r.EffectiveName()] = true
	}
	return nil
}

func validateRow(i int, r Row, seen map[string]bool) error {
	name := r.EffectiveName()
	if seen[name] {
		return fmt.Errorf("matrix: duplicate row name %q", name)
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("matrix: rows[%d]: invalid row name %q", i, name)
	}

	switch img, ok := r.ContainerImage(); {
	case ok && img == "":
		return fmt.Errorf("matrix: rows[%d] (%s).environment: container image is required", i, name)
	case !ok && r.Environment != "":
		return fmt.Errorf("matrix: rows[%d] (%s).environment: unknown mode %q (expected container:<image>)", i, name, r.Environment)
	case !ok && r.Python == "":
		return fmt.Errorf("matrix: rows[%d] (%s).python is required", i, name)
	}

	tags := make(map[string]bool, len(r.Optionals))
	for _, t := range r.Optionals {
		if strings.ContainsAny(t, " ,#") {
			return fmt.Errorf("matrix: rows[%d] (%s): invalid optional tag %q", i, name, t)
		}
		if tags[t] {
			return fmt.Errorf("matrix: rows[%d] (%s): duplicate optional tag %q", i, name, t)
		}
		tags[t] = true
	}
	return nil
}

// validatePath ensures a path is relative and does not escape the project.
func validatePath(p, label string) error {
	if filepath.IsAbs(p) {
		return fmt.Errorf("matrix: %s: absolute path is not allowed: %s", label, p)
	}
	cleaned := filepath.Clean(p)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return fmt.Errorf("matrix: %s: path must not escape the project (contains ..): %s", label, p)
	}
	return nil
}

// FilterRows returns rows matching --only / --skip flags, by effective name.
func FilterRows(rows []Row, only, skip []string) []Row {
	if len(only) == 0 && len(skip) == 0 {
		return rows
	}
	onlySet := toSet(only)
	skipSet := toSet(skip)

	var result []Row
	for _, r := range rows {
		name := r.EffectiveName()
		if len(onlySet) > 0 && !onlySet[name] {
			continue
		}
		if skipSet[name] {
			continue
		}
		result = append(result, r)
	}
	return result
}

// Tags returns every optional tag used by any row, in first-seen order.
func (m *Matrix) Tags() []string {
	seen := map[string]bool{}
	var out []string
	for _, r := range m.Rows {
		for _, t := range r.Optionals {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}
