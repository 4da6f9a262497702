package manifest

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

var optionalTag = regexp.MustCompile(`#\s*optional:\s*([^\s#]+)`)

// TagOf returns the optional feature tag of a manifest line, or "" when the
// line carries none.
func TagOf(line string) string {
	m := optionalTag.FindStringSubmatch(line)
	if m == nil {
		return ""
	}
	return m[1]
}

// Load reads and parses a manifest file.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // manifest path comes from the matrix file
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	return Parse(data)
}

// Parse parses manifest content. A YAML mapping with a "dependencies" list is
// read as a conda environment file; anything else is read as a plain list
// with one specifier per line.
func Parse(data []byte) (*Manifest, error) {
	lines := splitLines(string(data))

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err == nil {
		if root := documentMapping(&doc); root != nil {
			if deps := mappingValue(root, "dependencies"); deps != nil {
				m, err := parseEnvironment(root, deps, lines)
				if err != nil {
					return nil, err
				}
				m.Source = data
				return m, nil
			}
		}
	}

	m, err := parsePlain(lines)
	if err != nil {
		return nil, err
	}
	m.Source = data
	return m, nil
}

func parseEnvironment(root, deps *yaml.Node, lines []string) (*Manifest, error) {
	if deps.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("manifest: line %d: dependencies must be a list", deps.Line)
	}

	m := &Manifest{}
	if n := mappingValue(root, "name"); n != nil {
		m.Name = n.Value
	}
	if ch := mappingValue(root, "channels"); ch != nil {
		for _, c := range ch.Content {
			m.Channels = append(m.Channels, c.Value)
		}
	}

	for _, item := range deps.Content {
		switch item.Kind {
		case yaml.ScalarNode:
			m.Entries = append(m.Entries, entryAt(lines, item.Line, item.Value, false))
		case yaml.MappingNode:
			pip, err := parsePipBlock(item, lines)
			if err != nil {
				return nil, err
			}
			m.Entries = append(m.Entries, pip...)
		default:
			return nil, fmt.Errorf("manifest: line %d: unsupported dependency entry", item.Line)
		}
	}
	return m, nil
}

// parsePipBlock handles both "- pip: [a, b]" and a block list of pip packages.
func parsePipBlock(item *yaml.Node, lines []string) ([]Entry, error) {
	var out []Entry
	for i := 0; i+1 < len(item.Content); i += 2 {
		key, val := item.Content[i], item.Content[i+1]
		if key.Value != "pip" {
			return nil, fmt.Errorf("manifest: line %d: unsupported dependency section %q", key.Line, key.Value)
		}
		if val.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("manifest: line %d: pip must be a list", val.Line)
		}

		if val.Style&yaml.FlowStyle != 0 || val.Line == key.Line {
			specs := make([]string, 0, len(val.Content))
			for _, p := range val.Content {
				specs = append(specs, p.Value)
			}
			out = append(out, entryAt(lines, key.Line, strings.Join(specs, ", "), true))
			continue
		}

		// Filtering is line based: a tag on the block header would drop the
		// header and orphan its children.
		if tag := TagOf(lineAt(lines, key.Line)); tag != "" {
			return nil, fmt.Errorf("manifest: line %d: optional tag %q on a pip block header; tag each package instead", key.Line, tag)
		}
		for _, p := range val.Content {
			out = append(out, entryAt(lines, p.Line, p.Value, true))
		}
	}
	return out, nil
}

func parsePlain(lines []string) (*Manifest, error) {
	m := &Manifest{}
	for i, raw := range lines {
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		if idx := strings.Index(text, "#"); idx >= 0 {
			text = strings.TrimSpace(text[:idx])
		}
		text = strings.TrimSpace(strings.TrimPrefix(text, "- "))

		pip := false
		if rest, ok := strings.CutPrefix(text, "pip:"); ok {
			pip = true
			rest = strings.TrimSpace(rest)
			if !strings.HasPrefix(rest, "[") || !strings.HasSuffix(rest, "]") {
				return nil, fmt.Errorf("manifest: line %d: pip entry must have the form pip: [<package>]", i+1)
			}
			text = strings.TrimSpace(rest[1 : len(rest)-1])
		}
		if text == "" {
			return nil, fmt.Errorf("manifest: line %d: empty dependency specifier", i+1)
		}

		e := entryAt(lines, i+1, text, pip)
		m.Entries = append(m.Entries, e)
	}
	return m, nil
}

func entryAt(lines []string, line int, spec string, pip bool) Entry {
	raw := lineAt(lines, line)
	return Entry{
		Line:     line,
		Raw:      raw,
		Spec:     spec,
		Pip:      pip,
		Optional: TagOf(raw),
	}
}

func lineAt(lines []string, line int) string {
	if line < 1 || line > len(lines) {
		return ""
	}
	return lines[line-1]
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

func documentMapping(doc *yaml.Node) *yaml.Node {
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil
	}
	if root := doc.Content[0]; root.Kind == yaml.MappingNode {
		return root
	}
	return nil
}

func mappingValue(m *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return m.Content[i+1]
		}
	}
	return nil
}

// Tags returns every feature tag referenced by the entries, sorted.
func Tags(entries []Entry) []string {
	set := make(TagSet)
	for _, e := range entries {
		if e.Optional != "" {
			set[e.Optional] = struct{}{}
		}
	}
	return set.Sorted()
}
