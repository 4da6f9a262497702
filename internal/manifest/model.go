package manifest

import (
	"sort"
	"strings"
)

// Manifest is a parsed dependency manifest.
type Manifest struct {
	Name     string   // conda environment name, empty for plain lists
	Channels []string // conda channels, empty for plain lists
	Entries  []Entry
	Source   []byte // verbatim file content
}

// Entry is a single dependency of the manifest.
type Entry struct {
	Line     int    // 1-based line number in Source
	Raw      string // verbatim line, without the line terminator
	Spec     string // package name with optional version constraint
	Pip      bool   // installed through pip rather than conda
	Optional string // feature tag; empty when always required
}

// IsOptional reports whether the entry carries a feature tag.
func (e Entry) IsOptional() bool {
	return e.Optional != ""
}

// TagSet is a set of active feature tags.
type TagSet map[string]struct{}

// NewTagSet builds a set from the given tags, ignoring empty strings.
func NewTagSet(tags ...string) TagSet {
	s := make(TagSet, len(tags))
	for _, t := range tags {
		if t = strings.TrimSpace(t); t != "" {
			s[t] = struct{}{}
		}
	}
	return s
}

// ParseTags parses a comma and/or whitespace separated tag list such as
// "sage,flipper eantic".
func ParseTags(s string) TagSet {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	return NewTagSet(fields...)
}

// Has reports whether tag is in the set.
func (s TagSet) Has(tag string) bool {
	_, ok := s[tag]
	return ok
}

// Sorted returns the tags in lexical order.
func (s TagSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// String joins the sorted tags with commas.
func (s TagSet) String() string {
	return strings.Join(s.Sorted(), ",")
}
