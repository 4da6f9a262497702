package matrix

import (
	"strings"

	"github.com/flatsurf/flatci/internal/manifest"
)

// Matrix represents the top-level flatci.yaml file.
type Matrix struct {
	Version     int               `yaml:"version"`
	Name        string            `yaml:"name"`
	Manifest    string            `yaml:"manifest,omitempty"`
	Package     string            `yaml:"package,omitempty"`
	BaseLibrary string            `yaml:"base_library,omitempty"`
	Trigger     Trigger           `yaml:"trigger,omitempty"`
	Env         map[string]string `yaml:"env,omitempty"`
	Phases      Phases            `yaml:"phases,omitempty"`
	Rows        []Row             `yaml:"rows"`
}

// Trigger lists the CI events and target branches that start a run.
type Trigger struct {
	Events   []string `yaml:"events,omitempty"`
	Branches []string `yaml:"branches,omitempty"`
}

// Phases holds the argv templates of the install and test phases.
// Empty templates fall back to the defaults.
type Phases struct {
	Install []string `yaml:"install,omitempty"`
	Doctest []string `yaml:"doctest,omitempty"`
	Unit    []string `yaml:"unit,omitempty"`
}

// Row is one combination of interpreter, base library and feature tags.
type Row struct {
	Name        string   `yaml:"name,omitempty"`
	Python      string   `yaml:"python,omitempty"`
	BaseVersion string   `yaml:"base_version,omitempty"`
	Optionals   []string `yaml:"optionals,omitempty"`
	Environment string   `yaml:"environment,omitempty"`
}

const (
	DefaultManifest    = "environment.yml"
	DefaultPackage     = "."
	DefaultBaseLibrary = "sage"

	EventPush        = "push"
	EventPullRequest = "pull_request"

	containerPrefix = "container:"
)

var (
	defaultInstall = []string{"pip", "install", "--verbose", "--no-index", "--no-build-isolation", "--no-deps", "{package}"}
	defaultDoctest = []string{"sage", "-tp", "--force-lib", "--long", "--optional={optionals}", "flatsurf", "doc"}
	defaultUnit    = []string{"pytest", "-n", "{workers}", "test/"}
)

// EffectiveManifest returns the manifest path, defaulting to environment.yml.
func (m *Matrix) EffectiveManifest() string {
	if m.Manifest != "" {
		return m.Manifest
	}
	return DefaultManifest
}

// EffectivePackage returns the package directory, defaulting to ".".
func (m *Matrix) EffectivePackage() string {
	if m.Package != "" {
		return m.Package
	}
	return DefaultPackage
}

// EffectiveBaseLibrary returns the pinned base library, defaulting to sage.
func (m *Matrix) EffectiveBaseLibrary() string {
	if m.BaseLibrary != "" {
		return m.BaseLibrary
	}
	return DefaultBaseLibrary
}

// EffectiveTrigger fills in the default events and branches.
func (m *Matrix) EffectiveTrigger() Trigger {
	t := m.Trigger
	if len(t.Events) == 0 {
		t.Events = []string{EventPush, EventPullRequest}
	}
	if len(t.Branches) == 0 {
		t.Branches = []string{"master"}
	}
	return t
}

// InstallCmd returns the install template.
func (p Phases) InstallCmd() []string { return orDefault(p.Install, defaultInstall) }

// DoctestCmd returns the documentation test template.
func (p Phases) DoctestCmd() []string { return orDefault(p.Doctest, defaultDoctest) }

// UnitCmd returns the unit test template.
func (p Phases) UnitCmd() []string { return orDefault(p.Unit, defaultUnit) }

func orDefault(v, d []string) []string {
	if len(v) > 0 {
		return v
	}
	return append([]string(nil), d...)
}

// EffectiveName returns the row name, deriving one from its parameters when unset.
func (r *Row) EffectiveName() string {
	if r.Name != "" {
		return r.Name
	}
	if img, ok := r.ContainerImage(); ok {
		name := strings.NewReplacer("/", "-", ":", "-", "@", "-").Replace(img)
		return "container-" + name
	}
	parts := []string{}
	if r.Python != "" {
		parts = append(parts, "py"+r.Python)
	}
	if r.BaseVersion != "" {
		parts = append(parts, "base"+r.BaseVersion)
	}
	if len(parts) == 0 {
		return "default"
	}
	return strings.Join(parts, "-")
}

// ContainerImage returns the image of an alternate container environment.
func (r *Row) ContainerImage() (string, bool) {
	img, ok := strings.CutPrefix(r.Environment, containerPrefix)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(img), true
}

// Tags returns the row's active feature tag set.
func (r *Row) Tags() manifest.TagSet {
	return manifest.NewTagSet(r.Optionals...)
}

// OptionalsArg joins the row's tags with commas, keeping row order.
func (r *Row) OptionalsArg() string {
	return strings.Join(r.Optionals, ",")
}
