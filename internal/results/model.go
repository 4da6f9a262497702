package results

import "time"

// Status is the outcome of a row or phase.
type Status string

const (
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// File represents results.yaml.
type File struct {
	Version     int             `yaml:"version"`
	RunID       string          `yaml:"run_id"`
	Name        string          `yaml:"name"`
	GeneratedAt string          `yaml:"generated_at"`
	ToolVersion string          `yaml:"tool_version"`
	Source      Source          `yaml:"source"`
	Duration    time.Duration   `yaml:"duration"`
	Archive     string          `yaml:"archive,omitempty"`
	Rows        map[string]*Row `yaml:"rows"`
	Order       []string        `yaml:"order"`
}

// Source identifies the checked-out tree under test.
type Source struct {
	Branch string `yaml:"branch,omitempty"`
	Commit string `yaml:"commit,omitempty"`
	Dirty  bool   `yaml:"dirty,omitempty"`
}

// Row records the outcome of one matrix row.
type Row struct {
	Status      Status        `yaml:"status"`
	Environment string        `yaml:"environment"`
	Optionals   []string      `yaml:"optionals,omitempty"`
	FailedPhase string        `yaml:"failed_phase,omitempty"`
	ErrorKind   string        `yaml:"error_kind,omitempty"`
	Error       string        `yaml:"error,omitempty"`
	Duration    time.Duration `yaml:"duration"`
	LogPath     string        `yaml:"log_path,omitempty"`
	Phases      []Phase       `yaml:"phases,omitempty"`
}

// Phase records the outcome of one phase of a row.
type Phase struct {
	Name     string        `yaml:"name"`
	Status   Status        `yaml:"status"`
	Duration time.Duration `yaml:"duration"`
}

// Failed returns the names of failed rows in run order.
func (f *File) Failed() []string {
	var out []string
	for _, name := range f.Order {
		if r := f.Rows[name]; r != nil && r.Status == StatusFailed {
			out = append(out, name)
		}
	}
	return out
}

// Passed reports whether every row passed.
func (f *File) Passed() bool {
	return len(f.Failed()) == 0
}
