package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/flatsurf/flatci/internal/features"
	"github.com/flatsurf/flatci/internal/manifest"
	"github.com/flatsurf/flatci/internal/matrix"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	errStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Underline(true)
)

// --- inputModel: bubbletea model for text input with validation ---

type inputModel struct {
	textInput textinput.Model
	title     string
	validate  func(string) error
	errMsg    string
	done      bool
	aborted   bool
}

func (m inputModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m inputModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			val := m.textInput.Value()
			if m.validate != nil {
				if err := m.validate(val); err != nil {
					m.errMsg = err.Error()
					return m, nil
				}
			}
			m.done = true
			return m, tea.Quit
		}
	}
	m.errMsg = ""
	var cmd tea.Cmd
	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m inputModel) View() string {
	if m.done {
		return ""
	}
	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title) + "\n")
	b.WriteString(m.textInput.View() + "\n")
	if m.errMsg != "" {
		b.WriteString(errStyle.Render(m.errMsg) + "\n")
	}
	return b.String()
}

// --- confirmModel: bubbletea model for yes/no confirmation ---

type confirmModel struct {
	title   string
	value   bool
	done    bool
	aborted bool
}

func (m confirmModel) Init() tea.Cmd {
	return nil
}

func (m confirmModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "ctrl+c", "esc":
			m.aborted = true
			return m, tea.Quit
		case "enter":
			m.done = true
			return m, tea.Quit
		case "y", "Y":
			m.value = true
			m.done = true
			return m, tea.Quit
		case "n", "N":
			m.value = false
			m.done = true
			return m, tea.Quit
		case "left", "right", "tab", "h", "l":
			m.value = !m.value
		}
	}
	return m, nil
}

func (m confirmModel) View() string {
	if m.done {
		return ""
	}
	yes := " Yes "
	no := " No "
	if m.value {
		yes = selectedStyle.Render(" Yes ")
	} else {
		no = selectedStyle.Render(" No ")
	}
	return fmt.Sprintf("%s %s / %s\n", titleStyle.Render(m.title), yes, no)
}

// --- prompt helpers ---

func promptInput(title, placeholder string, validate func(string) error) (string, error) {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Focus()

	m := inputModel{
		textInput: ti,
		title:     title,
		validate:  validate,
	}

	result, err := tea.NewProgram(m).Run()
	if err != nil {
		return "", err
	}
	rm := result.(inputModel)
	if rm.aborted {
		return "", fmt.Errorf("user aborted")
	}
	return rm.textInput.Value(), nil
}

func promptConfirm(title string) (bool, error) {
	m := confirmModel{
		title: title,
	}

	result, err := tea.NewProgram(m).Run()
	if err != nil {
		return false, err
	}
	rm := result.(confirmModel)
	if rm.aborted {
		return false, fmt.Errorf("user aborted")
	}
	return rm.value, nil
}

var versionRe = regexp.MustCompile(`^[0-9]+(\.[0-9]+)*$`)

// versionValidator accepts dotted version numbers; empty input is accepted
// only when optional is set.
func versionValidator(optional bool) func(string) error {
	return func(s string) error {
		s = strings.TrimSpace(s)
		if s == "" {
			if optional {
				return nil
			}
			return fmt.Errorf("version is required")
		}
		if !versionRe.MatchString(s) {
			return fmt.Errorf("invalid version %q", s)
		}
		return nil
	}
}

// tagsValidator rejects tags that no manifest entry carries. With no
// manifest tags known, any tag is accepted.
func tagsValidator(available []string) func(string) error {
	known := manifest.NewTagSet(available...)
	return func(s string) error {
		if len(known) == 0 {
			return nil
		}
		for _, t := range manifest.ParseTags(s).Sorted() {
			if !known.Has(t) {
				return fmt.Errorf("tag %q does not appear in the manifest (have %s)", t, known)
			}
		}
		return nil
	}
}

// interactiveRows runs an interactive loop using bubbletea to collect
// matrix rows from the user.
func interactiveRows(available []string) ([]matrix.Row, error) {
	var rows []matrix.Row
	seen := map[string]bool{}
	placeholder := strings.Join(available, ",")
	if placeholder == "" {
		placeholder = "sage,flipper"
	}

	for {
		python, err := promptInput("Python version", "3.9", versionValidator(false))
		if err != nil {
			return nil, err
		}
		base, err := promptInput("Base library version (empty for unpinned)", "9.4", versionValidator(true))
		if err != nil {
			return nil, err
		}
		tags, err := promptInput("Optional features (comma separated)", placeholder, tagsValidator(available))
		if err != nil {
			return nil, err
		}

		row := newRow(python, base, tags)
		if seen[row.EffectiveName()] {
			fmt.Printf("  row %s already exists; skipped\n", row.EffectiveName())
		} else {
			seen[row.EffectiveName()] = true
			rows = append(rows, row)
			fmt.Printf("  → row %s: %s\n", row.EffectiveName(), describeTags(row.Optionals))
		}

		more, err := promptConfirm("Add another row?")
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
	}
	return rows, nil
}

// newRow builds a row keeping the tag order as typed.
func newRow(python, base, tags string) matrix.Row {
	row := matrix.Row{
		Python:      strings.TrimSpace(python),
		BaseVersion: strings.TrimSpace(base),
	}
	seen := map[string]bool{}
	for _, t := range strings.FieldsFunc(tags, func(r rune) bool { return r == ',' || r == ' ' }) {
		if !seen[t] {
			seen[t] = true
			row.Optionals = append(row.Optionals, t)
		}
	}
	return row
}

func describeTags(tags []string) string {
	if len(tags) == 0 {
		return "no optional features"
	}
	desc := strings.Join(tags, ", ")
	if unknown := features.Unknown(tags); len(unknown) > 0 {
		desc += fmt.Sprintf(" (unknown features: %s)", strings.Join(unknown, ", "))
	}
	return desc
}

// buildMatrix assembles a Matrix and serializes it to YAML.
func buildMatrix(name string, rows []matrix.Row) ([]byte, error) {
	m := matrix.Matrix{
		Version: 1,
		Name:    name,
		Rows:    rows,
	}
	if err := matrix.Validate(&m); err != nil {
		return nil, err
	}
	return yaml.Marshal(&m)
}
