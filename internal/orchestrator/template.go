package orchestrator

import "strings"

// Vars are the values substituted into phase templates.
type Vars struct {
	Optionals   string
	Workers     string
	Python      string
	BaseVersion string
	Package     string
}

// Expand substitutes {optionals}, {workers}, {python}, {base_version} and
// {package} in every argument. Unknown placeholders are left alone.
func Expand(args []string, v Vars) []string {
	r := strings.NewReplacer(
		"{optionals}", v.Optionals,
		"{workers}", v.Workers,
		"{python}", v.Python,
		"{base_version}", v.BaseVersion,
		"{package}", v.Package,
	)
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = r.Replace(a)
	}
	return out
}
