package config

import "github.com/hashicorp/hcl/v2"

// Model is the merged content of all build files.
type Model struct {
	Parameters []*Parameter
	Targets    []*Target
	// DefaultTarget is run when no target is requested.
	DefaultTarget string
	// BaseDir is the directory relative paths and globs are resolved from.
	BaseDir string
}

// Parameter declares a named build parameter.
type Parameter struct {
	Name        string
	Description string
	Default     *string
	// Env names an environment variable that feeds the parameter.
	Env string
}

// Condition is one unevaluated boolean expression with its source text.
type Condition struct {
	Expr   hcl.Expression
	Source string
}

// Partition configures partitioned execution of a target.
type Partition struct {
	Count int
	// Items is evaluated at run time to a list of strings.
	Items hcl.Expression
	// ItemsGlob are file patterns expanded at run time and appended to Items.
	ItemsGlob []string
}

// Action is one action block of a target.
type Action struct {
	Type string
	Body hcl.Body
}

// Target is the declared form of one target.
type Target struct {
	Name        string
	Description string

	DependsOn   []string
	Before      []string
	After       []string
	TriggeredBy []string

	WhenSkipped         string
	ProceedAfterFailure bool

	Requires []Condition
	OnlyWhen []Condition

	Produces []string
	Consumes []string

	Partition *Partition
	Actions   []*Action
}

// Target returns the declared target named name, or nil.
func (m *Model) Target(name string) *Target {
	for _, t := range m.Targets {
		if t.Name == name {
			return t
		}
	}
	return nil
}
