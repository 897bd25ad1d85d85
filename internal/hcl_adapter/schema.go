package hcl_adapter

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Parameters    []*Parameter `hcl:"parameter,block"`
	Targets       []*Target    `hcl:"target,block"`
	DefaultTarget *string      `hcl:"default_target,optional"`
	Remain        hcl.Body     `hcl:",remain"`
}

// Parameter is the HCL schema of a `parameter "name" {}` block.
type Parameter struct {
	Name        string  `hcl:"name,label"`
	Description string  `hcl:"description,optional"`
	Default     *string `hcl:"default,optional"`
	Env         string  `hcl:"env,optional"`
}

// Target is the HCL schema of a `target "Name" {}` block.
type Target struct {
	Name        string   `hcl:"name,label"`
	Description string   `hcl:"description,optional"`
	DependsOn   []string `hcl:"depends_on,optional"`
	Before      []string `hcl:"before,optional"`
	After       []string `hcl:"after,optional"`
	TriggeredBy []string `hcl:"triggered_by,optional"`

	WhenSkipped         string `hcl:"when_skipped,optional"`
	ProceedAfterFailure bool   `hcl:"proceed_after_failure,optional"`

	Requires hcl.Expression `hcl:"requires,optional"`
	OnlyWhen hcl.Expression `hcl:"only_when,optional"`

	Produces []string `hcl:"produces,optional"`
	Consumes []string `hcl:"consumes,optional"`

	Partition *Partition `hcl:"partition,block"`
	Actions   []*Action  `hcl:"action,block"`
}

// Partition is the HCL schema of a target's `partition {}` block.
type Partition struct {
	Count     int            `hcl:"count"`
	Items     hcl.Expression `hcl:"items,optional"`
	ItemsGlob []string       `hcl:"items_glob,optional"`
}

// Action is the HCL schema of an `action "type" {}` block. Its arguments are
// kept raw and decoded by the action handler at run time.
type Action struct {
	Type string   `hcl:"type,label"`
	Body hcl.Body `hcl:",remain"`
}
