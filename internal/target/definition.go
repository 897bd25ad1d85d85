package target

import (
	"context"
	"fmt"
	"strings"
)

// DependencyBehavior governs what happens to a target when every one of its
// DependsOn entries was skipped.
type DependencyBehavior int

const (
	// Execute runs the target regardless of skipped dependencies.
	Execute DependencyBehavior = iota
	// Skip skips the target when all of its dependencies were skipped.
	Skip
)

// String implements fmt.Stringer.
func (b DependencyBehavior) String() string {
	switch b {
	case Skip:
		return "skip"
	default:
		return "execute"
	}
}

// ParseDependencyBehavior parses the textual form used in build files. An
// empty string maps to Execute.
func ParseDependencyBehavior(s string) (DependencyBehavior, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "execute":
		return Execute, nil
	case "skip":
		return Skip, nil
	default:
		return Execute, fmt.Errorf("unknown dependency behavior %q: must be 'execute' or 'skip'", s)
	}
}

// Condition is a zero-argument boolean predicate. A non-nil error counts as a
// false result; the error is kept for diagnostics.
type Condition struct {
	Description string
	Check       func() (bool, error)
}

// Holds evaluates the condition.
func (c Condition) Holds() (bool, error) {
	if c.Check == nil {
		return true, nil
	}
	return c.Check()
}

// Body is the executable action of a target.
type Body func(ctx context.Context, inv *Invocation) error

// ItemsFunc supplies the item collection that is split across partitions.
// It must return the same sequence for every call within one run.
type ItemsFunc func(ctx context.Context) ([]string, error)

// Definition is the immutable description of one target.
type Definition struct {
	Name        string
	Description string

	// DependsOn are hard, success-gated prerequisites.
	DependsOn []string
	// Before and After are weak ordering edges. They never pull a target
	// into the closure on their own.
	Before []string
	After  []string
	// TriggeredBy schedules this target whenever any listed target is part
	// of the closure.
	TriggeredBy []string

	WhenSkipped DependencyBehavior

	// Requires are evaluated right before the body runs.
	Requires []Condition
	// OnlyWhen are evaluated while planning; a false condition skips the target.
	OnlyWhen []Condition

	// Produces and Consumes are artifact globs. They are recorded, never checked.
	Produces []string
	Consumes []string

	// PartitionCount of zero means the body runs once.
	PartitionCount int
	Items          ItemsFunc

	ProceedAfterFailure bool

	Body Body
}

// Partitioned reports whether the body runs once per partition.
func (d *Definition) Partitioned() bool {
	return d.PartitionCount > 0
}

// Validate performs the structural checks that do not need the rest of the
// registry: a name, a positive partition count and no self references.
func (d *Definition) Validate() error {
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("target name cannot be empty")
	}
	if d.PartitionCount < 0 {
		return fmt.Errorf("target '%s': partition count must be positive, got %d", d.Name, d.PartitionCount)
	}
	for _, group := range [][]string{d.DependsOn, d.Before, d.After, d.TriggeredBy} {
		for _, ref := range group {
			if ref == d.Name {
				return fmt.Errorf("target '%s' references itself", d.Name)
			}
		}
	}
	return nil
}
