package plan

import "github.com/vk/buildgrid/internal/target"

// Entry is one target in an execution plan.
type Entry struct {
	Target *target.Definition

	// Skip is the effective skip decision made while planning.
	Skip       bool
	SkipReason string

	// Waits lists the plan entries that must terminate before this entry may
	// start, in plan order. It covers DependsOn, TriggeredBy and Before/After.
	Waits []string
	// Needs is the subset of Waits whose failure blocks this entry.
	Needs []string
	// Triggers is the subset of Waits linked only through TriggeredBy. A
	// triggered-only entry runs when at least one of them succeeded.
	Triggers []string

	// OrderingOnly marks entries that are in the plan only because of a
	// Before/After relation with a closure member.
	OrderingOnly bool
	// TriggeredOnly marks entries that joined the closure only through
	// TriggeredBy.
	TriggeredOnly bool
	// Requested marks entries named explicitly by the caller.
	Requested bool
}

// Name returns the target name of the entry.
func (e Entry) Name() string {
	return e.Target.Name
}

// Plan is the ordered, immutable result of resolving a set of requested
// targets. Entries are in a valid topological order.
type Plan struct {
	Requested []string
	Entries   []Entry
}

// Names returns the entry names in plan order.
func (p *Plan) Names() []string {
	out := make([]string, len(p.Entries))
	for i, e := range p.Entries {
		out[i] = e.Name()
	}
	return out
}

// Index returns the plan position of name, or -1.
func (p *Plan) Index(name string) int {
	for i, e := range p.Entries {
		if e.Name() == name {
			return i
		}
	}
	return -1
}

// Entry returns the entry for name.
func (p *Plan) Entry(name string) (Entry, bool) {
	if i := p.Index(name); i >= 0 {
		return p.Entries[i], true
	}
	return Entry{}, false
}

// Runnable returns the number of entries that are not skipped.
func (p *Plan) Runnable() int {
	n := 0
	for _, e := range p.Entries {
		if !e.Skip {
			n++
		}
	}
	return n
}
