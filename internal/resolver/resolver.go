package resolver

import (
	"context"
	"fmt"
	"sort"

	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/dag"
	"github.com/vk/buildgrid/internal/plan"
	"github.com/vk/buildgrid/internal/registry"
)

// Options tune the skip evaluator.
type Options struct {
	// Exclude lists targets that are skipped no matter what.
	Exclude []string
	// SkipUnrequested skips every target that was not explicitly requested.
	SkipUnrequested bool
	// Satisfied is consulted for every entry that is not already skipped.
	Satisfied SatisfiedFunc
}

// Resolver resolves requested targets against a registry. It holds no state
// between calls, so resolving the same request twice yields equal plans.
type Resolver struct {
	reg  *registry.Registry
	opts Options
}

// New creates a resolver over reg.
func New(reg *registry.Registry, opts Options) *Resolver {
	return &Resolver{reg: reg, opts: opts}
}

// membership records why a target is part of the plan.
type membership struct {
	requested     bool
	dependency    bool
	triggered     bool
	orderingOnly  bool
	declaredIndex int
}

// Resolve computes the execution plan for requested.
func (r *Resolver) Resolve(ctx context.Context, requested []string) (*plan.Plan, error) {
	logger := ctxlog.FromContext(ctx)
	if len(requested) == 0 {
		return nil, fmt.Errorf("no targets requested")
	}
	requested = dedupe(requested)
	for _, name := range requested {
		if _, err := r.reg.Resolve(name); err != nil {
			return nil, err
		}
	}
	if err := r.validateReferences(); err != nil {
		return nil, err
	}

	members := make(map[string]*membership)
	for _, name := range requested {
		r.member(members, name).requested = true
	}

	if err := r.closeOverDependencies(members, requested); err != nil {
		return nil, err
	}
	if err := r.foldTriggers(ctx, members); err != nil {
		return nil, err
	}
	r.addOrderingNeighbors(members)
	logger.Debug("Target closure computed.", "count", len(members))

	g, err := r.buildGraph(members)
	if err != nil {
		return nil, err
	}
	order, err := g.TopologicalSort()
	if err != nil {
		return nil, err
	}

	p := &plan.Plan{Requested: requested}
	position := make(map[string]int, len(order))
	for i, name := range order {
		position[name] = i
	}
	for _, name := range order {
		def, _ := r.reg.Resolve(name)
		m := members[name]

		deps, _ := g.Dependencies(name)
		sort.SliceStable(deps, func(i, j int) bool { return position[deps[i]] < position[deps[j]] })
		var needs, triggers []string
		for _, dep := range deps {
			kind, _ := g.Edge(dep, name)
			switch {
			case kind.SuccessGated():
				needs = append(needs, dep)
			case kind == dag.Trigger:
				triggers = append(triggers, dep)
			}
		}

		p.Entries = append(p.Entries, plan.Entry{
			Target:        def,
			Waits:         deps,
			Needs:         needs,
			Triggers:      triggers,
			Requested:     m.requested,
			OrderingOnly:  m.orderingOnly,
			TriggeredOnly: m.triggered && !m.requested && !m.dependency,
		})
	}

	newEvaluator(r.opts).evaluate(ctx, p.Entries)
	logger.Debug("Execution plan resolved.", "order", p.Names(), "runnable", p.Runnable())
	return p, nil
}

func (r *Resolver) member(members map[string]*membership, name string) *membership {
	m, ok := members[name]
	if !ok {
		m = &membership{declaredIndex: r.reg.Index(name)}
		members[name] = m
	}
	return m
}

// validateReferences makes sure every edge in the registry names a known
// target, so a typo fails resolution instead of silently dropping an edge.
func (r *Resolver) validateReferences() error {
	for _, def := range r.reg.All() {
		for _, group := range [][]string{def.DependsOn, def.Before, def.After, def.TriggeredBy} {
			for _, ref := range group {
				if _, err := r.reg.Resolve(ref); err != nil {
					return &registry.UnknownTargetError{Name: ref, Referrer: def.Name}
				}
			}
		}
	}
	return nil
}

// closeOverDependencies adds everything reachable through DependsOn from roots.
func (r *Resolver) closeOverDependencies(members map[string]*membership, roots []string) error {
	queue := append([]string{}, roots...)
	seen := make(map[string]bool)
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true

		def, err := r.reg.Resolve(name)
		if err != nil {
			return err
		}
		for _, dep := range def.DependsOn {
			m := r.member(members, dep)
			m.dependency = true
			m.orderingOnly = false
			queue = append(queue, dep)
		}
	}
	return nil
}

// foldTriggers adds every target triggered by a closure member, together with
// its own dependencies, until nothing changes.
func (r *Resolver) foldTriggers(ctx context.Context, members map[string]*membership) error {
	logger := ctxlog.FromContext(ctx)
	for changed := true; changed; {
		changed = false
		for _, def := range r.reg.All() {
			if _, ok := members[def.Name]; ok {
				continue
			}
			for _, trigger := range def.TriggeredBy {
				if _, ok := members[trigger]; !ok {
					continue
				}
				logger.Debug("Target scheduled by trigger.", "target", def.Name, "trigger", trigger)
				r.member(members, def.Name).triggered = true
				if err := r.closeOverDependencies(members, []string{def.Name}); err != nil {
					return err
				}
				changed = true
				break
			}
		}
	}
	return nil
}

// addOrderingNeighbors includes targets related to a closure member only
// through Before/After. They are ordered but never executed.
func (r *Resolver) addOrderingNeighbors(members map[string]*membership) {
	closure := make(map[string]bool, len(members))
	for name := range members {
		closure[name] = true
	}
	for _, def := range r.reg.All() {
		if closure[def.Name] {
			for _, other := range append(append([]string{}, def.Before...), def.After...) {
				if !closure[other] {
					r.member(members, other).orderingOnly = true
				}
			}
			continue
		}
		for _, other := range append(append([]string{}, def.Before...), def.After...) {
			if closure[other] {
				r.member(members, def.Name).orderingOnly = true
				break
			}
		}
	}
}

func (r *Resolver) buildGraph(members map[string]*membership) (*dag.Graph, error) {
	names := make([]string, 0, len(members))
	for name := range members {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		return members[names[i]].declaredIndex < members[names[j]].declaredIndex
	})

	g := dag.New()
	for _, name := range names {
		g.AddNode(name)
	}

	link := func(from, to string, kind dag.EdgeKind) error {
		if !g.HasNode(from) || !g.HasNode(to) {
			return nil
		}
		return g.AddEdge(from, to, kind)
	}
	for _, name := range names {
		def, _ := r.reg.Resolve(name)
		for _, dep := range def.DependsOn {
			if err := link(dep, name, dag.Hard); err != nil {
				return nil, err
			}
		}
		for _, trigger := range def.TriggeredBy {
			if err := link(trigger, name, dag.Trigger); err != nil {
				return nil, err
			}
		}
		for _, before := range def.Before {
			if err := link(name, before, dag.Order); err != nil {
				return nil, err
			}
		}
		for _, after := range def.After {
			if err := link(after, name, dag.Order); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

func dedupe(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !seen[n] {
			seen[n] = true
			out = append(out, n)
		}
	}
	return out
}
