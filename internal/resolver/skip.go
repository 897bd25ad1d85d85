package resolver

import (
	"context"
	"fmt"

	"github.com/vk/buildgrid/internal/ctxlog"
	"github.com/vk/buildgrid/internal/plan"
	"github.com/vk/buildgrid/internal/target"
)

// SatisfiedFunc reports whether a target is already satisfied and can be
// skipped. The returned reason ends up in the plan.
type SatisfiedFunc func(def *target.Definition) (satisfied bool, reason string)

// Skip reasons recorded in the plan.
const (
	ReasonOrderingOnly    = "not requested (ordering only)"
	ReasonExcluded        = "excluded"
	ReasonNotRequested    = "not requested"
	ReasonDepsSkipped     = "all dependencies skipped"
	ReasonTriggersSkipped = "all triggers skipped"
	ReasonNoDependents    = "no remaining dependents"
)

type evaluator struct {
	exclude         map[string]bool
	skipUnrequested bool
	satisfied       SatisfiedFunc
}

func newEvaluator(opts Options) *evaluator {
	e := &evaluator{
		exclude:         make(map[string]bool, len(opts.Exclude)),
		skipUnrequested: opts.SkipUnrequested,
		satisfied:       opts.Satisfied,
	}
	for _, name := range opts.Exclude {
		e.exclude[name] = true
	}
	return e
}

// evaluate marks entries as skipped in place. Entries must be in topological
// order. The forward pass and the liveness pass repeat until no entry
// changes, since each can enable the other.
func (e *evaluator) evaluate(ctx context.Context, entries []plan.Entry) {
	logger := ctxlog.FromContext(ctx)
	index := make(map[string]int, len(entries))
	for i := range entries {
		index[entries[i].Name()] = i
	}

	skip := func(i int, reason string) {
		entries[i].Skip = true
		entries[i].SkipReason = reason
		logger.Debug("Target will be skipped.", "target", entries[i].Name(), "reason", reason)
	}

	for i := range entries {
		if reason, ok := e.staticReason(&entries[i]); ok {
			skip(i, reason)
		}
	}

	for changed := true; changed; {
		changed = false
		for i := range entries {
			if entries[i].Skip {
				continue
			}
			if reason, ok := e.propagatedReason(&entries[i], entries, index); ok {
				skip(i, reason)
				changed = true
			}
		}
		live := liveSet(entries, index)
		for i := range entries {
			if entries[i].Skip || live[i] {
				continue
			}
			reason := ReasonNoDependents
			if entries[i].TriggeredOnly {
				reason = ReasonTriggersSkipped
			}
			skip(i, reason)
			changed = true
		}
	}
}

// staticReason covers the rules that depend only on the entry itself.
func (e *evaluator) staticReason(entry *plan.Entry) (string, bool) {
	def := entry.Target
	switch {
	case entry.OrderingOnly:
		return ReasonOrderingOnly, true
	case e.exclude[def.Name]:
		return ReasonExcluded, true
	case e.skipUnrequested && !entry.Requested:
		return ReasonNotRequested, true
	}
	for _, cond := range def.OnlyWhen {
		ok, err := cond.Holds()
		if err != nil {
			return fmt.Sprintf("condition '%s' failed: %v", cond.Description, err), true
		}
		if !ok {
			return fmt.Sprintf("condition '%s' is false", cond.Description), true
		}
	}
	if e.satisfied != nil {
		if ok, reason := e.satisfied(def); ok {
			if reason == "" {
				reason = "already satisfied"
			}
			return reason, true
		}
	}
	return "", false
}

// propagatedReason covers the rules that look at other entries.
func (e *evaluator) propagatedReason(entry *plan.Entry, entries []plan.Entry, index map[string]int) (string, bool) {
	def := entry.Target
	if def.WhenSkipped == target.Skip && len(def.DependsOn) > 0 && allSkipped(def.DependsOn, entries, index) {
		return ReasonDepsSkipped, true
	}
	if entry.TriggeredOnly {
		var triggers []string
		for _, name := range def.TriggeredBy {
			if _, ok := index[name]; ok {
				triggers = append(triggers, name)
			}
		}
		if len(triggers) > 0 && allSkipped(triggers, entries, index) {
			return ReasonTriggersSkipped, true
		}
	}
	return "", false
}

func allSkipped(names []string, entries []plan.Entry, index map[string]int) bool {
	for _, name := range names {
		i, ok := index[name]
		if !ok || !entries[i].Skip {
			return false
		}
	}
	return true
}

// liveSet marks the non-skipped entries reachable from a non-skipped
// requested entry through DependsOn, plus triggered-only entries with a live
// trigger and everything those depend on. Triggered-only entries never keep
// their own triggers alive.
func liveSet(entries []plan.Entry, index map[string]int) []bool {
	live := make([]bool, len(entries))
	var queue []int
	mark := func(i int) {
		if !live[i] && !entries[i].Skip {
			live[i] = true
			queue = append(queue, i)
		}
	}
	for i := range entries {
		if entries[i].Requested {
			mark(i)
		}
	}
	for len(queue) > 0 {
		for len(queue) > 0 {
			i := queue[0]
			queue = queue[1:]
			for _, dep := range entries[i].Target.DependsOn {
				if j, ok := index[dep]; ok {
					mark(j)
				}
			}
		}
		for i := range entries {
			if live[i] || !entries[i].TriggeredOnly {
				continue
			}
			for _, trigger := range entries[i].Target.TriggeredBy {
				if j, ok := index[trigger]; ok && live[j] {
					mark(i)
					break
				}
			}
		}
	}
	return live
}
