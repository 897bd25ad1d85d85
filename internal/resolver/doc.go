// Package resolver turns a set of explicitly requested target names into an
// execution plan.
//
// Resolution happens in four steps: the DependsOn closure of the requested
// names is computed, targets triggered by closure members are folded in until
// a fixed point is reached, Before/After declarations are merged as ordering
// edges, and the result is sorted topologically with registry declaration
// order as the tie-breaker. The skip evaluator then decides, entry by entry,
// which targets are skipped. Any cycle aborts resolution with a
// *dag.CycleDetectedError before a plan exists.
package resolver
