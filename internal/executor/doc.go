// Package executor runs an execution plan.
//
// A single dispatcher goroutine owns every piece of mutable state: the status
// of each entry, the count of unfinished predecessors and the ready queue.
// Workers only receive an entry, run it and hand back an outcome, so no locks
// are needed around the outcome list. The ready queue is ordered by plan
// position, which makes a one-worker run follow the plan order exactly.
package executor
