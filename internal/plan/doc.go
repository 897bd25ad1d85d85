// Package plan holds the data produced by resolution and consumed by the
// execution engine and the reporter: the ordered execution plan and the
// per-target outcomes recorded while running it.
package plan
