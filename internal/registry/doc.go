// Package registry holds the full set of target definitions known to a build,
// keyed by name and remembering declaration order.
//
// The registry is populated once at startup and is read-only afterwards, so
// any number of workers may read it concurrently. It validates nothing beyond
// name uniqueness; graph validity is the resolver's job.
package registry
