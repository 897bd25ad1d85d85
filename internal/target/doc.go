// Package target defines the declarative record that describes one unit of
// build work, together with the explicit invocation context handed to its
// body when the engine runs it.
//
// Definitions are built once at startup (from HCL build files or directly in
// Go) and are never mutated afterwards. Everything the engine needs to order,
// gate, partition and execute a target is captured here; nothing is looked up
// lazily at run time.
package target
