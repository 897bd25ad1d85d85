// Package dag is a small directed graph used to order build targets. Nodes are
// target names; an edge from A to B means B may not start before A has
// terminated. Edges carry a kind so callers can tell hard requirements apart
// from pure ordering constraints.
//
// Topological order is deterministic: among nodes that are ready at the same
// time, the one added to the graph first wins.
package dag
