package dag

import "sync"

// EdgeKind classifies why an edge exists.
type EdgeKind int

const (
	// Order edges come from Before/After declarations. They constrain start
	// order only.
	Order EdgeKind = iota
	// Trigger edges link a triggering target to the target it triggers.
	Trigger
	// Hard edges come from DependsOn.
	Hard
)

func (k EdgeKind) String() string {
	switch k {
	case Hard:
		return "depends_on"
	case Trigger:
		return "triggered_by"
	default:
		return "order"
	}
}

// SuccessGated reports whether a failure on the source end of the edge
// should block the destination. A failed trigger does not block; it just
// never triggers.
func (k EdgeKind) SuccessGated() bool {
	return k == Hard
}

// Graph is a collection of nodes and their dependencies.
// All operations on the graph are concurrency-safe.
type Graph struct {
	// mutex protects the nodes map during concurrent access.
	mutex sync.RWMutex
	// nodes stores all nodes in the graph, keyed by their unique ID.
	nodes map[string]*node
	// order remembers insertion order; it is the tie-breaker for sorting.
	order []string
}

// node represents a single vertex in the graph. It is un-exported to
// enforce interaction with the graph via the public API (using string IDs),
// not by direct struct manipulation.
type node struct {
	id   string
	rank int
	// deps holds the predecessors of this node and the kind of each edge.
	deps map[string]EdgeKind
	// dependents holds the successors of this node and the kind of each edge.
	dependents map[string]EdgeKind
}
