package target

import "github.com/vk/buildgrid/internal/params"

// Invocation is the explicit context a body receives. It replaces any form of
// runtime capability lookup: everything a body may depend on is here.
type Invocation struct {
	Target string
	RunID  string

	// Partition is zero-based; PartitionCount is zero for unpartitioned targets.
	Partition      int
	PartitionCount int
	// Items is the slice of the target's item collection owned by this
	// partition (the whole collection when unpartitioned).
	Items []string

	Params *params.Bag
	// Invoked lists the targets explicitly requested on the command line.
	Invoked []string
}

// WasInvoked reports whether name was explicitly requested.
func (inv *Invocation) WasInvoked(name string) bool {
	for _, n := range inv.Invoked {
		if n == name {
			return true
		}
	}
	return false
}
