package dag

import (
	"fmt"
	"strings"
)

// CycleDetectedError reports a cycle. Path starts and ends with the same node,
// listing every edge of the cycle in order.
type CycleDetectedError struct {
	Path []string
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected: %s", strings.Join(e.Path, " -> "))
}
