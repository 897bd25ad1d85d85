// Package partition splits an item collection into disjoint slices so a
// target body can run once per slice.
package partition

import "fmt"

// ParamPrefix is the parameter namespace used to pin a target to a single
// partition, as in "partition.Test=1".
const ParamPrefix = "partition."

// InvalidPartitionError reports a partition index outside [0, count).
type InvalidPartitionError struct {
	Index int
	Count int
}

func (e *InvalidPartitionError) Error() string {
	return fmt.Sprintf("invalid partition %d: must be in range [0, %d)", e.Index, e.Count)
}

// Split returns the items that belong to partition i of n. Items are dealt
// round-robin by position, so every item lands in exactly one partition and
// keeps its relative order. Partitions may be empty when n exceeds the item
// count.
func Split[T any](items []T, n, i int) ([]T, error) {
	if err := Bounds(n, i); err != nil {
		return nil, err
	}
	out := make([]T, 0, len(items)/n+1)
	for pos := i; pos < len(items); pos += n {
		out = append(out, items[pos])
	}
	return out, nil
}

// Bounds checks that i is a valid index for n partitions.
func Bounds(n, i int) error {
	if n <= 0 || i < 0 || i >= n {
		return &InvalidPartitionError{Index: i, Count: n}
	}
	return nil
}

// All splits items into n partitions at once.
func All[T any](items []T, n int) ([][]T, error) {
	if n <= 0 {
		return nil, &InvalidPartitionError{Index: 0, Count: n}
	}
	parts := make([][]T, n)
	for i := range parts {
		part, err := Split(items, n, i)
		if err != nil {
			return nil, err
		}
		parts[i] = part
	}
	return parts, nil
}

// Param returns the parameter key that pins target to one partition.
func Param(target string) string {
	return ParamPrefix + target
}
