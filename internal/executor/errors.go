package executor

import (
	"fmt"
	"strings"
)

// PreconditionError is recorded when a Requires condition does not hold.
type PreconditionError struct {
	Target    string
	Condition string
	// Err is set when the condition could not be evaluated.
	Err error
}

func (e *PreconditionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("target '%s': requirement '%s' could not be evaluated: %v", e.Target, e.Condition, e.Err)
	}
	return fmt.Sprintf("target '%s': requirement '%s' is not met", e.Target, e.Condition)
}

func (e *PreconditionError) Unwrap() error { return e.Err }

// BlockedByDependencyError is recorded for a target that never ran because a
// success-gated predecessor failed.
type BlockedByDependencyError struct {
	Target     string
	Dependency string
}

func (e *BlockedByDependencyError) Error() string {
	return fmt.Sprintf("target '%s' blocked: dependency '%s' failed", e.Target, e.Dependency)
}

// CancelledError is the skip reason of targets that had not started when the
// run was cancelled.
type CancelledError struct {
	Target string
	Cause  error
}

func (e *CancelledError) Error() string {
	return fmt.Sprintf("target '%s' cancelled before start: %v", e.Target, e.Cause)
}

func (e *CancelledError) Unwrap() error { return e.Cause }

// BodyExecutionError wraps whatever a body returned or panicked with.
// Partition is -1 for unpartitioned targets.
type BodyExecutionError struct {
	Target    string
	Partition int
	Err       error
}

func (e *BodyExecutionError) Error() string {
	if e.Partition >= 0 {
		return fmt.Sprintf("target '%s' partition %d failed: %v", e.Target, e.Partition, e.Err)
	}
	return fmt.Sprintf("target '%s' failed: %v", e.Target, e.Err)
}

func (e *BodyExecutionError) Unwrap() error { return e.Err }

// PartitionErrors aggregates the failures of several partitions of one target.
type PartitionErrors []error

func (e PartitionErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (e PartitionErrors) Unwrap() []error { return e }

// InvalidPlanError is returned by Run when the plan cannot be executed at all.
type InvalidPlanError struct {
	Reason string
}

func (e *InvalidPlanError) Error() string {
	return "invalid plan: " + e.Reason
}
