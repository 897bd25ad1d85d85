package plan

import "time"

// Status is the execution state of a target. Pending and Running are
// transient; the other three are terminal.
type Status int

const (
	Pending Status = iota
	Running
	Succeeded
	Skipped
	Failed
)

func (s Status) String() string {
	switch s {
	case Pending:
		return "Pending"
	case Running:
		return "Running"
	case Succeeded:
		return "Succeeded"
	case Skipped:
		return "Skipped"
	case Failed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == Succeeded || s == Skipped || s == Failed
}

// PartitionOutcome records one invocation of a partitioned body.
type PartitionOutcome struct {
	Index    int
	Items    int
	Status   Status
	Err      error
	Duration time.Duration
}

// Outcome is the recorded fate of one plan entry.
type Outcome struct {
	Name     string
	Status   Status
	Err      error
	Duration time.Duration
	// Reason explains a skip.
	Reason string
	// Partitions is set for partitioned targets whose body ran.
	Partitions []PartitionOutcome
	// Produces and Consumes are copied from the definition.
	Produces []string
	Consumes []string
}
