package registry

import "fmt"

// DuplicateTargetError is returned when a name is registered twice.
type DuplicateTargetError struct {
	Name string
}

func (e *DuplicateTargetError) Error() string {
	return fmt.Sprintf("target '%s' is already registered", e.Name)
}

// UnknownTargetError is returned when a name is not registered.
type UnknownTargetError struct {
	Name string
	// Referrer is the target whose edge pointed at Name, if any.
	Referrer string
}

func (e *UnknownTargetError) Error() string {
	if e.Referrer != "" {
		return fmt.Sprintf("unknown target '%s' (referenced by '%s')", e.Name, e.Referrer)
	}
	return fmt.Sprintf("unknown target '%s'", e.Name)
}
