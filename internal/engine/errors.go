package engine

import "fmt"

// MalformedParametersError means the supplied parameter text could not be
// decoded as a JSON object. Execution never starts when this is returned.
type MalformedParametersError struct {
	Detail string
}

func (e *MalformedParametersError) Error() string {
	return "Invalid parameter JSON: " + e.Detail
}

// NotFoundError means a lookup-style operation's target object does not exist.
type NotFoundError struct {
	Object string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("object not found: %s", e.Object)
}

// ExecutionError wraps a failure reported by the database while running a
// statement or consuming its results.
type ExecutionError struct {
	Routine string
	Err     error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("executing %s: %v", e.Routine, e.Err)
}

func (e *ExecutionError) Unwrap() error { return e.Err }
