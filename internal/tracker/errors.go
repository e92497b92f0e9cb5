package tracker

import "fmt"

// ValidationError reports malformed registration input. Client-facing,
// non-retryable; handlers map it to a 400.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing or empty field: %s", e.Field)
}

// StorageError wraps a persistence-layer failure. Handlers map it to a
// generic 500 and log the underlying cause server-side only.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
