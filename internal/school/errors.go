package school

import "fmt"

// NotFoundError is returned when a referenced row does not exist.
type NotFoundError struct {
	Entity string
	ID     int64
}

func (e *NotFoundError) Error() string {
	return e.Entity + " not found"
}

// ConflictError is returned when a unique field is already taken.
type ConflictError struct {
	Field string
	Value string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("student with %s %q already exists", e.Field, e.Value)
}
