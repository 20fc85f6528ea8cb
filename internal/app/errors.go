package app

import "errors"

// ErrNotFound marks a show/update against an id the tracker does not know.
var ErrNotFound = errors.New("not found")

// NotFoundError reports one missing task id.
type NotFoundError struct {
	ID string
}

// Error renders the user-visible not-found message.
func (e NotFoundError) Error() string {
	return "Task not found: " + e.ID
}

// Is matches the package sentinel so callers can use errors.Is(err, ErrNotFound).
func (e NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
