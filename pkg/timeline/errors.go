package timeline

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrFrozen indicates an attempt to edit a frozen field.
	ErrFrozen = errors.New("entity is frozen")

	// ErrWrongPhase indicates an operation invalid for the current phase.
	ErrWrongPhase = errors.New("operation not valid in this phase")

	// ErrSetupIncomplete indicates StartGame was called before the big
	// picture and both bookends were set.
	ErrSetupIncomplete = errors.New("big picture and both bookends are required to start")
)

// NotFoundError reports a failed title or id lookup, distinguishing the
// kind that was searched so callers can name the missing reference.
type NotFoundError struct {
	Kind  Kind
	Title string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %q", e.Kind, e.Title)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
