package codebase

import (
	"errors"
	"fmt"
)

// ErrInvalidEntry is returned (wrapped in an InvalidEntryError) when strict
// mode encounters a tree entry that cannot be placed in the forest.
var ErrInvalidEntry = errors.New("invalid tree entry")

// InvalidEntryError describes a rejected entry and its position in the input.
type InvalidEntryError struct {
	Index  int
	Path   string
	Reason string
}

func (e *InvalidEntryError) Error() string {
	return fmt.Sprintf("invalid tree entry %d (%q): %s", e.Index, e.Path, e.Reason)
}

func (e *InvalidEntryError) Unwrap() error {
	return ErrInvalidEntry
}
