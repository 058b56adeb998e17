package structdef

import (
	"errors"
	"fmt"

	"github.com/npillmayer/fhirtree/diag"
)

// Fatal error kinds. Each of them is delivered wrapped in a *StructuralError.
var (
	// ErrMalformedTree is returned if an element cannot be attached to the tree.
	ErrMalformedTree = errors.New("malformed element list")
	// ErrEmptyElementList is returned when building a tree from no elements.
	ErrEmptyElementList = errors.New("empty element list")
	// ErrInvalidDataTypes is returned for several data types on a non-choice element.
	ErrInvalidDataTypes = errors.New("invalid data types")
	// ErrNoMatchingNode is returned if a differential node has no snapshot counterpart.
	ErrNoMatchingNode = errors.New("no matching snapshot node")
	// ErrAmbiguousSliceMatch is returned if slice names do not identify a unique snapshot node.
	ErrAmbiguousSliceMatch = errors.New("ambiguous slice match")
	// ErrNoDiscriminatorMatch is returned if no slice matches on all discriminators.
	ErrNoDiscriminatorMatch = errors.New("no slice matches discriminators")
	// ErrAmbiguousDiscriminatorMatch is returned if several slices match on all discriminators.
	ErrAmbiguousDiscriminatorMatch = errors.New("several slices match discriminators")
)

// StructuralError reports that a profile cannot be turned into trees or
// cannot be reconciled. It aborts processing of the current profile only.
type StructuralError struct {
	Err  error  // one of the Err... kinds
	Path string // element path the error was detected at
	Msg  string
}

func (e *StructuralError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %s", e.Err, e.Msg)
	}
	return fmt.Sprintf("%v at %s: %s", e.Err, e.Path, e.Msg)
}

// Unwrap makes errors.Is work on the error kind.
func (e *StructuralError) Unwrap() error {
	return e.Err
}

// Structural creates a *StructuralError.
func Structural(kind error, path string, format string, args ...interface{}) error {
	return &StructuralError{Err: kind, Path: path, Msg: fmt.Sprintf(format, args...)}
}

// IsStructural is true for errors which are (or wrap) a *StructuralError.
func IsStructural(err error) bool {
	var serr *StructuralError
	return errors.As(err, &serr)
}

// EventKind maps a fatal error to the diagnostic event kind reporting it.
func EventKind(err error) diag.EventKind {
	switch {
	case errors.Is(err, ErrNoMatchingNode):
		return diag.NoMatchingNode
	case errors.Is(err, ErrAmbiguousSliceMatch):
		return diag.AmbiguousSliceMatch
	case errors.Is(err, ErrNoDiscriminatorMatch):
		return diag.NoDiscriminatorMatch
	case errors.Is(err, ErrAmbiguousDiscriminatorMatch):
		return diag.AmbiguousDiscriminatorMatch
	case IsStructural(err):
		return diag.StructuralError
	}
	return diag.ProfileFailed
}
