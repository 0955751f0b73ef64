package reflection

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidHandle reports a nil or absent backend handle.
	ErrInvalidHandle = errors.New("invalid handle")
	// ErrInvalidArgument reports an argument that violates an operation's contract.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrInvalidOperation reports an operation whose precondition does not hold.
	ErrInvalidOperation = errors.New("invalid operation")
	// ErrNotSupported reports an execution or mutation request on a read-only element.
	ErrNotSupported = errors.New("operation not supported")
	// ErrAmbiguousMatch reports a by-name lookup that matched more than one member.
	ErrAmbiguousMatch = errors.New("ambiguous match")
)

// AttributeConstructionError reports that an attribute instance could not be
// built from its recorded constructor and named arguments.
type AttributeConstructionError struct {
	AttributeType string
	Err           error
}

func (e *AttributeConstructionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("cannot construct attribute %s", e.AttributeType)
	}
	return fmt.Sprintf("cannot construct attribute %s: %v", e.AttributeType, e.Err)
}

func (e *AttributeConstructionError) Unwrap() error {
	return e.Err
}

// ResolveError reports that a declaration could not be bound to a live entity.
type ResolveError struct {
	Element CodeElementInfo
	Err     error
}

func (e *ResolveError) Error() string {
	name := "<nil>"
	kind := "element"
	if e.Element != nil {
		name = e.Element.String()
		kind = e.Element.Kind().String()
	}
	if e.Err == nil {
		return fmt.Sprintf("cannot resolve %s %s", kind, name)
	}
	return fmt.Sprintf("cannot resolve %s %s: %v", kind, name, e.Err)
}

func (e *ResolveError) Unwrap() error {
	return e.Err
}

func invalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

func invalidOperation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidOperation, fmt.Sprintf(format, args...))
}
