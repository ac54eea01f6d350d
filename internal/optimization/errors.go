package optimization

import (
	"errors"
	"fmt"
)

// Kind classifies an optimization error so that transports can map it to a
// response without inspecting messages.
type Kind string

const (
	// KindInvalidSpec marks a rejected parameter declaration.
	KindInvalidSpec Kind = "invalid_spec"
	// KindUnknownStrategy marks an optimizer title that no registry knows.
	KindUnknownStrategy Kind = "unknown_strategy"
	// KindNotFound marks an operation on an absent experiment.
	KindNotFound Kind = "not_found"
	// KindMalformedPoint marks a told point that does not fit the space.
	KindMalformedPoint Kind = "malformed_point"
	// KindMalformedValue marks a non-finite objective value.
	KindMalformedValue Kind = "malformed_value"
)

// Sentinels for errors.Is. Matching is by Kind only.
var (
	ErrInvalidSpec     = &Error{Kind: KindInvalidSpec, Message: "invalid parameter specification"}
	ErrUnknownStrategy = &Error{Kind: KindUnknownStrategy, Message: "unknown optimizer"}
	ErrNotFound        = &Error{Kind: KindNotFound, Message: "experiment not found"}
	ErrMalformedPoint  = &Error{Kind: KindMalformedPoint, Message: "malformed point"}
	ErrMalformedValue  = &Error{Kind: KindMalformedValue, Message: "malformed value"}
)

// Error represents an optimization error with context
// that can be wrapped with additional information.
type Error struct {
	// Kind is the error class.
	Kind Kind
	// Message describes the error that occurred.
	Message string
	// Op is the operation that caused the error.
	Op string
	// Component is the component where the error occurred.
	Component string
	// Err is the underlying error that triggered this one, if any.
	Err error
}

// Error returns the string representation of the error.
func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var prefix string
	if e.Component != "" && e.Op != "" {
		prefix = fmt.Sprintf("%s: %s", e.Component, e.Op)
	} else if e.Component != "" {
		prefix = e.Component
	} else if e.Op != "" {
		prefix = e.Op
	}

	if e.Err != nil {
		if prefix != "" {
			return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
		}
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	if prefix != "" {
		return fmt.Sprintf("%s: %s", prefix, e.Message)
	}
	return e.Message
}

// Unwrap returns the underlying error, if any.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e == nil || t == nil {
		return false
	}
	return t.Kind != "" && t.Kind == e.Kind
}

// WithOperation adds operation context to the error.
func (e *Error) WithOperation(op string) *Error {
	e.Op = op
	return e
}

// WithComponent adds component context to the error.
func (e *Error) WithComponent(component string) *Error {
	e.Component = component
	return e
}

// NewError creates a new optimization error of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{
		Kind:    kind,
		Message: message,
	}
}

// NewErrorf creates a new optimization error with formatted message.
func NewErrorf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{
		Kind:    kind,
		Message: fmt.Sprintf(format, args...),
	}
}

// WrapError wraps an existing error with additional context.
// If err is nil, WrapError returns nil.
func WrapError(err error, kind Kind, message string) *Error {
	if err == nil {
		return nil
	}
	return &Error{
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// KindOf returns the Kind of the first *Error in err's chain, or "" if there
// is none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
