package network

import (
	"errors"
	"log/slog"
	"strings"
)

// Predefined errors (sentinel values).
var (
	// ErrShape reports a construction that would break the tree shape:
	// descending through a non-group segment, attaching children to a
	// node, attaching an entity beneath itself, re-attaching a consumed
	// entity, or writing a property anywhere but a node.
	ErrShape = NewError("invalid network shape")

	// ErrReference reports a path or port reference that does not
	// resolve to a live entity.
	ErrReference = NewError("unresolved reference")
)

// Shape violation causes wrapped under ErrShape.
var (
	errNotGroup  = errors.New("path segment is not a group")
	errChildless = errors.New("nodes cannot hold children")
	errConsumed  = errors.New("value already consumed")
	errCycle     = errors.New("cannot attach an entity beneath itself")
	errPropHost  = errors.New("only nodes hold properties")
	errBoundHost = errors.New("only groups hold boundary ports")
	errValueType = errors.New("unsupported child value")
	errEmptyPath = errors.New("empty child path")
)

// Reference failure causes wrapped under ErrReference.
var (
	errNoChild   = errors.New("no such child")
	errNoBound   = errors.New("no boundary port")
	errBoundLoop = errors.New("boundary forwarding loop")
)

func pathAttr(path Path) []slog.Attr {
	return []slog.Attr{slog.String("path", path.String())}
}

func refAttr(ref PortRef) []slog.Attr {
	return []slog.Attr{slog.String("ref", ref.String())}
}

// Error represents an error with optional structured logging attributes.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// Error implements the error interface.
func (e *Error) Error() string {
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	return strings.Join(part, ": ")
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error sharing this error's message, so
// that derived errors (With, Wrap) still match their sentinel through
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg != "" && t.msg == e.msg
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+2)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
	}
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	newAttrs := make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(newAttrs, e.attrs)
	copy(newAttrs[len(e.attrs):], attrs)

	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: newAttrs,
	}
}
