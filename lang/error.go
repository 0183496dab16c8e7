package lang

import (
	"errors"
	"log/slog"
	"strconv"
	"strings"
)

// Predefined errors (sentinel values).
var (
	// Scanner diagnostics. At most one is reported per source line.
	ErrUnexpectedChar     = NewError("unexpected character")
	ErrUnterminatedString = NewError("unterminated string")
	ErrMalformedString    = NewError("malformed string escape")
	ErrMalformedNumber    = NewError("malformed number")

	// Parser diagnostics with stable identities. Site-specific
	// expectation errors are constructed inline by the parser.
	ErrIncomplete     = NewError("unexpected end of input")
	ErrKeywordIdent   = NewError("keyword used as identifier")
	ErrRangeEndpoint  = NewError("range endpoint must be a literal, identifier, or parenthesized expression")
	ErrReservedToken  = NewError("reserved token")
	ErrLiteralGroup   = NewError("cannot create a Group type literal")
	ErrLiteralNode    = NewError("cannot create a Node type literal")
	ErrInvalidTarget  = NewError("invalid assignment target")
	ErrInvalidConnect = NewError("connection endpoint must be a dotted path")

	// Resolution and evaluation errors, raised at first occurrence.
	ErrUndeclared    = NewError("use of undeclared identifier")
	ErrUninitialized = NewError("use of uninitialized value")
	ErrImmutable     = NewError("reassignment of immutable binding")
	ErrTypeClash     = NewError("type mismatch")
	ErrTopReturn     = NewError("return outside function")
	ErrRecursion     = NewError("maximum call depth exceeded")
	ErrReadInput     = NewError("failed to read input")
	ErrExprCompile   = NewError("expression compilation failed")
	ErrExprEvaluate  = NewError("expression evaluation failed")
)

// Evaluation failure causes wrapped under the sentinels above.
var (
	errMovedValue   = errors.New("value was moved")
	errArgCount     = errors.New("wrong argument count")
	errCircularUse  = errors.New("circular use of source file")
	errConcatKind   = errors.New("operand cannot join a string")
	errNotCallable  = errors.New("identifier is not a function")
	errEntityTarget = errors.New("path must start at a node or group")
)

// Error represents an error with optional structured logging attributes
// and an optional source position. It implements both error and
// slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	pos   Pos         // Source position, zero when unknown
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
func WrapError(err error) *Error {
	ee := &Error{}
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// atPos stamps a source position onto err, wrapping foreign error
// types so resolution and builder failures still report where the
// offending statement sits.
func atPos(err error, pos Pos) error {
	if err == nil {
		return nil
	}

	if e, ok := err.(*Error); ok {
		return e.At(pos)
	}

	return &Error{err: err, pos: pos}
}

// Error implements the error interface.
func (e *Error) Error() string {
	// Build error message using the first available format,
	// depending on which fields are set:
	//
	//   1. "<msg>: <err>" // base and wrapped error both set
	//   2. "<msg>"        // wrapped error is nil
	//   3. "<err>"        // base error message is empty
	//   4. ""             // no fields are set
	//
	// A known source position prefixes the message as "<line>:<col>: ".
	part := make([]string, 0, 2)

	if e.msg != "" {
		part = append(part, e.msg)
	}

	if e.err != nil {
		part = append(part, e.err.Error())
	}

	msg := strings.Join(part, ": ")

	if e.pos != (Pos{}) {
		return strconv.Itoa(e.pos.Line) + ":" +
			strconv.Itoa(e.pos.Column) + ": " + msg
	}

	return msg
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is an *Error sharing this error's message, so
// that derived errors (At, With, Wrap) still match their sentinel through
// errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)

	return ok && t.msg != "" && t.msg == e.msg
}

// Pos reports the source position the error was raised at, zero when
// unknown.
func (e *Error) Pos() Pos { return e.pos }

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	if e.pos != (Pos{}) {
		attrs = append(attrs,
			slog.Int("line", e.pos.Line),
			slog.Int("column", e.pos.Column))
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	return &Error{
		msg:   e.msg,
		err:   err,
		attrs: e.attrs, // Share attrs
		pos:   e.pos,
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
		pos:   e.pos,
	}
}

// At pins the error to a source position.
// This creates a new Error instance to maintain immutability.
func (e *Error) At(pos Pos) *Error {
	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: e.attrs,
		pos:   pos,
	}
}

// ParseError aggregates every diagnostic collected over one scan+parse
// pass. Diagnostics appear in source order; none aborts the pass early.
type ParseError struct {
	Errors []*Error
	Source string // The original source input, for context rendering
	Path   string // File the source came from, empty for inline input
}

func NewParseError(errs []*Error, source string) *ParseError {
	return &ParseError{
		Errors: errs,
		Source: source,
	}
}

// WithPath returns a copy naming the file the source was read from.
func (e *ParseError) WithPath(path string) *ParseError {
	return &ParseError{
		Errors: e.Errors,
		Source: e.Source,
		Path:   path,
	}
}

// Error implements the error interface. Every collected diagnostic is
// rendered with the offending source line and a column marker.
func (e *ParseError) Error() string {
	if len(e.Errors) == 0 {
		return "parse error"
	}

	var buf strings.Builder

	for i, err := range e.Errors {
		if i > 0 {
			buf.WriteRune('\n')
		}

		buf.WriteString(e.formatWithContext(err))
	}

	return buf.String()
}

// Unwrap exposes the collected diagnostics to errors.Is/As.
func (e *ParseError) Unwrap() []error {
	errs := make([]error, len(e.Errors))
	for i, err := range e.Errors {
		errs[i] = err
	}

	return errs
}

// formatWithContext formats one diagnostic with source code context.
func (e *ParseError) formatWithContext(err *Error) string {
	var buf strings.Builder

	// Write error location and description
	if e.Path != "" {
		buf.WriteString(e.Path)
		buf.WriteString(": ")
	}

	buf.WriteString("parse error at line ")
	buf.WriteString(strconv.Itoa(err.pos.Line))
	buf.WriteString(", column ")
	buf.WriteString(strconv.Itoa(err.pos.Column))
	buf.WriteString(": ")
	buf.WriteString(err.msg)

	if err.err != nil {
		buf.WriteString(": ")
		buf.WriteString(err.err.Error())
	}

	lines := strings.Split(e.Source, "\n")

	// Show the offending line if within bounds
	if err.pos.Line > 0 && err.pos.Line <= len(lines) {
		line := lines[err.pos.Line-1]

		// Print the line with line number
		buf.WriteString("\n  ")
		buf.WriteString(strconv.Itoa(err.pos.Line))
		buf.WriteString(" | ")
		buf.WriteString(line)
		buf.WriteRune('\n')

		// Print marker pointing to the column
		// Calculate the width needed for line number display
		lineNumWidth := len(strconv.Itoa(err.pos.Line))
		// +5 accounts for: 2 leading spaces + " | " (3 chars)
		padding := lineNumWidth + 5

		// Add spaces to reach the error column
		if err.pos.Column > 0 {
			padding += err.pos.Column - 1
		}

		buf.WriteString(strings.Repeat(" ", padding) + "^")
	}

	return buf.String()
}
