package repl

import "errors"

// Sentinel errors.
var (
	ErrNoInterp     = errors.New("no interpreter")
	ErrOutOfBounds  = errors.New("index out of range")
	ErrEditDeclined = errors.New("decline edit")
)
