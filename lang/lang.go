package lang

import (
	"io"
	"log/slog"
	"os"
	"slices"

	"github.com/ardnew/nexus/network"
)

// Interp evaluates programs against one persistent network and
// top-level scope, so successive evaluations accumulate state the way
// an interactive session expects.
type Interp struct {
	ev  *evaluator
	net *network.Network
}

// Option configures an Interp.
type Option func(*Interp)

// WithOutput directs print statement output to w.
func WithOutput(w io.Writer) Option {
	return func(i *Interp) { i.ev.out = w }
}

// WithLogger sets the structured logger for evaluation tracing.
func WithLogger(l *slog.Logger) Option {
	return func(i *Interp) { i.ev.log = l }
}

// WithLoader sets the resolver use statements read source through.
func WithLoader(fn Loader) Option {
	return func(i *Interp) { i.ev.load = fn }
}

// New returns an interpreter with an empty network. By default print
// output goes to os.Stdout, use statements read files relative to the
// working directory, and evaluation tracing is discarded.
func New(opts ...Option) *Interp {
	net := network.New()

	i := &Interp{
		net: net,
		ev: &evaluator{
			net:    net,
			scope:  NewScope(nil),
			out:    os.Stdout,
			log:    slog.New(slog.DiscardHandler),
			load:   readSource,
			active: make(map[string]bool),
			used:   make(map[string]bool),
		},
	}

	for _, opt := range opts {
		opt(i)
	}

	return i
}

func readSource(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

// Eval scans, parses, and evaluates source. Scan and parse diagnostics
// accumulate and come back together as a *ParseError; the first
// resolution, type, or builder failure aborts evaluation and comes
// back alone. The returned value is that of a trailing unterminated
// expression statement, or unit.
func (i *Interp) Eval(source string) (Value, error) {
	prog, err := parseSource(source)
	if err != nil {
		return Value{}, err
	}

	return i.ev.run(prog)
}

// EvalFile reads and evaluates the file at path. Parsed programs are
// cached by content hash, so re-evaluating an unchanged file skips the
// scan and parse passes.
func (i *Interp) EvalFile(path string) (Value, error) {
	prog, err := loadFile(path)
	if err != nil {
		return Value{}, err
	}

	return i.ev.run(prog)
}

// Network returns the network built by evaluations so far.
func (i *Interp) Network() *network.Network { return i.net }

// SetOutput redirects print statement output to w. The interactive
// session uses this to fold program output into its own display.
func (i *Interp) SetOutput(w io.Writer) { i.ev.out = w }

// Scope returns the persistent top-level scope.
func (i *Interp) Scope() *Scope { return i.ev.scope }

// Reset discards all accumulated state: bindings, entities, and
// connections.
func (i *Interp) Reset() {
	i.net = network.New()
	i.ev.net = i.net
	i.ev.scope = NewScope(nil)
	i.ev.depth = 0
	clear(i.ev.active)
	clear(i.ev.used)
}

// ParseString scans and parses source without evaluating it, returning
// the program or a *ParseError carrying every diagnostic.
func ParseString(source string) (*Program, error) {
	return parseSource(source)
}

// parseSource runs the scanner and parser over source, folding every
// diagnostic from both passes into a single ParseError ordered by
// source position.
func parseSource(source string) (*Program, error) {
	toks, scanErrs := Scan(source)
	prog, parseErrs := Parse(toks)

	if len(scanErrs)+len(parseErrs) == 0 {
		return prog, nil
	}

	all := make([]*Error, 0, len(scanErrs)+len(parseErrs))

	for _, err := range scanErrs {
		all = append(all, WrapError(err))
	}

	all = append(all, parseErrs...)

	slices.SortStableFunc(all, func(a, b *Error) int {
		if a.pos.Line != b.pos.Line {
			return a.pos.Line - b.pos.Line
		}

		return a.pos.Column - b.pos.Column
	})

	return nil, NewParseError(all, source)
}
