package lang

import "slices"

// bindState tracks the lifecycle of one binding slot.
type bindState int

const (
	bindUninitialized bindState = iota
	bindInitialized
	bindMoved
)

// binding is one name's slot within a scope. The fundamental type is
// fixed by an explicit annotation or by the first initialization, and
// never changes afterward.
type binding struct {
	value   Value
	typ     ValueKind
	state   bindState
	mutable bool
}

// Scope is one lexical frame of bindings chained to its parent frame.
// Function values capture the scope they were defined in, so a closure
// and its defining block observe the same binding slots.
type Scope struct {
	parent *Scope
	names  map[string]*binding
}

// NewScope returns an empty scope chained to parent, which is nil for
// the top level.
func NewScope(parent *Scope) *Scope {
	return &Scope{parent: parent, names: make(map[string]*binding)}
}

// declare installs a fresh binding for name in this frame, silently
// shadowing any same-frame predecessor.
func (s *Scope) declare(name string, b *binding) {
	s.names[name] = b
}

// lookup finds the innermost binding for name.
func (s *Scope) lookup(name string) (*binding, bool) {
	for cur := s; cur != nil; cur = cur.parent {
		if b, ok := cur.names[name]; ok {
			return b, true
		}
	}

	return nil, false
}

// Binding returns the current value of an initialized binding visible
// from this scope. Uninitialized and moved slots report false.
func (s *Scope) Binding(name string) (Value, bool) {
	b, ok := s.lookup(name)
	if !ok || b.state != bindInitialized {
		return Value{}, false
	}

	return b.value, true
}

// Names returns every name visible from this scope, sorted for stable
// presentation.
func (s *Scope) Names() []string {
	seen := make(map[string]bool)

	var names []string

	for cur := s; cur != nil; cur = cur.parent {
		for name := range cur.names {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	slices.Sort(names)

	return names
}
