package lang

import (
	"strconv"

	"github.com/ardnew/nexus/network"
)

// ValueKind identifies the fundamental type of a runtime value.
// KindInvalid is the zero value, standing in for an omitted type
// annotation or an unset slot.
type ValueKind int

// Fundamental value kinds.
const (
	KindInvalid ValueKind = iota
	KindUnit
	KindBool
	KindNumber
	KindString
	KindNode
	KindGroup
	KindFunc
	KindRange
	KindAlias
)

// kindNames indexes ValueKind for String. The names match the source
// keywords where one exists.
var kindNames = [...]string{
	KindInvalid: "invalid",
	KindUnit:    "unit",
	KindBool:    "bool",
	KindNumber:  "Number",
	KindString:  "String",
	KindNode:    "Node",
	KindGroup:   "Group",
	KindFunc:    "fn",
	KindRange:   "range",
	KindAlias:   "alias",
}

// String returns the source-level spelling of the kind.
func (k ValueKind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "invalid"
	}

	return kindNames[k]
}

// Range is a numeric interval value produced by the .. and ..=
// operators.
type Range struct {
	Low, High float64
	Inclusive bool
}

// String renders the range in source notation.
func (r Range) String() string {
	op := ".."
	if r.Inclusive {
		op = "..="
	}

	return formatNumber(r.Low) + op + formatNumber(r.High)
}

// more reports whether i is still inside the range walking upward.
func (r Range) more(i float64) bool {
	if r.Inclusive {
		return i <= r.High
	}

	return i < r.High
}

// Func is a declared function or closure together with the scope it
// was defined in. Calls extend that scope, so closures observe later
// mutations of their captured bindings.
type Func struct {
	Body    *Block
	Env     *Scope
	Name    string
	Params  []Param
	Result  ValueKind
	Closure bool
}

// Value is one runtime value. Exactly one payload field is meaningful,
// selected by Kind. The zero value is invalid, not unit.
type Value struct {
	Str   string
	Node  *network.Node
	Group *network.Group
	Func  *Func
	Alias network.PortRef
	Range Range
	Num   float64
	Kind  ValueKind
	Bool  bool
}

// Value constructors.

func unitVal() Value             { return Value{Kind: KindUnit} }
func boolVal(b bool) Value       { return Value{Kind: KindBool, Bool: b} }
func numVal(n float64) Value     { return Value{Kind: KindNumber, Num: n} }
func strVal(s string) Value      { return Value{Kind: KindString, Str: s} }
func funcVal(f *Func) Value      { return Value{Kind: KindFunc, Func: f} }
func rangeVal(r Range) Value     { return Value{Kind: KindRange, Range: r} }
func aliasVal(r network.PortRef) Value {
	return Value{Kind: KindAlias, Alias: r}
}

func nodeVal(n *network.Node) Value {
	return Value{Kind: KindNode, Node: n}
}

func groupVal(g *network.Group) Value {
	return Value{Kind: KindGroup, Group: g}
}

// entityVal wraps a network entity in the matching value kind.
func entityVal(ent network.Entity) Value {
	switch e := ent.(type) {
	case *network.Node:
		return nodeVal(e)

	case *network.Group:
		return groupVal(e)

	default:
		return Value{}
	}
}

// String returns the display form of the value, identical to what a
// print statement emits.
func (v Value) String() string { return render(v) }

// entity returns the network entity a node or group value wraps, or
// nil for any other kind.
func (v Value) entity() network.Entity {
	switch v.Kind {
	case KindNode:
		return v.Node

	case KindGroup:
		return v.Group

	default:
		return nil
	}
}

// isEntity reports whether the value wraps a network node or group.
func (v Value) isEntity() bool {
	return v.Kind == KindNode || v.Kind == KindGroup
}

// truth reports the boolean payload, or false for any other kind.
// Callers reject non-bool conditions before asking.
func (v Value) truth() bool {
	return v.Kind == KindBool && v.Bool
}

// equal compares two values of the same kind. Entities and functions
// compare by identity.
func (v Value) equal(w Value) bool {
	if v.Kind != w.Kind {
		return false
	}

	switch v.Kind {
	case KindUnit:
		return true

	case KindBool:
		return v.Bool == w.Bool

	case KindNumber:
		return v.Num == w.Num

	case KindString:
		return v.Str == w.Str

	case KindNode:
		return v.Node == w.Node

	case KindGroup:
		return v.Group == w.Group

	case KindFunc:
		return v.Func == w.Func

	case KindRange:
		return v.Range == w.Range

	default:
		return false
	}
}

// formatNumber renders a number the way it reads back: integral values
// without a fraction, everything else in shortest round-trip form.
func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
