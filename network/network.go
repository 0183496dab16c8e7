// Package network models a hierarchical component network: typed nodes
// and nested groups arranged in a single tree, directed connections
// between node ports, and ad-hoc literal properties on nodes.
//
// The package records structure only. It enforces tree-shape and
// reference integrity, while language-level rules such as mutability
// and type stability belong to the caller.
package network

import (
	"slices"

	"github.com/google/uuid"
)

// Kind labels for Entity implementations.
const (
	KindNode  = "node"
	KindGroup = "group"
)

// Entity is a node or group occupying one position in the tree.
// An entity is unattached until declared as some group's child, and
// becomes consumed when evicted by a replacement.
type Entity interface {
	// ID returns the entity's unique identifier, assigned at creation
	// and stable across moves.
	ID() string

	// Name returns the child name under the entity's parent, or "" if
	// unattached.
	Name() string

	// Label returns the opaque type label the entity was created with.
	// Ad-hoc groups have an empty label.
	Label() string

	// Kind returns KindNode or KindGroup.
	Kind() string

	// Parent returns the containing group, or nil if unattached.
	Parent() *Group

	// Path returns the child names from the root down to this entity.
	Path() Path

	attach(parent *Group, name string)
	detach()
	evict()
	spent() bool
}

// omap is an insertion-ordered map with string keys. Overwriting an
// existing key keeps its original position.
type omap[V any] struct {
	vals map[string]V
	keys []string
}

func newOmap[V any]() *omap[V] {
	return &omap[V]{vals: make(map[string]V)}
}

func (m *omap[V]) get(key string) (V, bool) {
	val, ok := m.vals[key]

	return val, ok
}

func (m *omap[V]) set(key string, val V) {
	if _, ok := m.vals[key]; !ok {
		m.keys = append(m.keys, key)
	}

	m.vals[key] = val
}

func (m *omap[V]) del(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}

	delete(m.vals, key)

	if i := slices.Index(m.keys, key); i >= 0 {
		m.keys = slices.Delete(m.keys, i, i+1)
	}
}

func (m *omap[V]) len() int { return len(m.keys) }

// Node is one component instantiation. Ports and properties appear in
// the order they were first referenced.
type Node struct {
	ports    *omap[*Port]
	props    *omap[any]
	parent   *Group
	id       string
	name     string
	label    string
	consumed bool
}

// Group is a named collection of child entities. Its boundary table
// forwards exported port names to interior nodes.
type Group struct {
	children *omap[Entity]
	bounds   *omap[PortRef]
	parent   *Group
	id       string
	name     string
	label    string
	consumed bool
}

// Port is a named attachment point on a node, created the first time a
// connection or boundary alias references it.
type Port struct {
	name  string
	conns []*Connection
}

// Name returns the port name.
func (p *Port) Name() string { return p.name }

// Connections returns every connection touching this port, in the
// order the connections were recorded.
func (p *Port) Connections() []*Connection {
	return slices.Clone(p.conns)
}

// Endpoint is one resolved end of a connection.
type Endpoint struct {
	Node *Node
	Port string
}

// String renders the endpoint as a rooted dotted path.
func (e Endpoint) String() string {
	return PortRef{Path: e.Node.Path(), Port: e.Port}.String()
}

// Connection is one directed edge between two node ports.
type Connection struct {
	id  string
	src Endpoint
	dst Endpoint
}

// ID returns the connection's unique identifier.
func (c *Connection) ID() string { return c.id }

// Source returns the originating endpoint.
func (c *Connection) Source() Endpoint { return c.src }

// Dest returns the receiving endpoint.
func (c *Connection) Dest() Endpoint { return c.dst }

// Network is one tree of entities under an implicit root group, plus
// the record of every connection in the order it was made.
type Network struct {
	root  *Group
	conns []*Connection
}

// New returns an empty network containing only the root group.
func New() *Network {
	return &Network{root: newGroup("")}
}

// Root returns the implicit root group.
func (n *Network) Root() *Group { return n.root }

// Connections returns every recorded connection in insertion order.
func (n *Network) Connections() []*Connection {
	return slices.Clone(n.conns)
}

// Resolve walks path from the root and returns the entity it lands on.
// An empty path resolves to the root group.
func (n *Network) Resolve(path Path) (Entity, error) {
	return resolveFrom(n.root, path)
}

// Resolve walks path from this group and returns the entity it lands
// on. An empty path resolves to the group itself.
func (g *Group) Resolve(path Path) (Entity, error) {
	return resolveFrom(g, path)
}

func resolveFrom(start *Group, path Path) (Entity, error) {
	var cur Entity = start

	for i, seg := range path {
		g, ok := cur.(*Group)
		if !ok {
			return nil, ErrReference.Wrap(errNotGroup).
				With(pathAttr(path[:i])...)
		}

		child, ok := g.children.get(seg)
		if !ok {
			return nil, ErrReference.Wrap(errNoChild).
				With(pathAttr(path[:i+1])...)
		}

		cur = child
	}

	return cur, nil
}

// Boundary forwarding depth. A longer chain is assumed to be a loop.
const maxBoundHops = 64

// ResolvePort resolves ref to a concrete node and port, following
// group boundary tables when the path lands on a group. The port is
// created on the node if this is its first reference.
func (n *Network) ResolvePort(ref PortRef) (*Node, *Port, error) {
	return n.resolvePort(ref, maxBoundHops)
}

func (n *Network) resolvePort(ref PortRef, hops int) (*Node, *Port, error) {
	if hops <= 0 {
		return nil, nil, ErrReference.Wrap(errBoundLoop).
			With(refAttr(ref)...)
	}

	ent, err := n.Resolve(ref.Path)
	if err != nil {
		return nil, nil, err
	}

	switch e := ent.(type) {
	case *Node:
		return e, e.port(ref.Port), nil

	case *Group:
		fwd, ok := e.bounds.get(ref.Port)
		if !ok {
			return nil, nil, ErrReference.Wrap(errNoBound).
				With(refAttr(ref)...)
		}

		return n.resolvePort(fwd, hops-1)

	default:
		return nil, nil, ErrReference.With(refAttr(ref)...)
	}
}

// Node accessors

func newNode(label string) *Node {
	return &Node{
		id:    uuid.NewString(),
		label: label,
		ports: newOmap[*Port](),
		props: newOmap[any](),
	}
}

// ID returns the node's unique identifier.
func (v *Node) ID() string { return v.id }

// Name returns the node's child name, or "" if unattached.
func (v *Node) Name() string { return v.name }

// Label returns the component type label.
func (v *Node) Label() string { return v.label }

// Kind returns KindNode.
func (v *Node) Kind() string { return KindNode }

// Parent returns the containing group, or nil if unattached.
func (v *Node) Parent() *Group { return v.parent }

// Path returns the child names from the root down to this node.
func (v *Node) Path() Path { return entityPath(v) }

// PortNames returns the node's port names in first-reference order.
func (v *Node) PortNames() []string { return slices.Clone(v.ports.keys) }

// Port returns the named port, or false if it was never referenced.
func (v *Node) Port(name string) (*Port, bool) {
	return v.ports.get(name)
}

// port returns the named port, creating it on first reference.
func (v *Node) port(name string) *Port {
	p, ok := v.ports.get(name)
	if !ok {
		p = &Port{name: name}
		v.ports.set(name, p)
	}

	return p
}

// PropertyNames returns the node's property names in declaration order.
func (v *Node) PropertyNames() []string { return slices.Clone(v.props.keys) }

// Property returns the named property value (float64, string, or
// bool), or false if unset.
func (v *Node) Property(name string) (any, bool) {
	return v.props.get(name)
}

func (v *Node) attach(parent *Group, name string) {
	v.parent, v.name = parent, name
}

func (v *Node) detach() {
	v.parent, v.name = nil, ""
}

func (v *Node) evict() {
	v.detach()
	v.consumed = true
}

func (v *Node) spent() bool { return v.consumed }

// Group accessors

func newGroup(label string) *Group {
	return &Group{
		id:       uuid.NewString(),
		label:    label,
		children: newOmap[Entity](),
		bounds:   newOmap[PortRef](),
	}
}

// ID returns the group's unique identifier.
func (g *Group) ID() string { return g.id }

// Name returns the group's child name, or "" if unattached or root.
func (g *Group) Name() string { return g.name }

// Label returns the group's type label, "" for ad-hoc groups.
func (g *Group) Label() string { return g.label }

// Kind returns KindGroup.
func (g *Group) Kind() string { return KindGroup }

// Parent returns the containing group, or nil for the root and for
// unattached groups.
func (g *Group) Parent() *Group { return g.parent }

// Path returns the child names from the root down to this group.
func (g *Group) Path() Path { return entityPath(g) }

// ChildNames returns the group's child names in declaration order.
func (g *Group) ChildNames() []string { return slices.Clone(g.children.keys) }

// Child returns the named child entity, or false if absent.
func (g *Group) Child(name string) (Entity, bool) {
	return g.children.get(name)
}

// Len returns the number of children.
func (g *Group) Len() int { return g.children.len() }

// BoundNames returns the boundary port names in declaration order.
func (g *Group) BoundNames() []string { return slices.Clone(g.bounds.keys) }

// Bound returns the forwarding target of the named boundary port, or
// false if absent.
func (g *Group) Bound(name string) (PortRef, bool) {
	return g.bounds.get(name)
}

func (g *Group) attach(parent *Group, name string) {
	g.parent, g.name = parent, name
}

func (g *Group) detach() {
	g.parent, g.name = nil, ""
}

func (g *Group) evict() {
	g.detach()
	g.consumed = true
}

func (g *Group) spent() bool { return g.consumed }

func entityPath(ent Entity) Path {
	var segs []string

	for cur := ent; cur.Parent() != nil; {
		segs = append(segs, cur.Name())
		cur = cur.Parent()
	}

	slices.Reverse(segs)

	return segs
}
