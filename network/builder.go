package network

import "github.com/google/uuid"

// Instantiate creates a new, unattached node of the given type label.
func (n *Network) Instantiate(label string) *Node { return newNode(label) }

// NewGroup creates a new, unattached group with the given type label.
func (n *Network) NewGroup(label string) *Group { return newGroup(label) }

// DeclareChild attaches value at path relative to parent, creating
// missing intermediate segments as ad-hoc groups. A nil parent means
// the root.
//
// The value decides what the final segment becomes: an Entity is
// attached as a child (moving it from any previous position, and
// evicting whatever occupied the name before), a PortRef becomes a
// boundary port on a group, and a float64, string, or bool becomes a
// property on a node.
func (n *Network) DeclareChild(parent *Group, path Path, value any) error {
	if parent == nil {
		parent = n.root
	}

	if len(path) == 0 {
		return ErrShape.Wrap(errEmptyPath)
	}

	holder, err := descend(parent, path.Parent())
	if err != nil {
		return err
	}

	leaf := path.Leaf()

	switch v := value.(type) {
	case Entity:
		return attachChild(holder, leaf, v, path)

	case PortRef:
		g, ok := holder.(*Group)
		if !ok {
			return ErrShape.Wrap(errBoundHost).With(pathAttr(path)...)
		}

		g.bounds.set(leaf, v)

		return nil

	case float64, string, bool:
		node, ok := holder.(*Node)
		if !ok {
			return ErrShape.Wrap(errPropHost).With(pathAttr(path)...)
		}

		node.props.set(leaf, v)

		return nil

	default:
		return ErrShape.Wrap(errValueType).With(pathAttr(path)...)
	}
}

// descend walks path from parent, creating an ad-hoc group for every
// missing segment, and returns the entity the walk ends on.
func descend(parent *Group, path Path) (Entity, error) {
	var cur Entity = parent

	for i, seg := range path {
		g, ok := cur.(*Group)
		if !ok {
			return nil, ErrShape.Wrap(errNotGroup).
				With(pathAttr(path[:i])...)
		}

		child, ok := g.children.get(seg)
		if !ok {
			adhoc := newGroup("")
			adhoc.attach(g, seg)
			g.children.set(seg, adhoc)
			child = adhoc
		}

		cur = child
	}

	return cur, nil
}

func attachChild(holder Entity, leaf string, child Entity, path Path) error {
	g, ok := holder.(*Group)
	if !ok {
		return ErrShape.Wrap(errChildless).With(pathAttr(path)...)
	}

	if child.spent() {
		return ErrShape.Wrap(errConsumed).With(pathAttr(path)...)
	}

	// Attaching an entity beneath its own subtree would orphan the
	// cycle from the root.
	for anc := g; anc != nil; anc = anc.parent {
		if Entity(anc) == child {
			return ErrShape.Wrap(errCycle).With(pathAttr(path)...)
		}
	}

	if cur, ok := g.children.get(leaf); ok {
		if cur == child {
			return nil
		}

		cur.evict()
	}

	if from := child.Parent(); from != nil {
		from.children.del(child.Name())
	}

	g.children.set(leaf, child)
	child.attach(g, leaf)

	return nil
}

// Connect records a directed edge from src to dst, creating the named
// ports on their nodes if this is their first reference. Both
// references must resolve to live nodes, through group boundary
// tables where the path lands on a group.
func (n *Network) Connect(src, dst PortRef) (*Connection, error) {
	srcNode, srcPort, err := n.ResolvePort(src)
	if err != nil {
		return nil, err
	}

	dstNode, dstPort, err := n.ResolvePort(dst)
	if err != nil {
		return nil, err
	}

	conn := &Connection{
		id:  uuid.NewString(),
		src: Endpoint{Node: srcNode, Port: srcPort.name},
		dst: Endpoint{Node: dstNode, Port: dstPort.name},
	}

	srcPort.conns = append(srcPort.conns, conn)

	if dstPort != srcPort {
		dstPort.conns = append(dstPort.conns, conn)
	}

	n.conns = append(n.conns, conn)

	return conn, nil
}
