package network

import (
	"fmt"
	"strconv"
	"strings"
)

// Tree returns the network as an indented outline, one entity per
// line, in declaration order. Connections follow the tree.
func (n *Network) Tree() string {
	var d dumper

	d.line(0, "network")
	d.group(1, n.root)

	if len(n.conns) > 0 {
		d.line(0, "connections")

		for _, c := range n.conns {
			d.line(1, c.src.String()+" -> "+c.dst.String())
		}
	}

	return d.buf.String()
}

type dumper struct {
	buf strings.Builder
}

func (d *dumper) line(depth int, text string) {
	d.buf.WriteString(strings.Repeat("  ", depth))
	d.buf.WriteString(text)
	d.buf.WriteByte('\n')
}

func (d *dumper) group(depth int, g *Group) {
	for _, name := range g.bounds.keys {
		ref, _ := g.bounds.get(name)
		d.line(depth, "bound "+name+" -> "+ref.String())
	}

	for _, name := range g.children.keys {
		child, _ := g.children.get(name)

		switch e := child.(type) {
		case *Node:
			d.line(depth, head(KindNode, name, e.label))
			d.node(depth+1, e)

		case *Group:
			d.line(depth, head(KindGroup, name, e.label))
			d.group(depth+1, e)
		}
	}
}

func (d *dumper) node(depth int, v *Node) {
	for _, name := range v.props.keys {
		val, _ := v.props.get(name)
		d.line(depth, name+" = "+propText(val))
	}

	for _, name := range v.ports.keys {
		d.line(depth, "port "+name)
	}
}

func head(kind, name, label string) string {
	s := kind + " " + name

	if label != "" {
		s += " " + strconv.Quote(label)
	}

	return s
}

// propText renders a property value in source notation.
func propText(val any) string {
	switch v := val.(type) {
	case string:
		return strconv.Quote(v)

	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)

	case bool:
		return strconv.FormatBool(v)

	default:
		return fmt.Sprint(v)
	}
}
