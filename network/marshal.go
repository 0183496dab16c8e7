package network

import (
	"bytes"
	"encoding/json"
	"slices"

	"github.com/goccy/go-yaml"
)

// Field is one key/value pair in a Map.
type Field struct {
	Value any
	Key   string
}

// Map is an insertion-ordered sequence of fields that marshals to a
// JSON or YAML object without reordering its keys.
type Map []Field

// MarshalJSON implements json.Marshaler, keeping field order.
func (m Map) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')

	for i, f := range m {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')

		val, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}

		buf.Write(val)
	}

	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// MarshalYAML implements yaml.InterfaceMarshaler, keeping field order.
func (m Map) MarshalYAML() (any, error) {
	slice := make(yaml.MapSlice, len(m))

	for i, f := range m {
		slice[i] = yaml.MapItem{Key: f.Key, Value: f.Value}
	}

	return slice, nil
}

// Manifest returns the whole network as an ordered document: the root
// group's subtree plus the global connection list.
func (n *Network) Manifest() Map {
	return Map{
		{Key: "network", Value: n.root.Manifest()},
		{Key: "connections", Value: connectionManifests(n.conns)},
	}
}

// EncodeJSON returns the network manifest as indented JSON.
func (n *Network) EncodeJSON() ([]byte, error) {
	return json.MarshalIndent(n.Manifest(), "", "  ")
}

// EncodeYAML returns the network manifest as YAML.
func (n *Network) EncodeYAML() ([]byte, error) {
	return yaml.Marshal(n.Manifest())
}

// Manifest returns the node as an ordered document.
func (v *Node) Manifest() Map {
	m := Map{{Key: "kind", Value: KindNode}}

	if v.label != "" {
		m = append(m, Field{Key: "label", Value: v.label})
	}

	if v.props.len() > 0 {
		props := make(Map, 0, v.props.len())

		for _, name := range v.props.keys {
			val, _ := v.props.get(name)
			props = append(props, Field{Key: name, Value: val})
		}

		m = append(m, Field{Key: "properties", Value: props})
	}

	if v.ports.len() > 0 {
		m = append(m, Field{Key: "ports", Value: slices.Clone(v.ports.keys)})
	}

	return m
}

// Manifest returns the group and its subtree as an ordered document.
func (g *Group) Manifest() Map {
	m := Map{{Key: "kind", Value: KindGroup}}

	if g.label != "" {
		m = append(m, Field{Key: "label", Value: g.label})
	}

	if g.bounds.len() > 0 {
		bounds := make(Map, 0, g.bounds.len())

		for _, name := range g.bounds.keys {
			ref, _ := g.bounds.get(name)
			bounds = append(bounds, Field{Key: name, Value: ref.String()})
		}

		m = append(m, Field{Key: "bounds", Value: bounds})
	}

	if g.children.len() > 0 {
		children := make(Map, 0, g.children.len())

		for _, name := range g.children.keys {
			child, _ := g.children.get(name)
			children = append(children, Field{Key: name, Value: childManifest(child)})
		}

		m = append(m, Field{Key: "children", Value: children})
	}

	return m
}

func childManifest(ent Entity) Map {
	switch e := ent.(type) {
	case *Node:
		return e.Manifest()

	case *Group:
		return e.Manifest()

	default:
		return nil
	}
}

func connectionManifests(conns []*Connection) []Map {
	out := make([]Map, len(conns))

	for i, c := range conns {
		out[i] = Map{
			{Key: "from", Value: c.src.String()},
			{Key: "to", Value: c.dst.String()},
		}
	}

	return out
}
