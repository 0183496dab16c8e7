package lang

// This file defines the read-only query environment exposed to
// expr-lang expressions over a built network. Entities surface as
// plain maps and slices so queries can use the full expr operator set
// (filter, map, indexing) without knowing the entity types.

import (
	"log/slog"
	"slices"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/ardnew/nexus/network"
)

// Query compiles and runs an expr-lang expression against the network
// built so far.
func (i *Interp) Query(source string) (any, error) {
	return QueryNetwork(i.net, source)
}

// QueryNetwork compiles and runs an expr-lang expression against net.
func QueryNetwork(net *network.Network, source string) (any, error) {
	env := queryEnv(net)

	program, err := expr.Compile(source, expr.Env(env))
	if err != nil {
		return nil, ErrExprCompile.Wrap(err).
			With(slog.String("source", source))
	}

	result, err := vm.Run(program, env)
	if err != nil {
		return nil, ErrExprEvaluate.Wrap(err).
			With(slog.String("source", source))
	}

	return result, nil
}

// QueryKeys returns the names defined in the query environment, sorted
// for completion and introspection.
func QueryKeys() []string {
	env := queryEnv(network.New())
	keys := make([]string, 0, len(env))

	for k := range env {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	return keys
}

// queryEnv builds the expr environment for one network snapshot.
func queryEnv(net *network.Network) map[string]any {
	var nodes, groups []map[string]any

	walkEntities(net.Root(), func(ent network.Entity) {
		switch e := ent.(type) {
		case *network.Node:
			nodes = append(nodes, nodeEnv(e))
		case *network.Group:
			groups = append(groups, groupEnv(e))
		}
	})

	conns := net.Connections()
	edges := make([]map[string]any, len(conns))

	for i, c := range conns {
		edges[i] = map[string]any{
			"from": c.Source().String(),
			"to":   c.Dest().String(),
		}
	}

	return map[string]any{
		"root":        groupEnv(net.Root()),
		"nodes":       nodes,
		"groups":      groups,
		"connections": edges,
		"node": func(path string) map[string]any {
			ent, err := net.Resolve(network.ParsePath(path))
			if err != nil {
				return nil
			}

			if n, ok := ent.(*network.Node); ok {
				return nodeEnv(n)
			}

			return nil
		},
		"group": func(path string) map[string]any {
			ent, err := net.Resolve(network.ParsePath(path))
			if err != nil {
				return nil
			}

			if g, ok := ent.(*network.Group); ok {
				return groupEnv(g)
			}

			return nil
		},
		"exists": func(path string) bool {
			_, err := net.Resolve(network.ParsePath(path))

			return err == nil
		},
	}
}

// walkEntities visits every entity below g depth-first, in insertion
// order.
func walkEntities(g *network.Group, visit func(network.Entity)) {
	for _, name := range g.ChildNames() {
		child, ok := g.Child(name)
		if !ok {
			continue
		}

		visit(child)

		if sub, ok := child.(*network.Group); ok {
			walkEntities(sub, visit)
		}
	}
}

func nodeEnv(n *network.Node) map[string]any {
	names := n.PropertyNames()
	props := make(map[string]any, len(names))

	for _, name := range names {
		if v, ok := n.Property(name); ok {
			props[name] = v
		}
	}

	return map[string]any{
		"path":       n.Path().String(),
		"name":       n.Name(),
		"kind":       n.Kind(),
		"label":      n.Label(),
		"properties": props,
		"ports":      n.PortNames(),
	}
}

func groupEnv(g *network.Group) map[string]any {
	names := g.BoundNames()
	bounds := make(map[string]any, len(names))

	for _, name := range names {
		if ref, ok := g.Bound(name); ok {
			bounds[name] = ref.String()
		}
	}

	return map[string]any{
		"path":     g.Path().String(),
		"name":     g.Name(),
		"kind":     g.Kind(),
		"label":    g.Label(),
		"bounds":   bounds,
		"children": g.ChildNames(),
		"size":     g.Len(),
	}
}
