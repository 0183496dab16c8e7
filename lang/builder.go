package lang

import (
	"log/slog"
	"slices"
	"strconv"

	"github.com/ardnew/nexus/network"
)

// This file bridges the scope chain and the network builder: dotted
// paths in source start at a scope binding, and everything past the
// first segment descends through the tree that binding's entity lives
// in.

// pathTarget is a flattened dotted or indexed path: the base names a
// scope binding, segs are the child names after it. Index keys are
// already evaluated and rendered.
type pathTarget struct {
	base *Ident
	segs []string
	pos  Pos
}

// String renders the target in dotted source notation.
func (t *pathTarget) String() string {
	if len(t.segs) == 0 {
		return t.base.Name
	}

	return t.base.Name + "." + network.Path(t.segs).String()
}

// targetPath flattens a member or index chain into its base identifier
// and trailing segments, evaluating index keys as it goes.
func (ev *evaluator) targetPath(e Expr) (*pathTarget, error) {
	var segs []string

	cur := e

	for {
		switch t := cur.(type) {
		case *Ident:
			slices.Reverse(segs)

			return &pathTarget{base: t, segs: segs, pos: e.Pos()}, nil

		case *Member:
			segs = append(segs, t.Name)
			cur = t.X

		case *Index:
			key, err := ev.evalExpr(t.Key)
			if err != nil {
				return nil, err
			}

			name, err := renderKey(key, t.Key.Pos())
			if err != nil {
				return nil, err
			}

			segs = append(segs, name)
			cur = t.X

		case *Paren:
			cur = t.X

		default:
			return nil, ErrInvalidTarget.At(cur.Pos())
		}
	}
}

// renderKey renders an index key into a child name, so that x[0]
// addresses the same child as x spelled with the dotted name "0".
func renderKey(v Value, pos Pos) (string, error) {
	switch v.Kind {
	case KindNumber:
		return formatNumber(v.Num), nil

	case KindString:
		return v.Str, nil

	case KindBool:
		return strconv.FormatBool(v.Bool), nil

	default:
		return "", ErrTypeClash.At(pos).
			With(slog.String("got", v.Kind.String()))
	}
}

// attach declares an entity child through the network builder with
// position-stamped errors.
func (ev *evaluator) attach(parent *network.Group, path network.Path, ent network.Entity, pos Pos) error {
	if err := ev.net.DeclareChild(parent, path, ent); err != nil {
		return atPos(err, pos)
	}

	ev.log.Debug("declare child",
		slog.String("path", path.String()),
		slog.String("kind", ent.Kind()),
		slog.String("label", ent.Label()),
	)

	return nil
}

// declarePath handles a dotted declaration. The base identifier is
// resolved in scope, or bound to a fresh ad-hoc root group when it
// does not resolve; the remaining segments descend into the network.
func (ev *evaluator) declarePath(decl *VarDecl) error {
	target, err := ev.targetPath(decl.Target)
	if err != nil {
		return err
	}

	if decl.Value == nil {
		return NewError("dotted declaration requires a value").At(target.pos)
	}

	val, err := ev.evalExpr(decl.Value)
	if err != nil {
		return err
	}

	if err := checkKind(decl.Type, val.Kind, decl.Pos()); err != nil {
		return err
	}

	base, err := ev.baseEntity(target.base, true)
	if err != nil {
		return err
	}

	return ev.putPath(base, target, val, decl.Value, decl.Pos())
}

// assignPath updates a dotted target. New leaves attach freely, while
// replacing an existing child, boundary port, or property requires the
// owning binding to be mutable and keeps the leaf's kind stable.
func (ev *evaluator) assignPath(stmt *AssignStmt, val Value) error {
	target, err := ev.targetPath(stmt.Target)
	if err != nil {
		return err
	}

	base, err := ev.baseEntity(target.base, false)
	if err != nil {
		return err
	}

	if occupied, kind := leafState(base, target.segs); occupied {
		b, _ := ev.scope.lookup(target.base.Name)
		if b == nil || !b.mutable {
			return ErrImmutable.At(target.pos).
				With(slog.String("path", target.String()))
		}

		if kind != val.Kind {
			return kindClash(kind, val.Kind, target.pos)
		}
	}

	return ev.putPath(base, target, val, stmt.Value, stmt.Target.Pos())
}

// baseEntity resolves the leading identifier of a dotted path to its
// entity. In declaration position an unbound name is bound to a fresh
// ad-hoc group attached under the root.
func (ev *evaluator) baseEntity(id *Ident, declare bool) (network.Entity, error) {
	b, ok := ev.scope.lookup(id.Name)
	if !ok {
		if !declare {
			return nil, ErrUndeclared.At(id.Pos()).
				With(slog.String("name", id.Name))
		}

		g := ev.net.NewGroup("")
		if err := ev.attach(nil, network.Path{id.Name}, g, id.Pos()); err != nil {
			return nil, err
		}

		ev.scope.declare(id.Name, &binding{
			value: groupVal(g),
			typ:   KindGroup,
			state: bindInitialized,
		})

		return g, nil
	}

	val, err := ev.readBinding(b, id)
	if err != nil {
		return nil, err
	}

	ent := val.entity()
	if ent == nil {
		return nil, ErrTypeClash.Wrap(errEntityTarget).At(id.Pos()).
			With(slog.String("got", val.Kind.String()))
	}

	return ent, nil
}

// putPath writes val at the path below base. Entities attach or move,
// aliases become group boundary ports, and fundamental values become
// node properties.
func (ev *evaluator) putPath(base network.Entity, target *pathTarget, val Value, src Expr, pos Pos) error {
	var payload any

	switch val.Kind {
	case KindNode:
		payload = val.Node

	case KindGroup:
		payload = val.Group

	case KindAlias:
		payload = val.Alias

	case KindNumber:
		payload = val.Num

	case KindString:
		payload = val.Str

	case KindBool:
		payload = val.Bool

	default:
		return ErrTypeClash.At(pos).
			With(slog.String("got", val.Kind.String()))
	}

	rel := network.Path(target.segs)

	switch holder := base.(type) {
	case *network.Group:
		if err := ev.net.DeclareChild(holder, rel, payload); err != nil {
			return atPos(err, pos)
		}

	case *network.Node:
		// Route through the root so the builder lands on the node and
		// applies its property rules.
		if holder.Parent() == nil {
			return atPos(network.ErrReference.
				With(slog.String("path", target.String())), pos)
		}

		full := append(holder.Path(), rel...)
		if err := ev.net.DeclareChild(nil, full, payload); err != nil {
			return atPos(err, pos)
		}
	}

	if val.isEntity() {
		ev.consume(src)
	}

	ev.log.Debug("declare child",
		slog.String("path", target.String()),
		slog.String("kind", val.Kind.String()),
	)

	return nil
}

// leafState reports whether the final path segment below base is
// already occupied, and by which fundamental kind.
func leafState(base network.Entity, segs []string) (bool, ValueKind) {
	rel := network.Path(segs)

	holder := base

	if len(rel) > 1 {
		g, ok := base.(*network.Group)
		if !ok {
			return false, KindInvalid
		}

		h, err := g.Resolve(rel.Parent())
		if err != nil {
			return false, KindInvalid
		}

		holder = h
	}

	leaf := rel.Leaf()

	switch h := holder.(type) {
	case *network.Group:
		if child, ok := h.Child(leaf); ok {
			if child.Kind() == network.KindNode {
				return true, KindNode
			}

			return true, KindGroup
		}

		if _, ok := h.Bound(leaf); ok {
			return true, KindAlias
		}

	case *network.Node:
		if prop, ok := h.Property(leaf); ok {
			return true, litValue(prop).Kind
		}
	}

	return false, KindInvalid
}

// readPath resolves a dotted read. The base binding's entity anchors
// the walk; the final segment may name a child entity, a property on a
// node, or a boundary port on a group.
func (ev *evaluator) readPath(e Expr) (Value, error) {
	target, err := ev.targetPath(e)
	if err != nil {
		return Value{}, err
	}

	base, err := ev.evalIdent(target.base)
	if err != nil {
		return Value{}, err
	}

	ent := base.entity()
	if ent == nil {
		return Value{}, ErrTypeClash.Wrap(errEntityTarget).
			At(target.base.Pos()).
			With(slog.String("got", base.Kind.String()))
	}

	rel := network.Path(target.segs)

	if g, ok := ent.(*network.Group); ok {
		if found, err := g.Resolve(rel); err == nil {
			return entityVal(found), nil
		}
	}

	holder := ent

	if len(rel) > 1 {
		g, ok := ent.(*network.Group)
		if !ok {
			return Value{}, atPos(network.ErrReference.
				With(slog.String("path", target.String())), target.pos)
		}

		h, err := g.Resolve(rel.Parent())
		if err != nil {
			return Value{}, atPos(err, target.pos)
		}

		holder = h
	}

	leaf := rel.Leaf()

	switch h := holder.(type) {
	case *network.Group:
		if ref, ok := h.Bound(leaf); ok {
			return aliasVal(ref), nil
		}

	case *network.Node:
		if prop, ok := h.Property(leaf); ok {
			return litValue(prop), nil
		}
	}

	return Value{}, atPos(network.ErrReference.
		With(slog.String("path", target.String())), target.pos)
}

// litValue wraps a property literal back into a runtime value.
func litValue(v any) Value {
	switch t := v.(type) {
	case float64:
		return numVal(t)

	case string:
		return strVal(t)

	case bool:
		return boolVal(t)

	default:
		return unitVal()
	}
}

// evalAlias computes the rooted port reference an alias expression
// names. The base binding must resolve now; the target node and port
// bind late, at each use.
func (ev *evaluator) evalAlias(alias *AliasExpr) (Value, error) {
	ref, err := ev.endpoint(alias.X)
	if err != nil {
		return Value{}, err
	}

	return aliasVal(ref), nil
}

// endpoint turns a dotted expression into a rooted port reference: the
// base identifier resolves through scope to an attached entity, whose
// tree path anchors the remaining segments. The last segment is the
// port name.
func (ev *evaluator) endpoint(e Expr) (network.PortRef, error) {
	target, err := ev.targetPath(e)
	if err != nil {
		return network.PortRef{}, err
	}

	if len(target.segs) == 0 {
		return network.PortRef{}, ErrInvalidConnect.At(e.Pos())
	}

	base, err := ev.evalIdent(target.base)
	if err != nil {
		return network.PortRef{}, err
	}

	ent := base.entity()
	if ent == nil {
		return network.PortRef{}, ErrTypeClash.Wrap(errEntityTarget).
			At(target.base.Pos()).
			With(slog.String("got", base.Kind.String()))
	}

	if ent.Parent() == nil {
		return network.PortRef{}, atPos(network.ErrReference.
			With(slog.String("path", target.String())), target.pos)
	}

	segs := target.segs

	return network.PortRef{
		Path: append(ent.Path(), segs[:len(segs)-1]...),
		Port: segs[len(segs)-1],
	}, nil
}
