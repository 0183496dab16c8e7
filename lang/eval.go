package lang

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"path/filepath"

	"github.com/ardnew/nexus/network"
)

// Loader resolves a use path to source text. The callback decides how
// paths map onto files, so interactive sessions and include-path
// searches can plug in their own policy.
type Loader func(path string) (string, error)

// Calls nested deeper than this are assumed to be runaway recursion.
const maxCallDepth = 1000

// evaluator walks a parsed program, resolving names against its scope
// chain and driving the network builder as statements execute.
//
// Name resolution is interleaved with evaluation: a reference fails at
// the moment the statement using it runs, and the first resolution or
// builder failure aborts the program.
type evaluator struct {
	net    *network.Network
	scope  *Scope
	out    io.Writer
	log    *slog.Logger
	load   Loader
	active map[string]bool // use-cycle guard, keyed by include path
	used   map[string]bool // includes already evaluated, keyed likewise
	depth  int
}

// returnSignal unwinds the interpreter stack from a return statement
// to the nearest enclosing call.
type returnSignal struct {
	value Value
	pos   Pos
}

func (s *returnSignal) Error() string { return "return outside function" }

// run executes a program in the evaluator's persistent scope and
// returns the value of a trailing unterminated expression statement,
// so interactive sessions can echo results.
func (ev *evaluator) run(prog *Program) (Value, error) {
	val, err := ev.execBody(prog.Decls)

	var sig *returnSignal
	if errors.As(err, &sig) {
		return Value{}, ErrTopReturn.At(sig.pos)
	}

	return val, err
}

// execBody runs statements in the current scope after hoisting the
// function declarations among them, and yields the value of a trailing
// unterminated expression statement, or unit.
func (ev *evaluator) execBody(stmts []Stmt) (Value, error) {
	ev.hoist(stmts)

	last := unitVal()

	for _, s := range stmts {
		val, err := ev.evalStmt(s)
		if err != nil {
			return Value{}, err
		}

		last = val
	}

	return last, nil
}

// hoist binds every function declared directly in stmts before any of
// them runs, so functions may call each other regardless of their
// declaration order.
func (ev *evaluator) hoist(stmts []Stmt) {
	for _, s := range stmts {
		fn, ok := s.(*FnDecl)
		if !ok {
			continue
		}

		f := &Func{
			Name:   fn.Name,
			Params: fn.Params,
			Result: fn.Result,
			Body:   fn.Body,
			Env:    ev.scope,
		}

		ev.scope.declare(fn.Name, &binding{
			value: funcVal(f),
			typ:   KindFunc,
			state: bindInitialized,
		})
	}
}

func (ev *evaluator) evalStmt(s Stmt) (Value, error) {
	switch t := s.(type) {
	case *FnDecl:
		// Bound during hoisting.
		return unitVal(), nil

	case *ConstDecl:
		return unitVal(), ev.evalConstDecl(t)

	case *VarDecl:
		return unitVal(), ev.evalVarDecl(t)

	case *UseDecl:
		return unitVal(), ev.evalUseDecl(t)

	case *AssignStmt:
		return unitVal(), ev.evalAssign(t)

	case *ConnectStmt:
		return unitVal(), ev.evalConnect(t)

	case *PrintStmt:
		return unitVal(), ev.evalPrint(t)

	case *ReturnStmt:
		return Value{}, ev.evalReturn(t)

	case *ExprStmt:
		val, err := ev.evalExpr(t.X)
		if err != nil {
			return Value{}, err
		}

		if t.Terminated {
			return unitVal(), nil
		}

		return val, nil

	case *Block:
		return ev.evalBlock(t)

	default:
		return Value{}, NewError("unsupported statement").At(s.Pos())
	}
}

func (ev *evaluator) evalConstDecl(decl *ConstDecl) error {
	val, err := ev.evalExpr(decl.Value)
	if err != nil {
		return err
	}

	if err := checkKind(decl.Type, val.Kind, decl.Pos()); err != nil {
		return err
	}

	ev.scope.declare(decl.Name, &binding{
		value: val,
		typ:   decl.Type,
		state: bindInitialized,
	})

	return nil
}

func (ev *evaluator) evalVarDecl(decl *VarDecl) error {
	if target, ok := decl.Target.(*Ident); ok {
		return ev.declareName(decl, target.Name)
	}

	return ev.declarePath(decl)
}

// declareName introduces a scope binding for a plain identifier. An
// entity value is also attached under the root by the same name, so
// every named entity is addressable in the tree.
func (ev *evaluator) declareName(decl *VarDecl, name string) error {
	if decl.Value == nil {
		ev.scope.declare(name, &binding{
			typ:     decl.Type,
			mutable: decl.Mutable,
		})

		return nil
	}

	val, err := ev.evalExpr(decl.Value)
	if err != nil {
		return err
	}

	if err := checkKind(decl.Type, val.Kind, decl.Pos()); err != nil {
		return err
	}

	if ent := val.entity(); ent != nil {
		if err := ev.attach(nil, network.Path{name}, ent, decl.Pos()); err != nil {
			return err
		}

		ev.consume(decl.Value)
	}

	typ := decl.Type
	if typ == KindInvalid {
		typ = val.Kind
	}

	ev.scope.declare(name, &binding{
		value:   val,
		typ:     typ,
		state:   bindInitialized,
		mutable: decl.Mutable,
	})

	return nil
}

func (ev *evaluator) evalUseDecl(decl *UseDecl) error {
	pathVal, err := ev.evalExpr(decl.Path)
	if err != nil {
		return err
	}

	if pathVal.Kind != KindString {
		return kindClash(KindString, pathVal.Kind, decl.Path.Pos())
	}

	path := filepath.Clean(pathVal.Str)

	if ev.load == nil {
		return ErrReadInput.At(decl.Pos()).
			With(slog.String("path", path))
	}

	if ev.active[path] {
		return ErrReadInput.Wrap(errCircularUse).At(decl.Pos()).
			With(slog.String("path", path))
	}

	// Includes evaluate once per canonical path. A second use of the
	// same path is a no-op, so diamond includes do not re-declare the
	// entities the first pass attached.
	if ev.used[path] {
		ev.log.Debug("use", slog.String("path", path),
			slog.Bool("skipped", true))

		return nil
	}

	source, err := ev.load(path)
	if err != nil {
		return ErrReadInput.Wrap(err).At(decl.Pos()).
			With(slog.String("path", path))
	}

	prog, err := parseSource(source)
	if err != nil {
		return err
	}

	ev.active[path] = true
	defer delete(ev.active, path)

	ev.log.Debug("use", slog.String("path", path))

	if _, err := ev.execBody(prog.Decls); err != nil {
		return err
	}

	ev.used[path] = true

	return nil
}

func (ev *evaluator) evalAssign(stmt *AssignStmt) error {
	val, err := ev.evalExpr(stmt.Value)
	if err != nil {
		return err
	}

	if target, ok := stmt.Target.(*Ident); ok {
		return ev.assignName(target, val, stmt.Value)
	}

	return ev.assignPath(stmt, val)
}

// assignName rebinds an existing scope binding. The first write to an
// uninitialized slot is initialization and is always allowed; later
// writes require the binding to be mutable and kind-stable.
func (ev *evaluator) assignName(target *Ident, val Value, src Expr) error {
	b, ok := ev.scope.lookup(target.Name)
	if !ok {
		return ErrUndeclared.At(target.Pos()).
			With(slog.String("name", target.Name))
	}

	if b.state != bindUninitialized && !b.mutable {
		return ErrImmutable.At(target.Pos()).
			With(slog.String("name", target.Name))
	}

	if b.typ != KindInvalid && b.typ != val.Kind {
		return kindClash(b.typ, val.Kind, target.Pos())
	}

	if ent := val.entity(); ent != nil {
		if err := ev.attach(nil, network.Path{target.Name}, ent, target.Pos()); err != nil {
			return err
		}

		ev.consume(src)
	}

	if b.typ == KindInvalid {
		b.typ = val.Kind
	}

	b.value = val
	b.state = bindInitialized

	return nil
}

func (ev *evaluator) evalConnect(stmt *ConnectStmt) error {
	src, err := ev.endpoint(stmt.Source)
	if err != nil {
		return err
	}

	dst, err := ev.endpoint(stmt.Dest)
	if err != nil {
		return err
	}

	conn, err := ev.net.Connect(src, dst)
	if err != nil {
		return atPos(err, stmt.Source.Pos())
	}

	ev.log.Debug("connect",
		slog.String("from", conn.Source().String()),
		slog.String("to", conn.Dest().String()),
	)

	return nil
}

func (ev *evaluator) evalPrint(stmt *PrintStmt) error {
	if _, ok := stmt.X.(*Empty); ok {
		fmt.Fprintln(ev.out)

		return nil
	}

	val, err := ev.evalExpr(stmt.X)
	if err != nil {
		return err
	}

	fmt.Fprintln(ev.out, render(val))

	return nil
}

func (ev *evaluator) evalReturn(stmt *ReturnStmt) error {
	val, err := ev.evalExpr(stmt.X)
	if err != nil {
		return err
	}

	return &returnSignal{value: val, pos: stmt.Pos()}
}

func (ev *evaluator) evalExpr(e Expr) (Value, error) {
	switch t := e.(type) {
	case *BasicLit:
		return ev.evalLit(t)

	case *Ident:
		return ev.evalIdent(t)

	case *Unary:
		return ev.evalUnary(t)

	case *Binary:
		return ev.evalBinary(t)

	case *Member:
		return ev.readPath(t)

	case *Index:
		return ev.readPath(t)

	case *Call:
		return ev.evalCall(t)

	case *ClosureLit:
		return funcVal(&Func{
			Params:  t.Params,
			Result:  t.Result,
			Body:    t.Body,
			Env:     ev.scope,
			Closure: true,
		}), nil

	case *RangeLit:
		return ev.evalRange(t)

	case *If:
		return ev.evalIf(t)

	case *While:
		return ev.evalWhile(t)

	case *For:
		return ev.evalFor(t)

	case *BlockExpr:
		return ev.evalBlock(t.Block)

	case *AliasExpr:
		return ev.evalAlias(t)

	case *Paren:
		return ev.evalExpr(t.X)

	case *Empty:
		return unitVal(), nil

	default:
		return Value{}, NewError("unsupported expression").At(e.Pos())
	}
}

func (ev *evaluator) evalLit(lit *BasicLit) (Value, error) {
	switch lit.Lit {
	case NUMBER:
		return numVal(lit.Num), nil

	case STRING:
		return strVal(lit.Text), nil

	case TRUE:
		return boolVal(true), nil

	case FALSE:
		return boolVal(false), nil

	default:
		return Value{}, NewError("unsupported literal").At(lit.Pos())
	}
}

// evalIdent reads a binding, rejecting slots that were never
// initialized or whose value has moved away.
func (ev *evaluator) evalIdent(id *Ident) (Value, error) {
	b, ok := ev.scope.lookup(id.Name)
	if !ok {
		return Value{}, ErrUndeclared.At(id.Pos()).
			With(slog.String("name", id.Name))
	}

	return ev.readBinding(b, id)
}

// readBinding returns the binding's value after lifecycle checks.
func (ev *evaluator) readBinding(b *binding, id *Ident) (Value, error) {
	switch b.state {
	case bindUninitialized:
		return Value{}, ErrUninitialized.At(id.Pos()).
			With(slog.String("name", id.Name))

	case bindMoved:
		return Value{}, ErrUninitialized.Wrap(errMovedValue).At(id.Pos()).
			With(slog.String("name", id.Name))
	}

	return b.value, nil
}

// consume marks the binding behind a plain identifier source as moved.
// Entities produced by any other expression form have no binding to
// invalidate.
func (ev *evaluator) consume(src Expr) {
	id, ok := src.(*Ident)
	if !ok {
		return
	}

	if b, ok := ev.scope.lookup(id.Name); ok &&
		b.state == bindInitialized && b.value.isEntity() {
		b.state = bindMoved
	}
}

func (ev *evaluator) evalUnary(u *Unary) (Value, error) {
	val, err := ev.evalExpr(u.X)
	if err != nil {
		return Value{}, err
	}

	switch u.Op {
	case BANG:
		if val.Kind != KindBool {
			return Value{}, kindClash(KindBool, val.Kind, u.X.Pos())
		}

		return boolVal(!val.Bool), nil

	case MINUS:
		if val.Kind != KindNumber {
			return Value{}, kindClash(KindNumber, val.Kind, u.X.Pos())
		}

		return numVal(-val.Num), nil

	case PLUS:
		if val.Kind != KindNumber {
			return Value{}, kindClash(KindNumber, val.Kind, u.X.Pos())
		}

		return val, nil

	case NODE:
		if val.Kind != KindString {
			return Value{}, kindClash(KindString, val.Kind, u.X.Pos())
		}

		return nodeVal(ev.net.Instantiate(val.Str)), nil

	case GROUP:
		if val.Kind != KindString {
			return Value{}, kindClash(KindString, val.Kind, u.X.Pos())
		}

		return groupVal(ev.net.NewGroup(val.Str)), nil

	default:
		return Value{}, NewError("unsupported operator").At(u.Pos()).
			With(slog.String("op", u.Op.String()))
	}
}

func (ev *evaluator) evalBinary(b *Binary) (Value, error) {
	if b.Op == AND || b.Op == OR {
		return ev.evalLogic(b)
	}

	lhs, err := ev.evalExpr(b.X)
	if err != nil {
		return Value{}, err
	}

	rhs, err := ev.evalExpr(b.Y)
	if err != nil {
		return Value{}, err
	}

	switch b.Op {
	case PLUS:
		if lhs.Kind == KindString || rhs.Kind == KindString {
			return concat(lhs, rhs, b.Pos())
		}
	case EQ, NEQ:
		if lhs.Kind != rhs.Kind {
			return Value{}, kindClash(lhs.Kind, rhs.Kind, b.Y.Pos())
		}

		if b.Op == EQ {
			return boolVal(lhs.equal(rhs)), nil
		}

		return boolVal(!lhs.equal(rhs)), nil
	}

	// The remaining operators work on numbers alone.
	if lhs.Kind != KindNumber {
		return Value{}, kindClash(KindNumber, lhs.Kind, b.X.Pos())
	}

	if rhs.Kind != KindNumber {
		return Value{}, kindClash(KindNumber, rhs.Kind, b.Y.Pos())
	}

	switch b.Op {
	case PLUS:
		return numVal(lhs.Num + rhs.Num), nil

	case MINUS:
		return numVal(lhs.Num - rhs.Num), nil

	case STAR:
		return numVal(lhs.Num * rhs.Num), nil

	case SLASH:
		return numVal(lhs.Num / rhs.Num), nil

	case PERCENT:
		return numVal(math.Mod(lhs.Num, rhs.Num)), nil

	case LT:
		return boolVal(lhs.Num < rhs.Num), nil

	case LTEQ:
		return boolVal(lhs.Num <= rhs.Num), nil

	case GT:
		return boolVal(lhs.Num > rhs.Num), nil

	case GTEQ:
		return boolVal(lhs.Num >= rhs.Num), nil

	default:
		return Value{}, NewError("unsupported operator").At(b.Pos()).
			With(slog.String("op", b.Op.String()))
	}
}

// evalLogic applies && and ||, skipping the right operand when the
// left already decides the result.
func (ev *evaluator) evalLogic(b *Binary) (Value, error) {
	lhs, err := ev.evalExpr(b.X)
	if err != nil {
		return Value{}, err
	}

	if lhs.Kind != KindBool {
		return Value{}, kindClash(KindBool, lhs.Kind, b.X.Pos())
	}

	if b.Op == AND && !lhs.Bool {
		return boolVal(false), nil
	}

	if b.Op == OR && lhs.Bool {
		return boolVal(true), nil
	}

	rhs, err := ev.evalExpr(b.Y)
	if err != nil {
		return Value{}, err
	}

	if rhs.Kind != KindBool {
		return Value{}, kindClash(KindBool, rhs.Kind, b.Y.Pos())
	}

	return boolVal(rhs.Bool), nil
}

func (ev *evaluator) evalCall(call *Call) (Value, error) {
	b, ok := ev.scope.lookup(call.Name)
	if !ok {
		return Value{}, ErrUndeclared.At(call.Pos()).
			With(slog.String("name", call.Name))
	}

	val, err := ev.readBinding(b, &Ident{Name: call.Name, pos: call.Pos()})
	if err != nil {
		return Value{}, err
	}

	if val.Kind != KindFunc {
		return Value{}, ErrTypeClash.Wrap(errNotCallable).At(call.Pos()).
			With(slog.String("name", call.Name))
	}

	fn := val.Func

	if len(call.Args) != len(fn.Params) {
		return Value{}, ErrTypeClash.Wrap(errArgCount).At(call.Pos()).
			With(
				slog.String("name", call.Name),
				slog.Int("want", len(fn.Params)),
				slog.Int("got", len(call.Args)),
			)
	}

	args := make([]Value, len(call.Args))

	for i, arg := range call.Args {
		av, err := ev.evalExpr(arg)
		if err != nil {
			return Value{}, err
		}

		if err := checkKind(fn.Params[i].Type, av.Kind, arg.Pos()); err != nil {
			return Value{}, err
		}

		args[i] = av
	}

	return ev.invoke(fn, args, call.Pos())
}

// invoke runs a function body in a fresh scope chained to the scope
// the function captured, not to the caller's.
func (ev *evaluator) invoke(fn *Func, args []Value, pos Pos) (Value, error) {
	if ev.depth >= maxCallDepth {
		return Value{}, ErrRecursion.At(pos)
	}

	caller := ev.scope
	ev.scope = NewScope(fn.Env)
	ev.depth++

	defer func() {
		ev.scope = caller
		ev.depth--
	}()

	for i, p := range fn.Params {
		ev.scope.declare(p.Name, &binding{
			value: args[i],
			typ:   p.Type,
			state: bindInitialized,
		})
	}

	val, err := ev.execBody(fn.Body.Stmts)

	var sig *returnSignal
	if errors.As(err, &sig) {
		val, err = sig.value, nil
	}

	if err != nil {
		return Value{}, err
	}

	// An omitted result type is inferred from the body's trailing
	// value.
	if fn.Result == KindInvalid {
		return val, nil
	}

	if val.Kind != fn.Result {
		return Value{}, kindClash(fn.Result, val.Kind, pos)
	}

	return val, nil
}

func (ev *evaluator) evalRange(lit *RangeLit) (Value, error) {
	low, err := ev.evalExpr(lit.Low)
	if err != nil {
		return Value{}, err
	}

	if low.Kind != KindNumber {
		return Value{}, kindClash(KindNumber, low.Kind, lit.Low.Pos())
	}

	high, err := ev.evalExpr(lit.High)
	if err != nil {
		return Value{}, err
	}

	if high.Kind != KindNumber {
		return Value{}, kindClash(KindNumber, high.Kind, lit.High.Pos())
	}

	return rangeVal(Range{
		Low:       low.Num,
		High:      high.Num,
		Inclusive: lit.Inclusive,
	}), nil
}

func (ev *evaluator) evalIf(expr *If) (Value, error) {
	cond, err := ev.evalExpr(expr.Cond)
	if err != nil {
		return Value{}, err
	}

	if cond.Kind != KindBool {
		return Value{}, kindClash(KindBool, cond.Kind, expr.Cond.Pos())
	}

	if cond.Bool {
		return ev.evalBlock(expr.Then)
	}

	if expr.Else == nil {
		return unitVal(), nil
	}

	return ev.evalExpr(expr.Else)
}

// evalBlock runs a block in its own scope and yields the value of a
// trailing unterminated expression statement, or unit.
func (ev *evaluator) evalBlock(block *Block) (Value, error) {
	outer := ev.scope
	ev.scope = NewScope(outer)

	defer func() { ev.scope = outer }()

	return ev.execBody(block.Stmts)
}

func (ev *evaluator) evalWhile(loop *While) (Value, error) {
	for {
		cond, err := ev.evalExpr(loop.Cond)
		if err != nil {
			return Value{}, err
		}

		if cond.Kind != KindBool {
			return Value{}, kindClash(KindBool, cond.Kind, loop.Cond.Pos())
		}

		if !cond.Bool {
			return unitVal(), nil
		}

		if _, err := ev.evalBlock(loop.Body); err != nil {
			return Value{}, err
		}
	}
}

// evalFor iterates a numeric range upward in steps of one, binding the
// loop variable afresh for every step.
func (ev *evaluator) evalFor(loop *For) (Value, error) {
	iter, err := ev.evalExpr(loop.Iter)
	if err != nil {
		return Value{}, err
	}

	if iter.Kind != KindRange {
		return Value{}, kindClash(KindRange, iter.Kind, loop.Iter.Pos())
	}

	r := iter.Range

	for i := r.Low; r.more(i); i++ {
		outer := ev.scope
		ev.scope = NewScope(outer)
		ev.scope.declare(loop.Var, &binding{
			value: numVal(i),
			typ:   KindNumber,
			state: bindInitialized,
		})

		_, err := ev.execBody(loop.Body.Stmts)
		ev.scope = outer

		if err != nil {
			return Value{}, err
		}
	}

	return unitVal(), nil
}

// checkKind verifies an annotated type against the kind actually
// produced. KindInvalid means no annotation was written.
func checkKind(want, got ValueKind, pos Pos) error {
	if want == KindInvalid || want == got {
		return nil
	}

	return kindClash(want, got, pos)
}

func kindClash(want, got ValueKind, pos Pos) error {
	return ErrTypeClash.At(pos).With(
		slog.String("want", want.String()),
		slog.String("got", got.String()),
	)
}
