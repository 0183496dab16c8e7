package lang

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/nexus/network"
)

// render produces the display form of a value for print statements
// and interactive echo.
func render(v Value) string {
	switch v.Kind {
	case KindUnit:
		return "()"

	case KindBool:
		return strconv.FormatBool(v.Bool)

	case KindNumber:
		return formatNumber(v.Num)

	case KindString:
		return v.Str

	case KindNode:
		return renderEntity(v.Node)

	case KindGroup:
		return renderEntity(v.Group)

	case KindFunc:
		return signature(v.Func)

	case KindRange:
		return v.Range.String()

	case KindAlias:
		return "&" + v.Alias.String()

	default:
		return "<invalid>"
	}
}

// renderEntity shows an entity's kind, label, and tree position.
// Unattached entities have no position to show.
func renderEntity(ent network.Entity) string {
	var sb strings.Builder

	sb.WriteString(ent.Kind())

	if label := ent.Label(); label != "" {
		sb.WriteString(" ")
		sb.WriteString(strconv.Quote(label))
	}

	if path := ent.Path(); len(path) > 0 {
		sb.WriteString(" ")
		sb.WriteString(path.String())
	}

	return sb.String()
}

// signature renders a function head in source notation.
func signature(f *Func) string {
	var sb strings.Builder

	if f.Closure {
		sb.WriteString("\\(")
	} else {
		sb.WriteString("fn ")
		sb.WriteString(f.Name)
		sb.WriteString("(")
	}

	for i, p := range f.Params {
		if i > 0 {
			sb.WriteString(", ")
		}

		sb.WriteString(p.Name)
		sb.WriteString(": ")
		sb.WriteString(p.Type.String())
	}

	sb.WriteString(")")

	if f.Result != KindInvalid {
		sb.WriteString(" -> ")
		sb.WriteString(f.Result.String())
	}

	return sb.String()
}

// concat joins two values with +, where at least one side is a string.
func concat(lhs, rhs Value, pos Pos) (Value, error) {
	l, err := concatPart(lhs, pos)
	if err != nil {
		return Value{}, err
	}

	r, err := concatPart(rhs, pos)
	if err != nil {
		return Value{}, err
	}

	return strVal(l + r), nil
}

// concatPart renders one operand of string concatenation. Only
// strings, numbers, and bools can join a string.
func concatPart(v Value, pos Pos) (string, error) {
	switch v.Kind {
	case KindString:
		return v.Str, nil

	case KindNumber:
		return formatNumber(v.Num), nil

	case KindBool:
		return strconv.FormatBool(v.Bool), nil

	default:
		return "", ErrTypeClash.Wrap(errConcatKind).At(pos).
			With(slog.String("got", v.Kind.String()))
	}
}

// MarshalJSON implements json.Marshaler for Program.
func (p *Program) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.dump())
}

// FormatJSON writes the program tree as JSON to the writer.
func (p *Program) FormatJSON(_ context.Context, w io.Writer, indent int) error {
	var (
		jsonData []byte
		err      error
	)

	if indent > 0 {
		jsonData, err = json.MarshalIndent(p, "", strings.Repeat(" ", indent))
	} else {
		jsonData, err = json.Marshal(p)
	}

	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(jsonData))

	return err
}

// FormatYAML writes the program tree as YAML to the writer.
func (p *Program) FormatYAML(ctx context.Context, w io.Writer, indent int) error {
	var opts []yaml.EncodeOption
	if indent > 0 {
		opts = append(opts, yaml.Indent(indent))
	} else {
		opts = append(opts, yaml.Flow(true))
	}

	yamlData, err := yaml.MarshalContext(ctx, p.dump(), opts...)
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(w, string(yamlData))

	return err
}

// dump converts the program to an ordered document tree shared by the
// JSON and YAML formats.
func (p *Program) dump() network.Map {
	return network.Map{{Key: "program", Value: dumpStmts(p.Decls)}}
}

func dumpStmts(stmts []Stmt) []any {
	out := make([]any, len(stmts))

	for i, s := range stmts {
		out[i] = dumpStmt(s)
	}

	return out
}

func dumpStmt(s Stmt) any {
	switch t := s.(type) {
	case *FnDecl:
		m := network.Map{
			{Key: "kind", Value: "fn"},
			{Key: "name", Value: t.Name},
			{Key: "params", Value: dumpParams(t.Params)},
		}

		if t.Result != KindInvalid {
			m = append(m, network.Field{Key: "result", Value: t.Result.String()})
		}

		return append(m, network.Field{Key: "body", Value: dumpStmts(t.Body.Stmts)})

	case *ConstDecl:
		return network.Map{
			{Key: "kind", Value: "const"},
			{Key: "name", Value: t.Name},
			{Key: "type", Value: t.Type.String()},
			{Key: "value", Value: dumpExpr(t.Value)},
		}

	case *VarDecl:
		m := network.Map{
			{Key: "kind", Value: "let"},
			{Key: "target", Value: dumpExpr(t.Target)},
		}

		if t.Mutable {
			m = append(m, network.Field{Key: "mutable", Value: true})
		}

		if t.Type != KindInvalid {
			m = append(m, network.Field{Key: "type", Value: t.Type.String()})
		}

		if t.Value != nil {
			m = append(m, network.Field{Key: "value", Value: dumpExpr(t.Value)})
		}

		return m

	case *UseDecl:
		return network.Map{
			{Key: "kind", Value: "use"},
			{Key: "path", Value: dumpExpr(t.Path)},
		}

	case *ExprStmt:
		m := network.Map{
			{Key: "kind", Value: "expr"},
			{Key: "value", Value: dumpExpr(t.X)},
		}

		if !t.Terminated {
			m = append(m, network.Field{Key: "trailing", Value: true})
		}

		return m

	case *AssignStmt:
		return network.Map{
			{Key: "kind", Value: "assign"},
			{Key: "target", Value: dumpExpr(t.Target)},
			{Key: "value", Value: dumpExpr(t.Value)},
		}

	case *ConnectStmt:
		return network.Map{
			{Key: "kind", Value: "connect"},
			{Key: "from", Value: dumpExpr(t.Source)},
			{Key: "to", Value: dumpExpr(t.Dest)},
		}

	case *PrintStmt:
		m := network.Map{{Key: "kind", Value: "print"}}

		if _, bare := t.X.(*Empty); !bare {
			m = append(m, network.Field{Key: "value", Value: dumpExpr(t.X)})
		}

		return m

	case *ReturnStmt:
		m := network.Map{{Key: "kind", Value: "return"}}

		if _, bare := t.X.(*Empty); !bare {
			m = append(m, network.Field{Key: "value", Value: dumpExpr(t.X)})
		}

		return m

	default:
		return network.Map{{Key: "kind", Value: "unknown"}}
	}
}

func dumpParams(params []Param) []any {
	out := make([]any, len(params))

	for i, p := range params {
		out[i] = p.Name + ": " + p.Type.String()
	}

	return out
}

func dumpExpr(e Expr) any {
	switch t := e.(type) {
	case *BasicLit:
		switch t.Lit {
		case NUMBER:
			return t.Num

		case TRUE:
			return true

		case FALSE:
			return false

		default:
			return t.Text
		}

	case *Ident:
		return network.Map{
			{Key: "kind", Value: "ident"},
			{Key: "name", Value: t.Name},
		}

	case *Unary:
		return network.Map{
			{Key: "kind", Value: "unary"},
			{Key: "op", Value: t.Op.String()},
			{Key: "value", Value: dumpExpr(t.X)},
		}

	case *Binary:
		return network.Map{
			{Key: "kind", Value: "binary"},
			{Key: "op", Value: t.Op.String()},
			{Key: "left", Value: dumpExpr(t.X)},
			{Key: "right", Value: dumpExpr(t.Y)},
		}

	case *Member:
		return network.Map{
			{Key: "kind", Value: "member"},
			{Key: "base", Value: dumpExpr(t.X)},
			{Key: "name", Value: t.Name},
		}

	case *Index:
		return network.Map{
			{Key: "kind", Value: "index"},
			{Key: "base", Value: dumpExpr(t.X)},
			{Key: "key", Value: dumpExpr(t.Key)},
		}

	case *Call:
		args := make([]any, len(t.Args))
		for i, arg := range t.Args {
			args[i] = dumpExpr(arg)
		}

		return network.Map{
			{Key: "kind", Value: "call"},
			{Key: "name", Value: t.Name},
			{Key: "args", Value: args},
		}

	case *ClosureLit:
		m := network.Map{
			{Key: "kind", Value: "closure"},
			{Key: "params", Value: dumpParams(t.Params)},
		}

		if t.Result != KindInvalid {
			m = append(m, network.Field{Key: "result", Value: t.Result.String()})
		}

		return append(m, network.Field{Key: "body", Value: dumpStmts(t.Body.Stmts)})

	case *RangeLit:
		return network.Map{
			{Key: "kind", Value: "range"},
			{Key: "low", Value: dumpExpr(t.Low)},
			{Key: "high", Value: dumpExpr(t.High)},
			{Key: "inclusive", Value: t.Inclusive},
		}

	case *If:
		m := network.Map{
			{Key: "kind", Value: "if"},
			{Key: "cond", Value: dumpExpr(t.Cond)},
			{Key: "then", Value: dumpStmts(t.Then.Stmts)},
		}

		if t.Else != nil {
			m = append(m, network.Field{Key: "else", Value: dumpExpr(t.Else)})
		}

		return m

	case *While:
		return network.Map{
			{Key: "kind", Value: "while"},
			{Key: "cond", Value: dumpExpr(t.Cond)},
			{Key: "body", Value: dumpStmts(t.Body.Stmts)},
		}

	case *For:
		return network.Map{
			{Key: "kind", Value: "for"},
			{Key: "var", Value: t.Var},
			{Key: "in", Value: dumpExpr(t.Iter)},
			{Key: "body", Value: dumpStmts(t.Body.Stmts)},
		}

	case *BlockExpr:
		return network.Map{
			{Key: "kind", Value: "block"},
			{Key: "body", Value: dumpStmts(t.Block.Stmts)},
		}

	case *AliasExpr:
		return network.Map{
			{Key: "kind", Value: "alias"},
			{Key: "target", Value: dumpExpr(t.X)},
		}

	case *Paren:
		return dumpExpr(t.X)

	case *Empty:
		return network.Map{{Key: "kind", Value: "empty"}}

	default:
		return network.Map{{Key: "kind", Value: "unknown"}}
	}
}

// Tree returns the program as an indented outline, one node per line.
func (p *Program) Tree() string {
	var d treeDumper

	d.line(0, "program")

	for _, s := range p.Decls {
		d.stmt(1, s)
	}

	return d.buf.String()
}

type treeDumper struct {
	buf strings.Builder
}

func (d *treeDumper) line(depth int, text string) {
	d.buf.WriteString(strings.Repeat("  ", depth))
	d.buf.WriteString(text)
	d.buf.WriteByte('\n')
}

func (d *treeDumper) block(depth int, label string, stmts []Stmt) {
	d.line(depth, label)

	for _, s := range stmts {
		d.stmt(depth+1, s)
	}
}

func (d *treeDumper) stmt(depth int, s Stmt) {
	switch t := s.(type) {
	case *FnDecl:
		d.block(depth, signature(&Func{
			Name:   t.Name,
			Params: t.Params,
			Result: t.Result,
		}), t.Body.Stmts)

	case *ConstDecl:
		d.line(depth, "const "+t.Name+": "+t.Type.String())
		d.expr(depth+1, t.Value)

	case *VarDecl:
		head := "let"
		if t.Mutable {
			head += " mut"
		}

		if t.Type != KindInvalid {
			head += ": " + t.Type.String()
		}

		d.line(depth, head)
		d.expr(depth+1, t.Target)

		if t.Value != nil {
			d.expr(depth+1, t.Value)
		}

	case *UseDecl:
		d.line(depth, "use")
		d.expr(depth+1, t.Path)

	case *ExprStmt:
		d.expr(depth, t.X)

	case *AssignStmt:
		d.line(depth, "assign")
		d.expr(depth+1, t.Target)
		d.expr(depth+1, t.Value)

	case *ConnectStmt:
		d.line(depth, "connect")
		d.expr(depth+1, t.Source)
		d.expr(depth+1, t.Dest)

	case *PrintStmt:
		d.line(depth, "print")

		if _, bare := t.X.(*Empty); !bare {
			d.expr(depth+1, t.X)
		}

	case *ReturnStmt:
		d.line(depth, "return")

		if _, bare := t.X.(*Empty); !bare {
			d.expr(depth+1, t.X)
		}

	default:
		d.line(depth, "unknown")
	}
}

func (d *treeDumper) expr(depth int, e Expr) {
	switch t := e.(type) {
	case *BasicLit:
		switch t.Lit {
		case NUMBER:
			d.line(depth, "number "+formatNumber(t.Num))

		case STRING:
			d.line(depth, "string "+strconv.Quote(t.Text))

		default:
			d.line(depth, "bool "+t.Text)
		}

	case *Ident:
		d.line(depth, "ident "+t.Name)

	case *Unary:
		d.line(depth, "unary "+t.Op.String())
		d.expr(depth+1, t.X)

	case *Binary:
		d.line(depth, "binary "+t.Op.String())
		d.expr(depth+1, t.X)
		d.expr(depth+1, t.Y)

	case *Member:
		d.line(depth, "member "+t.Name)
		d.expr(depth+1, t.X)

	case *Index:
		d.line(depth, "index")
		d.expr(depth+1, t.X)
		d.expr(depth+1, t.Key)

	case *Call:
		d.line(depth, "call "+t.Name)

		for _, arg := range t.Args {
			d.expr(depth+1, arg)
		}

	case *ClosureLit:
		d.block(depth, signature(&Func{
			Params:  t.Params,
			Result:  t.Result,
			Closure: true,
		}), t.Body.Stmts)

	case *RangeLit:
		op := "range"
		if t.Inclusive {
			op = "range inclusive"
		}

		d.line(depth, op)
		d.expr(depth+1, t.Low)
		d.expr(depth+1, t.High)

	case *If:
		d.line(depth, "if")
		d.expr(depth+1, t.Cond)
		d.block(depth+1, "then", t.Then.Stmts)

		if t.Else != nil {
			d.line(depth+1, "else")
			d.expr(depth+2, t.Else)
		}

	case *While:
		d.line(depth, "while")
		d.expr(depth+1, t.Cond)
		d.block(depth+1, "body", t.Body.Stmts)

	case *For:
		d.line(depth, "for "+t.Var)
		d.expr(depth+1, t.Iter)
		d.block(depth+1, "body", t.Body.Stmts)

	case *BlockExpr:
		d.block(depth, "block", t.Block.Stmts)

	case *AliasExpr:
		d.line(depth, "alias")
		d.expr(depth+1, t.X)

	case *Paren:
		d.expr(depth, t.X)

	case *Empty:
		d.line(depth, "unit")

	default:
		d.line(depth, "unknown")
	}
}
