package lang

// Node is implemented by every AST node.
type Node interface {
	Pos() Pos
}

// Stmt nodes are declarations and statements.
type Stmt interface {
	Node
	stmtNode()
}

// Expr nodes produce a value when evaluated. No node owns evaluation
// state; every expression can be re-evaluated.
type Expr interface {
	Node
	exprNode()
}

// Program is the parse result: the ordered top-level declarations and
// statements of one source.
type Program struct {
	Decls []Stmt
}

// Param is one typed function or closure parameter.
type Param struct {
	Name string
	Type ValueKind
}

// FnDecl declares a named function. Function declarations are hoisted:
// the name is visible throughout the enclosing block regardless of
// textual order.
type FnDecl struct {
	Name   string
	Params []Param
	Body   *Block
	Result ValueKind // KindInvalid when the result type is omitted
	pos    Pos
}

// ConstDecl declares an immutable, eagerly typed binding. Only literal
// values of the three fundamental types are permitted.
type ConstDecl struct {
	Name  string
	Value Expr
	Type  ValueKind
	pos   Pos
}

// VarDecl declares a binding, or an ad-hoc network child when Target is
// a dotted or indexed path. Value is nil for an uninitialized binding.
type VarDecl struct {
	Target  Expr // *Ident, *Member, or *Index
	Value   Expr
	Type    ValueKind // KindInvalid when the annotation is omitted
	Mutable bool
	pos     Pos
}

// UseDecl includes another source file into the current evaluation.
type UseDecl struct {
	Path Expr
	pos  Pos
}

// ExprStmt is an expression in statement position. A trailing expression
// without ';' is unterminated and supplies its block's value.
type ExprStmt struct {
	X          Expr
	Terminated bool
}

// AssignStmt assigns to an existing binding or along a network path.
type AssignStmt struct {
	Target Expr
	Value  Expr
}

// ConnectStmt records a directed edge between two node ports.
type ConnectStmt struct {
	Source Expr
	Dest   Expr
}

// PrintStmt forwards its operand's value to the print collaborator.
type PrintStmt struct {
	X   Expr // *Empty for a bare "print;"
	pos Pos
}

// ReturnStmt unwinds to the nearest enclosing function call frame.
type ReturnStmt struct {
	X   Expr // *Empty for a bare "return;"
	pos Pos
}

// Block is a brace-delimited statement list with its own scope frame.
type Block struct {
	Stmts []Stmt
	pos   Pos
}

func (d *FnDecl) Pos() Pos      { return d.pos }
func (d *ConstDecl) Pos() Pos   { return d.pos }
func (d *VarDecl) Pos() Pos     { return d.pos }
func (d *UseDecl) Pos() Pos     { return d.pos }
func (s *ExprStmt) Pos() Pos    { return s.X.Pos() }
func (s *AssignStmt) Pos() Pos  { return s.Target.Pos() }
func (s *ConnectStmt) Pos() Pos { return s.Source.Pos() }
func (s *PrintStmt) Pos() Pos   { return s.pos }
func (s *ReturnStmt) Pos() Pos  { return s.pos }
func (b *Block) Pos() Pos       { return b.pos }

func (*FnDecl) stmtNode()      {}
func (*ConstDecl) stmtNode()   {}
func (*VarDecl) stmtNode()     {}
func (*UseDecl) stmtNode()     {}
func (*ExprStmt) stmtNode()    {}
func (*AssignStmt) stmtNode()  {}
func (*ConnectStmt) stmtNode() {}
func (*PrintStmt) stmtNode()   {}
func (*ReturnStmt) stmtNode()  {}
func (*Block) stmtNode()       {}

// BasicLit is a number, string, or boolean literal. Lit is one of
// NUMBER, STRING, TRUE, FALSE.
type BasicLit struct {
	Text string
	Num  float64
	Lit  Kind
	pos  Pos
}

// Ident is a name reference.
type Ident struct {
	Name string
	pos  Pos
}

// Unary applies a prefix operator: one of ! + - group node.
type Unary struct {
	X   Expr
	Op  Kind
	pos Pos
}

// Binary applies an infix operator to two operands.
type Binary struct {
	X  Expr
	Y  Expr
	Op Kind
}

// Member selects a named child, port, or property: x.Name.
type Member struct {
	X    Expr
	Name string
}

// Index selects a child by computed name: x[key]. The key value's
// rendering is the child name, so x[0] addresses the child "0".
type Index struct {
	X   Expr
	Key Expr
}

// Call invokes a declared function or closure binding by name.
type Call struct {
	Name string
	Args []Expr
	pos  Pos
}

// ClosureLit is an anonymous function literal. The closure captures its
// defining scope by reference.
type ClosureLit struct {
	Params []Param
	Body   *Block
	Result ValueKind
	pos    Pos
}

// RangeLit is a numeric interval with an inclusive or exclusive upper
// bound. Endpoints are restricted to literals, identifiers, and
// parenthesized expressions.
type RangeLit struct {
	Low       Expr
	High      Expr
	Inclusive bool
}

// If is a conditional expression; the taken branch's block value is the
// expression's value. Else is an *If (else-if chain), a *BlockExpr, or
// nil.
type If struct {
	Cond Expr
	Then *Block
	Else Expr
	pos  Pos
}

// While loops on a boolean condition. Its value is unit.
type While struct {
	Cond Expr
	Body *Block
	pos  Pos
}

// For iterates a range, binding Var fresh for each iteration.
type For struct {
	Var  string
	Iter Expr
	Body *Block
	pos  Pos
}

// BlockExpr is a block in expression position; its value is the block's
// trailing unterminated expression, or unit.
type BlockExpr struct {
	Block *Block
}

// AliasExpr references a network path without owning it: &path. The
// path resolves indirectly at each use.
type AliasExpr struct {
	X   Expr
	pos Pos
}

// Paren is a parenthesized expression.
type Paren struct {
	X   Expr
	pos Pos
}

// Empty is an absent expression, as in "print;" or "return;".
type Empty struct {
	pos Pos
}

func (e *BasicLit) Pos() Pos   { return e.pos }
func (e *Ident) Pos() Pos      { return e.pos }
func (e *Unary) Pos() Pos      { return e.pos }
func (e *Binary) Pos() Pos     { return e.X.Pos() }
func (e *Member) Pos() Pos     { return e.X.Pos() }
func (e *Index) Pos() Pos      { return e.X.Pos() }
func (e *Call) Pos() Pos       { return e.pos }
func (e *ClosureLit) Pos() Pos { return e.pos }
func (e *RangeLit) Pos() Pos   { return e.Low.Pos() }
func (e *If) Pos() Pos         { return e.pos }
func (e *While) Pos() Pos      { return e.pos }
func (e *For) Pos() Pos        { return e.pos }
func (e *BlockExpr) Pos() Pos  { return e.Block.Pos() }
func (e *AliasExpr) Pos() Pos  { return e.pos }
func (e *Paren) Pos() Pos      { return e.pos }
func (e *Empty) Pos() Pos      { return e.pos }

func (*BasicLit) exprNode()   {}
func (*Ident) exprNode()      {}
func (*Unary) exprNode()      {}
func (*Binary) exprNode()     {}
func (*Member) exprNode()     {}
func (*Index) exprNode()      {}
func (*Call) exprNode()       {}
func (*ClosureLit) exprNode() {}
func (*RangeLit) exprNode()   {}
func (*If) exprNode()         {}
func (*While) exprNode()      {}
func (*For) exprNode()        {}
func (*BlockExpr) exprNode()  {}
func (*AliasExpr) exprNode()  {}
func (*Paren) exprNode()      {}
func (*Empty) exprNode()      {}
