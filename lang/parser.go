package lang

import "log/slog"

// parser consumes a token stream with one token of lookahead plus a
// second token of peek-ahead for call disambiguation.
type parser struct {
	toks []Token
	errs []*Error
	pos  int
}

// Parse builds a Program from a token stream. Diagnostics are collected
// across the whole stream, not just the first: after an error the parser
// resynchronizes at the next statement boundary and keeps going, so one
// pass reports as much as possible.
func Parse(toks []Token) (*Program, []*Error) {
	p := &parser{toks: toks}
	prog := new(Program)

	for !p.at(EOF) {
		start := p.pos

		decl, err := p.parseDecl()
		if err != nil {
			p.report(err)
			p.synchronize()

			// Resynchronization stops at statement boundaries without
			// consuming them; force progress on a stray boundary token.
			if p.pos == start {
				p.advance()
			}

			continue
		}

		prog.Decls = append(prog.Decls, decl)
	}

	return prog, p.errs
}

func (p *parser) parseDecl() (Stmt, *Error) {
	switch p.peek() {
	case CONST:
		return p.parseConstDecl()
	case FN:
		return p.parseFnDecl()
	case LET:
		return p.parseVarDecl()
	case USE:
		return p.parseUseDecl()
	default:
		return p.parseStmt()
	}
}

func (p *parser) parseStmt() (Stmt, *Error) {
	switch p.peek() {
	case LBRACE:
		return p.parseBlock()
	case PRINT:
		return p.parsePrintStmt()
	case RETURN:
		return p.parseReturnStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) parseFnDecl() (Stmt, *Error) {
	pos := p.advance().Pos // fn

	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	if err := p.expect(LPAREN, "after function identifier"); err != nil {
		return nil, err
	}

	var params []Param

	if !p.at(RPAREN) {
		params, err = p.parseParams()
		if err != nil {
			return nil, err
		}
	}

	if err := p.expect(RPAREN, "after function parameters"); err != nil {
		return nil, err
	}

	result := KindInvalid

	if p.advanceIf(ARROW) {
		result, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &FnDecl{
		Name:   name,
		Params: params,
		Result: result,
		Body:   body,
		pos:    pos,
	}, nil
}

func (p *parser) parseParams() ([]Param, *Error) {
	var params []Param

	for {
		name, err := p.parseIdent()
		if err != nil {
			return nil, err
		}

		if err := p.expect(COLON, "for parameter type"); err != nil {
			return nil, err
		}

		typ, err := p.parseType()
		if err != nil {
			return nil, err
		}

		params = append(params, Param{Name: name, Type: typ})

		if !p.advanceIf(COMMA) {
			return params, nil
		}
	}
}

func (p *parser) parseConstDecl() (Stmt, *Error) {
	pos := p.advance().Pos // const

	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	if err := p.expect(COLON, "for type annotation of constant value"); err != nil {
		return nil, err
	}

	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}

	if err := p.expect(ASSIGN, "for initialization of constant value"); err != nil {
		return nil, err
	}

	var value Expr

	switch typ {
	case KindBool:
		value, err = p.parseLit(TRUE, FALSE)
	case KindNumber:
		value, err = p.parseLit(NUMBER)
	case KindString:
		value, err = p.parseLit(STRING)
	case KindGroup:
		err = ErrLiteralGroup.At(p.tok().Pos)
	case KindNode:
		err = ErrLiteralNode.At(p.tok().Pos)
	}

	if err != nil {
		return nil, err
	}

	if err := p.expect(SEMI, "after statement"); err != nil {
		return nil, err
	}

	return &ConstDecl{Name: name, Type: typ, Value: value, pos: pos}, nil
}

func (p *parser) parseVarDecl() (Stmt, *Error) {
	pos := p.advance().Pos // let

	mutable := p.advanceIf(MUT)

	target, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if !isPathExpr(target) {
		p.report(ErrInvalidTarget.At(target.Pos()))
	}

	typ := KindInvalid

	if p.advanceIf(COLON) {
		typ, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	var value Expr

	if p.advanceIf(ASSIGN) {
		if p.at(AMP) {
			apos := p.advance().Pos

			path, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			if !isPathExpr(path) {
				p.report(ErrInvalidTarget.At(path.Pos()))
			}

			value = &AliasExpr{X: path, pos: apos}
		} else {
			value, err = p.parseExpr()
			if err != nil {
				return nil, err
			}
		}
	}

	if err := p.expect(SEMI, "after statement"); err != nil {
		return nil, err
	}

	return &VarDecl{
		Target:  target,
		Mutable: mutable,
		Type:    typ,
		Value:   value,
		pos:     pos,
	}, nil
}

func (p *parser) parseUseDecl() (Stmt, *Error) {
	pos := p.advance().Pos // use

	path, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if err := p.expect(SEMI, "after statement"); err != nil {
		return nil, err
	}

	return &UseDecl{Path: path, pos: pos}, nil
}

func (p *parser) parsePrintStmt() (Stmt, *Error) {
	pos := p.advance().Pos // print

	x, err := p.parseBareOperand()
	if err != nil {
		return nil, err
	}

	if err := p.expect(SEMI, "after statement"); err != nil {
		return nil, err
	}

	return &PrintStmt{X: x, pos: pos}, nil
}

func (p *parser) parseReturnStmt() (Stmt, *Error) {
	pos := p.advance().Pos // return

	x, err := p.parseBareOperand()
	if err != nil {
		return nil, err
	}

	if err := p.expect(SEMI, "after statement"); err != nil {
		return nil, err
	}

	return &ReturnStmt{X: x, pos: pos}, nil
}

// parseBareOperand parses the operand of a statement that may omit it,
// as in "print;" or "return;". The terminator is left for the
// statement to consume. Nowhere else does a statement terminator stand
// in for an expression.
func (p *parser) parseBareOperand() (Expr, *Error) {
	if tok := p.tok(); tok.Kind == SEMI {
		return &Empty{pos: tok.Pos}, nil
	}

	return p.parseExpr()
}

// parseBlock parses a brace-delimited statement list. Errors inside the
// block are reported and resynchronized locally so the block and the
// rest of the file still parse.
func (p *parser) parseBlock() (*Block, *Error) {
	tok := p.tok()
	if tok.Kind != LBRACE {
		return nil, p.expected(LBRACE, "to open block")
	}

	p.advance()

	block := &Block{pos: tok.Pos}

	for {
		switch p.peek() {
		case RBRACE:
			p.advance()

			return block, nil

		case EOF:
			return nil, ErrIncomplete.At(p.tok().Pos).
				With(slog.String("context", "block statement"))

		default:
			decl, err := p.parseDecl()
			if err != nil {
				p.report(err)
				p.synchronize()

				continue
			}

			block.Stmts = append(block.Stmts, decl)
		}
	}
}

// parseExprStmt parses an expression and dispatches on what follows:
// '->' continues a connection, '=' an assignment, otherwise the
// expression stands alone with an optional terminator.
func (p *parser) parseExprStmt() (Stmt, *Error) {
	x, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	switch p.peek() {
	case ARROW:
		return p.parseConnectStmt(x)
	case ASSIGN:
		return p.parseAssignStmt(x)
	default:
		terminated := p.advanceIf(SEMI)

		return &ExprStmt{X: x, Terminated: terminated}, nil
	}
}

func (p *parser) parseConnectStmt(source Expr) (Stmt, *Error) {
	p.advance() // ->

	dest, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	if err := p.expect(SEMI, "after statement"); err != nil {
		return nil, err
	}

	// Both endpoints need at least a node path and a port name.
	for _, x := range []Expr{source, dest} {
		if _, ok := x.(*Member); !ok {
			p.report(ErrInvalidConnect.At(x.Pos()))
		}
	}

	return &ConnectStmt{Source: source, Dest: dest}, nil
}

func (p *parser) parseAssignStmt(target Expr) (Stmt, *Error) {
	p.advance() // =

	if !isPathExpr(target) {
		p.report(ErrInvalidTarget.At(target.Pos()))
	}

	var value Expr

	if p.at(AMP) {
		apos := p.advance().Pos

		path, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if !isPathExpr(path) {
			p.report(ErrInvalidTarget.At(path.Pos()))
		}

		value = &AliasExpr{X: path, pos: apos}
	} else {
		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		value = x
	}

	if err := p.expect(SEMI, "after statement"); err != nil {
		return nil, err
	}

	return &AssignStmt{Target: target, Value: value}, nil
}

// Expression parsing. The recursion depth encodes operator precedence,
// loosest first: range, ||, &&, equality, relational, additive,
// multiplicative, unary, postfix member/index/call.

func (p *parser) parseExpr() (Expr, *Error) {
	return p.parseRange()
}

func (p *parser) parseRange() (Expr, *Error) {
	x, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	if !p.advanceIf(RANGE) {
		return x, nil
	}

	inclusive := p.advanceIf(ASSIGN)

	y, err := p.parseOr()
	if err != nil {
		return nil, err
	}

	for _, end := range []Expr{x, y} {
		if !isRangeEndpoint(end) {
			return nil, ErrRangeEndpoint.At(end.Pos())
		}
	}

	return &RangeLit{Low: x, High: y, Inclusive: inclusive}, nil
}

func (p *parser) parseOr() (Expr, *Error) {
	return p.parseBinary(p.parseAnd, OR)
}

func (p *parser) parseAnd() (Expr, *Error) {
	return p.parseBinary(p.parseEquality, AND)
}

func (p *parser) parseEquality() (Expr, *Error) {
	return p.parseBinary(p.parseRelational, EQ, NEQ)
}

func (p *parser) parseRelational() (Expr, *Error) {
	return p.parseBinary(p.parseAdditive, LT, LTEQ, GT, GTEQ)
}

func (p *parser) parseAdditive() (Expr, *Error) {
	return p.parseBinary(p.parseMultiplicative, PLUS, MINUS)
}

func (p *parser) parseMultiplicative() (Expr, *Error) {
	return p.parseBinary(p.parseUnary, STAR, SLASH, PERCENT)
}

// parseBinary parses a left-associative run of the given operators over
// the next-tighter level.
func (p *parser) parseBinary(
	next func() (Expr, *Error),
	ops ...Kind,
) (Expr, *Error) {
	x, err := next()
	if err != nil {
		return nil, err
	}

	for {
		op := p.peek()

		match := false

		for _, k := range ops {
			if op == k {
				match = true

				break
			}
		}

		if !match {
			return x, nil
		}

		p.advance()

		y, err := next()
		if err != nil {
			return nil, err
		}

		x = &Binary{Op: op, X: x, Y: y}
	}
}

func (p *parser) parseUnary() (Expr, *Error) {
	switch op := p.peek(); op {
	case BANG, PLUS, MINUS, GROUP, NODE:
		pos := p.advance().Pos

		x, err := p.parseUnary()
		if err != nil {
			return nil, err
		}

		return &Unary{Op: op, X: x, pos: pos}, nil

	default:
		return p.parsePostfix()
	}
}

func (p *parser) parsePostfix() (Expr, *Error) {
	x, err := p.parseCall()
	if err != nil {
		return nil, err
	}

	for {
		switch {
		case p.advanceIf(DOT):
			name, err := p.parseIdent()
			if err != nil {
				return nil, err
			}

			x = &Member{X: x, Name: name}

		case p.advanceIf(LBRACKET):
			key, err := p.parseExpr()
			if err != nil {
				return nil, err
			}

			if err := p.expect(RBRACKET, "after index"); err != nil {
				return nil, err
			}

			x = &Index{X: x, Key: key}

		default:
			return x, nil
		}
	}
}

func (p *parser) parseCall() (Expr, *Error) {
	if p.peek() != IDENT || p.peekNext() != LPAREN {
		return p.parsePrimary()
	}

	tok := p.advance()

	p.advance() // (

	var args []Expr

	for !p.at(RPAREN) {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		args = append(args, arg)

		if !p.advanceIf(COMMA) {
			break
		}
	}

	if err := p.expect(RPAREN, "after call arguments"); err != nil {
		return nil, err
	}

	return &Call{Name: tok.Text, Args: args, pos: tok.Pos}, nil
}

func (p *parser) parsePrimary() (Expr, *Error) {
	switch tok := p.tok(); tok.Kind {
	case NUMBER, STRING, TRUE, FALSE:
		p.advance()

		return &BasicLit{
			Lit:  tok.Kind,
			Text: tok.Text,
			Num:  tok.Num,
			pos:  tok.Pos,
		}, nil

	case IDENT:
		p.advance()

		return &Ident{Name: tok.Text, pos: tok.Pos}, nil

	case IF:
		return p.parseIf()

	case WHILE:
		return p.parseWhile()

	case FOR:
		return p.parseFor()

	case LPAREN:
		p.advance()

		x, err := p.parseExpr()
		if err != nil {
			return nil, err
		}

		if err := p.expect(RPAREN, "after expression"); err != nil {
			return nil, err
		}

		return &Paren{X: x, pos: tok.Pos}, nil

	case LBRACE:
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}

		return &BlockExpr{Block: block}, nil

	case LAMBDA:
		return p.parseClosure()

	default:
		return nil, p.unexpected("in expression")
	}
}

func (p *parser) parseIf() (Expr, *Error) {
	pos := p.advance().Pos // if

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	then, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	var els Expr

	if p.advanceIf(ELSE) {
		if p.at(IF) {
			els, err = p.parseIf()
		} else {
			var block *Block

			block, err = p.parseBlock()
			if err == nil {
				els = &BlockExpr{Block: block}
			}
		}

		if err != nil {
			return nil, err
		}
	}

	return &If{Cond: cond, Then: then, Else: els, pos: pos}, nil
}

func (p *parser) parseWhile() (Expr, *Error) {
	pos := p.advance().Pos // while

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &While{Cond: cond, Body: body, pos: pos}, nil
}

func (p *parser) parseFor() (Expr, *Error) {
	pos := p.advance().Pos // for

	name, err := p.parseIdent()
	if err != nil {
		return nil, err
	}

	if err := p.expect(IN, "after loop variable"); err != nil {
		return nil, err
	}

	iter, err := p.parseExpr()
	if err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &For{Var: name, Iter: iter, Body: body, pos: pos}, nil
}

func (p *parser) parseClosure() (Expr, *Error) {
	pos := p.advance().Pos // \

	if err := p.expect(LPAREN, "after '\\'"); err != nil {
		return nil, err
	}

	var (
		params []Param
		err    *Error
	)

	if !p.at(RPAREN) {
		params, err = p.parseParams()
		if err != nil {
			return nil, err
		}
	}

	if err := p.expect(RPAREN, "after closure parameters"); err != nil {
		return nil, err
	}

	result := KindInvalid

	if p.advanceIf(ARROW) {
		result, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ClosureLit{
		Params: params,
		Result: result,
		Body:   body,
		pos:    pos,
	}, nil
}

// parseLit parses a literal restricted to the given token kinds.
func (p *parser) parseLit(kinds ...Kind) (Expr, *Error) {
	tok := p.tok()

	for _, k := range kinds {
		if tok.Kind == k {
			p.advance()

			return &BasicLit{
				Lit:  tok.Kind,
				Text: tok.Text,
				Num:  tok.Num,
				pos:  tok.Pos,
			}, nil
		}
	}

	return nil, p.unexpected("in literal")
}

// parseIdent parses an identifier name, rejecting reserved words.
func (p *parser) parseIdent() (string, *Error) {
	tok := p.tok()

	switch {
	case tok.Kind == IDENT:
		p.advance()

		return tok.Text, nil

	case tok.Kind.IsKeyword():
		return "", ErrKeywordIdent.At(tok.Pos).
			With(slog.String("keyword", tok.Text))

	default:
		return "", p.unexpected("in identifier")
	}
}

func (p *parser) parseType() (ValueKind, *Error) {
	switch tok := p.tok(); tok.Kind {
	case BOOLID:
		p.advance()

		return KindBool, nil
	case GROUPID:
		p.advance()

		return KindGroup, nil
	case NODEID:
		p.advance()

		return KindNode, nil
	case NUMBERID:
		p.advance()

		return KindNumber, nil
	case STRINGID:
		p.advance()

		return KindString, nil
	default:
		return KindInvalid, p.unexpected("in type annotation")
	}
}

// Diagnostics and recovery

func (p *parser) report(err *Error) {
	p.errs = append(p.errs, err)
}

// synchronize discards tokens through the next statement boundary so one
// diagnostic does not cascade through the rest of the pass.
func (p *parser) synchronize() {
	for !p.at(EOF) {
		if p.advanceIf(SEMI) {
			return
		}

		switch p.peek() {
		case CONST, FN, FOR, IF, LET, PRINT, RBRACE, RETURN, USE, WHILE:
			return
		}

		p.advance()
	}
}

// expected builds the diagnostic for a missing token. Truncated input is
// reported through ErrIncomplete so interactive callers can prompt for
// continuation lines.
func (p *parser) expected(kind Kind, context string) *Error {
	tok := p.tok()

	if tok.Kind == EOF {
		return ErrIncomplete.At(tok.Pos).With(
			slog.String("expected", kind.String()),
			slog.String("context", context))
	}

	return NewError("expected '"+kind.String()+"' "+context).
		At(tok.Pos).
		With(slog.String("found", tok.Kind.String()))
}

func (p *parser) unexpected(context string) *Error {
	tok := p.tok()

	switch tok.Kind {
	case EOF:
		return ErrIncomplete.At(tok.Pos).
			With(slog.String("context", context))

	case PIPE, UNDERSCORE:
		return ErrReservedToken.At(tok.Pos).
			With(slog.String("token", tok.Kind.String()))

	default:
		return NewError("unexpected '"+tok.Kind.String()+"' "+context).
			At(tok.Pos)
	}
}

// expect consumes the next token when it has the wanted kind and reports
// a site diagnostic otherwise.
func (p *parser) expect(kind Kind, context string) *Error {
	if p.at(kind) {
		p.advance()

		return nil
	}

	return p.expected(kind, context)
}

// Cursor helpers

func (p *parser) tok() Token {
	if p.pos >= len(p.toks) {
		return Token{Kind: EOF}
	}

	return p.toks[p.pos]
}

func (p *parser) peek() Kind { return p.tok().Kind }

func (p *parser) peekNext() Kind {
	if p.pos+1 >= len(p.toks) {
		return EOF
	}

	return p.toks[p.pos+1].Kind
}

func (p *parser) at(kind Kind) bool { return p.peek() == kind }

func (p *parser) advance() Token {
	tok := p.tok()
	if tok.Kind != EOF {
		p.pos++
	}

	return tok
}

func (p *parser) advanceIf(kind Kind) bool {
	if p.at(kind) {
		p.advance()

		return true
	}

	return false
}

// Expression shape predicates

// isPathExpr reports whether x can address a binding or network child:
// an identifier extended by member and index selections.
func isPathExpr(x Expr) bool {
	switch x := x.(type) {
	case *Ident:
		return true
	case *Member:
		return isPathExpr(x.X)
	case *Index:
		return isPathExpr(x.X)
	default:
		return false
	}
}

// isRangeEndpoint reports whether x may delimit a range.
func isRangeEndpoint(x Expr) bool {
	switch x.(type) {
	case *BasicLit, *Ident, *Paren:
		return true
	default:
		return false
	}
}
