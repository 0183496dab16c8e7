package lang

import (
	"maps"
	"slices"
	"strconv"
)

// Kind classifies a lexical token.
type Kind int

// Token kinds produced by the scanner.
const (
	EOF Kind = iota

	// Literals and identifiers
	IDENT
	NUMBER
	STRING

	// Keywords
	keywordBeg
	BOOLID   // bool
	CONST    // const
	ELSE     // else
	FALSE    // false
	FN       // fn
	FOR      // for
	GROUP    // group
	GROUPID  // Group
	IF       // if
	IN       // in
	LET      // let
	MUT      // mut
	NODE     // node
	NODEID   // Node
	NUMBERID // Number
	PRINT    // print
	RETURN   // return
	STRINGID // String
	TRUE     // true
	USE      // use
	WHILE    // while
	keywordEnd

	// Operators and punctuation
	AMP        // &
	AND        // &&
	ARROW      // ->
	ASSIGN     // =
	BANG       // !
	COLON      // :
	COMMA      // ,
	DOT        // .
	EQ         // ==
	GT         // >
	GTEQ       // >=
	LAMBDA     // \
	LBRACE     // {
	LBRACKET   // [
	LPAREN     // (
	LT         // <
	LTEQ       // <=
	MINUS      // -
	NEQ        // !=
	OR         // ||
	PERCENT    // %
	PIPE       // |
	PLUS       // +
	RANGE      // ..
	RBRACE     // }
	RBRACKET   // ]
	RPAREN     // )
	SEMI       // ;
	SLASH      // /
	STAR       // *
	UNDERSCORE // _
)

var kindName = map[Kind]string{
	EOF:        "end of input",
	IDENT:      "identifier",
	NUMBER:     "number",
	STRING:     "string",
	BOOLID:     "bool",
	CONST:      "const",
	ELSE:       "else",
	FALSE:      "false",
	FN:         "fn",
	FOR:        "for",
	GROUP:      "group",
	GROUPID:    "Group",
	IF:         "if",
	IN:         "in",
	LET:        "let",
	MUT:        "mut",
	NODE:       "node",
	NODEID:     "Node",
	NUMBERID:   "Number",
	PRINT:      "print",
	RETURN:     "return",
	STRINGID:   "String",
	TRUE:       "true",
	USE:        "use",
	WHILE:      "while",
	AMP:        "&",
	AND:        "&&",
	ARROW:      "->",
	ASSIGN:     "=",
	BANG:       "!",
	COLON:      ":",
	COMMA:      ",",
	DOT:        ".",
	EQ:         "==",
	GT:         ">",
	GTEQ:       ">=",
	LAMBDA:     `\`,
	LBRACE:     "{",
	LBRACKET:   "[",
	LPAREN:     "(",
	LT:         "<",
	LTEQ:       "<=",
	MINUS:      "-",
	NEQ:        "!=",
	OR:         "||",
	PERCENT:    "%",
	PIPE:       "|",
	PLUS:       "+",
	RANGE:      "..",
	RBRACE:     "}",
	RBRACKET:   "]",
	RPAREN:     ")",
	SEMI:       ";",
	SLASH:      "/",
	STAR:       "*",
	UNDERSCORE: "_",
}

var keywords = map[string]Kind{
	"bool":   BOOLID,
	"const":  CONST,
	"else":   ELSE,
	"false":  FALSE,
	"fn":     FN,
	"for":    FOR,
	"group":  GROUP,
	"Group":  GROUPID,
	"if":     IF,
	"in":     IN,
	"let":    LET,
	"mut":    MUT,
	"node":   NODE,
	"Node":   NODEID,
	"Number": NUMBERID,
	"print":  PRINT,
	"return": RETURN,
	"String": STRINGID,
	"true":   TRUE,
	"use":    USE,
	"while":  WHILE,
}

// Keywords returns every reserved word, sorted.
func Keywords() []string {
	return slices.Sorted(maps.Keys(keywords))
}

// LookupKeyword reports the keyword kind of word, or IDENT when word is
// not a reserved word.
func LookupKeyword(word string) Kind {
	if kind, ok := keywords[word]; ok {
		return kind
	}

	return IDENT
}

// String returns a human-readable name for the kind, suitable for
// diagnostics ("expected ';'").
func (k Kind) String() string {
	if name, ok := kindName[k]; ok {
		return name
	}

	return "unknown"
}

// IsKeyword reports whether the kind is a reserved word (including the
// builtin type names and boolean literals).
func (k Kind) IsKeyword() bool { return keywordBeg < k && k < keywordEnd }

// Pos is a 1-based source position.
type Pos struct {
	Line   int
	Column int
}

// Token is a classified lexeme with its source position.
//
// Text holds the identifier spelling or the decoded string value.
// Num holds the parsed value of a NUMBER token.
type Token struct {
	Text string
	Num  float64
	Pos  Pos
	Kind Kind
}

// String renders the token for the per-line dump command.
func (t Token) String() string {
	switch t.Kind {
	case IDENT:
		return "identifier(" + t.Text + ")"
	case NUMBER:
		return "number(" + strconv.FormatFloat(t.Num, 'g', -1, 64) + ")"
	case STRING:
		return "string(" + strconv.Quote(t.Text) + ")"
	default:
		return strconv.Quote(t.Kind.String())
	}
}
