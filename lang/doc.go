// Package lang implements the nexus description language: a small DSL
// whose programs describe a hierarchical network of typed component
// instantiations ("nodes"), named groupings ("groups"), directed port
// connections, and ad-hoc node properties. A conventional expression
// and statement layer (arithmetic, conditionals, loops, functions,
// closures) surrounds the network constructs so descriptions can be
// generated programmatically.
//
// The pipeline is scan, parse, evaluate: [Scan] tokenizes UTF-8 source
// (identifiers use the full Unicode letter categories), [Parse] builds
// the program AST with error resynchronization at statement
// boundaries, and [Interp.Eval] walks the AST, resolving bindings
// against a lexical scope stack and driving a network builder as
// node, group, connection, and property constructs are reached.
//
// # Grammar
//
// Informal EBNF, expression precedence high to low: member/call,
// unary (! + - group node), * / %, + -, relational, equality, &&,
// ||, ranges:
//
//	program    → decl* EOF
//	decl       → fn_decl | const_decl | var_decl | use_decl | stmt
//	fn_decl    → "fn" ID "(" params? ")" ("->" type)? block
//	const_decl → "const" ID ":" type "=" expr ";"
//	var_decl   → "let" "mut"? path (":" type)? ("=" expr)? ";"
//	stmt       → expr_stmt | assignment | connect | print | return | block
//	connect    → path "->" path ";"
//	unary      → ("!" | "+" | "-" | "group" | "node") expr
//	literal    → NUMBER | STRING | "true" | "false"
//
// Blocks are expressions: the value of a trailing unterminated
// expression statement is the block's value, which is how if
// expressions yield results.
//
// # Example
//
//	fn stage(kind: String) -> Node {
//	    let n = node kind;
//	    n.retries = 3;
//	    n
//	}
//
//	let mut app = group "pipeline";
//	for i in 0..4 {
//	    app[i] = stage("Worker");
//	}
//	app[0].Output -> app[1].Input;
//
// # Bindings
//
// Bindings are immutable unless declared mut, must be initialized
// before first read, and keep the fundamental type of their first
// value for life. Assigning a node or group to a dotted path attaches
// it to the network tree, creating intermediate groups ad hoc and
// transferring ownership from the previous binding; the old name
// reads as moved afterward.
//
// The language deliberately does not check component types, port
// names, or graph shape beyond tree ownership. Downstream consumers
// traverse the finished [network.Network] and apply their own rules.
package lang
