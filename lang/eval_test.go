package lang

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/ardnew/nexus/network"
)

// evalOK evaluates source in a fresh interpreter, failing the test on
// any diagnostic. Print output is discarded.
func evalOK(t *testing.T, source string) (Value, *Interp) {
	t.Helper()

	interp := New(WithOutput(io.Discard))

	val, err := interp.Eval(source)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	return val, interp
}

// evalErr evaluates source expecting a diagnostic.
func evalErr(t *testing.T, source string) error {
	t.Helper()

	interp := New(WithOutput(io.Discard))

	_, err := interp.Eval(source)
	if err == nil {
		t.Fatalf("Eval(%q) succeeded, want error", source)
	}

	return err
}

// wantNum asserts that source leaves the given number as its value.
func wantNum(t *testing.T, source string, want float64) {
	t.Helper()

	val, _ := evalOK(t, source)

	if val.Kind != KindNumber {
		t.Fatalf("Eval(%q) = %v value, want number", source, val.Kind)
	}

	if val.Num != want {
		t.Errorf("Eval(%q) = %v, want %v", source, val.Num, want)
	}
}

func TestEval_Arithmetic(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want float64
	}{
		{"1 + 2 * 3", 7},
		{"(1 + 2) * 3", 9},
		{"10 / 4", 2.5},
		{"7 % 3", 1},
		{"-(2 + 3)", -5},
		{"2 * 3 + 4 * 5", 26},
		{"1.5 + 2.25", 3.75},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()
			wantNum(t, tt.expr, tt.want)
		})
	}
}

func TestEval_Comparison(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want bool
	}{
		{"1 < 2", true},
		{"2 <= 2", true},
		{"3 > 4", false},
		{"5 >= 5", true},
		{"1 == 1", true},
		{"1 != 1", false},
		{`"a" == "a"`, true},
		{`"a" != "b"`, true},
		{"true == true", true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()

			val, _ := evalOK(t, tt.expr)

			if val.Kind != KindBool || val.Bool != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, val, tt.want)
			}
		})
	}
}

// Equality is defined within a kind only; comparing across kinds is a
// type error rather than false.
func TestEval_CrossKindEquality(t *testing.T) {
	t.Parallel()

	err := evalErr(t, `1 == "1"`)
	if !errors.Is(err, ErrTypeClash) {
		t.Errorf("error = %v, want type mismatch", err)
	}
}

func TestEval_Logic(t *testing.T) {
	t.Parallel()

	t.Run("operators", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			expr string
			want bool
		}{
			{"!true", false},
			{"!false", true},
			{"true && false", false},
			{"true && true", true},
			{"false || true", true},
			{"false || false", false},
		}

		for _, tt := range tests {
			val, _ := evalOK(t, tt.expr)
			if val.Bool != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.expr, val.Bool, tt.want)
			}
		}
	})

	t.Run("short_circuit", func(t *testing.T) {
		t.Parallel()

		// The right operand references an undeclared name, so these
		// only pass if it is never evaluated.
		val, _ := evalOK(t, "false && ghost")
		if val.Bool {
			t.Error("false && _ = true")
		}

		val, _ = evalOK(t, "true || ghost")
		if !val.Bool {
			t.Error("true || _ = false")
		}
	})

	t.Run("non_bool_operand", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, "1 && true")
		if !errors.Is(err, ErrTypeClash) {
			t.Errorf("error = %v, want type mismatch", err)
		}
	})
}

func TestEval_StringConcat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		expr string
		want string
	}{
		{`"a" + "b"`, "ab"},
		{`"n=" + 4`, "n=4"},
		{`4 + "n"`, "4n"},
		{`"flag=" + true`, "flag=true"},
		{`"x" + 2.5`, "x2.5"},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			t.Parallel()

			val, _ := evalOK(t, tt.expr)

			if val.Kind != KindString || val.Str != tt.want {
				t.Errorf("Eval(%q) = %v, want %q", tt.expr, val, tt.want)
			}
		})
	}

	t.Run("entity_operand", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, `"x" + node "T"`)
		if !errors.Is(err, ErrTypeClash) {
			t.Errorf("error = %v, want type mismatch", err)
		}
	})
}

func TestEval_Conditional(t *testing.T) {
	t.Parallel()

	t.Run("taken_branch_value", func(t *testing.T) {
		t.Parallel()

		val, _ := evalOK(t, `if 2 > 1 { "yes" } else { "no" }`)
		if val.Str != "yes" {
			t.Errorf("value = %v, want yes", val)
		}
	})

	t.Run("else_if_chain", func(t *testing.T) {
		t.Parallel()

		source := `
			let n = 5;
			if n < 0 { "neg" } else if n == 0 { "zero" } else { "pos" }
		`

		val, _ := evalOK(t, source)
		if val.Str != "pos" {
			t.Errorf("value = %v, want pos", val)
		}
	})

	t.Run("untaken_without_else", func(t *testing.T) {
		t.Parallel()

		val, _ := evalOK(t, "if false { 1 }")
		if val.Kind != KindUnit {
			t.Errorf("value = %v, want unit", val)
		}
	})

	t.Run("non_bool_condition", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, "if 1 { }")
		if !errors.Is(err, ErrTypeClash) {
			t.Errorf("error = %v, want type mismatch", err)
		}
	})
}

func TestEval_WhileLoop(t *testing.T) {
	t.Parallel()

	source := `
		let mut n = 0;
		while n < 3 { n = n + 1; }
		n
	`

	wantNum(t, source, 3)
}

func TestEval_ForLoop(t *testing.T) {
	t.Parallel()

	t.Run("exclusive_range", func(t *testing.T) {
		t.Parallel()

		source := `
			let mut sum = 0;
			for i in 0..4 { sum = sum + i; }
			sum
		`

		wantNum(t, source, 6)
	})

	t.Run("inclusive_range", func(t *testing.T) {
		t.Parallel()

		source := `
			let mut sum = 0;
			for i in 0..=4 { sum = sum + i; }
			sum
		`

		wantNum(t, source, 10)
	})

	t.Run("empty_range", func(t *testing.T) {
		t.Parallel()

		source := `
			let mut steps = 0;
			for i in 3..3 { steps = steps + 1; }
			steps
		`

		wantNum(t, source, 0)
	})

	t.Run("variable_scoped_to_loop", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, "for i in 0..2 { } i")
		if !errors.Is(err, ErrUndeclared) {
			t.Errorf("error = %v, want undeclared", err)
		}
	})

	t.Run("non_range_iterable", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, "for i in 5 { }")
		if !errors.Is(err, ErrTypeClash) {
			t.Errorf("error = %v, want type mismatch", err)
		}
	})
}

func TestEval_Bindings(t *testing.T) {
	t.Parallel()

	t.Run("immutable_reassign", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, "let x = 1; x = 2;")
		if !errors.Is(err, ErrImmutable) {
			t.Errorf("error = %v, want immutable", err)
		}
	})

	t.Run("mutable_reassign", func(t *testing.T) {
		t.Parallel()
		wantNum(t, "let mut x = 1; x = 2; x", 2)
	})

	t.Run("kind_stability", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, `let mut x = 1; x = "s";`)
		if !errors.Is(err, ErrTypeClash) {
			t.Errorf("error = %v, want type mismatch", err)
		}
	})

	t.Run("uninitialized_use", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, "let x; x + 1")
		if !errors.Is(err, ErrUninitialized) {
			t.Errorf("error = %v, want uninitialized", err)
		}
	})

	t.Run("deferred_initialization", func(t *testing.T) {
		t.Parallel()

		// The first assignment to a declared binding initializes it
		// even without mut; later writes are reassignments.
		wantNum(t, "let x; x = 3; x", 3)

		err := evalErr(t, "let x; x = 3; x = 4;")
		if !errors.Is(err, ErrImmutable) {
			t.Errorf("error = %v, want immutable", err)
		}
	})

	t.Run("undeclared_use", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, "ghost + 1")
		if !errors.Is(err, ErrUndeclared) {
			t.Errorf("error = %v, want undeclared", err)
		}
	})

	t.Run("annotation_mismatch", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, `let x: Number = "s";`)
		if !errors.Is(err, ErrTypeClash) {
			t.Errorf("error = %v, want type mismatch", err)
		}
	})

	t.Run("block_shadowing", func(t *testing.T) {
		t.Parallel()
		wantNum(t, "let x = 1; { let x = 2; } x", 1)
	})

	t.Run("constant", func(t *testing.T) {
		t.Parallel()
		wantNum(t, "const N: Number = 3; N * 2", 6)

		err := evalErr(t, "const N: Number = 3; N = 4;")
		if !errors.Is(err, ErrImmutable) {
			t.Errorf("error = %v, want immutable", err)
		}
	})
}

// A standalone brace block runs in its own scope, and as the final
// statement it supplies the program's value.
func TestEval_StandaloneBlock(t *testing.T) {
	t.Parallel()

	wantNum(t, "{ 42 }", 42)
	wantNum(t, "let x = 1; { let y = x + 1; y * 10 }", 20)

	err := evalErr(t, "{ let y = 2; } y")
	if !errors.Is(err, ErrUndeclared) {
		t.Errorf("error = %v, want undeclared", err)
	}
}

func TestEval_Functions(t *testing.T) {
	t.Parallel()

	t.Run("hoisting", func(t *testing.T) {
		t.Parallel()

		source := `
			let v = twice(21);
			fn twice(n: Number) -> Number { return n * 2; }
			v
		`

		wantNum(t, source, 42)
	})

	t.Run("implicit_result", func(t *testing.T) {
		t.Parallel()
		wantNum(t, "fn three() -> Number { 3 } three()", 3)
	})

	t.Run("unit_result", func(t *testing.T) {
		t.Parallel()

		val, _ := evalOK(t, "fn noop() { } noop()")
		if val.Kind != KindUnit {
			t.Errorf("value = %v, want unit", val)
		}
	})

	t.Run("inferred_result", func(t *testing.T) {
		t.Parallel()

		// Without an annotation the result type follows the body's
		// trailing value.
		wantNum(t, "fn three() { 3 } three()", 3)
	})

	t.Run("recursion", func(t *testing.T) {
		t.Parallel()

		source := `
			fn fact(n: Number) -> Number {
				if n <= 1 { return 1; }
				return n * fact(n - 1);
			}
			fact(5)
		`

		wantNum(t, source, 120)
	})

	t.Run("runaway_recursion", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, "fn spin() -> Number { return spin(); } spin()")
		if !errors.Is(err, ErrRecursion) {
			t.Errorf("error = %v, want recursion limit", err)
		}
	})

	t.Run("argument_kind", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, `fn f(n: Number) -> Number { return n; } f("s")`)
		if !errors.Is(err, ErrTypeClash) {
			t.Errorf("error = %v, want type mismatch", err)
		}
	})

	t.Run("argument_count", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, "fn f(n: Number) -> Number { return n; } f(1, 2)")
		if !errors.Is(err, ErrTypeClash) {
			t.Errorf("error = %v, want argument count mismatch", err)
		}
	})

	t.Run("result_kind", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, `fn f() -> Number { return "s"; } f()`)
		if !errors.Is(err, ErrTypeClash) {
			t.Errorf("error = %v, want type mismatch", err)
		}
	})

	t.Run("missing_result", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, "fn f() -> Number { } f()")
		if !errors.Is(err, ErrTypeClash) {
			t.Errorf("error = %v, want type mismatch", err)
		}
	})

	t.Run("not_callable", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, "let x = 1; x()")
		if !errors.Is(err, ErrTypeClash) {
			t.Errorf("error = %v, want not callable", err)
		}
	})

	t.Run("top_level_return", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, "return 5;")
		if !errors.Is(err, ErrTopReturn) {
			t.Errorf("error = %v, want top-level return", err)
		}
	})
}

func TestEval_Closures(t *testing.T) {
	t.Parallel()

	t.Run("call", func(t *testing.T) {
		t.Parallel()
		wantNum(t, `let double = \(n: Number) -> Number { n * 2 }; double(4)`, 8)
	})

	t.Run("captured_state", func(t *testing.T) {
		t.Parallel()

		source := `
			let mut count = 0;
			let bump = \() { count = count + 1; };
			bump();
			bump();
			count
		`

		wantNum(t, source, 2)
	})

	t.Run("parameter_kind", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, `let f = \(n: Number) { }; f("s")`)
		if !errors.Is(err, ErrTypeClash) {
			t.Errorf("error = %v, want type mismatch", err)
		}
	})
}

func TestEval_Nodes(t *testing.T) {
	t.Parallel()

	t.Run("two_nodes_one_connection", func(t *testing.T) {
		t.Parallel()

		_, interp := evalOK(t, `
			let c1 = node "TypeA";
			let c2 = node "TypeB";
			c1.Output -> c2.Input;
		`)

		net := interp.Network()

		names := net.Root().ChildNames()
		if len(names) != 2 || names[0] != "c1" || names[1] != "c2" {
			t.Errorf("root children = %v, want [c1 c2]", names)
		}

		ent, err := net.Resolve(network.ParsePath("c1"))
		if err != nil {
			t.Fatalf("resolve c1: %v", err)
		}

		if n := ent.(*network.Node); n.Label() != "TypeA" {
			t.Errorf("c1 label = %q, want TypeA", n.Label())
		}

		conns := net.Connections()
		if len(conns) != 1 {
			t.Fatalf("connections = %d, want 1", len(conns))
		}

		src, dst := conns[0].Source(), conns[0].Dest()

		if src.Node.Path().String() != "c1" || src.Port != "Output" {
			t.Errorf("source = %v, want c1.Output", src)
		}

		if dst.Node.Path().String() != "c2" || dst.Port != "Input" {
			t.Errorf("dest = %v, want c2.Input", dst)
		}
	})

	t.Run("ports_created_on_reference", func(t *testing.T) {
		t.Parallel()

		_, interp := evalOK(t, `
			let a = node "A";
			let b = node "B";
			a.out -> b.in;
		`)

		ent, err := interp.Network().Resolve(network.ParsePath("a"))
		if err != nil {
			t.Fatalf("resolve a: %v", err)
		}

		ports := ent.(*network.Node).PortNames()
		if len(ports) != 1 || ports[0] != "out" {
			t.Errorf("ports = %v, want [out]", ports)
		}
	})

	t.Run("properties", func(t *testing.T) {
		t.Parallel()

		source := `
			let dev = node "Sensor";
			let dev.rate = 9600;
			let dev.mode = "fast";
			let dev.enabled = true;
			dev.rate
		`

		val, interp := evalOK(t, source)
		if val.Num != 9600 {
			t.Errorf("dev.rate = %v, want 9600", val)
		}

		ent, err := interp.Network().Resolve(network.ParsePath("dev"))
		if err != nil {
			t.Fatalf("resolve dev: %v", err)
		}

		n := ent.(*network.Node)

		if mode, _ := n.Property("mode"); mode != "fast" {
			t.Errorf("mode property = %v, want fast", mode)
		}

		if enabled, _ := n.Property("enabled"); enabled != true {
			t.Errorf("enabled property = %v, want true", enabled)
		}
	})

	t.Run("property_update_requires_mut", func(t *testing.T) {
		t.Parallel()

		source := `
			let mut dev = node "Sensor";
			let dev.rate = 9600;
			dev.rate = 115200;
			dev.rate
		`

		wantNum(t, source, 115200)

		err := evalErr(t, `
			let dev = node "Sensor";
			let dev.rate = 9600;
			dev.rate = 115200;
		`)

		if !errors.Is(err, ErrImmutable) {
			t.Errorf("error = %v, want immutable", err)
		}
	})

	t.Run("property_kind_stability", func(t *testing.T) {
		t.Parallel()

		err := evalErr(t, `
			let mut dev = node "Sensor";
			let dev.rate = 9600;
			dev.rate = "fast";
		`)

		if !errors.Is(err, ErrTypeClash) {
			t.Errorf("error = %v, want type mismatch", err)
		}
	})

	t.Run("constructor_operand", func(t *testing.T) {
		t.Parallel()

		for _, source := range []string{"node 5;", "group true;"} {
			err := evalErr(t, source)
			if !errors.Is(err, ErrTypeClash) {
				t.Errorf("%q error = %v, want type mismatch", source, err)
			}
		}
	})
}

func TestEval_Groups(t *testing.T) {
	t.Parallel()

	t.Run("population", func(t *testing.T) {
		t.Parallel()

		_, interp := evalOK(t, `
			let pipe = group "Pipeline";
			let pipe.reader = node "Source";
			let pipe.writer = node "Sink";
		`)

		net := interp.Network()

		ent, err := net.Resolve(network.ParsePath("pipe"))
		if err != nil {
			t.Fatalf("resolve pipe: %v", err)
		}

		g := ent.(*network.Group)

		if g.Label() != "Pipeline" {
			t.Errorf("label = %q, want Pipeline", g.Label())
		}

		if names := g.ChildNames(); len(names) != 2 {
			t.Errorf("children = %v, want reader and writer", names)
		}

		inner, err := net.Resolve(network.ParsePath("pipe.reader"))
		if err != nil {
			t.Fatalf("resolve pipe.reader: %v", err)
		}

		if inner.(*network.Node).Label() != "Source" {
			t.Errorf("reader label = %q, want Source", inner.Label())
		}
	})

	t.Run("adhoc_base", func(t *testing.T) {
		t.Parallel()

		// A dotted declaration with an unbound base creates an
		// unlabeled group under the root.
		_, interp := evalOK(t, `let sys.core = node "CPU";`)

		ent, err := interp.Network().Resolve(network.ParsePath("sys"))
		if err != nil {
			t.Fatalf("resolve sys: %v", err)
		}

		g := ent.(*network.Group)
		if g.Label() != "" {
			t.Errorf("ad-hoc group label = %q, want empty", g.Label())
		}

		if _, err := interp.Network().Resolve(network.ParsePath("sys.core")); err != nil {
			t.Errorf("resolve sys.core: %v", err)
		}
	})

	t.Run("redeclared_child_replaces", func(t *testing.T) {
		t.Parallel()

		_, interp := evalOK(t, `
			let box = group "Box";
			let box.item = node "A";
			let box.item = node "B";
		`)

		ent, err := interp.Network().Resolve(network.ParsePath("box.item"))
		if err != nil {
			t.Fatalf("resolve box.item: %v", err)
		}

		if ent.Label() != "B" {
			t.Errorf("item label = %q, want B", ent.Label())
		}

		parent, _ := interp.Network().Resolve(network.ParsePath("box"))
		if parent.(*network.Group).Len() != 1 {
			t.Error("replaced child left a duplicate behind")
		}
	})

	t.Run("loop_children", func(t *testing.T) {
		t.Parallel()

		_, interp := evalOK(t, `
			let app = group "App";
			for i in 0..4 { app[i] = node "Stage"; }
		`)

		ent, err := interp.Network().Resolve(network.ParsePath("app"))
		if err != nil {
			t.Fatalf("resolve app: %v", err)
		}

		names := ent.(*network.Group).ChildNames()
		want := []string{"0", "1", "2", "3"}

		if len(names) != len(want) {
			t.Fatalf("children = %v, want %v", names, want)
		}

		for i, name := range want {
			if names[i] != name {
				t.Errorf("child %d = %q, want %q", i, names[i], name)
			}
		}
	})

	t.Run("computed_index_key", func(t *testing.T) {
		t.Parallel()

		_, interp := evalOK(t, `
			let g = group "G";
			g[2 + 2] = node "N";
			g["alpha"] = node "M";
		`)

		for _, path := range []string{"g.4", "g.alpha"} {
			if _, err := interp.Network().Resolve(network.ParsePath(path)); err != nil {
				t.Errorf("resolve %s: %v", path, err)
			}
		}
	})
}

// Binding an entity to a second name moves it: the tree position and
// the new binding take over, and the old binding becomes unusable.
func TestEval_MoveSemantics(t *testing.T) {
	t.Parallel()

	_, interp := evalOK(t, `
		let a = node "T";
		let b = a;
	`)

	names := interp.Network().Root().ChildNames()
	if len(names) != 1 || names[0] != "b" {
		t.Errorf("root children = %v, want [b]", names)
	}

	err := evalErr(t, `
		let a = node "T";
		let b = a;
		a
	`)

	if !errors.Is(err, ErrUninitialized) {
		t.Errorf("error = %v, want moved-value diagnostic", err)
	}
}

func TestEval_Aliases(t *testing.T) {
	t.Parallel()

	t.Run("value_kind", func(t *testing.T) {
		t.Parallel()

		val, _ := evalOK(t, `
			let pipe = group "Pipeline";
			let pipe.sink = node "Writer";
			let r = &pipe.sink.in;
			r
		`)

		if val.Kind != KindAlias {
			t.Errorf("value kind = %v, want alias", val.Kind)
		}
	})

	t.Run("boundary_port", func(t *testing.T) {
		t.Parallel()

		_, interp := evalOK(t, `
			let pipe = group "Pipeline";
			let pipe.sink = node "Writer";
			let pipe.input = &pipe.sink.in;
			let src = node "Reader";
			src.out -> pipe.input;
		`)

		net := interp.Network()

		ent, err := net.Resolve(network.ParsePath("pipe"))
		if err != nil {
			t.Fatalf("resolve pipe: %v", err)
		}

		bounds := ent.(*network.Group).BoundNames()
		if len(bounds) != 1 || bounds[0] != "input" {
			t.Errorf("boundary ports = %v, want [input]", bounds)
		}

		conns := net.Connections()
		if len(conns) != 1 {
			t.Fatalf("connections = %d, want 1", len(conns))
		}

		// The boundary port forwards to the enclosed node.
		dst := conns[0].Dest()
		if dst.Node.Path().String() != "pipe.sink" || dst.Port != "in" {
			t.Errorf("dest = %v, want pipe.sink.in", dst)
		}
	})
}

func TestEval_ConnectionOrder(t *testing.T) {
	t.Parallel()

	_, interp := evalOK(t, `
		let a = node "A";
		let b = node "B";
		a.first -> b.in;
		a.second -> b.in;
		a.third -> b.in;
	`)

	conns := interp.Network().Connections()
	want := []string{"first", "second", "third"}

	if len(conns) != len(want) {
		t.Fatalf("connections = %d, want %d", len(conns), len(want))
	}

	for i, port := range want {
		if conns[i].Source().Port != port {
			t.Errorf("connection %d source port = %q, want %q",
				i, conns[i].Source().Port, port)
		}
	}
}

func TestEval_Print(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		want   string
	}{
		{"string", `print "hello";`, "hello\n"},
		{"computed", "print 2 + 2;", "4\n"},
		{"bare", "print;", "\n"},
		{"boolean", "print 1 < 2;", "true\n"},
		{"unit", "print if false { 1 };", "()\n"},
		{"entity", `let g = node "Gauge"; print g;`, "node \"Gauge\" g\n"},
		{"sequence", `print "a"; print "b";`, "a\nb\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer

			interp := New(WithOutput(&buf))

			if _, err := interp.Eval(tt.source); err != nil {
				t.Fatalf("eval error: %v", err)
			}

			if got := buf.String(); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEval_TrailingValue(t *testing.T) {
	t.Parallel()

	val, _ := evalOK(t, "let x = 6; x * 7")
	if val.Num != 42 {
		t.Errorf("trailing value = %v, want 42", val)
	}

	val, _ = evalOK(t, "let x = 6; x * 7;")
	if val.Kind != KindUnit {
		t.Errorf("terminated value = %v, want unit", val)
	}
}

func TestEval_RangeValue(t *testing.T) {
	t.Parallel()

	val, _ := evalOK(t, "0..3")
	if val.Kind != KindRange {
		t.Fatalf("value kind = %v, want range", val.Kind)
	}

	if val.Range.Low != 0 || val.Range.High != 3 || val.Range.Inclusive {
		t.Errorf("range = %+v, want 0..3 exclusive", val.Range)
	}

	err := evalErr(t, `let lo = "a"; lo..3`)
	if !errors.Is(err, ErrTypeClash) {
		t.Errorf("error = %v, want type mismatch", err)
	}
}

func TestEval_Use(t *testing.T) {
	t.Parallel()

	t.Run("include", func(t *testing.T) {
		t.Parallel()

		loader := func(path string) (string, error) {
			if path != "lib.nxs" {
				return "", fmt.Errorf("unexpected path %q", path)
			}

			return "let shared = 9;", nil
		}

		interp := New(WithOutput(io.Discard), WithLoader(loader))

		val, err := interp.Eval(`use "lib.nxs"; shared + 1`)
		if err != nil {
			t.Fatalf("eval error: %v", err)
		}

		if val.Num != 10 {
			t.Errorf("value = %v, want 10", val)
		}
	})

	t.Run("include_once", func(t *testing.T) {
		t.Parallel()

		calls := 0
		loader := func(string) (string, error) {
			calls++

			return `let shared = node "Lib";`, nil
		}

		interp := New(WithOutput(io.Discard), WithLoader(loader))

		// The second use is a no-op, so the library's declarations do
		// not run again and evict the entities the first pass attached.
		if _, err := interp.Eval(`use "lib.nxs"; use "lib.nxs";`); err != nil {
			t.Fatalf("eval error: %v", err)
		}

		if calls != 1 {
			t.Errorf("loader calls = %d, want 1", calls)
		}

		if _, err := interp.Network().Resolve(network.Path{"shared"}); err != nil {
			t.Errorf("resolve shared: %v", err)
		}
	})

	t.Run("diamond", func(t *testing.T) {
		t.Parallel()

		baseLoads := 0
		loader := func(path string) (string, error) {
			switch path {
			case "a.nxs", "b.nxs":
				return `use "base.nxs";`, nil
			case "base.nxs":
				baseLoads++

				return `let base = node "Base";`, nil
			}

			return "", fmt.Errorf("unexpected path %q", path)
		}

		interp := New(WithOutput(io.Discard), WithLoader(loader))

		if _, err := interp.Eval(`use "a.nxs"; use "b.nxs";`); err != nil {
			t.Fatalf("eval error: %v", err)
		}

		if baseLoads != 1 {
			t.Errorf("base loads = %d, want 1", baseLoads)
		}
	})

	t.Run("reset_reincludes", func(t *testing.T) {
		t.Parallel()

		calls := 0
		loader := func(string) (string, error) {
			calls++

			return `let shared = 9;`, nil
		}

		interp := New(WithOutput(io.Discard), WithLoader(loader))

		if _, err := interp.Eval(`use "lib.nxs";`); err != nil {
			t.Fatalf("eval error: %v", err)
		}

		interp.Reset()

		if _, err := interp.Eval(`use "lib.nxs";`); err != nil {
			t.Fatalf("eval error after reset: %v", err)
		}

		if calls != 2 {
			t.Errorf("loader calls = %d, want 2", calls)
		}
	})

	t.Run("circular", func(t *testing.T) {
		t.Parallel()

		loader := func(string) (string, error) {
			return `use "self.nxs";`, nil
		}

		interp := New(WithOutput(io.Discard), WithLoader(loader))

		_, err := interp.Eval(`use "self.nxs";`)
		if !errors.Is(err, ErrReadInput) {
			t.Errorf("error = %v, want circular include diagnostic", err)
		}
	})

	t.Run("unreadable", func(t *testing.T) {
		t.Parallel()

		loader := func(path string) (string, error) {
			return "", fmt.Errorf("no such file %q", path)
		}

		interp := New(WithOutput(io.Discard), WithLoader(loader))

		_, err := interp.Eval(`use "missing.nxs";`)
		if !errors.Is(err, ErrReadInput) {
			t.Errorf("error = %v, want read failure", err)
		}
	})
}

func TestEval_Reset(t *testing.T) {
	t.Parallel()

	interp := New(WithOutput(io.Discard))

	if _, err := interp.Eval(`let n = node "T"; let x = 1;`); err != nil {
		t.Fatalf("eval error: %v", err)
	}

	interp.Reset()

	if names := interp.Scope().Names(); len(names) != 0 {
		t.Errorf("bindings after reset = %v, want none", names)
	}

	if names := interp.Network().Root().ChildNames(); len(names) != 0 {
		t.Errorf("children after reset = %v, want none", names)
	}

	// The interpreter is reusable after a reset.
	val, err := interp.Eval("1 + 1")
	if err != nil {
		t.Fatalf("eval after reset: %v", err)
	}

	if val.Num != 2 {
		t.Errorf("value = %v, want 2", val)
	}
}

// Evaluation stops at the first runtime diagnostic; statements after it
// do not run.
func TestEval_StopsOnError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer

	interp := New(WithOutput(&buf))

	_, err := interp.Eval(`print "before"; ghost; print "after";`)
	if !errors.Is(err, ErrUndeclared) {
		t.Fatalf("error = %v, want undeclared", err)
	}

	if got := buf.String(); got != "before\n" {
		t.Errorf("output = %q, want only the first print", got)
	}
}
