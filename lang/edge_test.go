package lang_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"strings"
	"testing"

	"github.com/ardnew/nexus/lang"
	"github.com/ardnew/nexus/network"
)

// evalValue runs source through a fresh interpreter and returns the
// program value.
func evalValue(t *testing.T, source string) lang.Value {
	t.Helper()

	val, err := lang.New(lang.WithOutput(io.Discard)).Eval(source)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	return val
}

// TestEvalNumber_EdgeCases tests numeric extremes through the public API.
func TestEvalNumber_EdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{
			name:  "huge_integer",
			input: "99999999999999999999",
			want:  1e20,
		},
		{
			name:  "unrepresentable_integer",
			input: "9007199254740993",
			want:  9007199254740992,
		},
		{
			name:  "tiny_product",
			input: "0.000001 * 0.000001",
			want:  1e-12,
		},
		{
			name:  "negative_zero",
			input: "-0.0",
			want:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			val := evalValue(t, tt.input)
			if val.Kind != lang.KindNumber || val.Num != tt.want {
				t.Errorf("Eval(%q) = %v, want %v", tt.input, val, tt.want)
			}
		})
	}

	t.Run("division_by_zero", func(t *testing.T) {
		t.Parallel()

		if val := evalValue(t, "1 / 0"); !math.IsInf(val.Num, 1) {
			t.Errorf("1 / 0 = %v, want +Inf", val)
		}

		if val := evalValue(t, "-1 / 0"); !math.IsInf(val.Num, -1) {
			t.Errorf("-1 / 0 = %v, want -Inf", val)
		}

		if val := evalValue(t, "0 / 0"); !math.IsNaN(val.Num) {
			t.Errorf("0 / 0 = %v, want NaN", val)
		}

		if val := evalValue(t, "7 % 0"); !math.IsNaN(val.Num) {
			t.Errorf("7 %% 0 = %v, want NaN", val)
		}
	})

	t.Run("float_precision", func(t *testing.T) {
		t.Parallel()

		val := evalValue(t, "0.1 + 0.2 == 0.3")
		if val.Kind != lang.KindBool || val.Bool {
			t.Errorf("0.1 + 0.2 == 0.3 evaluated %v, want false", val)
		}
	})
}

// TestEvalString_EdgeCases tests string handling through the public API.
func TestEvalString_EdgeCases(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "empty_string",
			input: `""`,
			want:  "",
		},
		{
			name:  "unicode_text",
			input: `"こんにちは世界"`,
			want:  "こんにちは世界",
		},
		{
			name:  "emoji",
			input: `"tap 🚰 drain"`,
			want:  "tap 🚰 drain",
		},
		{
			name:  "escapes",
			input: `"say \"hi\" \\ back"`,
			want:  `say "hi" \ back`,
		},
		{
			name:  "empty_concat",
			input: `"" + ""`,
			want:  "",
		},
		{
			name:  "number_glue",
			input: `"v" + 1.5`,
			want:  "v1.5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			val := evalValue(t, tt.input)
			if val.Kind != lang.KindString || val.Str != tt.want {
				t.Errorf("Eval(%q) = %q, want %q", tt.input, val.Str, tt.want)
			}
		})
	}
}

// TestEval_DeepNesting tests recursive descent depth on pathological
// but valid inputs.
func TestEval_DeepNesting(t *testing.T) {
	t.Parallel()

	t.Run("parentheses", func(t *testing.T) {
		t.Parallel()

		source := strings.Repeat("(", 100) + "1" + strings.Repeat(")", 100)
		if val := evalValue(t, source); val.Num != 1 {
			t.Errorf("nested parens = %v, want 1", val)
		}
	})

	t.Run("blocks", func(t *testing.T) {
		t.Parallel()

		source := strings.Repeat("{ ", 60) + "42" + strings.Repeat(" }", 60)
		if val := evalValue(t, source); val.Num != 42 {
			t.Errorf("nested blocks = %v, want 42", val)
		}
	})

	t.Run("else_if_chain", func(t *testing.T) {
		t.Parallel()

		source := strings.Repeat("if false { 0 } else ", 40) + "{ 7 }"
		if val := evalValue(t, source); val.Num != 7 {
			t.Errorf("chained conditionals = %v, want 7", val)
		}
	})

	t.Run("long_sum", func(t *testing.T) {
		t.Parallel()

		source := strings.Repeat("1 + ", 399) + "1"
		if val := evalValue(t, source); val.Num != 400 {
			t.Errorf("long sum = %v, want 400", val)
		}
	})
}

// TestEval_LongLoop tests a loop body executed many times.
func TestEval_LongLoop(t *testing.T) {
	t.Parallel()

	val := evalValue(t, `
		let mut total = 0;
		for i in 0..1000 {
			total = total + i;
		}
		total
	`)
	if val.Num != 499500 {
		t.Errorf("total = %v, want 499500", val)
	}
}

// TestEval_WideNetwork builds a network with many generated children
// and a chain of connections between them.
func TestEval_WideNetwork(t *testing.T) {
	t.Parallel()

	interp := lang.New(lang.WithOutput(io.Discard))

	_, err := interp.Eval(`
		for i in 0..64 {
			farm[i] = node "Worker";
		}
		for i in 0..63 {
			farm[i].out -> farm[i + 1].in;
		}
	`)
	if err != nil {
		t.Fatalf("eval error: %v", err)
	}

	net := interp.Network()

	ent, err := net.Resolve(network.ParsePath("farm"))
	if err != nil {
		t.Fatalf("resolve farm: %v", err)
	}

	if n := ent.(*network.Group).Len(); n != 64 {
		t.Errorf("farm has %d children, want 64", n)
	}

	conns := net.Connections()
	if len(conns) != 63 {
		t.Fatalf("%d connections, want 63", len(conns))
	}

	if got := conns[0].Source().String(); got != "farm.0.out" {
		t.Errorf("first connection source = %q", got)
	}

	if got := conns[62].Dest().String(); got != "farm.63.in" {
		t.Errorf("last connection dest = %q", got)
	}
}

// TestEval_WhitespaceVariants tests carriage returns and tabs in source.
func TestEval_WhitespaceVariants(t *testing.T) {
	t.Parallel()

	t.Run("crlf", func(t *testing.T) {
		t.Parallel()

		val := evalValue(t, "let a = 1;\r\nlet b = 2;\r\na + b")
		if val.Num != 3 {
			t.Errorf("crlf program = %v, want 3", val)
		}
	})

	t.Run("tabs", func(t *testing.T) {
		t.Parallel()

		val := evalValue(t, "\tlet\tc\t=\t4;\tc")
		if val.Num != 4 {
			t.Errorf("tabbed program = %v, want 4", val)
		}
	})
}

// TestEval_UnicodeNames tests non-ASCII identifiers end to end.
func TestEval_UnicodeNames(t *testing.T) {
	t.Parallel()

	val := evalValue(t, "let café = 2; let 数 = 3; café * 数")
	if val.Num != 6 {
		t.Errorf("unicode identifiers = %v, want 6", val)
	}
}

// TestInterp_Options tests the constructor options through observable
// behavior.
func TestInterp_Options(t *testing.T) {
	t.Parallel()

	t.Run("output", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer

		interp := lang.New(lang.WithOutput(&buf))
		if _, err := interp.Eval(`print "first";`); err != nil {
			t.Fatalf("eval error: %v", err)
		}

		if buf.String() != "first\n" {
			t.Errorf("output = %q, want %q", buf.String(), "first\n")
		}

		// Redirect output between evaluations of the same session
		var second bytes.Buffer

		interp.SetOutput(&second)

		if _, err := interp.Eval(`print "second";`); err != nil {
			t.Fatalf("eval error: %v", err)
		}

		if buf.String() != "first\n" || second.String() != "second\n" {
			t.Errorf("redirect: buf = %q, second = %q",
				buf.String(), second.String())
		}
	})

	t.Run("logger", func(t *testing.T) {
		t.Parallel()

		var logBuf bytes.Buffer

		logger := slog.New(slog.NewTextHandler(&logBuf, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))

		interp := lang.New(lang.WithOutput(io.Discard), lang.WithLogger(logger))

		_, err := interp.Eval(`
			let a = node "A";
			let b = node "B";
			a.out -> b.in;
		`)
		if err != nil {
			t.Fatalf("eval error: %v", err)
		}

		if !strings.Contains(logBuf.String(), "connect") {
			t.Errorf("log output %q does not record the connection",
				logBuf.String())
		}
	})

	t.Run("loader", func(t *testing.T) {
		t.Parallel()

		loader := func(path string) (string, error) {
			if path != "lib.nxs" {
				return "", errors.New("unknown module")
			}
			return "const SCALE: Number = 10;", nil
		}

		interp := lang.New(lang.WithOutput(io.Discard), lang.WithLoader(loader))

		val, err := interp.Eval(`use "lib.nxs"; SCALE * 2`)
		if err != nil {
			t.Fatalf("eval error: %v", err)
		}

		if val.Num != 20 {
			t.Errorf("imported constant = %v, want 20", val)
		}
	})
}

// TestParseDiagnostics tests the aggregate diagnostic through the
// public API.
func TestParseDiagnostics(t *testing.T) {
	t.Parallel()

	_, err := lang.ParseString("let 5 = 1;\nlet ok = 2;\nlet x = );")
	if err == nil {
		t.Fatal("expected parse failure")
	}

	var perr *lang.ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("error is %T, want *ParseError", err)
	}

	if len(perr.Errors) != 2 {
		t.Fatalf("%d diagnostics, want 2: %v", len(perr.Errors), perr)
	}

	msg := perr.Error()
	for _, want := range []string{"parse error at line 1", "line 3", "|", "^"} {
		if !strings.Contains(msg, want) {
			t.Errorf("rendering %q missing %q", msg, want)
		}
	}

	named := perr.WithPath("demo.nxs")
	if !strings.Contains(named.Error(), "demo.nxs: parse error") {
		t.Errorf("path rendering = %q", named.Error())
	}
}

// TestFormatStream tests the writer-based format methods.
func TestFormatStream(t *testing.T) {
	t.Parallel()

	prog, err := lang.ParseString(`
		let pump = node "Pump";
		let pump.rate = 12;
		fn idle() { }
	`)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}

	t.Run("json", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := prog.FormatJSON(context.Background(), &buf, 2); err != nil {
			t.Fatalf("FormatJSON() error = %v", err)
		}

		if !json.Valid(buf.Bytes()) {
			t.Errorf("invalid JSON: %s", buf.String())
		}
	})

	t.Run("yaml", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		if err := prog.FormatYAML(context.Background(), &buf, 2); err != nil {
			t.Fatalf("FormatYAML() error = %v", err)
		}

		if !strings.Contains(buf.String(), "program") {
			t.Errorf("YAML output %q missing program key", buf.String())
		}
	})

	t.Run("tree", func(t *testing.T) {
		t.Parallel()

		if tree := prog.Tree(); !strings.HasPrefix(tree, "program") {
			t.Errorf("Tree() = %q", tree)
		}
	})
}

// TestValue_String tests the display form of program results.
func TestValue_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "number",
			input: "3.5",
			want:  "3.5",
		},
		{
			name:  "string",
			input: `"x"`,
			want:  "x",
		},
		{
			name:  "bool",
			input: "1 < 2",
			want:  "true",
		},
		{
			name:  "unit",
			input: "if false { 1 }",
			want:  "()",
		},
		{
			name:  "range",
			input: "0..=3",
			want:  "0..=3",
		},
		{
			name:  "unattached_node",
			input: `node "Pump"`,
			want:  `node "Pump"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := evalValue(t, tt.input).String(); got != tt.want {
				t.Errorf("Eval(%q).String() = %q, want %q",
					tt.input, got, tt.want)
			}
		})
	}
}
