package repl

import (
	"slices"
	"testing"

	"github.com/ardnew/nexus/lang"
)

func TestWordBounds(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		cursor    int
		wantWord  string
		wantStart int
		wantEnd   int
	}{
		{"simple", "foo", 3, "foo", 0, 3},
		{"dot_separated", "bar.baz", 7, "baz", 4, 7},
		{"after_plus", "a + fo", 6, "fo", 4, 6},
		{"after_paren", "double(fo", 9, "fo", 7, 9},
		{"after_comma", "add(a, fo", 9, "fo", 7, 9},
		{"after_comparison", "a > fo", 6, "fo", 4, 6},
		{"empty_at_boundary", "a + ", 4, "", 4, 4},
		{"mid_word", "foobar", 3, "foobar", 0, 6},
		{"at_start", "foo", 0, "foo", 0, 3},
		{"between_operators", "a+b", 2, "b", 2, 3},
		// Underscores are part of identifiers, not word boundaries.
		{"underscored", "log_level", 9, "log_level", 0, 9},
		{"underscored_after_dot", "config.log_level", 16, "log_level", 7, 16},
		{"underscored_partial", "config.log_le", 13, "log_le", 7, 13},
		// Hyphens are the subtraction operator, so they split words.
		{"hyphen_splits", "a-b", 3, "b", 2, 3},
		// After dot is an empty word (for triggering child completions).
		{"empty_after_dot", "config.", 7, "", 7, 7},
		// After a keyword the new word stands alone.
		{"after_let", "let se", 6, "se", 4, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			word, start, end := wordBounds(tt.input, tt.cursor)
			if word != tt.wantWord || start != tt.wantStart || end != tt.wantEnd {
				t.Errorf("wordBounds(%q, %d) = (%q, %d, %d), want (%q, %d, %d)",
					tt.input, tt.cursor, word, start, end,
					tt.wantWord, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestParentPath(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wordStart int
		want      string
	}{
		{"top_level", "fo", 0, ""},
		{"simple_chain", "bar.baz.", 8, "bar.baz"},
		{"after_operator", "foo + bar.baz.", 14, "bar.baz"},
		{"after_paren", "(bar.baz.", 9, "bar.baz"},
		{"no_chain", "a + ", 4, ""},
		{"deep_chain", "a.b.c.", 6, "a.b.c"},
		{"after_equals", "x = a.b.", 8, "a.b"},
		// Underscores are part of identifiers in the parent path.
		{"underscored_chain", "config.log_level.", 17, "config.log_level"},
		{"underscored_after_op", "x + net.in_a.", 13, "net.in_a"},
		// The connect arrow's '-' and '>' both split the chain.
		{"after_arrow", "a.out -> b.", 11, "b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parentPath(tt.input, tt.wordStart)
			if got != tt.want {
				t.Errorf("parentPath(%q, %d) = %q, want %q",
					tt.input, tt.wordStart, got, tt.want)
			}
		})
	}
}

func TestChildCandidates(t *testing.T) {
	interp := lang.New()

	_, err := interp.Eval(`
		let pipe = group "Pipeline";
		let pipe.reader = node "Source";
		let pipe.writer = node "Sink";
		pipe.reader.out -> pipe.writer.in;
		let solo = node "Filter";
		let solo.threshold = 42;
		solo.out -> pipe.reader.side;
	`)
	if err != nil {
		t.Fatalf("eval: %v", err)
	}

	t.Run("top_level", func(t *testing.T) {
		got := childCandidates(interp, "")

		for _, want := range []string{"pipe", "solo", "let", "node", "group"} {
			if !slices.Contains(got, want) {
				t.Errorf("top-level candidates missing %q: %v", want, got)
			}
		}
	})

	t.Run("group_children", func(t *testing.T) {
		got := childCandidates(interp, "pipe")

		if !slices.Contains(got, "reader") || !slices.Contains(got, "writer") {
			t.Errorf("pipe candidates = %v, want reader and writer", got)
		}
	})

	t.Run("node_members", func(t *testing.T) {
		got := childCandidates(interp, "solo")

		for _, want := range []string{"out", "threshold"} {
			if !slices.Contains(got, want) {
				t.Errorf("solo candidates missing %q: %v", want, got)
			}
		}
	})

	t.Run("nested_node", func(t *testing.T) {
		got := childCandidates(interp, "pipe.reader")

		for _, want := range []string{"out", "side"} {
			if !slices.Contains(got, want) {
				t.Errorf("pipe.reader candidates missing %q: %v", want, got)
			}
		}
	})

	t.Run("unknown_parent", func(t *testing.T) {
		if got := childCandidates(interp, "nosuch"); got != nil {
			t.Errorf("unknown parent candidates = %v, want nil", got)
		}
	})
}
