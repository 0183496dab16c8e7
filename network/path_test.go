package network

import (
	"slices"
	"testing"
)

func TestPath_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path Path
		want string
	}{
		{name: "empty", path: nil, want: ""},
		{name: "single", path: Path{"pump"}, want: "pump"},
		{name: "nested", path: Path{"plant", "bay", "pump"}, want: "plant.bay.pump"},
		{name: "numeric_keys", path: Path{"farm", "0"}, want: "farm.0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.path.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParsePath(t *testing.T) {
	t.Parallel()

	if got := ParsePath(""); got != nil {
		t.Errorf("ParsePath(\"\") = %v, want nil", got)
	}

	got := ParsePath("plant.bay.pump")
	if !slices.Equal(got, Path{"plant", "bay", "pump"}) {
		t.Errorf("ParsePath() = %v", got)
	}

	// Round trip
	if got.String() != "plant.bay.pump" {
		t.Errorf("round trip = %q", got.String())
	}
}

func TestPath_ParentLeaf(t *testing.T) {
	t.Parallel()

	p := Path{"plant", "pump"}

	if got := p.Parent(); !slices.Equal(got, Path{"plant"}) {
		t.Errorf("Parent() = %v", got)
	}

	if got := p.Leaf(); got != "pump" {
		t.Errorf("Leaf() = %q", got)
	}

	var empty Path

	if got := empty.Parent(); len(got) != 0 {
		t.Errorf("empty Parent() = %v", got)
	}

	if got := empty.Leaf(); got != "" {
		t.Errorf("empty Leaf() = %q", got)
	}
}

func TestPath_Child(t *testing.T) {
	t.Parallel()

	base := Path{"plant"}
	ext := base.Child("pump")

	if !slices.Equal(ext, Path{"plant", "pump"}) {
		t.Errorf("Child() = %v", ext)
	}

	// The extension must not share backing storage with the receiver.
	ext[0] = "other"

	if base[0] != "plant" {
		t.Errorf("receiver mutated: %v", base)
	}
}

func TestPortRef_String(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ref  PortRef
		want string
	}{
		{
			name: "rooted",
			ref:  PortRef{Path: Path{"plant", "pump"}, Port: "out"},
			want: "plant.pump.out",
		},
		{
			name: "top_level",
			ref:  PortRef{Path: Path{"pump"}, Port: "in"},
			want: "pump.in",
		},
		{
			name: "empty_path",
			ref:  PortRef{Port: "in"},
			want: "in",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.ref.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}
