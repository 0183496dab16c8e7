package cli

import (
	"slices"
	"testing"
)

// TestIncludePath tests merging --include flags with the NEXUS_PATH
// environment variable into one search path.
func TestIncludePath(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		flags []string
		want  []string
	}{
		{
			name:  "flags_before_environment",
			env:   "/env/a:/env/b",
			flags: []string{"/flag/c"},
			want:  []string{"/flag/c", "/env/a", "/env/b"},
		},
		{
			name: "environment_only",
			env:  "/env/a:/env/b",
			want: []string{"/env/a", "/env/b"},
		},
		{
			name:  "flags_only",
			flags: []string{"/flag/c"},
			want:  []string{"/flag/c"},
		},
		{
			name: "neither",
		},
		{
			name: "empty_segments_dropped",
			env:  "::",
		},
		{
			name: "blank_entries_filtered",
			env:  ":/env/a:",
			want: []string{"/env/a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(includeEnv, tt.env)

			if got := includePath(tt.flags); !slices.Equal(got, tt.want) {
				t.Errorf("includePath(%v) = %v, want %v", tt.flags, got, tt.want)
			}
		})
	}
}
