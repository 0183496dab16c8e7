package cli

import (
	"context"
	"errors"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/alecthomas/kong"
)

// resolverFor evaluates source as a config program and returns the
// resulting flag resolver.
func resolverFor(t *testing.T, source string) kong.Resolver {
	t.Helper()

	loader := resolve(context.Background(), baseConfig)

	r, err := loader(strings.NewReader(source))
	if err != nil {
		t.Fatalf("loader error: %v", err)
	}

	return r
}

// lookup resolves one flag name against the config resolver.
func lookup(t *testing.T, r kong.Resolver, name string) any {
	t.Helper()

	val, err := r.Resolve(nil, nil, &kong.Flag{Value: &kong.Value{Name: name}})
	if err != nil {
		t.Fatalf("Resolve(%s) error: %v", name, err)
	}

	return val
}

// TestResolveConfig tests flag resolution from a config program.
func TestResolveConfig(t *testing.T) {
	t.Parallel()

	r := resolverFor(t, strings.Join([]string{
		`let config = node "Config";`,
		`let config.log_level = "debug";`,
		`let config.rate = 9600;`,
		`let config.log_pretty = true;`,
	}, "\n"))

	if err := r.Validate(nil); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	// Property names resolve hyphen/underscore insensitively
	if got := lookup(t, r, "log-level"); got != "debug" {
		t.Errorf("log-level = %v, want debug", got)
	}

	// Kong parses numeric flags from strings
	if got := lookup(t, r, "rate"); got != "9600" {
		t.Errorf("rate = %v (%T), want the string 9600", got, got)
	}

	if got := lookup(t, r, "log-pretty"); got != true {
		t.Errorf("log-pretty = %v, want true", got)
	}

	if got := lookup(t, r, "unset"); got != nil {
		t.Errorf("unset = %v, want nil for Kong defaults", got)
	}
}

// TestResolveIgnoresBadConfig tests that broken or irrelevant config
// files resolve nothing rather than failing flag parsing.
func TestResolveIgnoresBadConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
	}{
		{name: "config_node_missing", source: `let other = node "X";`},
		{name: "config_is_not_a_node", source: `let config = group "G";`},
		{name: "unparsable", source: "let 5 = 1;"},
		{name: "empty", source: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			r := resolverFor(t, tt.source)

			if got := lookup(t, r, "log-level"); got != nil {
				t.Errorf("log-level = %v, want nil", got)
			}
		})
	}
}

// TestResolveUnreadable tests that a failing reader is treated like a
// missing config file.
func TestResolveUnreadable(t *testing.T) {
	t.Parallel()

	loader := resolve(context.Background(), baseConfig)

	r, err := loader(iotest.ErrReader(errors.New("device down")))
	if err != nil {
		t.Fatalf("loader error: %v", err)
	}

	if got := lookup(t, r, "log-level"); got != nil {
		t.Errorf("log-level = %v, want nil", got)
	}
}

// TestFlagKey tests name normalization.
func TestFlagKey(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{name: "log_level", want: "log-level"},
		{name: "log-level", want: "log-level"},
		{name: "plain", want: "plain"},
	}

	for _, tt := range tests {
		if got := flagKey(tt.name); got != tt.want {
			t.Errorf("flagKey(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

// TestFlagValue tests property conversion for Kong.
func TestFlagValue(t *testing.T) {
	t.Parallel()

	if got := flagValue(9600.0); got != "9600" {
		t.Errorf("flagValue(9600.0) = %v, want the string 9600", got)
	}

	if got := flagValue(0.5); got != "0.5" {
		t.Errorf("flagValue(0.5) = %v, want the string 0.5", got)
	}

	if got := flagValue("fast"); got != "fast" {
		t.Errorf("flagValue(fast) = %v", got)
	}

	if got := flagValue(true); got != true {
		t.Errorf("flagValue(true) = %v", got)
	}
}
