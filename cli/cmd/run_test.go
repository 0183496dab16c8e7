package cmd

import (
	"context"
	"strings"
	"testing"
)

// TestRunCommand tests that run streams print output and then dumps the
// finished network tree.
func TestRunCommand(t *testing.T) {
	src := writeSource(t, "plant.nxs", strings.Join([]string{
		`let plant = group "Plant";`,
		`let plant.pump = node "Pump";`,
		`print "built";`,
	}, "\n"))

	out := captureStdout(t, func() error {
		return (&Run{Sources: []string{src}}).Run(context.Background())
	})

	want := "built\n" +
		"network\n" +
		"  group plant \"Plant\"\n" +
		"    node pump \"Pump\"\n"

	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

// TestRunQuiet tests that --quiet suppresses the network tree.
func TestRunQuiet(t *testing.T) {
	src := writeSource(t, "plant.nxs", `print "only this";`)

	out := captureStdout(t, func() error {
		return (&Run{Quiet: true, Sources: []string{src}}).Run(context.Background())
	})

	if out != "only this\n" {
		t.Errorf("output = %q, want print output alone", out)
	}
}
