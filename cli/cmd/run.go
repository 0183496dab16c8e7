package cmd

import (
	"context"
	"fmt"
	"os"
)

// Run evaluates every source against one shared interpreter, streaming
// print output as it executes, and then prints the finished network as
// an indented tree.
type Run struct {
	Quiet bool `help:"Suppress the network tree after evaluation" short:"q"`

	Sources []string `arg:"" help:"Source file(s) or '-' for stdin" name:"source" optional:""`
}

// Run executes the run command.
func (r *Run) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := gatherSources(ctx, r.Sources)
	if err != nil {
		return err
	}

	interp := newInterp(ctx, os.Stdout)

	if err := evalSources(ctx, interp, srcs); err != nil {
		return err
	}

	if r.Quiet {
		return nil
	}

	fmt.Print(interp.Network().Tree())

	return nil
}
