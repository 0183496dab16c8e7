package cmd

import (
	"context"
	"os"

	"github.com/ardnew/nexus/cli/cmd/repl"
	"github.com/ardnew/nexus/log"
)

// Repl starts an interactive session. Any sources given are evaluated
// first, so the session begins with their bindings and network loaded.
type Repl struct {
	Sources []string `arg:"" help:"Source file(s) evaluated before the session" name:"source" optional:""`
}

// Run executes the repl command.
func (r *Repl) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)
	cache := ktx.Model.Vars()[CacheIdentifier]

	interp := newInterp(ctx, os.Stdout)

	// Unlike the other commands, no sources means no preload: the
	// terminal is the session's input, so stdin is never implied.
	if len(r.Sources) > 0 || len(sourcePathsFrom(ctx)) > 0 {
		srcs, err := gatherSources(ctx, r.Sources)
		if err != nil {
			return err
		}

		if err := evalSources(ctx, interp, srcs); err != nil {
			return err
		}
	}

	return repl.Run(ctx, interp, cache, log.Default())
}
