package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/goccy/go-yaml"
)

// Query evaluates the sources, then runs one expression against the
// finished network and prints its result as YAML. The expression sees
// the environment described by [lang.QueryKeys]: nodes and groups by
// path, the connection list, and the node lookup helper. Program print
// output is discarded so only the result reaches stdout.
type Query struct {
	Expr string `arg:"" help:"Expression over the network environment" name:"expr"`

	Sources []string `arg:"" help:"Source file(s) or '-' for stdin" name:"source" optional:""`
}

// Run executes the query command.
func (q *Query) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := gatherSources(ctx, q.Sources)
	if err != nil {
		return err
	}

	interp := newInterp(ctx, io.Discard)

	if err := evalSources(ctx, interp, srcs); err != nil {
		return err
	}

	result, err := interp.Query(q.Expr)
	if err != nil {
		return err
	}

	data, err := yaml.Marshal(result)
	if err != nil {
		return ErrYAMLMarshal.Wrap(err).
			With(slog.String("expr", q.Expr))
	}

	_, err = os.Stdout.Write(data)

	return err
}
