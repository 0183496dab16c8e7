package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ardnew/nexus/log"
	"github.com/ardnew/nexus/network"
	"github.com/ardnew/nexus/network/store"
)

// Export evaluates the sources and writes the finished network in a
// portable format. Program print output is discarded so only the
// exported form reaches the destination.
type Export struct {
	YAML   ExportYAML   `cmd:"" default:"withargs" help:"Write the network manifest as YAML (default)."`
	JSON   ExportJSON   `cmd:""                    help:"Write the network manifest as JSON."`
	SQLite ExportSQLite `cmd:""                    help:"Save a network snapshot to a SQLite database."`
}

// ExportYAML writes the network manifest as YAML.
type ExportYAML struct {
	Output string `help:"Output file (stdout when omitted)" placeholder:"FILE" short:"o" type:"path"`

	Sources []string `arg:"" help:"Source file(s) or '-' for stdin" name:"source" optional:""`
}

// Run executes the export yaml command.
func (e *ExportYAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	net, err := buildNetwork(ctx, e.Sources)
	if err != nil {
		return err
	}

	data, err := net.EncodeYAML()
	if err != nil {
		return ErrYAMLMarshal.Wrap(err)
	}

	return writeOutput(e.Output, data)
}

// ExportJSON writes the network manifest as JSON.
type ExportJSON struct {
	Output string `help:"Output file (stdout when omitted)" placeholder:"FILE" short:"o" type:"path"`

	Sources []string `arg:"" help:"Source file(s) or '-' for stdin" name:"source" optional:""`
}

// Run executes the export json command.
func (e *ExportJSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	net, err := buildNetwork(ctx, e.Sources)
	if err != nil {
		return err
	}

	data, err := net.EncodeJSON()
	if err != nil {
		return ErrJSONMarshal.Wrap(err)
	}

	return writeOutput(e.Output, data)
}

// ExportSQLite saves a network snapshot to a SQLite database. Each
// invocation appends a new snapshot identified by a fresh UUID, which
// is printed on success.
type ExportSQLite struct {
	Output string `default:"${cache}/network.db" help:"Database file" short:"o" type:"path"`

	Sources []string `arg:"" help:"Source file(s) or '-' for stdin" name:"source" optional:""`
}

// Run executes the export sqlite command.
func (e *ExportSQLite) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	net, err := buildNetwork(ctx, e.Sources)
	if err != nil {
		return err
	}

	st, err := store.Open(e.Output)
	if err != nil {
		return ErrWriteOutput.Wrap(err).
			With(slog.String("path", e.Output))
	}
	defer st.Close()

	id, err := st.Save(ctx, net)
	if err != nil {
		return ErrWriteOutput.Wrap(err).
			With(slog.String("path", e.Output))
	}

	log.DebugContext(ctx, "snapshot saved",
		slog.String("id", id),
		slog.String("path", e.Output),
	)

	fmt.Println(id)

	return nil
}

// buildNetwork evaluates the gathered sources and returns the network
// they produce.
func buildNetwork(
	ctx context.Context,
	args []string,
) (*network.Network, error) {
	srcs, err := gatherSources(ctx, args)
	if err != nil {
		return nil, err
	}

	interp := newInterp(ctx, io.Discard)

	if err := evalSources(ctx, interp, srcs); err != nil {
		return nil, err
	}

	return interp.Network(), nil
}

// writeOutput writes data to path, or stdout when path is empty.
func writeOutput(path string, data []byte) error {
	if path == "" || path == stdinSource {
		_, err := os.Stdout.Write(data)

		return err
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ErrWriteOutput.Wrap(err).
			With(slog.String("path", path))
	}

	return nil
}
