package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/ardnew/nexus/lang"
)

// Parse prints the syntax tree of each source without evaluating it.
// Scan and parse diagnostics are collected over the whole input and
// rendered together with source context.
type Parse struct {
	Tree ParseTree `cmd:"" default:"withargs" help:"Print an indented text tree (default)."`
	JSON ParseJSON `cmd:""                    help:"Print the tree as JSON."`
	YAML ParseYAML `cmd:""                    help:"Print the tree as YAML."`
}

// ParseTree prints the syntax tree as indented text.
type ParseTree struct {
	Sources []string `arg:"" help:"Source file(s) or '-' for stdin" name:"source" optional:""`
}

// Run executes the parse tree command.
func (p *ParseTree) Run(ctx context.Context) (err error) {
	_, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return eachProgram(ctx, p.Sources, func(prog *lang.Program) error {
		fmt.Print(prog.Tree())

		return nil
	})
}

// ParseJSON prints the syntax tree as JSON.
type ParseJSON struct {
	Indent int `default:"2" help:"Indent width for JSON output" short:"i"`

	Sources []string `arg:"" help:"Source file(s) or '-' for stdin" name:"source" optional:""`
}

// Run executes the parse json command.
func (p *ParseJSON) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return eachProgram(ctx, p.Sources, func(prog *lang.Program) error {
		return prog.FormatJSON(ctx, os.Stdout, p.Indent)
	})
}

// ParseYAML prints the syntax tree as YAML.
type ParseYAML struct {
	Indent int `default:"2" help:"Indent width for YAML output" short:"i"`

	Sources []string `arg:"" help:"Source file(s) or '-' for stdin" name:"source" optional:""`
}

// Run executes the parse yaml command.
func (p *ParseYAML) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	return eachProgram(ctx, p.Sources, func(prog *lang.Program) error {
		return prog.FormatYAML(ctx, os.Stdout, p.Indent)
	})
}

// eachProgram parses every gathered source in order and hands each
// program to emit. Sources are separated by a path header when more
// than one was given.
func eachProgram(
	ctx context.Context,
	args []string,
	emit func(*lang.Program) error,
) error {
	srcs, err := gatherSources(ctx, args)
	if err != nil {
		return err
	}

	for i, src := range srcs {
		prog, err := lang.ParseString(src.Text)
		if err != nil {
			return atSource(err, src)
		}

		if len(srcs) > 1 {
			if i > 0 {
				fmt.Println()
			}

			fmt.Printf("== %s\n", src.Path)
		}

		if err := emit(prog); err != nil {
			return err
		}
	}

	return nil
}
