package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/ardnew/nexus/lang"
)

// Scan prints the token stream of each source, one output line per
// source line. A lexical error replaces the tokens of its line, so at
// most one diagnostic appears per line and scanning always reaches the
// end of input.
type Scan struct {
	Sources []string `arg:"" help:"Source file(s) or '-' for stdin" name:"source" optional:""`
}

// Run executes the scan command.
func (s *Scan) Run(ctx context.Context) (err error) {
	_, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	srcs, err := gatherSources(ctx, s.Sources)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()

	for i, src := range srcs {
		if len(srcs) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}

			fmt.Fprintf(w, "== %s\n", src.Path)
		}

		dumpTokens(w, src.Text)
	}

	return nil
}

// dumpTokens writes one line per source line: its number, then either
// the line's tokens or its diagnostic.
func dumpTokens(w *bufio.Writer, source string) {
	var sc lang.Scanner

	for n, line := range strings.Split(source, "\n") {
		fmt.Fprintf(w, "%4d| ", n+1)

		toks, err := sc.ScanLine(line)
		if err != nil {
			fmt.Fprintln(w, err)

			continue
		}

		for i, tok := range toks {
			if i > 0 {
				w.WriteByte(' ')
			}

			w.WriteString(tok.String())
		}

		w.WriteByte('\n')
	}
}
