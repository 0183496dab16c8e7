package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/ardnew/nexus/log"
)

// Init generates a default configuration file with current flag values.
// The file is itself a nexus program declaring a top-level config node
// whose properties resolve flag values on later invocations.
type Init struct {
	Force bool `help:"Overwrite existing configuration file" short:"f"`
}

// Run executes the init command.
func (i *Init) Run(ctx context.Context) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	ktx := kongContextFrom(ctx)

	confPath, ok := ktx.Model.Vars()[ConfigIdentifier]
	if !ok {
		panic("internal error: config path undefined")
	}

	// Check if file exists and force not set
	_, err = os.Stat(confPath)
	if err == nil && !i.Force {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			With(slog.Bool("exists", true)).
			Wrap(ErrFileExists)
	}

	err = os.WriteFile(confPath, []byte(i.buildSource(ctx)), 0o600)
	if err != nil {
		return ErrWriteConfig.
			With(slog.String("file", confPath)).
			Wrap(err)
	}

	log.DebugContext(
		ctx,
		"initialized configuration file",
		slog.String("path", confPath),
	)

	return nil
}

// flagPrefixIgnore names the flag prefixes that never belong in the
// configuration file: per-invocation inputs and build-tag dependent
// profiling options.
//
//nolint:gochecknoglobals
var flagPrefixIgnore = []string{
	"help", "version", "source", "include", "profile",
}

// buildSource renders the configuration program from current flag
// values. Only scalar flags are carried, since properties hold numbers,
// strings, and booleans.
func (i *Init) buildSource(ctx context.Context) string {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ktx := kongContextFrom(ctx)

	var sb strings.Builder

	sb.WriteString("// nexus configuration.\n")
	sb.WriteString("// Property names mirror flag names with '-' replaced by '_'.\n")
	sb.WriteString("\n")
	sb.WriteString(`let config = node "Config";`)
	sb.WriteString("\n\n")

	for _, flag := range ktx.Model.Flags {
		if flag.Hidden ||
			slices.ContainsFunc(flagPrefixIgnore, func(s string) bool {
				return strings.HasPrefix(flag.Name, s)
			}) {
			continue
		}

		lit, ok := flagLiteral(ktx.FlagValue(flag))
		if !ok {
			continue
		}

		prop := strings.ReplaceAll(flag.Name, "-", "_")
		fmt.Fprintf(&sb, "let config.%s = %s;\n", prop, lit)
	}

	return sb.String()
}

// flagLiteral renders a flag value as a source literal, reporting false
// for kinds a property cannot hold.
func flagLiteral(val any) (string, bool) {
	switch v := val.(type) {
	case bool:
		return strconv.FormatBool(v), true

	case string:
		if v == "" {
			return "", false
		}

		return strconv.Quote(v), true

	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(v), true

	case float32, float64:
		return fmt.Sprint(v), true

	default:
		return "", false
	}
}
