package cli

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nexus/lang"
	"github.com/ardnew/nexus/log"
	"github.com/ardnew/nexus/network"
)

// resolve returns a [kong.ConfigurationLoader] that reads config files
// written as nexus programs.
//
// The program is evaluated in a scratch interpreter, and the properties
// of the top-level node named by the given identifier become flag
// values. Property names match flag names hyphen/underscore
// insensitively. A missing or unparsable config file is ignored.
//
// Example config file:
//
//	let config = node "Config";
//	let config.log_level = "debug";
//	let config.log_format = "json";
//	let config.log_pretty = true;
//
// This configuration resolves the Kong flags:
//
//	--log-level=debug
//	--log-format=json
//	--log-pretty=true
//
// Command-line flags override config file values.
func resolve(ctx context.Context, name string) kong.ConfigurationLoader {
	return func(r io.Reader) (kong.Resolver, error) {
		data, err := io.ReadAll(r)
		if err != nil {
			return config{}, nil
		}

		// Evaluate with print output discarded. The parse cache makes
		// re-reading the same file across commands cheap.
		interp := lang.New(lang.WithOutput(io.Discard))

		_, err = interp.Eval(string(data))
		if err != nil {
			log.DebugContext(ctx, "config file ignored",
				slog.Any("error", err),
			)

			return config{}, nil
		}

		ent, ok := interp.Network().Root().Child(name)
		if !ok {
			// Entity not declared - return empty config
			return config{}, nil
		}

		node, ok := ent.(*network.Node)
		if !ok {
			// Properties only live on nodes - return empty config
			return config{}, nil
		}

		values := make(config)

		for _, prop := range node.PropertyNames() {
			val, _ := node.Property(prop)
			values[flagKey(prop)] = flagValue(val)
		}

		return values, nil
	}
}

// config implements [kong.Resolver] for nexus language configs.
type config map[string]any

// Validate implements [kong.Resolver].
func (r config) Validate(*kong.Application) error {
	// The config was already evaluated successfully
	return nil
}

// Resolve implements [kong.Resolver].
func (r config) Resolve(
	_ *kong.Context,
	_ *kong.Path,
	flag *kong.Flag,
) (any, error) {
	if value, ok := r[flagKey(flag.Name)]; ok {
		return value, nil
	}

	// Not found - return nil to let Kong use defaults
	return nil, nil
}

// flagKey normalizes a property or flag name so "log_level" and
// "log-level" address the same entry.
func flagKey(name string) string {
	return strings.ReplaceAll(name, "_", "-")
}

// flagValue converts a node property to a form Kong can apply to a
// flag. Kong parses numbers from strings.
func flagValue(val any) any {
	if num, ok := val.(float64); ok {
		return strconv.FormatFloat(num, 'f', -1, 64)
	}

	return val
}
