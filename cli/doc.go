// Package cli contains the command line interface for nexus.
//
// # Usage
//
// Sources are named positionally or with --source/-s, and "-" reads
// stdin. Without a command, sources are evaluated and the finished
// network is printed as an indented tree:
//
//	nexus run network.nxs
//	nexus --log-level=debug -s network.nxs
//	echo 'let n = node "Host";' | nexus
//
// # Commands
//
//   - run: evaluate sources and print the network (the default)
//   - scan: print the token stream of each source
//   - parse: print the syntax tree (tree, json, or yaml form)
//   - query: evaluate an expression against the built network
//   - export: write the network as yaml, json, or a sqlite snapshot
//   - repl: interactive session with completion and history
//   - init: write a default configuration file
//
// # Configuration
//
// The configuration file is itself a nexus program, config.nxs under
// the user configuration directory. Properties of its top-level config
// node resolve flag values by name:
//
//	let config = node "Config";
//	let config.log_level = "debug";
//	let config.log_format = "text";
//
// Flags given on the command line always win over the file. Property
// names match flags with hyphens and underscores interchangeable.
//
// # Include Path
//
// Directories named by --include/-I and the NEXUS_PATH environment
// variable (in that order, duplicates removed) are searched by use
// declarations that do not resolve relative to the working directory.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, RFC3339Nano, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Colorize output for terminals
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag:
//
//	go build -tags pprof .
//
//   - --profile-mode: Enable profiling (allocs, block, clock, cpu,
//     goroutine, heap, mem, mutex, thread, trace)
//   - --profile-dir: Set profile output directory (default:
//     ~/.cache/nexus/pprof)
//   - --profile-quiet: Suppress profiler log output
package cli
