// Package cmd implements the nexus subcommands: run, scan, parse,
// query, export, repl, and init.
//
// Commands share their input handling: sources named positionally or
// with the global --source flags are deduplicated by file identity and
// processed in order, with "-" reading stdin last.
package cmd

var (
	// CacheIdentifier is the kong variable identifier containing the path to
	// the runtime cache directory.
	CacheIdentifier = "cache"

	// ConfigIdentifier is the kong variable identifier containing the path
	// to the configuration file.
	ConfigIdentifier = "config"
)
