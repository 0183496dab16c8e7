// Package log provides a concurrency-safe simplified logging interface
// based on [log/slog].
//
// A [Logger] is configured at creation time with functional options and
// never mutated afterward; reconfiguration returns a new Logger sharing
// the same output.
//
//	logger := log.Make(os.Stderr,
//		log.WithLevel(log.LevelDebug),
//		log.WithFormat(log.FormatText),
//		log.WithCaller(true))
//
//	logger.Info("interpreter ready", slog.String("version", "1.0.0"))
//
// The package also maintains a default logger used by the package-level
// functions. [Config] reconfigures it in place, which the command line
// relies on to apply logging flags before argument parsing completes.
//
// Five levels are supported: [LevelTrace], [LevelDebug], [LevelInfo],
// [LevelWarn], and [LevelError]. Trace sits below slog's debug and is
// rendered as "TRACE" rather than "DEBUG-4".
//
// Two formats are supported, [FormatJSON] (default) and [FormatText],
// each with an optional colorized pretty variant.
package log
