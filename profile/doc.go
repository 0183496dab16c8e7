// Package profile provides optional runtime profiling for the nexus
// application.
//
// This package integrates [github.com/pkg/profile] behind conditional
// compilation. Profiling must be enabled at build time with the "pprof"
// build tag; without it, every operation is a no-op with zero runtime
// overhead.
//
// # Profiling Modes
//
// The following modes are supported when built with the pprof tag:
//
//   - allocs:    Memory allocation profiling (all allocations)
//   - block:     Block (synchronization) profiling
//   - clock:     Wall-clock profiling
//   - cpu:       CPU profiling
//   - goroutine: Goroutine profiling
//   - heap:      Heap memory profiling (live allocations)
//   - mem:       General memory profiling
//   - mutex:     Mutex contention profiling
//   - thread:    Thread creation profiling
//   - trace:     Execution trace profiling
//
// Use [Modes] to retrieve the list programmatically.
//
// # Usage
//
// A [Config] carries the mode, output path, and quiet flag. Build one
// with the functional options and start it:
//
//	var cfg profile.Config = func() (string, string, bool) {
//	    return "", "", false
//	}
//	cfg = profile.WithMode("cpu")(cfg)
//	cfg = profile.WithPath("/tmp/profiles")(cfg)
//
//	ctrl := cfg.Start()
//	defer ctrl.Stop()
//
// Start returns a no-op controller when the mode is empty or the pprof
// tag is absent, so both calls are always safe.
//
// Profile files are written to the configured directory with names
// matching the mode (for example cpu.pprof, mem.pprof). Analyze them
// with the standard tooling:
//
//	go tool pprof ./nexus /tmp/profiles/cpu.pprof
//	go tool pprof -http=: /tmp/profiles/cpu.pprof
//
// # Command-Line Usage
//
// The nexus command exposes profiling through flags when built with the
// pprof tag:
//
//	# Enable CPU profiling (writes to the default cache directory)
//	nexus --profile-mode cpu
//
//	# Enable heap profiling with a custom output directory
//	nexus --profile-mode heap --profile-dir ./profiles
//
// The default output directory is the "pprof" subdirectory of the user
// cache directory for nexus (for example $XDG_CACHE_HOME/nexus/pprof).
//
// When built with the pprof tag, this package also imports
// [net/http/pprof], which registers the /debug/pprof/ HTTP handlers for
// any server the application chooses to run.
package profile

// Tag is the build tag required to enable pprof profiling.
const Tag = `pprof`
