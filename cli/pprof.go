//go:build pprof

package cli

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nexus/log"
	"github.com/ardnew/nexus/profile"
)

type profileConfig struct {
	Mode  string `default:""              enum:",${profileModeEnum}" help:"Enable profiling"         placeholder:"${enum}" short:"p"`
	Dir   string `default:"${profileDir}"                            help:"Profile output directory"                                 type:"path"`
	Quiet bool   `default:"true"                                     help:"Suppress profiler output"                                 negatable:""`
}

func (profileConfig) vars() kong.Vars {
	return kong.Vars{
		"profileModeEnum": strings.Join(profile.Modes(), ","),
		"profileDir":      filepath.Join(cacheDir(), profile.Tag),
	}
}

func (profileConfig) group() kong.Group {
	var group kong.Group

	group.Key = "profile"
	group.Title = "Profiling (pprof)"

	return group
}

// start starts profiling if configured.
func (f profileConfig) start(ctx context.Context) (stop func()) {
	if f.Mode == "" {
		return func() {}
	}

	log.DebugContext(ctx, "profiling start",
		slog.String("mode", f.Mode),
		slog.String("dir", f.Dir),
	)

	// Create base config and apply options
	var cfg profile.Config = func() (string, string, bool) {
		return "", "", false
	}

	cfg = profile.WithMode(f.Mode)(cfg)
	cfg = profile.WithPath(f.Dir)(cfg)
	cfg = profile.WithQuiet(f.Quiet)(cfg)
	profiler := cfg.Start()

	return func() {
		log.DebugContext(ctx, "profiling stop",
			slog.String("mode", f.Mode),
			slog.String("dir", f.Dir),
		)
		profiler.Stop()
	}
}
