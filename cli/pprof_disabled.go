//go:build !pprof

package cli

import (
	"context"

	"github.com/alecthomas/kong"
)

// profileConfig is empty when built without the pprof tag, so the
// profiling flags disappear from the command entirely.
type profileConfig struct{}

func (profileConfig) vars() kong.Vars { return kong.Vars{} }

func (profileConfig) group() kong.Group { return kong.Group{} }

// start is a no-op when built without the pprof tag.
func (profileConfig) start(context.Context) (stop func()) { return func() {} }
