package cli

import (
	"context"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/nexus/cli/cmd"
	"github.com/ardnew/nexus/pkg"
)

// CLI is the top-level command-line interface for nexus.
type CLI struct {
	Log     logConfig     `embed:"" group:"log"     prefix:"log-"`
	Profile profileConfig `embed:"" group:"profile" prefix:"profile-"`

	Source  []string `help:"Input source file(s) or '-' for stdin"   name:"source"  short:"s"`
	Include []string `help:"Directories searched by use declarations" name:"include" short:"I" placeholder:"DIR"`

	Version kong.VersionFlag `help:"Print version information and quit" short:"V"`

	Init   cmd.Init   `cmd:"" help:"Initialize configuration file"`
	Scan   cmd.Scan   `cmd:"" help:"Print the token stream of each source"`
	Parse  cmd.Parse  `cmd:"" help:"Print the syntax tree of each source"`
	Query  cmd.Query  `cmd:"" help:"Evaluate an expression against the network"`
	Export cmd.Export `cmd:"" help:"Write the network in a portable format"`
	Repl   cmd.Repl   `cmd:"" help:"Start an interactive session"`

	Run cmd.Run `cmd:"" default:"withargs" help:"Evaluate sources and print the network"`
}

// Run executes the nexus CLI with the given context and arguments.
// The exit function is called with the appropriate exit code upon completion.
func Run(
	ctx context.Context,
	exit func(code int),
	args ...string,
) error {
	var cli CLI

	err := mkdirAllRequired()
	if err != nil {
		return err
	}

	configFilePath := configPath(baseConfig + sourceExt)

	vars := kong.Vars{
		cmd.ConfigIdentifier: configFilePath,
		cmd.CacheIdentifier:  cacheDir(),
		"version":            pkg.Name + " " + strings.TrimSpace(pkg.Version),
	}.
		CloneWith(cli.Log.vars()).
		CloneWith(cli.Profile.vars())

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Pre-scan for logger flags to ensure early configuration regardless of
	// flag position. TextUnmarshaler on logFormat/logLevel handles those flags
	// during normal parsing, but this early scan also catches boolean flags
	// like --log-pretty.
	cli.Log.scan(args)

	// Parse command line
	parser, err := kong.New(&cli,
		kong.Name(pkg.Name),
		kong.Description(pkg.Description),
		kong.UsageOnError(),
		kong.Exit(exit),
		kong.ExplicitGroups(
			[]kong.Group{cli.Log.group(), cli.Profile.group()},
		),
		kong.BindSingletonProvider(func() context.Context {
			return ctx
		}),
		kong.ConfigureHelp(
			kong.HelpOptions{
				Compact:             true,
				Summary:             true,
				Tree:                true,
				FlagsLast:           false,
				NoAppSummary:        false,
				NoExpandSubcommands: true,
			}),
		kong.Configuration(resolve(ctx, baseConfig), configFilePath),
		vars,
	)
	if err != nil {
		return err
	}

	ktx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	// Stuff additional context values for use by commands
	ctx = cmd.WithContext(ctx, ktx)
	ctx = cmd.WithSources(ctx, cli.Source)
	ctx = cmd.WithIncludes(ctx, includePath(cli.Include))

	// Finalize logger configuration with all parsed values including
	// TimeLayout and Caller which don't use TextUnmarshaler.
	cli.Log.start(ctx)

	// [profileConfig.start] is no-op unless built with tag pprof and enabled.
	defer cli.Profile.start(ctx)()

	// Execute the selected command
	return ktx.Run(ctx, &cli)
}
