// Package app builds the cobra command of a carbridge binary from an options
// struct: named flag sets, an optional config file, env overrides and a run
// function.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/cli/globalflag"

	"github.com/autopeer-io/carbridge/pkg/log"
)

// RunFunc is the entry point executed once flags and config are resolved.
type RunFunc func() error

// NamedFlagSetOptions is implemented by the root options of every binary.
type NamedFlagSetOptions interface {
	// Flags returns the flags grouped by section, used for help output.
	Flags() cliflag.NamedFlagSets

	// Complete fills in derived fields after flags and config are parsed.
	Complete() error

	// Validate returns the aggregated validation error.
	Validate() error
}

// App is the main structure of a cli application.
type App struct {
	name        string
	shortDesc   string
	description string
	envPrefix   string

	options     NamedFlagSetOptions
	runFunc     RunFunc
	noConfig    bool
	args        cobra.PositionalArgs
	subCommands []*cobra.Command

	cmd *cobra.Command
}

// Option configures an App.
type Option func(*App)

// WithDescription sets the long description of the command.
func WithDescription(desc string) Option {
	return func(a *App) { a.description = desc }
}

// WithOptions sets the options whose flags are registered on the command.
func WithOptions(opts NamedFlagSetOptions) Option {
	return func(a *App) { a.options = opts }
}

// WithRunFunc sets the function executed by the root command.
func WithRunFunc(run RunFunc) Option {
	return func(a *App) { a.runFunc = run }
}

// WithNoConfig disables the --config flag.
func WithNoConfig() Option {
	return func(a *App) { a.noConfig = true }
}

// WithEnvPrefix sets the prefix of environment overrides. It defaults to
// the upper-cased command name.
func WithEnvPrefix(prefix string) Option {
	return func(a *App) { a.envPrefix = prefix }
}

// WithValidArgs sets the positional argument validator of the root command.
func WithValidArgs(args cobra.PositionalArgs) Option {
	return func(a *App) { a.args = args }
}

// WithDefaultValidArgs rejects any positional argument on the root command.
func WithDefaultValidArgs() Option {
	return func(a *App) {
		a.args = func(cmd *cobra.Command, args []string) error {
			for _, arg := range args {
				if len(arg) > 0 {
					return fmt.Errorf("%q does not take any arguments, got %q", cmd.CommandPath(), args)
				}
			}
			return nil
		}
	}
}

// WithSubCommands attaches additional commands under the root command.
func WithSubCommands(cmds ...*cobra.Command) Option {
	return func(a *App) { a.subCommands = append(a.subCommands, cmds...) }
}

// NewApp creates a new application instance based on the given options.
func NewApp(name string, shortDesc string, opts ...Option) *App {
	a := &App{name: name, shortDesc: shortDesc}
	for _, o := range opts {
		o(a)
	}
	if a.envPrefix == "" {
		a.envPrefix = envPrefixFor(name)
	}

	a.buildCommand()
	return a
}

// Command returns the cobra command of the application.
func (a *App) Command() *cobra.Command {
	return a.cmd
}

// Run executes the application.
func (a *App) Run() {
	if err := a.cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func (a *App) buildCommand() {
	cmd := &cobra.Command{
		Use:           a.name,
		Short:         a.shortDesc,
		Long:          a.description,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          a.args,
	}
	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)
	cmd.Flags().SortFlags = true

	var fss cliflag.NamedFlagSets
	if a.options != nil {
		fss = a.options.Flags()
		fs := cmd.PersistentFlags()
		for _, f := range fss.FlagSets {
			fs.AddFlagSet(f)
		}
	}

	if !a.noConfig {
		addConfigFlag(a.name, a.envPrefix, fss.FlagSet("global"))
	}
	globalflag.AddGlobalFlags(fss.FlagSet("global"), cmd.Name())
	cmd.PersistentFlags().AddFlagSet(fss.FlagSet("global"))

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return a.prepare(cmd)
	}
	cmd.PersistentPostRun = func(*cobra.Command, []string) {
		_ = log.Sync()
	}
	if a.runFunc != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			return a.runFunc()
		}
	}

	cmd.AddCommand(a.subCommands...)
	cliflag.SetUsageAndHelpFunc(cmd, fss, 80)

	a.cmd = cmd
}

// prepare merges config and env into the options, then completes, validates
// and initializes logging.
func (a *App) prepare(cmd *cobra.Command) error {
	if a.options == nil {
		return nil
	}

	if !a.noConfig {
		// Only option flags take part; subcommand flags may shadow config keys.
		if err := loadConfig(cmd.Root().PersistentFlags(), a.options); err != nil {
			return err
		}
	}

	if err := a.options.Complete(); err != nil {
		return err
	}
	if err := a.options.Validate(); err != nil {
		return err
	}

	if lo, ok := a.options.(interface{ LogOptions() *log.Options }); ok {
		log.Init(lo.LogOptions())
	}
	return nil
}
