// Package cli implements the sqldialect command line tool for inspecting
// registered dialects.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/coregx/sqldialect/internal/config"
	"github.com/coregx/sqldialect/internal/dialects"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // optional YAML configuration file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the sqldialect CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sqldialect",
		Short: "Inspect SQL dialects",
		Long: `Inspect the SQL dialects known to sqldialect: their capabilities,
column type mappings and registered functions, per database version.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "YAML configuration file")

	cmd.AddCommand(NewDialectsCommand(opts))
	cmd.AddCommand(NewCapabilitiesCommand(opts))
	cmd.AddCommand(NewColumnTypeCommand(opts))
	cmd.AddCommand(NewFunctionsCommand(opts))
	cmd.AddCommand(NewMatrixCommand(opts))

	return cmd
}

func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// resolveDialect builds the dialect named by args[0] at version, or the
// configured dialect when no name is given. Configuration overrides apply
// only to the configured dialect family.
func resolveDialect(opts *RootOptions, f *OutputFormatter, args []string, version string) (*dialects.Dialect, error) {
	var cfg *config.Config
	if opts.Config != "" {
		c, err := config.Load(opts.Config)
		if err != nil {
			return nil, WrapExitError(ExitCommandError, "cannot load configuration", err)
		}
		cfg = c
		f.VerboseLog("loaded configuration %s (dialect %s)", opts.Config, cfg.Dialect)
	}

	v, err := dialects.ParseVersion(version)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid --version", err)
	}

	var name string
	switch {
	case len(args) > 0:
		name = args[0]
	case cfg != nil:
		name = cfg.Dialect
		if v.IsZero() {
			v = cfg.Version
		}
	default:
		return nil, NewExitError(ExitCommandError, "no dialect given and no --config set")
	}

	var dopts []dialects.Option
	if cfg != nil && sameFamily(name, cfg.Dialect) {
		dopts = cfg.Options()
	}
	d, err := dialects.Lookup(name, v, dopts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "cannot build dialect", err)
	}
	f.VerboseLog("using %s", d)
	return d, nil
}

func sameFamily(a, b string) bool {
	ca, ok := dialects.Canonical(a)
	if !ok {
		return false
	}
	cb, _ := dialects.Canonical(b)
	return ca == cb
}
