// Package cli implements the contactsq command line: compiling list requests
// into SQL and running them against a seeded demo database.
package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xandalm/contacts-query/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string

	cfg    *config.Config
	logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the contactsq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "contactsq",
		Short: "contactsq - filter and order expressions for the contacts API",
		Long: `Compile the filter and order expressions accepted by the contacts API
into parameterized SQL, and try them against a seeded in-memory database.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return opts.load()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./contactsq.yaml when present)")

	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewDemoCommand(opts))

	return cmd
}

// load reads the configuration and builds the logger once.
func (o *RootOptions) load() error {
	if o.cfg != nil {
		return nil
	}
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if o.Verbose {
		cfg.Log.Level = "debug"
		cfg.Log.Development = true
	}
	logger, err := cfg.NewLogger()
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build logger", err)
	}
	o.cfg, o.logger = cfg, logger
	return nil
}

// settings returns the loaded configuration, loading it on first use. Commands
// run directly in tests skip the root's pre-run hook.
func (o *RootOptions) settings() (*config.Config, *zap.Logger, error) {
	if err := o.load(); err != nil {
		return nil, nil, err
	}
	return o.cfg, o.logger, nil
}
