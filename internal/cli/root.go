package cli

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/registrar/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	Database   string
	Manifest   string
	Caller     string

	// Config is resolved from defaults, the config file, environment and
	// flags before any subcommand runs.
	Config config.Config

	// Logger is built from Config.Log; --verbose forces debug.
	Logger *slog.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the registrar CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "registrar",
		Short: "registrar - journaled allow-lists and catalyst registries",
		Long: `Manage list, string list and catalyst registries declared in a CUE manifest.

Every committed mutation is appended to a SQLite journal, so registries can
be replayed and checked for determinism.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.resolve(cmd)
		},
	}

	// Global flags
	pf := cmd.PersistentFlags()
	pf.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	pf.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	pf.StringVarP(&opts.ConfigFile, "config", "c", "", "config file (default: ./registrar.yaml)")
	pf.StringVar(&opts.Database, "db", "", "path to SQLite journal (overrides config)")
	pf.StringVar(&opts.Manifest, "manifest", "", "path to CUE manifest (overrides config)")
	pf.StringVar(&opts.Caller, "caller", "", "principal performing mutations (overrides config)")

	cmd.AddCommand(NewInitCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCatalystCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTraceCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// resolve loads configuration with flag overrides and builds the logger.
func (o *RootOptions) resolve(cmd *cobra.Command) error {
	v := viper.New()
	pf := cmd.Root().PersistentFlags()
	for key, flag := range map[string]string{"database": "db", "manifest": "manifest", "caller": "caller"} {
		if err := v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			return WrapExitError(ExitCommandError, "bind flags", err)
		}
	}

	cfg, err := config.Load(v, o.ConfigFile)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	o.Config = cfg
	o.Logger = newLogger(cmd.ErrOrStderr(), cfg.Log, o.Verbose)
	return nil
}

// settings returns the effective config. Commands built without the root
// command (as in tests) fall back to defaults plus their own flags.
func (o *RootOptions) settings() config.Config {
	cfg := o.Config
	if cfg == (config.Config{}) {
		cfg = config.Defaults()
	}
	if o.Database != "" {
		cfg.Database = o.Database
	}
	if o.Manifest != "" {
		cfg.Manifest = o.Manifest
	}
	if o.Caller != "" {
		cfg.Caller = o.Caller
	}
	return cfg
}

func (o *RootOptions) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o.Logger
}

// newLogger builds the diagnostic logger. Logs go to w so JSON output on
// stdout stays parseable.
func newLogger(w io.Writer, cfg config.LogConfig, verbose bool) *slog.Logger {
	level, err := config.ParseLevel(cfg.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
