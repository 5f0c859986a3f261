package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix prefixes every environment variable read by graphc, so
// --log-level is also GRAPHC_LOG_LEVEL.
const EnvPrefix = "GRAPHC"

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	LogLevel string
	Cache    string // path of the SQLite network cache, empty for none
	Config   string

	// Logger is built by the root command before any subcommand runs.
	// Commands constructed on their own fall back to a no-op logger.
	Logger *zap.Logger
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

func (o *RootOptions) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

// NewRootCommand creates the root command for the graphc CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "graphc",
		Short: "graphc - node graph compiler",
		Long:  "Compile authored node graphs with nested composite networks into flat proto networks.",
		// main prints the error and picks the exit code.
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(v, opts); err != nil {
				return err
			}
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			logger, err := NewLogger(cmd.ErrOrStderr(), opts.LogLevel)
			if err != nil {
				return WrapExitError(ExitCommandError, "configuring logger", err)
			}
			opts.Logger = logger
			return nil
		},
	}

	// Global flags
	flags := cmd.PersistentFlags()
	flags.BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	flags.StringVar(&opts.Format, "format", "text", "output format (json|text)")
	flags.StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")
	flags.StringVar(&opts.Cache, "cache", "", "path to the SQLite network cache")
	flags.StringVar(&opts.Config, "config", "", "config file (yaml|toml|json)")

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	// This normalizes "-" to an underscore in env names.
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	for _, key := range []string{"verbose", "format", "log-level", "cache"} {
		mustBindPFlag(v, key, cmd)
	}

	// Add subcommands
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewFlattenCommand(opts))
	cmd.AddCommand(NewCacheCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// loadConfig reads the optional config file and resolves every bound key
// with flag > env > config file > default precedence.
func loadConfig(v *viper.Viper, opts *RootOptions) error {
	if opts.Config != "" {
		v.SetConfigFile(opts.Config)
		if err := v.ReadInConfig(); err != nil {
			return WrapExitError(ExitCommandError, "reading config", err)
		}
	}
	opts.Verbose = v.GetBool("verbose")
	opts.Format = v.GetString("format")
	opts.LogLevel = v.GetString("log-level")
	opts.Cache = v.GetString("cache")
	return nil
}

func mustBindPFlag(v *viper.Viper, key string, cmd *cobra.Command) {
	if err := v.BindPFlag(key, cmd.PersistentFlags().Lookup(key)); err != nil {
		panic(err)
	}
}

// NewLogger returns a console logger writing to w at the given level, with
// RFC3339 UTC timestamps.
func NewLogger(w io.Writer, level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	config := zap.NewProductionEncoderConfig()
	config.EncodeTime = func(ts time.Time, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(ts.UTC().Format(time.RFC3339))
	}
	config.EncodeDuration = func(d time.Duration, encoder zapcore.PrimitiveArrayEncoder) {
		encoder.AppendString(d.String())
	}
	return zap.New(zapcore.NewCore(
		zapcore.NewConsoleEncoder(config),
		zapcore.Lock(zapcore.AddSync(w)),
		lvl,
	)), nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
