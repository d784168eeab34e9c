package commands

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/devterms/glossary/internal/cli/config"
	"github.com/devterms/glossary/internal/cli/ui"
	"github.com/devterms/glossary/internal/logging"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// globalOptions are the persistent flags shared by every subcommand
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
	noColor    bool
}

// session is the per-invocation state built from config and flags
type session struct {
	cfg     *config.Config
	logger  *zap.Logger
	runID   string
	out     io.Writer
	errOut  io.Writer
	noColor bool
}

// configError marks a failure to load or apply the configuration
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "glossary",
		Short: "Validate, score and publish the developer-slang glossary",
		Long: color.CyanString(`glossary - build pipeline for the developer-slang dictionary

Reads the term source document, enforces its schema and identity rules,
scores every entry, and publishes a single JSON artifact for the site.

Pipeline:
  • source     parse terms.yaml with line and column positions
  • schema     reject unknown keys and wrong value types
  • normalize  trim, default and check each record
  • resolve    unique slugs, names, aliases and redirects
  • export     size-capped, atomic terms.json`),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.noColor {
				color.NoColor = true
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: glossary.yml in the project root)")
	flags.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.StringVar(&opts.logFormat, "log-format", "", "Log format: console, json")
	flags.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	// Add subcommands
	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(NewValidateCommand(opts))
	rootCmd.AddCommand(NewExportCommand(opts))
	rootCmd.AddCommand(NewScoreCommand(opts))
	rootCmd.AddCommand(NewWatchCommand(opts))
	rootCmd.AddCommand(NewNewCommand(opts))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// newSession loads config, applies flag overrides and builds the logger.
// Every log line of the run carries the same run_id.
func (g *globalOptions) newSession(cmd *cobra.Command) (*session, error) {
	var (
		cfg *config.Config
		err error
	)
	if g.configPath != "" {
		cfg, err = config.LoadFile(g.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &configError{err: err}
	}

	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	if g.logFormat != "" {
		cfg.Log.Format = g.logFormat
	}

	logger, err := logging.New(logging.Options{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, &configError{err: err}
	}

	runID := uuid.NewString()
	logger = logger.With(zap.String("run_id", runID), zap.String("command", cmd.Name()))
	if cfg.File != "" {
		logger.Debug("Loaded config", zap.String("file", cfg.File))
	}

	return &session{
		cfg:     cfg,
		logger:  logger,
		runID:   runID,
		out:     cmd.OutOrStdout(),
		errOut:  cmd.ErrOrStderr(),
		noColor: g.noColor || color.NoColor,
	}, nil
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the glossary tool version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			// Set GoVersion to actual runtime if not set at build time
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Fprint(out, "glossary version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	err := rootCmd.Execute()
	if err == nil {
		return nil
	}

	var cfgErr *configError
	switch {
	case errors.Is(err, ErrValidationFailed), errors.Is(err, ErrExportFailed):
		// Diagnostics were already printed
	case errors.As(err, &cfgErr):
		fmt.Fprint(rootCmd.ErrOrStderr(), ui.ConfigError(cfgErr.Error(), color.NoColor))
	default:
		errorColor := color.New(color.FgRed, color.Bold)
		errorColor.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}
