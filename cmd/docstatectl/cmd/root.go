package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/heavy-duty/docstate/config"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"

	ErrUnknownLogFormat = errors.New("unknown log format")
)

const (
	logFormatText = "text"
	logFormatJSON = "json"
)

// Opener opens the engine selected by the loaded configuration.
type Opener func(ctx context.Context, cfg config.Config, obs config.Observability) (*config.Handle, error)

type app struct {
	configPath string
	logLevel   string
	logFormat  string

	open   Opener
	logger *slog.Logger
	handle *config.Handle
}

// Option configures the root command.
type Option func(*app)

// WithOpener replaces config.Open.
func WithOpener(open Opener) Option {
	return func(a *app) {
		a.open = open
	}
}

// NewRootCommand builds the docstatectl command tree.
func NewRootCommand(options ...Option) *cobra.Command {
	a := &app{open: config.Open}
	for _, option := range options {
		option(a)
	}

	rootCmd := &cobra.Command{
		Use:   "docstatectl",
		Short: "Inspect and change docstate documents",
		Long: `docstatectl drives the docstate stores and mutation runners against the configured
document engine (postgres, sqlite or memory).

Examples:
  # Create the documents table
  docstatectl --config docstate.yaml schema

  # Follow all events until interrupted
  docstatectl watch events

  # Follow the published coding challenges
  docstatectl watch coding-challenges --status published

  # Create an event
  docstatectl create-event --name launch --title "Launch party" --type meetup`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setUp,
	}

	rootCmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "YAML config file (default: DOCSTATE_* environment only)")
	rootCmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error (overrides the config)")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", logFormatText, "log format: text or json")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("docstatectl {{.Version}}\n")

	rootCmd.AddCommand(
		a.newSchemaCommand(),
		a.newWatchCommand(),
		a.newCreateEventCommand(),
		a.newDeleteEventCommand(),
		a.newDeleteCodingChallengeCommand(),
	)

	return rootCmd
}

func (a *app) setUp(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		return err
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	switch a.logFormat {
	case logFormatText:
		a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), handlerOptions))
	case logFormatJSON:
		a.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), handlerOptions))
	default:
		return fmt.Errorf("%w: %q", ErrUnknownLogFormat, a.logFormat)
	}

	a.handle, err = a.open(cmd.Context(), cfg, config.Observability{
		Logger:           a.logger,
		ContextualLogger: a.logger,
	})
	if err != nil {
		return err
	}

	a.logger.Debug("engine opened", "engine", string(cfg.Engine))

	return nil
}

// runE closes the engine once run returns, whether it failed or not.
func (a *app) runE(run func(cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		defer a.tearDown()

		return run(cmd, args)
	}
}

func (a *app) tearDown() {
	if a.handle != nil {
		a.handle.Close()
		a.handle = nil
	}
}
