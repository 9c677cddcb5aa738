// Package main provides the diagen binary entry point.
// Diagen turns Mermaid class diagrams into YAML fragments and generates
// source files from them with per-language templates.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/c360studio/diagen/config"
	"github.com/c360studio/diagen/pipeline"
	"github.com/spf13/cobra"
)

var (
	Version   = "0.1.0"
	BuildTime = "dev"
)

const appName = "diagen"

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// app carries the state shared by every command.
type app struct {
	configPath      string
	logLevel        string
	metricsTextfile string

	cfg      *config.Config
	logger   *slog.Logger
	pipeline *pipeline.Pipeline
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Generate source files from Mermaid class diagrams",
		Long: `Diagen turns Mermaid class diagrams into source files in two stages.

transform parses class diagrams from markdown (or bare .mmd files) and
writes one YAML fragment per class. generate merges every fragment that
describes the same class and renders it with the templates of each
configured language.

Hand-written fragments next to the generated ones extend or override what
the diagrams say.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.metricsTextfile, "metrics-textfile", "", "Write run metrics to this node_exporter textfile")

	cmd.AddCommand(
		transformCmd(a),
		generateCmd(a),
		watchCmd(a),
		listLanguagesCmd(),
		initializeCmd(a),
		versionCmd(),
	)

	return cmd
}

// setup loads configuration, applies global flags and configures logging.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("log-level") {
		cfg.Log.Level = a.logLevel
	}
	if flags.Changed("metrics-textfile") {
		cfg.Metrics.Textfile = a.metricsTextfile
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := config.ParseLevel(cfg.Log.Level)
	a.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(a.logger)

	a.cfg = cfg
	a.pipeline = pipeline.New(pipeline.WithLogger(a.logger))
	return nil
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.configPath != "" {
		return config.LoadFromFile(a.configPath)
	}
	return config.NewLoader(slog.Default()).Load()
}

// writeMetrics exports the run metrics when a textfile is configured.
func (a *app) writeMetrics() {
	if a.cfg.Metrics.Textfile == "" {
		return
	}
	if err := a.pipeline.Metrics().WriteTextfile(a.cfg.Metrics.Textfile); err != nil {
		a.logger.Warn("Failed to write metrics", "path", a.cfg.Metrics.Textfile, "error", err)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// no config is needed to print the version
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
		},
	}
}
