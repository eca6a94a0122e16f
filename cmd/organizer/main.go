package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kirillkom/document-organizer/internal/bootstrap"
	"github.com/kirillkom/document-organizer/internal/config"
	"github.com/kirillkom/document-organizer/internal/observability/logging"
)

type flags struct {
	configPath string
	input      string
	output     string
	threshold  float64
	provider   string
	model      string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "organizer",
		Short: "Classify and file every document of an inbox folder",
		Long: `organizer reads each file of the input folder once, asks the configured
AI provider for a category, and moves the file into <output>/<category>/
under a dated name. Low-confidence files go to <output>/to_be_verified/ with
a review note, failures to <output>/Errors/. A JSON report is written to
<output>/rapport_traitement.json.

Settings come from an optional YAML file, then environment variables, then flags.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(f.configPath)
			if err != nil {
				return err
			}
			applyFlags(cmd, f, &cfg)
			return run(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "YAML config file (default $CONFIG_FILE)")
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input folder")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output folder")
	cmd.Flags().Float64VarP(&f.threshold, "threshold", "t", 0, "confidence threshold in [0,1]")
	cmd.Flags().StringVarP(&f.provider, "provider", "p", "", "AI provider: gemini, openai or ollama")
	cmd.Flags().StringVarP(&f.model, "model", "m", "", "model name")
	return cmd
}

// applyFlags overrides cfg with the flags the user actually set.
func applyFlags(cmd *cobra.Command, f flags, cfg *config.Config) {
	if cmd.Flags().Changed("input") {
		cfg.InputDir = f.input
	}
	if cmd.Flags().Changed("output") {
		cfg.OutputDir = f.output
	}
	if cmd.Flags().Changed("threshold") {
		cfg.ConfidenceThreshold = f.threshold
	}
	if cmd.Flags().Changed("provider") {
		cfg.AIProvider = f.provider
	}
	if cmd.Flags().Changed("model") {
		cfg.ModelName = f.model
	}
}

func run(parent context.Context, cfg config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, closeLog, err := logging.New(logging.FileOptions{
		Service:       "document-organizer",
		Level:         cfg.LogLevel,
		Dir:           cfg.LogDir,
		RetentionDays: cfg.LogRetentionDays,
	})
	if err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer func() { _ = closeLog() }()

	logger.Info("organizer_starting",
		"provider", cfg.AIProvider,
		"model", cfg.ModelName,
		"confidence_threshold", cfg.ConfidenceThreshold,
		"input_dir", cfg.InputDir,
		"output_dir", cfg.OutputDir,
	)

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		return err
	}
	defer app.Close()

	if _, err := app.BatchUC.Run(ctx); err != nil {
		logger.Error("batch_failed", "error", err)
		return err
	}
	return nil
}
