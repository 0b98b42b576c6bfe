package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/pricebot"
	"github.com/aretw0/pricebot/internal/cli"
	"github.com/aretw0/pricebot/pkg/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pricebot",
	Short: "pricebot quotes guest-post prices for publisher domains",
	Long: `pricebot looks a publisher domain up across the language boards,
asks for the article language and copywriting, and answers with the final price.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default $"+config.EnvConfigPath+" or "+config.DefaultPath+")")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error or off (overrides log_level)")
	rootCmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel, _ = cmd.Flags().GetString("log-level")
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Config) (*slog.Logger, error) {
	jsonLogs, _ := cmd.Flags().GetBool("json-logs")
	return cli.NewLogger(cfg.LogLevel, jsonLogs, os.Stderr)
}

// loadEngine reads the configuration and builds the engine every
// subcommand talks to.
func loadEngine(cmd *cobra.Command) (*pricebot.Engine, *slog.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cmd, cfg)
	if err != nil {
		return nil, nil, err
	}
	engine, err := pricebot.New(cfg, pricebot.WithLogger(logger))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize pricebot: %w", err)
	}
	return engine, logger, nil
}

type engineCloser interface {
	Close(ctx context.Context) error
}

// closeEngine releases the engine, logging a failure instead of masking the
// command's own result.
func closeEngine(ctx context.Context, engine engineCloser, logger *slog.Logger) {
	if err := engine.Close(ctx); err != nil {
		logger.Warn("Engine did not close cleanly", "err", err)
	}
}
