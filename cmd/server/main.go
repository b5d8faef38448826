package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-unix/internal/app"
	"github.com/vovakirdan/wirechat-unix/internal/config"
	applog "github.com/vovakirdan/wirechat-unix/internal/log"
)

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:          "wirechat-unix",
		Short:        "Line-oriented chat server on a Unix domain socket",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, overrides)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&configPath, "config", "c", "", "path to config.yaml (created with defaults if missing)")
	flags.StringVar(&overrides.SocketPath, "socket", "", "Unix socket path to listen on")
	flags.IntVar(&overrides.MaxClients, "max-clients", 0, "maximum concurrent connections")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&overrides.AdminAddr, "admin-addr", "", "admin HTTP listen address, empty to disable")
	flags.StringVar(&overrides.DatabasePath, "db", "", "SQLite session journal path, empty to disable")
	flags.StringVar(&overrides.SendPolicy, "send-policy", "", "broadcast failure policy (fail-fast, drop-recipient)")

	return cmd
}

func run(ctx context.Context, configPath string, overrides config.Config) error {
	// .env is optional
	_ = godotenv.Load()

	bootLogger := applog.New("info", "console", nil)
	cfg, resolvedPath, err := config.Load(bootLogger, configPath)
	if err != nil {
		bootLogger.Error().Err(err).Msg("failed to load config")
		return err
	}
	cfg.UpdateFrom(overrides)

	logger := applog.New(cfg.LogLevel, cfg.LogFormat, nil)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to start")
		return err
	}

	logger.Info().
		Str("socket", cfg.SocketPath).
		Str("config", resolvedPath).
		Int("max_clients", cfg.MaxClients).
		Str("send_policy", cfg.SendPolicy).
		Msg("starting wirechat server")

	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
