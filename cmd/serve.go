package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"muhabbet/chat"
	"muhabbet/config"
	"muhabbet/conversation"
	"muhabbet/provider"
	"muhabbet/server"
	"muhabbet/storage"
	"muhabbet/telemetry"
)

var listenAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat API server",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&listenAddr, "addr", "", "listen address (overrides listen_addr)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if listenAddr != "" {
		cfg.ListenAddr = listenAddr
	}
	if err := provider.ValidateSettings(cfg); err != nil {
		return err
	}

	logger := config.NewLogger(cfg.LogLevel, os.Stderr)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		Endpoint:       cfg.Telemetry.Endpoint,
		ServiceVersion: Version,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			logger.Warn().Err(err).Msg("telemetry shutdown failed")
		}
	}()

	dbPath := config.DatabasePath(cfg.DataDir())
	store, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	logger.Info().Str("path", dbPath).Msg("database opened")

	gateway, err := provider.NewGatewayFromConfig(cfg, logger)
	if err != nil {
		return err
	}
	gateway.WithTracer(tel.Tracer("muhabbet/provider"))

	prompt := conversation.NewPromptBuilder(cfg.Persona.Name, cfg.Persona.Creator, cfg.Persona.Timezone)
	svc := chat.NewService(store, gateway, prompt, logger).
		WithTracer(tel.Tracer("muhabbet/chat"))

	srv := server.New(svc, server.Options{
		Addr:           cfg.ListenAddr,
		ChatTimeout:    cfg.ChatTimeout,
		AllowedOrigins: cfg.AllowedOrigins,
	}, logger)

	logger.Info().
		Str("provider", cfg.ProviderType()).
		Str("model", gateway.Model()).
		Bool("vision", gateway.VisionAvailable()).
		Bool("telemetry", tel.Enabled()).
		Msg("starting muhabbet")
	return srv.Run(ctx)
}
