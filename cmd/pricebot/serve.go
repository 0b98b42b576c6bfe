package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aretw0/pricebot"
	"github.com/aretw0/pricebot/internal/cli"
	httpAdapter "github.com/aretw0/pricebot/pkg/adapters/http"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the chat webhook server",
	Long: `Starts pricebot as an HTTP server. Chat platforms POST each message to /messages
and get the reply back; /quote, /events, /metrics and /swagger are served alongside.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, logger, err := loadEngine(cmd)
		if err != nil {
			return err
		}

		addr := engine.Config().HTTP.Addr
		if cmd.Flags().Changed("addr") {
			addr, _ = cmd.Flags().GetString("addr")
		}

		handler, err := httpAdapter.NewHandler(engine.Bot, engine.Calculator,
			httpAdapter.WithLogger(logger),
			httpAdapter.WithVersion(pricebot.Version),
			httpAdapter.WithMetricsHandler(promhttp.HandlerFor(engine.Registry, promhttp.HandlerOpts{})),
		)
		if err != nil {
			return err
		}

		srv := &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting pricebot server", "addr", srv.Addr, "version", pricebot.Version)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			closeEngine(context.Background(), engine, logger)
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Starting shutdown", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("Graceful shutdown did not complete", "timeout", shutdownTimeout, "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("Error killing server", "err", err)
				}
			}
			closeEngine(shutdownCtx, engine, logger)
			logger.Info("pricebot server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringP("addr", "a", "", "Address to listen on (overrides http.addr)")
}
