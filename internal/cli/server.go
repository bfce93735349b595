package cli

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/martijn/hookcmd/internal/api"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the webhook daemon",
	Long:  "Start the HTTP server ingesting webhooks and serving the read API",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger(cfg)
		if err != nil {
			return err
		}
		defer logger.Sync()

		services, err := initServices(logger)
		if err != nil {
			return err
		}
		defer services.Close()

		// Fail executions orphaned by a previous run before accepting new ones
		if err := services.ExecutorService.RecoverStale(cmd.Context()); err != nil {
			return fmt.Errorf("failed to recover stale executions: %w", err)
		}

		services.ExecutorService.Start()
		defer services.ExecutorService.Stop()

		server := api.NewServer(
			cfg,
			services.SignatureService,
			services.MessageService,
			services.ExecutorService,
			logger,
		)

		// Start server in goroutine
		serverErr := make(chan error, 1)
		go func() {
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				serverErr <- err
			}
		}()

		// Wait for interrupt signal or server error
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

		fmt.Println("Server is ready. Press Ctrl+C to stop.")

		select {
		case err := <-serverErr:
			return fmt.Errorf("server error: %w", err)
		case <-sigChan:
			fmt.Println("\nShutting down gracefully...")
		}

		// Graceful shutdown
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		fmt.Println("Server stopped")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
