package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/yourorg/payment-bridge/internal/config"
	"github.com/yourorg/payment-bridge/internal/logger"
)

var (
	configPath string
	mode       string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "payment-bridge",
		Short: "Payment SDK bridge",
		Long:  `Bridges untyped payment descriptions to a native payment SDK and reports exactly one outcome per attempt.`,
	}
	rootCmd.AddCommand(newServeCommand())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP harness",
		RunE:  runServe,
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to the config file (defaults to configs/config.yaml)")
	cmd.Flags().StringVarP(&mode, "mode", "m", "", "Gin mode override (debug, release, test)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if mode != "" {
		switch mode {
		case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
			cfg.Server.Mode = mode
		default:
			return fmt.Errorf("invalid mode %q: expected debug, release or test", mode)
		}
	}

	if err := logger.Init(cfg.Logger, cfg.Server.Mode); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log := logger.WithComponent("server")

	shutdownTracing, err := initTracing(cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			log.Error("failed to flush traces", "error", err)
		}
	}()

	gin.SetMode(cfg.Server.Mode)
	gin.DefaultWriter = io.Discard

	s, cleanup, err := newServer(cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           setupRouter(s),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("server starting", "address", srv.Addr, "mode", cfg.Server.Mode, "adapter", cfg.Bridge.Adapter)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.OutcomeWait+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
		return err
	}
	log.Info("server exited gracefully")
	return nil
}
