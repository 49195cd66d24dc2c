package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mergington/activities-api/internal/platform/config"
	"github.com/mergington/activities-api/internal/platform/logger"
	"github.com/mergington/activities-api/internal/platform/tracing"
)

const serviceName = "activities-api"

func newRootCmd() *cobra.Command {
	v := config.New()
	var cfgFile string

	cmd := &cobra.Command{
		Use:           "activities-api",
		Short:         "Mergington High School extracurricular activities API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v, cfgFile)
		},
	}
	cmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "optional YAML config file")
	cmd.PersistentFlags().StringP("port", "p", "", "HTTP listen port (overrides PORT)")
	_ = v.BindPFlag("port", cmd.PersistentFlags().Lookup("port"))

	serve := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server (default)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v, cfgFile)
		},
	}
	cmd.AddCommand(serve)
	return cmd
}

func runServe(ctx context.Context, v *viper.Viper, cfgFile string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(v, cfgFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	if cfg.TracingEnabled {
		shutdownTracing, err := tracing.Setup(serviceName, os.Stdout)
		if err != nil {
			return err
		}
		defer func() {
			sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			if err := shutdownTracing(sctx); err != nil {
				log.Warn("tracer shutdown", zap.Error(err))
			}
		}()
	}

	a, err := buildApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           a.Handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		log.Info("api listening",
			zap.String("addr", srv.Addr),
			zap.String("storage_backend", cfg.StorageBackend),
			zap.String("idempotency_backend", cfg.IdempotencyBackend),
			zap.Bool("enforce_capacity", cfg.EnforceCapacity),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
