// Command preflightproxy is a reverse proxy that protects GraphQL style
// endpoints against CSRF via simple requests.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"lds.li/preflight/internal/config"
	"lds.li/preflight/internal/metrics"
	"lds.li/preflight/slogctx"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:          "preflightproxy",
		Short:        "Reverse proxy rejecting CSRF-able simple requests to protected paths",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&configPath, "config", "c", "preflight.yaml", "Path to configuration file")

	root.AddCommand(newServeCmd(&configPath), newCheckCmd(&configPath))
	return root
}

func newServeCmd(configPath *string) *cobra.Command {
	var (
		listen   string
		logLevel string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the proxy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Listen = listen
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}
			level, err := cfg.SlogLevel()
			if err != nil {
				return err
			}

			logger := newLogger(cmd.OutOrStdout(), level)
			slog.SetDefault(logger)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return serve(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "Address to listen on (overrides config)")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")

	return cmd
}

func newCheckCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Validate the configuration and print the effective policy",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			guard, err := newGuard(cfg, nil)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "upstream: %s\n", cfg.Upstream)
			fmt.Fprintf(out, "protected paths: %s\n", strings.Join(cfg.ProtectedPaths, ", "))
			fmt.Fprintf(out, "required headers: %s\n", strings.Join(guard.RequiredHeaders(), ", "))
			fmt.Fprintf(out, "\nrejection message:\n%s", guard.RejectionMessage())
			return nil
		},
	}
}

func newLogger(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slogctx.NewContextHandler(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})))
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	var m *metrics.Metrics
	if cfg.MetricsEnabled() {
		m = metrics.New()
	}

	h, err := newHandler(cfg, logger, m)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Listen,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errC := make(chan error, 1)
	go func() {
		logger.Info("serving", "addr", cfg.Listen, "upstream", cfg.Upstream, "protected_paths", cfg.ProtectedPaths)
		errC <- srv.ListenAndServe()
	}()

	select {
	case err := <-errC:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errC; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}
