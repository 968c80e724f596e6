package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PhilHem/registry-server/backend/config"
	"github.com/PhilHem/registry-server/backend/database"
	"github.com/PhilHem/registry-server/backend/handlers"
	"github.com/PhilHem/registry-server/backend/logger"
	"github.com/PhilHem/registry-server/backend/middleware"
	"github.com/PhilHem/registry-server/backend/repository"

	"github.com/spf13/cobra"
)

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "registry-server",
		Short:         "Registry usage logs and organization memberships",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Load(configPath); err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			log, closer, err := logger.New(config.C.LogLevel, config.C.Constants.File()["log"])
			if err != nil {
				return fmt.Errorf("init logging: %w", err)
			}
			cobra.OnFinalize(func() { closer.Close() })
			slog.SetDefault(log)
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config.yaml (default $CONFIG_FILE or ./config.yaml)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Init(); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			slog.Info("schema up to date", "source", "main", "driver", config.C.Database.Driver)
			return nil
		},
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func serve(ctx context.Context) error {
	if err := database.Init(); err != nil {
		return fmt.Errorf("init database: %w", err)
	}

	if retention := config.C.Logs.Retention; retention > 0 {
		go logger.PruneUsageLogs(ctx, repository.NewLogRepository(database.DB), retention, time.Hour)
	}

	token := config.C.Constants.Token()
	if token["secret"] == "" {
		slog.Warn("config.token.secret not set, API is unauthenticated", "source", "main")
	}
	limiter := middleware.NewRateLimiter(ctx, config.C.RateLimit.Requests, config.C.RateLimit.Window)
	srv := &http.Server{
		Addr:              config.C.Listen,
		Handler:           handlers.Routes(middleware.RequireToken(token["secret"], token["issuer"]), limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		slog.Info("server starting", "source", "main", "listen", config.C.Listen, "tls", config.C.TLS.Enabled)
		if config.C.TLS.Enabled {
			errc <- srv.ListenAndServeTLS(config.C.TLS.Cert, config.C.TLS.Key)
		} else {
			errc <- srv.ListenAndServe()
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down", "source", "main")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
