package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/modhearth/modhearth/internal/config"
	"github.com/modhearth/modhearth/internal/core/registry"
	"github.com/modhearth/modhearth/internal/core/store"
	"github.com/modhearth/modhearth/internal/observability"
	"github.com/modhearth/modhearth/internal/server"
	"github.com/modhearth/modhearth/internal/server/handlers"
)

var (
	serverPort int
	serverHost string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with graceful shutdown support.

Ctrl+C (SIGINT) or SIGTERM triggers a graceful shutdown: background
warming and fetching stop first, then in-flight requests drain.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		logLevel := cfg.Logging.Level
		observability.InitServerLogger("modhearth", logLevel)
		logger := observability.ServerLogger
		defer observability.Sync()

		host := cfg.Server.Host
		port := cfg.Server.Port
		if serverHost != "" {
			host = serverHost
		}
		if serverPort != 0 {
			port = serverPort
		}

		ctx := cmd.Context()

		db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer db.Close() // nolint:errcheck // best-effort cleanup on shutdown

		client, err := buildClient(cfg, db, logger)
		if err != nil {
			return err
		}

		warmer := buildWarmer(cfg, client, db, logger)
		if cfg.Warming.Enabled {
			warmer.Start(ctx)
			defer warmer.Stop()
		}

		fetcher := &registry.Fetcher{
			Client:    client,
			Logger:    logger,
			Interval:  cfg.Fetcher.Interval,
			BatchSize: cfg.Fetcher.BatchSize,
		}
		if cfg.Fetcher.Enabled {
			fetcher.Start(ctx)
			defer fetcher.Stop()
		}

		hm := handlers.NewHealthManager(versionInfo.Version)
		hm.RegisterChecker("store", handlers.HealthCheckerFunc(func(ctx context.Context) error {
			return db.DB.PingContext(ctx)
		}))

		srv := server.New(host, port, server.Options{
			Mods:       client,
			RateLimits: db,
			Health:     hm,
			Logger:     logger,
		})

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout <= 0 {
			shutdownTimeout = 10 * time.Second
		}

		errCh := make(chan error, 1)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM, syscall.SIGHUP)

	wait:
		for {
			select {
			case err := <-errCh:
				return err
			case sig := <-sigCh:
				if sig == syscall.SIGHUP {
					reloadLogLevel(logger)
					continue
				}
				logger.Info("Shutdown signal received", zap.String("signal", sig.String()))
				break wait
			}
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	},
}

// reloadLogLevel re-reads the config file and applies its logging
// level to the running server logger. Only the level is reloaded;
// everything else keeps the values the process started with.
func reloadLogLevel(logger *zap.Logger) {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			logger.Warn("Config reload failed", zap.Error(err))
			return
		}
	}

	cfg, err := loadConfig()
	if err != nil {
		logger.Warn("Config reload failed", zap.Error(err))
		return
	}

	observability.SetServerLevel(cfg.Logging.Level)
	logger.Info("Log level reloaded", zap.String("level", cfg.Logging.Level))
}

// buildWarmer seeds the warming schedule from configuration.
func buildWarmer(cfg *config.Config, client *registry.Client, db *store.Store, logger *zap.Logger) *registry.Warmer {
	warmer := &registry.Warmer{
		Client:            client,
		Schedules:         db,
		Cache:             db,
		Logger:            logger,
		SweepInterval:     cfg.Warming.SweepInterval,
		AnalyticsInterval: cfg.Warming.AnalyticsInterval,
		TopN:              cfg.Warming.TopN,
		ItemDelay:         cfg.Warming.ItemDelay,
	}
	for _, category := range cfg.Warming.Categories {
		key := category.Key
		if key == "" {
			continue
		}
		warmer.Register(key, category.ID, category.Priority)
	}
	return warmer
}

func init() {
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 0, "port to run the server on (overrides config)")
	serveCmd.Flags().StringVar(&serverHost, "host", "", "host to bind the server to (overrides config)")

	rootCmd.AddCommand(serveCmd)
}
