package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/storefront/internal/cache"
	"github.com/example/storefront/internal/config"
	"github.com/example/storefront/internal/database"
	"github.com/example/storefront/internal/logger"
	"github.com/example/storefront/internal/routes"
	"github.com/example/storefront/internal/services"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		log, err := logger.New(cfg.LogLevel)
		if err != nil {
			return err
		}
		defer log.Sync()

		db := database.Connect(cfg.DatabaseURL, log)
		redisClient := connectRedis(cmd.Context(), cfg, log)
		if redisClient != nil {
			defer redisClient.Close()
		}

		svc, err := routes.NewServices(db, cfg, redisClient, log)
		if err != nil {
			return err
		}

		if cfg.CategoryBackfillCron != "" {
			scheduler, err := services.StartCategoryBackfill(cfg.CategoryBackfillCron, svc.Catalog, log.Named("cron"))
			if err != nil {
				return err
			}
			defer scheduler.Stop()
		}

		app := routes.NewApp(log)
		routes.Register(app, db, cfg, svc, log)

		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-stop
			log.Info("shutting down")
			_ = app.ShutdownWithTimeout(10 * time.Second)
		}()

		log.Info("starting server", zap.String("port", cfg.AppPort))
		return app.Listen(":" + cfg.AppPort)
	},
}

// connectRedis returns nil when REDIS_URL is unset or unreachable; the API then runs uncached.
func connectRedis(ctx context.Context, cfg *config.Config, log *zap.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	client, err := cache.Connect(ctx, cfg.RedisURL)
	if err != nil {
		log.Warn("redis unavailable, category cache disabled", zap.Error(err))
		return nil
	}
	return client
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
