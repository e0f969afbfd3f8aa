package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ignis-runtime/program-registry/api/rest/server"
	"github.com/ignis-runtime/program-registry/api/rest/v1/routes"
	"github.com/ignis-runtime/program-registry/internal/cache"
	"github.com/ignis-runtime/program-registry/internal/config"
	"github.com/ignis-runtime/program-registry/internal/database"
	"github.com/ignis-runtime/program-registry/internal/layout"
	"github.com/ignis-runtime/program-registry/internal/logging"
	"github.com/ignis-runtime/program-registry/internal/repository"
	"github.com/ignis-runtime/program-registry/internal/services"
	"github.com/ignis-runtime/program-registry/internal/storage"
)

func main() {
	cfg := config.GetConfig()

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// An incomplete catalog must never serve requests.
	catalog, err := layout.DefaultCatalog()
	if err != nil {
		logger.Fatal("Invalid layout catalog", zap.Error(err))
	}

	if cfg.DatabaseURL == "" {
		logger.Fatal("DATABASE_URL must be set")
	}
	db, err := database.Open(cfg.DatabaseURL, cfg.DBMaxOpenConns, logger)
	if err != nil {
		logger.Fatal("Failed to create pool", zap.Error(err))
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	var store services.ProgramStore = repository.NewProgramRepository(db)
	if cfg.S3.Bucket != "" {
		objects, err := storage.NewS3Storage(ctx, storage.S3Config{
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			BucketName:      cfg.S3.Bucket,
			Region:          cfg.S3.Region,
		})
		if err != nil {
			logger.Fatal("Failed to create S3 storage", zap.Error(err))
		}
		store = storage.NewBlobProgramStore(repository.NewProgramRepository(db), objects, logger)
		logger.Info("Offloading program code to S3", zap.String("bucket", cfg.S3.Bucket))
	}

	var opts []services.Option
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedisCache(cfg.RedisAddr)
		defer redisCache.Close()
		if err := redisCache.Ping(ctx); err != nil {
			logger.Warn("Redis unreachable, cache lookups will fall through", zap.Error(err))
		}
		opts = append(opts, services.WithCache(redisCache, cfg.CacheTTL))
	}

	service := services.NewProgramService(store, catalog, logger, opts...)

	srv := server.NewServer(cfg.HTTPAddr, logger)
	routes.RegisterRoutes(srv, service, cfg.MaxUploadBytes)

	logger.Info("Starting Gin HTTP server", zap.String("addr", cfg.HTTPAddr))
	if err := srv.Run(ctx); err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}
}
