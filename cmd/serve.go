package cmd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/example/bmi-check/internal/auth"
	"github.com/example/bmi-check/internal/config"
	"github.com/example/bmi-check/internal/features"
	"github.com/example/bmi-check/internal/handlers"
	"github.com/example/bmi-check/internal/repository"
	"github.com/example/bmi-check/internal/server"
	"github.com/example/bmi-check/internal/uploads"
	"github.com/example/bmi-check/internal/usecase"
)

func newServeCmd(configPath *string) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the BMI web interface and JSON API",
		Example: `  # Start on the configured port (default 5000)
  bmi serve

  # Start on a custom port
  bmi serve --port 8080`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}
			return runServer(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "Port to listen on (overrides PORT)")

	return cmd
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	m, err := loadModels(cfg, logger, true)
	if err != nil {
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			logger.Warn("failed to release models", zap.Error(err))
		}
	}()

	area, err := uploads.NewArea(cfg.UploadDir, logger)
	if err != nil {
		return err
	}
	extractor := features.NewExtractor(m.detector, m.embedder, logger)
	pipeline := usecase.NewPipeline(area, extractor, m.regressor, logger)

	startupCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	db, err := repository.Open(startupCtx, cfg.DatabaseDSN, logger)
	if err != nil {
		return err
	}
	if sqlDB, err := db.DB(); err == nil {
		defer sqlDB.Close()
	}
	repo := repository.NewPredictionRepository(db, logger)
	if err := repo.AutoMigrate(startupCtx); err != nil {
		return fmt.Errorf("auto migrate failed: %w", err)
	}

	cache, closeCache, err := openCache(startupCtx, cfg.RedisAddr, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	uc := usecase.NewPredictionUseCase(pipeline, repo, cache, logger)

	router := gin.New()
	router.Use(handlers.RequestLogger(logger), gin.Recovery())
	router.MaxMultipartMemory = cfg.MaxUploadBytes
	handlers.RegisterRoutes(router, uc, handlers.Options{
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes,
		AuthMiddleware: auth.JWTMiddleware(cfg.JWTSecret, cfg.JWTAudience),
		Logger:         logger,
	})

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logger.Info("BMI interface listening", zap.String("addr", addr), zap.String("url", "http://localhost"+addr))
	return server.Serve(ctx, srv, cfg.ShutdownTimeout, logger)
}

// openCache connects to Redis when addr is set and falls back to an
// in-process cache otherwise.
func openCache(ctx context.Context, addr string, logger *zap.Logger) (usecase.Cache, func(), error) {
	if addr == "" {
		logger.Info("REDIS_ADDR not set, using in-memory result cache")
		return usecase.NewMemoryCache(), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("redis connection failed: %w", err)
	}
	return usecase.NewRedisCache(client), func() { client.Close() }, nil
}
