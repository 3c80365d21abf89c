package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"cvforge/internal/analytics"
	"cvforge/internal/config"
	"cvforge/internal/database"
	"cvforge/internal/export"
	"cvforge/internal/metrics"
	"cvforge/internal/observability"
	"cvforge/internal/storage"
	"cvforge/internal/tasks"
	"cvforge/internal/worker"
)

const serviceName = "cvforge-worker"

func main() {
	cfg := config.MustLoad()

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil)).With(slog.String("service", serviceName))
	slog.SetDefault(logger)

	if _, err := observability.InitSentry(cfg.Observability.SentryDSN, cfg.API.Environment); err != nil {
		logger.Warn("sentry disabled", slog.Any("error", err))
	}
	defer observability.FlushSentry()

	shutdownTracing, err := observability.InitTracing(context.Background(), logger, serviceName, cfg.API.Environment, cfg.Observability)
	if err != nil {
		logger.Warn("tracing disabled", slog.Any("error", err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(ctx)
	}()

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		log.Fatalf("init database: %v", err)
	}
	log.Println("database connection ready for worker")

	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		log.Fatalf("init storage client: %v", err)
	}
	log.Printf("storage client ready, bucket=%s", cfg.MinIO.Bucket)

	redisAddr := cfg.Redis.Addr()
	redisClient := redis.NewClient(&redis.Options{Addr: redisAddr})
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error("close redis client failed", slog.Any("error", err))
		}
	}()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatalf("ping redis: %v", err)
	}

	engine, err := export.NewEngine(cfg.Export)
	if err != nil {
		log.Fatalf("init export engine: %v", err)
	}

	aggregator := analytics.NewAggregator(db, analytics.NewRedisCache(redisClient),
		cfg.Analytics.TrailingMonths, cfg.Analytics.CacheTTL, logger)

	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 4,
		Logger:      newAsynqLogger(logger),
	})

	mux := asynq.NewServeMux()
	mux.Use(metrics.AsynqMetricsMiddleware())
	mux.Handle(tasks.TypeExportDocument,
		worker.NewExportTaskHandler(db, storageClient, engine, redisClient, logger, cfg.Export.ThumbnailWidth))
	mux.Handle(tasks.TypeTemplatePreview,
		worker.NewTemplatePreviewHandler(db, storageClient, engine, logger, cfg.Export.ThumbnailWidth))
	mux.Handle(tasks.TypeAnalyticsRefresh,
		worker.NewAnalyticsRefreshHandler(aggregator, logger))

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Logger: newAsynqLogger(logger)})
	if cfg.Analytics.RefreshCron != "" {
		entryID, err := scheduler.Register(cfg.Analytics.RefreshCron, tasks.NewAnalyticsRefreshTask())
		if err != nil {
			log.Fatalf("register analytics refresh: %v", err)
		}
		logger.Info("analytics refresh scheduled", slog.String("cron", cfg.Analytics.RefreshCron), slog.String("entry_id", entryID))
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("start scheduler: %v", err)
	}
	defer scheduler.Shutdown()

	logger.Info("worker service started",
		slog.String("redis_addr", redisAddr),
		slog.String("engine", cfg.Export.Engine),
	)
	if err := server.Run(mux); err != nil {
		logger.Error("worker server stopped", slog.Any("error", err))
	}
}
