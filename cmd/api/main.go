package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"llm-scoring/internal/config"
	"llm-scoring/internal/dataset"
	"llm-scoring/internal/db"
	httpSrv "llm-scoring/internal/http"
	"llm-scoring/internal/logger"
	"llm-scoring/internal/metrics"
	"llm-scoring/internal/migrations"
	"llm-scoring/internal/pager"
	"llm-scoring/internal/session"
	"llm-scoring/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath); err != nil {
		panic(err)
	}
	defer logger.Sync()
	metrics.Register()

	ctx := context.Background()

	var s3c *storage.Client
	if cfg.S3.Endpoint != "" {
		if s3c, err = storage.New(ctx, cfg.S3); err != nil {
			logger.Fatal("s3 client", zap.Error(err))
		}
	}

	// Data errors stop the service before it serves anything.
	var fetcher dataset.Fetcher
	if s3c != nil {
		fetcher = s3c
	}
	ds, err := dataset.LoadFrom(ctx, cfg.Dataset.Path, fetcher)
	if err != nil {
		var mc *dataset.MissingColumnError
		switch {
		case errors.As(err, &mc):
			logger.Fatal(mc.Error(), zap.String("path", cfg.Dataset.Path))
		case errors.Is(err, dataset.ErrEmpty):
			logger.Fatal("No data available. Please check your CSV file.", zap.String("path", cfg.Dataset.Path))
		default:
			logger.Fatal(fmt.Sprintf("Error loading data: %v", err), zap.String("path", cfg.Dataset.Path))
		}
	}
	logger.Info("dataset loaded", zap.String("path", cfg.Dataset.Path), zap.Int("rows", ds.Len()))

	pg, err := pager.New(cfg.Pager.Interval, cfg.Pager.ResponsesPerPage)
	if err != nil {
		logger.Fatal("pager", zap.Error(err))
	}

	var store session.Store
	switch cfg.Session.Store {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("failed to connect to redis", zap.Error(err))
		}
		store = session.NewRedisStore(rdb, cfg.Session.TTL)
	case "memory", "":
		store = session.NewMemoryStore()
	default:
		logger.Fatal("unknown session store", zap.String("store", cfg.Session.Store))
	}

	srv := &httpSrv.Server{
		App:      session.NewApp(ds, pg),
		Sessions: store,
		APIToken: cfg.Server.APIToken,
	}

	// Exports need Postgres and the queue; without them the API still labels.
	if cfg.Database.URL != "" {
		// Run embedded migrations (idempotent)
		migrations.Run(cfg.Database.URL)
		srv.DB = db.MustOpen(cfg.Database.URL)
		srv.Asynq = asynq.NewClient(asynq.RedisClientOpt{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer srv.Asynq.Close()
	}

	logger.Info("listening", zap.String("addr", cfg.Server.Addr), zap.String("session_store", cfg.Session.Store), zap.Int("pages", srv.App.TotalPages()))
	if err := httpSrv.NewServer(cfg.Server.Addr, srv).ListenAndServe(); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
}
