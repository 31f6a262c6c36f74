package main

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"llm-scoring/internal/config"
	"llm-scoring/internal/db"
	"llm-scoring/internal/logger"
	"llm-scoring/internal/metrics"
	"llm-scoring/internal/storage"
	"llm-scoring/internal/worker"
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
	if addr := cfg.Worker.MetricsAddr; addr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			logger.Info("worker metrics listening", zap.String("addr", addr))
			if err := http.ListenAndServe(addr, mux); err != nil {
				logger.Error("metrics listener", zap.Error(err))
			}
		}()
	}

	// Start services
	dbase := db.MustOpen(cfg.Database.URL)
	s3c, err := storage.New(context.Background(), cfg.S3)
	if err != nil {
		logger.Fatal("s3 client", zap.Error(err))
	}
	logger.Info("worker starting", zap.String("redis", cfg.Redis.Addr), zap.String("bucket", s3c.Bucket()))
	if err := worker.Run(cfg.Redis.Addr, dbase, s3c); err != nil {
		logger.Fatal("worker", zap.Error(err))
	}
}
