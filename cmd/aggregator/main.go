package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/aggregator"
	"github.com/adebold/Commerce-Studio-sub021/internal/config"
	"github.com/adebold/Commerce-Studio-sub021/internal/logger"
	"github.com/adebold/Commerce-Studio-sub021/internal/profile/valkey"
	"github.com/adebold/Commerce-Studio-sub021/internal/repository/clickhouse"
	"github.com/adebold/Commerce-Studio-sub021/internal/stream/sqs"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		err := log.Sync()
		if err != nil {
			log.Error("Failed to sync logger", zap.Error(err))
		}
	}(log)

	log.Info("Starting aggregator service",
		zap.String("environment", cfg.Service.Environment))

	ctx := context.Background()

	// Initialize ClickHouse client and event archive
	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func() {
		if err := chClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()

	archive := clickhouse.NewRepository(chClient, log)

	// Initialize schema (create tables if not exist)
	if err := archive.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}
	log.Info("Database schema initialized")

	// Initialize Valkey client, profile store and idempotency filter
	valkeyClient, err := valkey.NewClient(ctx, cfg.Valkey, log)
	if err != nil {
		log.Fatal("Failed to create Valkey client", zap.Error(err))
	}
	defer func() {
		if err := valkeyClient.Close(); err != nil {
			log.Error("Failed to close Valkey client", zap.Error(err))
		}
	}()

	profileStore := valkey.NewStore(valkeyClient, log)
	filter := valkey.NewIdempotencyFilter(valkeyClient, cfg.Valkey, log)

	// Initialize SQS client
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	// Initialize aggregator pipeline
	agg := aggregator.New(cfg, sqsClient, profileStore, filter, archive, log)

	// Start health check endpoint
	go func() {
		http.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := archive.Ping(r.Context()); err != nil {
				log.Warn("Health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			if err := profileStore.HealthCheck(r.Context()); err != nil {
				log.Warn("Health check failed", zap.Error(err))
				w.WriteHeader(http.StatusServiceUnavailable)
				return
			}
			w.WriteHeader(http.StatusOK)
		})

		addr := ":" + cfg.Aggregator.HealthCheckPort
		log.Info("Health check server starting", zap.String("address", addr))
		if err := http.ListenAndServe(addr, nil); err != nil {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	// Start aggregator
	aggCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Info("Aggregator starting")

	go func() {
		if err := agg.Start(aggCtx); err != nil {
			log.Fatal("Aggregator error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down aggregator gracefully")
	cancel()
}
