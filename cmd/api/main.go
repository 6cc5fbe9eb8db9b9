package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/collab"
	"github.com/adebold/Commerce-Studio-sub021/internal/collector"
	"github.com/adebold/Commerce-Studio-sub021/internal/config"
	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
	"github.com/adebold/Commerce-Studio-sub021/internal/handler"
	"github.com/adebold/Commerce-Studio-sub021/internal/logger"
	"github.com/adebold/Commerce-Studio-sub021/internal/personalization"
	"github.com/adebold/Commerce-Studio-sub021/internal/profile/valkey"
	"github.com/adebold/Commerce-Studio-sub021/internal/repository/clickhouse"
	"github.com/adebold/Commerce-Studio-sub021/internal/session"
	"github.com/adebold/Commerce-Studio-sub021/internal/stream/sqs"
)

func main() {
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

	log.Info("Starting API service",
		zap.String("environment", cfg.Service.Environment),
		zap.String("port", cfg.Service.APIPort))

	ctx := context.Background()

	// Initialize SQS client
	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	// Initialize Valkey client and profile store
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

	// Initialize collaborator clients
	collaborators := collab.NewClients(cfg.Collaborators, log)

	// Initialize services
	col := collector.New(sqsClient, cfg.Privacy, cfg.Collector, cfg.SQS.InteractionsTopic, log)
	personal := personalization.NewService(profileStore, collaborators.Recommendation, collaborators.Conversation, cfg.Personalization, log)
	sessions := session.NewManager(personal, collaborators.Rendering, col,
		domain.EventSource{Platform: cfg.Session.Platform, StoreID: cfg.Session.StoreID}, log)
	defer sessions.Shutdown()

	// Initialize handler
	h := handler.NewHandler(col, personal, sessions, archive, log)

	addr := fmt.Sprintf(":%s", cfg.Service.APIPort)
	server := &http.Server{Addr: addr, Handler: h}

	go func() {
		log.Info("API server starting", zap.String("address", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down API service gracefully")

	shutdownCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Service.ShutdownTimeSec)*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down API server", zap.Error(err))
	}
}
