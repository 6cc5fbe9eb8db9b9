package valkey

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/config"
)

// NewClient connects to Valkey and verifies the connection.
func NewClient(ctx context.Context, cfg config.Valkey, log *zap.Logger) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Valkey: %w", err)
	}

	log.Info("Valkey connection established",
		zap.String("host", cfg.Host),
		zap.String("port", cfg.Port))

	return client, nil
}
