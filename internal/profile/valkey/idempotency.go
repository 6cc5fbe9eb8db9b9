package valkey

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/config"
)

const seenKeyPrefix = "evt_seen:"

// IdempotencyFilter tracks applied event IDs within a TTL window. The
// stream delivers at least once, so the aggregator must expect replays;
// an ID is marked only once its profile update has committed.
type IdempotencyFilter struct {
	client   *redis.Client
	enabled  bool
	failOpen bool
	ttl      time.Duration
	log      *zap.Logger
}

// NewIdempotencyFilter creates the filter from the Valkey config.
func NewIdempotencyFilter(client *redis.Client, cfg config.Valkey, log *zap.Logger) *IdempotencyFilter {
	return &IdempotencyFilter{
		client:   client,
		enabled:  cfg.IdempotencyEnabled,
		failOpen: cfg.IdempotencyFailOpen,
		ttl:      time.Duration(cfg.IdempotencyTTLSec) * time.Second,
		log:      log,
	}
}

// Seen reports whether the event ID was already marked as applied within
// the TTL window. When the filter backend is unavailable, fail-open
// treats the event as unseen so the stream keeps flowing, and fail-closed
// returns the error so the caller can leave the message on the stream.
func (f *IdempotencyFilter) Seen(ctx context.Context, eventID string) (bool, error) {
	if !f.enabled {
		return false, nil
	}

	n, err := f.client.Exists(ctx, seenKeyPrefix+eventID).Result()
	if err != nil {
		if f.failOpen {
			f.log.Warn("Idempotency filter unavailable, failing open",
				zap.String("event_id", eventID),
				zap.Error(err))
			return false, nil
		}
		return false, fmt.Errorf("idempotency check failed: %w", err)
	}

	return n > 0, nil
}

// Mark records the event ID as applied. Callers mark only after the
// profile write commits, so a crash or nack between apply attempts is
// retried in full on redelivery.
func (f *IdempotencyFilter) Mark(ctx context.Context, eventID string) error {
	if !f.enabled {
		return nil
	}

	if err := f.client.Set(ctx, seenKeyPrefix+eventID, 1, f.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency mark failed: %w", err)
	}
	return nil
}
