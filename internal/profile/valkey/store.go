package valkey

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

const profileKeyPrefix = "profile:"

// Store implements profile.Store on Valkey with optimistic concurrency:
// every stored profile carries a version, and Save runs a WATCH/MULTI
// compare-and-set against the version the caller read.
type Store struct {
	client *redis.Client
	log    *zap.Logger
}

// NewStore creates a Valkey-backed profile store.
func NewStore(client *redis.Client, log *zap.Logger) *Store {
	return &Store{
		client: client,
		log:    log,
	}
}

func profileKey(userID string) string {
	return profileKeyPrefix + userID
}

// Get loads the profile for a user.
func (s *Store) Get(ctx context.Context, userID string) (*domain.UnifiedUserProfile, error) {
	data, err := s.client.Get(ctx, profileKey(userID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", domain.ErrProfileNotFound, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load profile: %w", err)
	}

	var p domain.UnifiedUserProfile
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}

	return &p, nil
}

// Save persists a profile if its version still matches the stored one, and
// bumps the version on success. A concurrent writer surfaces as
// domain.ErrProfileWriteConflict.
func (s *Store) Save(ctx context.Context, p *domain.UnifiedUserProfile) error {
	key := profileKey(p.UserID)

	err := s.client.Watch(ctx, func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Result()
		switch {
		case errors.Is(err, redis.Nil):
			if p.Version != 0 {
				return fmt.Errorf("%w: profile for %s was deleted", domain.ErrProfileWriteConflict, p.UserID)
			}
		case err != nil:
			return fmt.Errorf("failed to read profile for compare-and-set: %w", err)
		default:
			var stored domain.UnifiedUserProfile
			if err := json.Unmarshal([]byte(data), &stored); err != nil {
				return fmt.Errorf("failed to unmarshal stored profile: %w", err)
			}
			if stored.Version != p.Version {
				return fmt.Errorf("%w: version %d, stored %d", domain.ErrProfileWriteConflict, p.Version, stored.Version)
			}
		}

		next := *p
		next.Version = p.Version + 1

		payload, err := json.Marshal(&next)
		if err != nil {
			return fmt.Errorf("failed to marshal profile: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, 0)
			return nil
		})
		if err != nil {
			return err
		}

		p.Version = next.Version
		return nil
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		return fmt.Errorf("%w: concurrent write on %s", domain.ErrProfileWriteConflict, p.UserID)
	}
	return err
}

// HealthCheck verifies the store is reachable.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
