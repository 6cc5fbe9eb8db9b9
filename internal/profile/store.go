package profile

import (
	"context"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

// Store is the durable profile store. It is the only shared mutable
// resource in the pipeline; implementations must detect lost-update races.
type Store interface {
	// Get loads the profile for a user. Returns domain.ErrProfileNotFound
	// for a previously-unseen user.
	Get(ctx context.Context, userID string) (*domain.UnifiedUserProfile, error)

	// Save persists a profile with compare-and-set semantics on the
	// profile version read by Get. Returns domain.ErrProfileWriteConflict
	// when another writer got there first; the caller retries with a
	// fresh read-modify-write.
	Save(ctx context.Context, p *domain.UnifiedUserProfile) error

	// HealthCheck verifies the store is reachable.
	HealthCheck(ctx context.Context) error
}
