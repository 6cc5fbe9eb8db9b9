package repository

import (
	"context"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

// VolumeQuery selects a user's archived interaction volume over a window.
type VolumeQuery struct {
	UserID string
	From   int64
	To     int64
}

// VolumeResult is the per-modality interaction count for one user.
type VolumeResult struct {
	ClickStreamEvents uint64
	AvatarChatEvents  uint64
}

// EventArchive is the append-only store for unified interaction events.
type EventArchive interface {
	// InsertBatch archives a batch of unified events.
	InsertBatch(ctx context.Context, events []*domain.UnifiedInteractionEvent) (int, error)

	// InitSchema initializes the archive schema (creates tables if they don't exist).
	InitSchema(ctx context.Context) error

	// Ping checks if the archive connection is alive.
	Ping(ctx context.Context) error

	// Close closes the archive and releases resources.
	Close() error

	// GetInteractionVolume counts a user's archived events per modality.
	GetInteractionVolume(ctx context.Context, query VolumeQuery) (*VolumeResult, error)
}
