package clickhouse

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
	"github.com/adebold/Commerce-Studio-sub021/internal/repository"
)

// Repository implements EventArchive for ClickHouse
type Repository struct {
	client *Client
	log    *zap.Logger
}

// NewRepository creates a new ClickHouse event archive
func NewRepository(client *Client, log *zap.Logger) *Repository {
	return &Repository{
		client: client,
		log:    log,
	}
}

// InitSchema initializes the ClickHouse schema with ReplacingMergeTree engine
func (r *Repository) InitSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS interaction_events (
		event_id String,
		session_id String,
		user_id String,
		modality LowCardinality(String),
		platform LowCardinality(String),
		store_id String,
		timestamp Int64,
		spec_version LowCardinality(String),
		payload String,
		processed_at DateTime64(3) DEFAULT now64(3),
		version UInt64
	) ENGINE = ReplacingMergeTree(version)
	PRIMARY KEY (event_id)
	ORDER BY (event_id, timestamp)
	PARTITION BY toYYYYMM(toDateTime(timestamp))
	SETTINGS index_granularity = 8192
	`

	if err := r.client.Conn().Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create interaction_events table: %w", err)
	}

	r.log.Info("ClickHouse schema initialized successfully")
	return nil
}

// InsertBatch archives a batch of unified interaction events
func (r *Repository) InsertBatch(ctx context.Context, events []*domain.UnifiedInteractionEvent) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}

	batch, err := r.client.Conn().PrepareBatch(ctx, "INSERT INTO interaction_events")
	if err != nil {
		return 0, fmt.Errorf("failed to prepare batch: %w", err)
	}

	insertedCount := 0
	for _, event := range events {
		payload, err := marshalPayload(event)
		if err != nil {
			return 0, err
		}

		err = batch.Append(
			event.EventID,
			event.SessionID,
			event.UserID,
			string(event.Modality),
			event.Source.Platform,
			event.Source.StoreID,
			event.Timestamp,
			event.SpecVersion,
			payload,
			time.Now(),
			uint64(time.Now().UnixNano()),
		)

		if err != nil {
			return 0, fmt.Errorf("failed to append event to batch: %w", err)
		}
		insertedCount++
	}

	if err := batch.Send(); err != nil {
		return 0, fmt.Errorf("failed to send batch: %w", err)
	}

	return insertedCount, nil
}

// marshalPayload serializes the modality-specific payload variant.
func marshalPayload(event *domain.UnifiedInteractionEvent) (string, error) {
	var variant interface{}
	switch event.Modality {
	case domain.ModalityClickStream:
		variant = event.ClickStream
	case domain.ModalityAvatarChat:
		variant = event.AvatarChat
	}
	if variant == nil {
		return "{}", nil
	}

	data, err := json.Marshal(variant)
	if err != nil {
		return "", fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return string(data), nil
}

// Ping checks if the ClickHouse connection is alive
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Conn().Ping(ctx)
}

// Close closes the ClickHouse connection
func (r *Repository) Close() error {
	return r.client.Close()
}

// GetInteractionVolume counts a user's archived events per modality
func (r *Repository) GetInteractionVolume(ctx context.Context, query repository.VolumeQuery) (*repository.VolumeResult, error) {
	volumeQuery := `
		SELECT
			countIf(modality = 'click_stream') as click_count,
			countIf(modality = 'avatar_chat') as chat_count
		FROM interaction_events FINAL
		WHERE user_id = ? AND timestamp >= ? AND timestamp <= ?
	`

	result := &repository.VolumeResult{}
	row := r.client.Conn().QueryRow(ctx, volumeQuery, query.UserID, query.From, query.To)
	if err := row.Scan(&result.ClickStreamEvents, &result.AvatarChatEvents); err != nil {
		return nil, fmt.Errorf("failed to query interaction volume: %w", err)
	}

	return result, nil
}
