package aggregator

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
	"github.com/adebold/Commerce-Studio-sub021/internal/repository"
)

// ArchiverConfig configures the archive writer
type ArchiverConfig struct {
	MaxBatchSize int
	FlushTimeout time.Duration
}

// Archiver batches applied events and writes them to the event archive.
// Failed batches are nacked for redelivery; the dedup stage keeps the
// redelivered events from being applied to profiles a second time.
type Archiver struct {
	archive repository.EventArchive
	config  ArchiverConfig
	log     *zap.Logger
}

// NewArchiver creates a new archive writer
func NewArchiver(archive repository.EventArchive, config ArchiverConfig, log *zap.Logger) *Archiver {
	return &Archiver{
		archive: archive,
		config:  config,
		log:     log,
	}
}

// Start begins batching envelopes and writing them to the archive
func (w *Archiver) Start(ctx context.Context, in <-chan *Envelope) {
	ticker := time.NewTicker(w.config.FlushTimeout)
	defer ticker.Stop()

	batch := make([]*Envelope, 0, w.config.MaxBatchSize)

	for {
		select {
		case <-ctx.Done():
			w.log.Info("Archiver shutting down")
			if len(batch) > 0 {
				w.processBatch(ctx, batch)
			}
			return

		case envelope, ok := <-in:
			if !ok {
				w.log.Info("Archiver input channel closed")
				if len(batch) > 0 {
					w.processBatch(ctx, batch)
				}
				return
			}

			batch = append(batch, envelope)

			if len(batch) >= w.config.MaxBatchSize {
				w.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, w.config.MaxBatchSize)
				ticker.Reset(w.config.FlushTimeout)
			}

		case <-ticker.C:
			if len(batch) > 0 {
				w.processBatch(ctx, batch)
				batch = make([]*Envelope, 0, w.config.MaxBatchSize)
			}
		}
	}
}

// processBatch inserts a batch and acks on success, nacks on failure
func (w *Archiver) processBatch(ctx context.Context, envelopes []*Envelope) {
	events := make([]*domain.UnifiedInteractionEvent, len(envelopes))
	for i, env := range envelopes {
		events[i] = env.Event
	}

	insertedCount, err := w.archive.InsertBatch(ctx, events)
	if err != nil {
		w.log.Error("Failed to archive batch",
			zap.Error(err),
			zap.Int("event_count", len(events)))
		w.nackAll(ctx, envelopes)
		return
	}

	if insertedCount != len(events) {
		w.log.Warn("Partial archive success",
			zap.Int("inserted", insertedCount),
			zap.Int("expected", len(events)))
		w.nackAll(ctx, envelopes)
		return
	}

	w.log.Info("Archived events", zap.Int("count", insertedCount))
	w.ackAll(ctx, envelopes)
}

func (w *Archiver) ackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Ack(ctx); err != nil {
			w.log.Error("Failed to ack envelope", zap.Error(err))
		}
	}
}

func (w *Archiver) nackAll(ctx context.Context, envelopes []*Envelope) {
	for _, env := range envelopes {
		if err := env.Nack(ctx); err != nil {
			w.log.Error("Failed to nack envelope", zap.Error(err))
		}
	}
}
