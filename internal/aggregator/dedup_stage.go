package aggregator

import (
	"context"

	"go.uber.org/zap"
)

// DedupStage flags events whose ID was already applied within the
// idempotency window. The stream delivers at least once; a flagged
// envelope skips the profile apply downstream but still flows to the
// archive, because a redelivery means some part of the original delivery
// never acked.
type DedupStage struct {
	filter Deduper
	log    *zap.Logger
}

// NewDedupStage creates a new dedup stage
func NewDedupStage(filter Deduper, log *zap.Logger) *DedupStage {
	return &DedupStage{
		filter: filter,
		log:    log,
	}
}

// Start begins filtering envelopes
func (s *DedupStage) Start(ctx context.Context, in <-chan *Envelope, out chan<- *Envelope) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Dedup stage shutting down")
			return
		case envelope, ok := <-in:
			if !ok {
				s.log.Info("Dedup stage input channel closed")
				return
			}

			seen, err := s.filter.Seen(ctx, envelope.Event.EventID)
			if err != nil {
				// Fail-closed: leave the message on the stream for a
				// later attempt once the filter backend recovers.
				s.log.Error("Idempotency check failed, leaving message for redelivery",
					zap.String("event_id", envelope.Event.EventID),
					zap.Error(err))
				if err := envelope.Nack(ctx); err != nil {
					s.log.Error("Failed to nack envelope", zap.Error(err))
				}
				continue
			}

			if seen {
				envelope.Duplicate = true
				s.log.Debug("Event already applied, forwarding for archive only",
					zap.String("event_id", envelope.Event.EventID))
			}

			select {
			case <-ctx.Done():
				return
			case out <- envelope:
				// Envelope sent to next stage
			}
		}
	}
}
