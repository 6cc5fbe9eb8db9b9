package aggregator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
	"github.com/adebold/Commerce-Studio-sub021/internal/profile"
)

// ApplierConfig configures the profile applier
type ApplierConfig struct {
	MaxRetries int
}

// Applier applies each unified event to its user's profile with a
// read-modify-write loop. Write conflicts from concurrent updates to the
// same user are resolved by retrying against a fresh read; updates for
// different users proceed independently.
type Applier struct {
	store  profile.Store
	filter Deduper
	config ApplierConfig
	log    *zap.Logger
}

// NewApplier creates a new profile applier
func NewApplier(store profile.Store, filter Deduper, config ApplierConfig, log *zap.Logger) *Applier {
	return &Applier{
		store:  store,
		filter: filter,
		config: config,
		log:    log,
	}
}

// Start consumes envelopes, updates profiles, and forwards applied
// envelopes to the archive stage. A failed profile write leaves the
// message on the stream; a schema rejection removes it without applying;
// an envelope flagged as duplicate passes straight through to the archive.
func (a *Applier) Start(ctx context.Context, in <-chan *Envelope, out chan<- *Envelope) {
	defer close(out)

	for {
		select {
		case <-ctx.Done():
			a.log.Info("Applier shutting down")
			return
		case envelope, ok := <-in:
			if !ok {
				a.log.Info("Applier input channel closed")
				return
			}

			if envelope.Duplicate {
				// Already applied on an earlier delivery; only the
				// archive write is still outstanding.
				select {
				case <-ctx.Done():
					return
				case out <- envelope:
				}
				continue
			}

			err := a.applyEvent(ctx, envelope.Event)
			switch {
			case errors.Is(err, domain.ErrSchemaViolation):
				a.log.Warn("Event rejected during apply, profile unchanged",
					zap.String("event_id", envelope.Event.EventID),
					zap.Error(err))
				if err := envelope.Ack(ctx); err != nil {
					a.log.Error("Failed to ack rejected envelope", zap.Error(err))
				}
				continue
			case err != nil:
				a.log.Error("Failed to apply event to profile",
					zap.String("event_id", envelope.Event.EventID),
					zap.String("user_id", envelope.Event.UserID),
					zap.Error(err))
				if err := envelope.Nack(ctx); err != nil {
					a.log.Error("Failed to nack envelope", zap.Error(err))
				}
				continue
			}

			// Mark only after the profile write committed; a mark
			// failure risks a double apply later, never a lost update.
			if err := a.filter.Mark(ctx, envelope.Event.EventID); err != nil {
				a.log.Warn("Failed to mark event as applied",
					zap.String("event_id", envelope.Event.EventID),
					zap.Error(err))
			}

			select {
			case <-ctx.Done():
				return
			case out <- envelope:
				// Envelope sent to archive stage
			}
		}
	}
}

// applyEvent runs the read-modify-write loop for one event. A profile is
// created on the first event for a previously-unseen user.
func (a *Applier) applyEvent(ctx context.Context, event *domain.UnifiedInteractionEvent) error {
	for attempt := 0; attempt <= a.config.MaxRetries; attempt++ {
		p, err := a.store.Get(ctx, event.UserID)
		if errors.Is(err, domain.ErrProfileNotFound) {
			p = domain.NewUnifiedUserProfile(event.UserID, time.Now())
		} else if err != nil {
			return err
		}

		if err := profile.ApplyEvent(p, event); err != nil {
			return err
		}

		err = a.store.Save(ctx, p)
		if errors.Is(err, domain.ErrProfileWriteConflict) {
			a.log.Debug("Profile write conflict, retrying with fresh read",
				zap.String("user_id", event.UserID),
				zap.Int("attempt", attempt+1))
			continue
		}
		return err
	}

	return fmt.Errorf("%w: retries exhausted for user %s", domain.ErrProfileWriteConflict, event.UserID)
}
