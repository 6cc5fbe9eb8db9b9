package aggregator

import (
	"context"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

// Envelope wraps a unified event with acknowledgment callbacks.
// Duplicate is set by the dedup stage when the event was already applied
// to its profile on an earlier delivery; later stages skip the apply but
// still archive, since a redelivery means the archive write is the part
// that has not been acknowledged yet.
type Envelope struct {
	Event     *domain.UnifiedInteractionEvent
	Duplicate bool

	ack  func(context.Context) error
	nack func(context.Context) error
}

// NewEnvelope creates a new message envelope
func NewEnvelope(event *domain.UnifiedInteractionEvent, ack, nack func(context.Context) error) *Envelope {
	return &Envelope{
		Event: event,
		ack:   ack,
		nack:  nack,
	}
}

// Ack acknowledges successful processing
func (e *Envelope) Ack(ctx context.Context) error {
	if e.ack != nil {
		return e.ack(ctx)
	}
	return nil
}

// Nack negatively acknowledges processing, leaving the message on the
// stream for redelivery
func (e *Envelope) Nack(ctx context.Context) error {
	if e.nack != nil {
		return e.nack(ctx)
	}
	return nil
}
