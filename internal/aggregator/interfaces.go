package aggregator

import (
	"context"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

// EventDecoder parses raw stream message bytes into validated unified events
type EventDecoder interface {
	Decode(body []byte) (*domain.UnifiedInteractionEvent, error)
}

// Deduper tracks which event IDs have been applied to a profile within
// the idempotency window. Marking happens only after a successful apply,
// so a nacked event is retried in full on redelivery.
type Deduper interface {
	Seen(ctx context.Context, eventID string) (bool, error)
	Mark(ctx context.Context, eventID string) error
}
