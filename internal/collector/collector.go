package collector

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/config"
	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
	"github.com/adebold/Commerce-Studio-sub021/internal/stream"
)

var validClickEventTypes = map[string]bool{
	domain.ClickEventClick:  true,
	domain.ClickEventView:   true,
	domain.ClickEventHover:  true,
	domain.ClickEventScroll: true,
	domain.ClickEventInput:  true,
}

// Collector receives raw modality-specific events, anonymizes them per the
// privacy configuration, normalizes them into the unified schema, and
// publishes them to the event stream.
//
// Collection is fire-and-forget: validation failures are returned so the
// edge can reject bad input, but publish failures never surface to the
// caller. The storefront and chat UI must not block on telemetry.
type Collector struct {
	publisher  stream.Publisher
	anonymizer *Anonymizer
	breaker    *Breaker
	topic      string
	log        *zap.Logger
}

// New creates an event collector.
func New(publisher stream.Publisher, privacy config.Privacy, tuning config.Collector, topic string, log *zap.Logger) *Collector {
	return &Collector{
		publisher:  publisher,
		anonymizer: NewAnonymizer(privacy),
		breaker:    NewBreaker(tuning.BreakerThreshold, time.Duration(tuning.BreakerCooldownSec)*time.Second),
		topic:      topic,
		log:        log,
	}
}

// CollectClickStreamEvent validates, anonymizes, transforms, and publishes
// one storefront click-stream event. A zero timestamp defaults to now.
func (c *Collector) CollectClickStreamEvent(ctx context.Context, sessionID, userID string, source domain.EventSource, timestamp int64, click *domain.ClickStreamEvent) error {
	if err := validateCommon(sessionID, userID, source); err != nil {
		return err
	}
	if click == nil {
		return fmt.Errorf("%w: missing click-stream payload", domain.ErrValidation)
	}
	if !validClickEventTypes[click.EventType] {
		return fmt.Errorf("%w: unknown click event type %q", domain.ErrValidation, click.EventType)
	}

	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}

	subjectID := c.anonymizer.UserID(userID)

	event := &domain.UnifiedInteractionEvent{
		SpecVersion: domain.SpecVersion,
		EventID:     computeEventID(sessionID, subjectID, domain.ModalityClickStream, timestamp, click.EventType+"|"+click.ElementID),
		SessionID:   sessionID,
		UserID:      subjectID,
		Timestamp:   timestamp,
		Modality:    domain.ModalityClickStream,
		Source:      source,
		ClickStream: click,
	}

	c.publish(ctx, event)
	return nil
}

// CollectAvatarChatEvent validates, anonymizes, transforms, and publishes
// one conversational turn. Chat text is PII-scrubbed per the privacy config.
func (c *Collector) CollectAvatarChatEvent(ctx context.Context, sessionID, userID string, source domain.EventSource, timestamp int64, chat *domain.AvatarChatEvent) error {
	if err := validateCommon(sessionID, userID, source); err != nil {
		return err
	}
	if chat == nil {
		return fmt.Errorf("%w: missing avatar-chat payload", domain.ErrValidation)
	}
	if chat.Speaker != domain.SpeakerUser && chat.Speaker != domain.SpeakerAvatar {
		return fmt.Errorf("%w: unknown speaker %q", domain.ErrValidation, chat.Speaker)
	}

	if timestamp == 0 {
		timestamp = time.Now().Unix()
	}

	subjectID := c.anonymizer.UserID(userID)

	// Copy before scrubbing so the caller's payload stays untouched.
	scrubbed := *chat
	scrubbed.Message = c.anonymizer.ScrubText(chat.Message)

	event := &domain.UnifiedInteractionEvent{
		SpecVersion: domain.SpecVersion,
		EventID:     computeEventID(sessionID, subjectID, domain.ModalityAvatarChat, timestamp, fmt.Sprintf("%d|%s", chat.TurnNumber, chat.Speaker)),
		SessionID:   sessionID,
		UserID:      subjectID,
		Timestamp:   timestamp,
		Modality:    domain.ModalityAvatarChat,
		Source:      source,
		AvatarChat:  &scrubbed,
	}

	c.publish(ctx, event)
	return nil
}

func validateCommon(sessionID, userID string, source domain.EventSource) error {
	if sessionID == "" {
		return fmt.Errorf("%w: missing session_id", domain.ErrValidation)
	}
	if userID == "" {
		return fmt.Errorf("%w: missing user_id", domain.ErrValidation)
	}
	if source.Platform == "" || source.StoreID == "" {
		return fmt.Errorf("%w: missing event source", domain.ErrValidation)
	}
	return nil
}

// publish sends the event to the stream. Failures are logged per event and
// counted against the circuit breaker; they never reach the caller.
func (c *Collector) publish(ctx context.Context, event *domain.UnifiedInteractionEvent) {
	if !c.breaker.Allow() {
		c.log.Warn("Circuit breaker open, shedding event",
			zap.String("event_id", event.EventID),
			zap.String("modality", string(event.Modality)))
		return
	}

	if _, err := c.publisher.Publish(ctx, c.topic, event); err != nil {
		c.breaker.Failure()
		c.log.Error("Failed to publish event, dropping",
			zap.String("event_id", event.EventID),
			zap.String("modality", string(event.Modality)),
			zap.Error(err))
		return
	}

	c.breaker.Success()
}

// computeEventID generates a deterministic event ID from event content.
// Replayed submissions of the same interaction map to the same ID, which
// the aggregator's idempotency filter relies on.
func computeEventID(sessionID, userID string, modality domain.Modality, timestamp int64, discriminant string) string {
	data := fmt.Sprintf("%s|%s|%s|%d|%s", sessionID, userID, modality, timestamp, discriminant)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
