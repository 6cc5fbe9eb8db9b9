package domain

import (
	"encoding/json"
	"fmt"
)

// SpecVersion is the unified event schema version stamped on every event.
// Consumers ignore unknown optional fields but fail on missing required ones.
const SpecVersion = "1.0"

// Modality is the channel through which a user interaction occurred. It
// discriminates which payload variant a UnifiedInteractionEvent carries.
type Modality string

const (
	ModalityClickStream Modality = "click_stream"
	ModalityAvatarChat  Modality = "avatar_chat"
)

// Speaker identifies which side of a conversation produced a chat turn.
type Speaker string

const (
	SpeakerUser   Speaker = "user"
	SpeakerAvatar Speaker = "ai_avatar"
)

// Click-stream event types accepted by the collector.
const (
	ClickEventClick  = "click"
	ClickEventView   = "view"
	ClickEventHover  = "hover"
	ClickEventScroll = "scroll"
	ClickEventInput  = "input"
)

// EventSource identifies the storefront a raw event originated from.
type EventSource struct {
	Platform string `json:"platform"`
	StoreID  string `json:"store_id"`
}

// ElementDetails carries the product tags attached to the storefront element
// a click-stream event targeted. The aggregator mines these for preferences.
type ElementDetails struct {
	Styles []string `json:"styles,omitempty"`
	Brands []string `json:"brands,omitempty"`
	Colors []string `json:"colors,omitempty"`
	Price  float64  `json:"price,omitempty"`
}

// ClickStreamEvent is the payload variant for modality "click_stream".
type ClickStreamEvent struct {
	EventType      string         `json:"event_type"`
	ElementID      string         `json:"element_id"`
	ElementType    string         `json:"element_type"`
	PageURL        string         `json:"page_url"`
	ElementDetails ElementDetails `json:"element_details"`
}

// Entity is a single NLU entity extracted from a chat turn.
type Entity struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

// SentimentIndicator records expressed sentiment toward a topic, verbatim
// from the conversation collaborator's analysis.
type SentimentIndicator struct {
	Topic     string `json:"topic"`
	Sentiment string `json:"sentiment"`
}

// AvatarChatEvent is the payload variant for modality "avatar_chat".
type AvatarChatEvent struct {
	TurnNumber int                 `json:"turn_number"`
	Speaker    Speaker             `json:"speaker"`
	Message    string              `json:"message"`
	Intent     string              `json:"intent,omitempty"`
	Entities   []Entity            `json:"entities,omitempty"`
	Sentiment  *SentimentIndicator `json:"sentiment,omitempty"`
}

// UnifiedInteractionEvent is one normalized interaction record. Events are
// append-only and never mutated after creation. Exactly one of ClickStream
// or AvatarChat is set, selected by Modality.
type UnifiedInteractionEvent struct {
	SpecVersion string            `json:"spec_version"`
	EventID     string            `json:"event_id"`
	SessionID   string            `json:"session_id"`
	UserID      string            `json:"user_id"`
	Timestamp   int64             `json:"timestamp"`
	Modality    Modality          `json:"modality"`
	Source      EventSource       `json:"source"`
	ClickStream *ClickStreamEvent `json:"click_stream,omitempty"`
	AvatarChat  *AvatarChatEvent  `json:"avatar_chat,omitempty"`
}

// Validate enforces the schema contract: required fields present, modality
// recognized, and the payload variant matching the declared modality.
func (e *UnifiedInteractionEvent) Validate() error {
	if e.EventID == "" {
		return fmt.Errorf("%w: missing event_id", ErrSchemaViolation)
	}
	if e.SessionID == "" {
		return fmt.Errorf("%w: missing session_id", ErrSchemaViolation)
	}
	if e.UserID == "" {
		return fmt.Errorf("%w: missing user_id", ErrSchemaViolation)
	}
	if e.Timestamp <= 0 {
		return fmt.Errorf("%w: missing timestamp", ErrSchemaViolation)
	}

	switch e.Modality {
	case ModalityClickStream:
		if e.ClickStream == nil {
			return fmt.Errorf("%w: modality %q without click_stream payload", ErrSchemaViolation, e.Modality)
		}
		if e.AvatarChat != nil {
			return fmt.Errorf("%w: modality %q carries avatar_chat payload", ErrSchemaViolation, e.Modality)
		}
	case ModalityAvatarChat:
		if e.AvatarChat == nil {
			return fmt.Errorf("%w: modality %q without avatar_chat payload", ErrSchemaViolation, e.Modality)
		}
		if e.ClickStream != nil {
			return fmt.Errorf("%w: modality %q carries click_stream payload", ErrSchemaViolation, e.Modality)
		}
	default:
		return fmt.Errorf("%w: unrecognized modality %q", ErrSchemaViolation, e.Modality)
	}

	return nil
}

// DecodeUnifiedEvent parses a wire message into a validated unified event.
// Unknown fields are ignored for forward compatibility.
func DecodeUnifiedEvent(body []byte) (*UnifiedInteractionEvent, error) {
	var event UnifiedInteractionEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaViolation, err)
	}
	if err := event.Validate(); err != nil {
		return nil, err
	}
	return &event, nil
}
