package session

import (
	"context"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

// Responder derives tone parameters and produces the avatar's reply. The
// personalization service implements it.
type Responder interface {
	GetPersonalizedAvatarResponse(ctx context.Context, userID, userInput, conversationID string) (*domain.AvatarResponse, error)
}

// Renderer is the avatar-rendering collaborator. Only success or failure
// is consumed from it.
type Renderer interface {
	Render(ctx context.Context, req *domain.RenderRequest) error
}

// EventSink receives every user and avatar turn for the interaction
// pipeline. The event collector implements it.
type EventSink interface {
	CollectAvatarChatEvent(ctx context.Context, sessionID, userID string, source domain.EventSource, timestamp int64, chat *domain.AvatarChatEvent) error
}
