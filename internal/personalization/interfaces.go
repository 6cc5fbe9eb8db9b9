package personalization

import (
	"context"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

// Recommender is the recommendation collaborator. It accepts an enriched
// context object and returns ranked products; this pipeline passes the
// result through untouched.
type Recommender interface {
	Recommend(ctx context.Context, rc *domain.RecommendationContext) ([]domain.ProductRecommendation, error)
}

// Conversationalist is the conversation-response collaborator. It shapes
// the actual response text; this service's responsibility ends at the
// tone parameters it hands over.
type Conversationalist interface {
	Respond(ctx context.Context, req *domain.ConversationRequest) (*domain.AvatarResponse, error)
}
