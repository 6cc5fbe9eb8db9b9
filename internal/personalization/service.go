package personalization

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/config"
	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
	"github.com/adebold/Commerce-Studio-sub021/internal/profile"
)

// Default tone parameters for users with little or no history.
const (
	baseProactivity    = 0.4
	engagedProactivity = 0.8
	baseFormality      = 0.6
	casualFormality    = 0.3
	modernStyleKeyword = "modern"
)

// Service reads the fused user profile and enriches recommendation
// requests and conversational tone parameters. A missing profile is the
// common case for new users and always degrades to the generic path.
type Service struct {
	store           profile.Store
	recommender     Recommender
	conversationist Conversationalist
	config          config.Personalization
	log             *zap.Logger
}

// NewService creates a personalization service
func NewService(store profile.Store, recommender Recommender, conversationist Conversationalist, cfg config.Personalization, log *zap.Logger) *Service {
	return &Service{
		store:           store,
		recommender:     recommender,
		conversationist: conversationist,
		config:          cfg,
		log:             log,
	}
}

// GetPersonalizedRecommendations augments the current context with the
// user's learned preferences before delegating to the recommendation
// collaborator. Without a profile the context passes through unchanged.
func (s *Service) GetPersonalizedRecommendations(ctx context.Context, userID string, current *domain.RecommendationContext) ([]domain.ProductRecommendation, error) {
	if current == nil {
		current = &domain.RecommendationContext{}
	}

	p, err := s.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			s.log.Warn("Profile load failed, serving generic recommendations",
				zap.String("user_id", userID),
				zap.Error(err))
		}
		return s.recommender.Recommend(ctx, current)
	}

	enriched := *current
	enriched.UserProfile = &domain.ProfileContext{
		PreferredStyles: p.Preferences.Learned.PreferredStyles,
		PreferredBrands: p.Preferences.Learned.PreferredBrands,
	}
	if p.Attributes.FaceAnalysis != nil {
		enriched.UserProfile.FaceShape = p.Attributes.FaceAnalysis.FaceShape
	}

	return s.recommender.Recommend(ctx, &enriched)
}

// GetPersonalizedAvatarResponse derives the tone parameters for a user and
// delegates response shaping to the conversation collaborator.
func (s *Service) GetPersonalizedAvatarResponse(ctx context.Context, userID, userInput, conversationID string) (*domain.AvatarResponse, error) {
	tone := s.deriveTone(ctx, userID)

	response, err := s.conversationist.Respond(ctx, &domain.ConversationRequest{
		SessionID: conversationID,
		UserID:    userID,
		Text:      userInput,
		Tone:      tone,
	})
	if err != nil {
		if errors.Is(err, domain.ErrCollaborator) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: conversation: %v", domain.ErrCollaborator, err)
	}

	return response, nil
}

// deriveTone computes proactivity from interaction volume across both
// modalities and formality from stated style preferences. Profile absence
// yields the defaults.
func (s *Service) deriveTone(ctx context.Context, userID string) domain.ToneParams {
	tone := domain.ToneParams{
		Proactivity: baseProactivity,
		Formality:   baseFormality,
	}

	p, err := s.store.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, domain.ErrProfileNotFound) {
			s.log.Warn("Profile load failed, using default tone",
				zap.String("user_id", userID),
				zap.Error(err))
		}
		return tone
	}

	if p.Signals.TotalInteractions() >= int64(s.config.ProactivityThreshold) {
		tone.Proactivity = engagedProactivity
	}

	if prefersModernStyle(p) {
		tone.Formality = casualFormality
	}

	return tone
}

func prefersModernStyle(p *domain.UnifiedUserProfile) bool {
	for _, style := range p.Preferences.Learned.PreferredStyles {
		if style == modernStyleKeyword {
			return true
		}
	}
	return false
}
