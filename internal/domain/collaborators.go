package domain

// ProfileContext is the profile slice handed to the recommendation
// collaborator when a profile exists.
type ProfileContext struct {
	PreferredStyles []string `json:"preferred_styles,omitempty"`
	PreferredBrands []string `json:"preferred_brands,omitempty"`
	FaceShape       string   `json:"face_shape,omitempty"`
}

// RecommendationContext is the enriched context object passed through to
// the recommendation collaborator.
type RecommendationContext struct {
	Query       string          `json:"query,omitempty"`
	PageURL     string          `json:"page_url,omitempty"`
	StoreID     string          `json:"store_id,omitempty"`
	Limit       int             `json:"limit,omitempty"`
	UserProfile *ProfileContext `json:"user_profile,omitempty"`
}

// ProductRecommendation is one ranked product returned by the
// recommendation collaborator; this pipeline passes it through untouched.
type ProductRecommendation struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Brand     string  `json:"brand,omitempty"`
	Style     string  `json:"style,omitempty"`
	Price     float64 `json:"price,omitempty"`
	Score     float64 `json:"score,omitempty"`
}

// ToneParams are the scalar tuning parameters the personalization service
// derives for the conversation collaborator. Both are in [0, 1].
type ToneParams struct {
	Proactivity float64 `json:"proactivity"`
	Formality   float64 `json:"formality"`
}

// ConversationRequest is the payload sent to the conversation collaborator.
type ConversationRequest struct {
	SessionID string     `json:"session_id"`
	UserID    string     `json:"user_id"`
	Text      string     `json:"text"`
	Tone      ToneParams `json:"tone"`
}

// AvatarResponse is the conversation collaborator's reply. Animation is an
// optional rendering hint.
type AvatarResponse struct {
	Text      string `json:"text"`
	Animation string `json:"animation,omitempty"`
}

// RenderRequest is the payload sent to the rendering collaborator.
type RenderRequest struct {
	Text      string `json:"text"`
	Animation string `json:"animation,omitempty"`
}
