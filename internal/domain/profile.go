package domain

import "time"

// PriceTier buckets a user's observed price range.
type PriceTier string

const (
	PriceTierBudget   PriceTier = "budget"
	PriceTierMidRange PriceTier = "mid-range"
	PriceTierPremium  PriceTier = "premium"
)

// PriceRange is the observed min/max of product prices a user interacted
// with. A zero Max means no price has been observed yet.
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ClickStreamPreferences are derived solely from click_stream events.
type ClickStreamPreferences struct {
	StylePreferences []string   `json:"style_preferences"`
	BrandPreferences []string   `json:"brand_preferences"`
	PriceRange       PriceRange `json:"price_range"`
	ColorPreferences []string   `json:"color_preferences"`
}

// ConversationPreferences are derived solely from avatar_chat events.
type ConversationPreferences struct {
	MentionedStyles     []string             `json:"mentioned_styles"`
	MentionedBrands     []string             `json:"mentioned_brands"`
	SentimentIndicators []SentimentIndicator `json:"sentiment_indicators"`
}

// LearnedPreferences is the fusion output. It is recomputed from the two
// modality-specific preference sets plus interaction signals and is never
// the primary write target.
type LearnedPreferences struct {
	PreferredStyles   []string  `json:"preferred_styles"`
	PreferredBrands   []string  `json:"preferred_brands"`
	InferredPriceTier PriceTier `json:"inferred_price_tier,omitempty"`
}

// Preferences groups the modality-specific and fused preference sets.
type Preferences struct {
	ClickStream  ClickStreamPreferences  `json:"click_stream"`
	Conversation ConversationPreferences `json:"conversation"`
	Learned      LearnedPreferences      `json:"learned"`
}

// FaceAnalysisData is produced by the face-analysis collaborator and
// consumed read-only by the personalization service.
type FaceAnalysisData struct {
	FaceShape         string                `json:"face_shape"`
	MeasurementRanges map[string]Measurement `json:"measurement_ranges,omitempty"`
}

// Measurement is a min/max range for one facial measurement.
type Measurement struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Attribution records which touchpoints influenced a purchase.
type Attribution struct {
	InfluencedBy   []string `json:"influenced_by,omitempty"`
	LastTouchpoint string   `json:"last_touchpoint,omitempty"`
}

// Purchase is one order line in a user's purchase history, written by the
// order-webhook collaborator outside this pipeline.
type Purchase struct {
	OrderID     string      `json:"order_id"`
	ProductID   string      `json:"product_id"`
	Price       float64     `json:"price"`
	Timestamp   int64       `json:"timestamp"`
	Attribution Attribution `json:"attribution"`
}

// Attributes holds profile data owned by external collaborators. The
// aggregator round-trips it untouched.
type Attributes struct {
	FaceAnalysis    *FaceAnalysisData `json:"face_analysis,omitempty"`
	PurchaseHistory []Purchase        `json:"purchase_history,omitempty"`
}

// MentionStat counts how often a tag was seen and the latest event
// timestamp that mentioned it. Timestamps come from the events themselves,
// so replaying an event set in any order converges on the same stats.
type MentionStat struct {
	Count    int64 `json:"count"`
	LastSeen int64 `json:"last_seen"`
}

// InteractionSignals are the per-tag frequency counters that feed fusion
// ranking, plus per-modality interaction volume.
type InteractionSignals struct {
	StyleMentions     map[string]MentionStat `json:"style_mentions,omitempty"`
	BrandMentions     map[string]MentionStat `json:"brand_mentions,omitempty"`
	ClickStreamEvents int64                  `json:"click_stream_events"`
	AvatarChatEvents  int64                  `json:"avatar_chat_events"`
}

// TotalInteractions is the interaction volume across both modalities.
func (s InteractionSignals) TotalInteractions() int64 {
	return s.ClickStreamEvents + s.AvatarChatEvents
}

// UnifiedUserProfile is the fused per-user profile. One exists per user,
// created on the first event for a previously-unseen user ID. This
// subsystem never hard-deletes profiles; retention is delegated to the
// data-retention policy collaborator.
type UnifiedUserProfile struct {
	UserID      string             `json:"user_id"`
	ProfileID   string             `json:"profile_id"`
	Version     uint64             `json:"version"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
	Preferences Preferences        `json:"preferences"`
	Attributes  Attributes         `json:"attributes"`
	Signals     InteractionSignals `json:"signals"`
}

// NewUnifiedUserProfile creates an empty profile for a first-seen user.
func NewUnifiedUserProfile(userID string, now time.Time) *UnifiedUserProfile {
	return &UnifiedUserProfile{
		UserID:    userID,
		ProfileID: "prf_" + userID,
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
		Signals: InteractionSignals{
			StyleMentions: make(map[string]MentionStat),
			BrandMentions: make(map[string]MentionStat),
		},
	}
}
