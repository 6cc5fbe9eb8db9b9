package dto

// ElementDetails carries the product tags on the clicked element.
type ElementDetails struct {
	Styles []string `json:"styles" example:"modern,minimalist"`
	Brands []string `json:"brands" example:"rayban"`
	Colors []string `json:"colors" example:"black,tortoise"`
	Price  float64  `json:"price" example:"149.99"`
}

// CollectClickStreamRequest represents a raw click-stream event submission
type CollectClickStreamRequest struct {
	SessionID      string         `json:"session_id" binding:"required" example:"sess_9f2c"`
	UserID         string         `json:"user_id" binding:"required" example:"user_123"`
	Platform       string         `json:"platform" binding:"required" example:"shopify"`
	StoreID        string         `json:"store_id" example:"store_42"`
	Timestamp      int64          `json:"timestamp" example:"1723475612"`
	EventType      string         `json:"event_type" binding:"required" example:"click"`
	ElementID      string         `json:"element_id" example:"product-card-789"`
	ElementType    string         `json:"element_type" example:"product_card"`
	PageURL        string         `json:"page_url" example:"/collections/sunglasses"`
	ElementDetails ElementDetails `json:"element_details"`
}

// EntityPayload is one NLU entity attached to a chat turn.
type EntityPayload struct {
	Type  string `json:"type" binding:"required" example:"style"`
	Value string `json:"value" binding:"required" example:"vintage"`
}

// SentimentPayload is the expressed sentiment toward a topic.
type SentimentPayload struct {
	Topic     string `json:"topic" binding:"required" example:"aviator"`
	Sentiment string `json:"sentiment" binding:"required" example:"positive"`
}

// CollectChatRequest represents a raw avatar-chat turn submission
type CollectChatRequest struct {
	SessionID  string            `json:"session_id" binding:"required" example:"sess_9f2c"`
	UserID     string            `json:"user_id" binding:"required" example:"user_123"`
	Platform   string            `json:"platform" binding:"required" example:"web"`
	StoreID    string            `json:"store_id" example:"store_42"`
	Timestamp  int64             `json:"timestamp" example:"1723475612"`
	TurnNumber int               `json:"turn_number" binding:"required,min=1" example:"3"`
	Speaker    string            `json:"speaker" binding:"required,oneof=user ai_avatar" example:"user"`
	Message    string            `json:"message" binding:"required" example:"I like vintage frames"`
	Intent     string            `json:"intent" example:"style_preference"`
	Entities   []EntityPayload   `json:"entities" binding:"dive"`
	Sentiment  *SentimentPayload `json:"sentiment"`
}

// GetRecommendationsRequest represents a recommendation query
type GetRecommendationsRequest struct {
	Query   string `form:"query" example:"sunglasses"`
	PageURL string `form:"page_url" example:"/collections/sunglasses"`
	StoreID string `form:"store_id" example:"store_42"`
	Limit   int    `form:"limit" example:"10"`
}

// GetActivityRequest represents an interaction-volume query
type GetActivityRequest struct {
	From int64 `form:"from" binding:"required" example:"1723475612"`
	To   int64 `form:"to" binding:"required" example:"1723562012"`
}

// StartSessionRequest represents a session creation request
type StartSessionRequest struct {
	UserID string `json:"user_id" binding:"required" example:"user_123"`
}

// SessionInputRequest represents raw user input for a live session
type SessionInputRequest struct {
	Text string `json:"text" binding:"required" example:"show me aviators"`
}
