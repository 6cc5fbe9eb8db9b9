package dto

import "github.com/adebold/Commerce-Studio-sub021/internal/domain"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error" example:"validation_error"`
	Message string `json:"message,omitempty" example:"session_id is required"`
}

// CollectEventResponse represents a successful event ingestion response
type CollectEventResponse struct {
	Status string `json:"status" example:"accepted"`
}

// GetRecommendationsResponse represents the recommendation query response
type GetRecommendationsResponse struct {
	UserID          string                         `json:"user_id" example:"user_123"`
	Recommendations []domain.ProductRecommendation `json:"recommendations"`
}

// GetActivityResponse represents the interaction-volume query response
type GetActivityResponse struct {
	UserID           string `json:"user_id" example:"user_123"`
	From             int64  `json:"from" example:"1723475612"`
	To               int64  `json:"to" example:"1723562012"`
	ClickStreamCount uint64 `json:"click_stream_count" example:"240"`
	AvatarChatCount  uint64 `json:"avatar_chat_count" example:"36"`
}

// StartSessionResponse represents a successful session creation response
type StartSessionResponse struct {
	SessionID string `json:"session_id" example:"a6e1f0f2-7c4a-4d7e-9b1f-52b6c9d0e3aa"`
	State     string `json:"state" example:"listening"`
}

// SessionStateResponse represents a session state query response
type SessionStateResponse struct {
	SessionID string `json:"session_id" example:"a6e1f0f2-7c4a-4d7e-9b1f-52b6c9d0e3aa"`
	State     string `json:"state" example:"processing"`
}
