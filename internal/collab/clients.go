package collab

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/config"
	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
)

// Clients bundles the HTTP clients for the three external collaborators.
// Every failure is wrapped in domain.ErrCollaborator so callers can fall
// back without inspecting transport details.
type Clients struct {
	Recommendation *RecommendationClient
	Conversation   *ConversationClient
	Rendering      *RenderingClient
}

// NewClients creates collaborator clients sharing one underlying
// http.Client with the configured timeout.
func NewClients(cfg config.Collaborators, log *zap.Logger) *Clients {
	hc := &http.Client{Timeout: time.Duration(cfg.TimeoutSec) * time.Second}

	return &Clients{
		Recommendation: &RecommendationClient{baseURL: cfg.RecommendationURL, http: hc, log: log},
		Conversation:   &ConversationClient{baseURL: cfg.ConversationURL, http: hc, log: log},
		Rendering:      &RenderingClient{baseURL: cfg.RenderingURL, http: hc, log: log},
	}
}

// RecommendationClient calls the recommendation collaborator.
type RecommendationClient struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Recommend posts the enriched context and returns the ranked products
// untouched.
func (c *RecommendationClient) Recommend(ctx context.Context, rc *domain.RecommendationContext) ([]domain.ProductRecommendation, error) {
	var out struct {
		Recommendations []domain.ProductRecommendation `json:"recommendations"`
	}
	if err := postJSON(ctx, c.http, c.baseURL+"/v1/recommendations", rc, &out); err != nil {
		return nil, fmt.Errorf("%w: recommendation: %v", domain.ErrCollaborator, err)
	}
	return out.Recommendations, nil
}

// ConversationClient calls the conversation-response collaborator.
type ConversationClient struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Respond posts the user text plus tone parameters and returns the
// avatar's reply.
func (c *ConversationClient) Respond(ctx context.Context, req *domain.ConversationRequest) (*domain.AvatarResponse, error) {
	var out domain.AvatarResponse
	if err := postJSON(ctx, c.http, c.baseURL+"/v1/respond", req, &out); err != nil {
		return nil, fmt.Errorf("%w: conversation: %v", domain.ErrCollaborator, err)
	}
	return &out, nil
}

// RenderingClient calls the avatar-rendering collaborator.
type RenderingClient struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// Render posts the response for playback. Only success or failure is
// reported back.
func (c *RenderingClient) Render(ctx context.Context, req *domain.RenderRequest) error {
	if err := postJSON(ctx, c.http, c.baseURL+"/v1/render", req, nil); err != nil {
		return fmt.Errorf("%w: rendering: %v", domain.ErrCollaborator, err)
	}
	return nil
}

// postJSON posts the payload and decodes the response into out when out is
// non-nil. Non-2xx statuses are errors.
func postJSON(ctx context.Context, hc *http.Client, url string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, snippet)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
