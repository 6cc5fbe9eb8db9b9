package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/adebold/Commerce-Studio-sub021/internal/domain"
	"github.com/adebold/Commerce-Studio-sub021/internal/dto"
	"github.com/adebold/Commerce-Studio-sub021/internal/repository"
	"github.com/adebold/Commerce-Studio-sub021/internal/session"
)

// EventCollector ingests raw modality-specific events.
type EventCollector interface {
	CollectClickStreamEvent(ctx context.Context, sessionID, userID string, source domain.EventSource, timestamp int64, click *domain.ClickStreamEvent) error
	CollectAvatarChatEvent(ctx context.Context, sessionID, userID string, source domain.EventSource, timestamp int64, chat *domain.AvatarChatEvent) error
}

// Personalizer serves profile-enriched recommendations.
type Personalizer interface {
	GetPersonalizedRecommendations(ctx context.Context, userID string, current *domain.RecommendationContext) ([]domain.ProductRecommendation, error)
}

// SessionManager owns the live avatar sessions.
type SessionManager interface {
	StartSession(userID string) (string, error)
	HandleInput(sessionID, text string) error
	EndSession(sessionID string)
	SessionState(sessionID string) (session.State, bool)
}

type Handler struct {
	collector EventCollector
	personal  Personalizer
	sessions  SessionManager
	archive   repository.EventArchive
	router    *gin.Engine
	log       *zap.Logger
}

func NewHandler(col EventCollector, personal Personalizer, sessions SessionManager, archive repository.EventArchive, log *zap.Logger) *Handler {
	h := &Handler{
		collector: col,
		personal:  personal,
		sessions:  sessions,
		archive:   archive,
		router:    gin.Default(),
		log:       log,
	}

	h.registerRoutes()

	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) registerRoutes() {
	h.router.GET("/health", h.healthCheck)
	h.router.POST("/events/clickstream", h.collectClickStream)
	h.router.POST("/events/chat", h.collectChat)
	h.router.GET("/users/:userId/recommendations", h.getRecommendations)
	h.router.GET("/users/:userId/activity", h.getActivity)
	h.router.POST("/sessions", h.startSession)
	h.router.GET("/sessions/:sessionId", h.getSessionState)
	h.router.POST("/sessions/:sessionId/input", h.sessionInput)
	h.router.DELETE("/sessions/:sessionId", h.endSession)
}

// healthCheck handles GET /health
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
	})
}

// collectClickStream handles POST /events/clickstream. Ingestion is
// fire-and-forget from the caller's view: a valid event is always
// accepted even when the downstream stream is unavailable.
func (h *Handler) collectClickStream(c *gin.Context) {
	var req dto.CollectClickStreamRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid click-stream request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	source := domain.EventSource{Platform: req.Platform, StoreID: req.StoreID}
	click := &domain.ClickStreamEvent{
		EventType:   req.EventType,
		ElementID:   req.ElementID,
		ElementType: req.ElementType,
		PageURL:     req.PageURL,
		ElementDetails: domain.ElementDetails{
			Styles: req.ElementDetails.Styles,
			Brands: req.ElementDetails.Brands,
			Colors: req.ElementDetails.Colors,
			Price:  req.ElementDetails.Price,
		},
	}

	if err := h.collector.CollectClickStreamEvent(c.Request.Context(), req.SessionID, req.UserID, source, req.Timestamp, click); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.CollectEventResponse{Status: "accepted"})
}

// collectChat handles POST /events/chat
func (h *Handler) collectChat(c *gin.Context) {
	var req dto.CollectChatRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		h.log.Warn("Invalid chat event request", zap.Error(err))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	source := domain.EventSource{Platform: req.Platform, StoreID: req.StoreID}
	chat := &domain.AvatarChatEvent{
		TurnNumber: req.TurnNumber,
		Speaker:    domain.Speaker(req.Speaker),
		Message:    req.Message,
		Intent:     req.Intent,
	}
	for _, e := range req.Entities {
		chat.Entities = append(chat.Entities, domain.Entity{Type: e.Type, Value: e.Value})
	}
	if req.Sentiment != nil {
		chat.Sentiment = &domain.SentimentIndicator{
			Topic:     req.Sentiment.Topic,
			Sentiment: req.Sentiment.Sentiment,
		}
	}

	if err := h.collector.CollectAvatarChatEvent(c.Request.Context(), req.SessionID, req.UserID, source, req.Timestamp, chat); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.CollectEventResponse{Status: "accepted"})
}

// getRecommendations handles GET /users/:userId/recommendations. Users
// without a profile get the generic, unenriched result set.
func (h *Handler) getRecommendations(c *gin.Context) {
	userID := c.Param("userId")

	var req dto.GetRecommendationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	rc := &domain.RecommendationContext{
		Query:   req.Query,
		PageURL: req.PageURL,
		StoreID: req.StoreID,
		Limit:   req.Limit,
	}

	recs, err := h.personal.GetPersonalizedRecommendations(c.Request.Context(), userID, rc)
	if err != nil {
		h.log.Error("Failed to get recommendations",
			zap.Error(err),
			zap.String("user_id", userID))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GetRecommendationsResponse{
		UserID:          userID,
		Recommendations: recs,
	})
}

// getActivity handles GET /users/:userId/activity
func (h *Handler) getActivity(c *gin.Context) {
	userID := c.Param("userId")

	var req dto.GetActivityRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if req.From > req.To {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: "from must not be after to",
		})
		return
	}

	result, err := h.archive.GetInteractionVolume(c.Request.Context(), repository.VolumeQuery{
		UserID: userID,
		From:   req.From,
		To:     req.To,
	})
	if err != nil {
		h.log.Error("Failed to query interaction volume",
			zap.Error(err),
			zap.String("user_id", userID))
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.GetActivityResponse{
		UserID:           userID,
		From:             req.From,
		To:               req.To,
		ClickStreamCount: result.ClickStreamEvents,
		AvatarChatCount:  result.AvatarChatEvents,
	})
}

// startSession handles POST /sessions
func (h *Handler) startSession(c *gin.Context) {
	var req dto.StartSessionRequest

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	sessionID, err := h.sessions.StartSession(req.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	state, _ := h.sessions.SessionState(sessionID)
	c.JSON(http.StatusCreated, dto.StartSessionResponse{
		SessionID: sessionID,
		State:     state.String(),
	})
}

// getSessionState handles GET /sessions/:sessionId
func (h *Handler) getSessionState(c *gin.Context) {
	sessionID := c.Param("sessionId")

	state, ok := h.sessions.SessionState(sessionID)
	if !ok {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "unknown session",
		})
		return
	}

	c.JSON(http.StatusOK, dto.SessionStateResponse{
		SessionID: sessionID,
		State:     state.String(),
	})
}

// sessionInput handles POST /sessions/:sessionId/input. Input submitted
// while the session is not listening is accepted and dropped.
func (h *Handler) sessionInput(c *gin.Context) {
	sessionID := c.Param("sessionId")

	var req dto.SessionInputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if err := h.sessions.HandleInput(sessionID, req.Text); err != nil {
		c.JSON(http.StatusNotFound, dto.ErrorResponse{
			Error:   "not_found",
			Message: "unknown session",
		})
		return
	}

	c.JSON(http.StatusAccepted, dto.CollectEventResponse{Status: "accepted"})
}

// endSession handles DELETE /sessions/:sessionId. Ending an unknown
// session succeeds; termination is idempotent.
func (h *Handler) endSession(c *gin.Context) {
	h.sessions.EndSession(c.Param("sessionId"))
	c.Status(http.StatusNoContent)
}

// respondError maps service errors onto HTTP statuses.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrSchemaViolation):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
	case errors.Is(err, domain.ErrCollaborator):
		c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error:   "collaborator_error",
			Message: err.Error(),
		})
	default:
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error:   "internal_error",
			Message: err.Error(),
		})
	}
}
