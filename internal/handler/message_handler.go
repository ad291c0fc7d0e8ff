package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ridepool/service-trip/internal/application"
	"github.com/ridepool/service-trip/internal/common/auth"
	"github.com/ridepool/service-trip/internal/common/middleware"
	"github.com/ridepool/service-trip/internal/common/response"
)

// MessageHandler handles HTTP requests for trip messages.
type MessageHandler struct {
	service *application.MessageService
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(service *application.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// RegisterRoutes registers all message routes.
func (h *MessageHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	messages := r.Group("/api/v1/trips")
	messages.Use(authMW)
	{
		messages.POST("/:id/messages", h.PostMessage)
		messages.GET("/:id/messages", h.GetTripMessages)
	}
}

// PostMessage handles POST /api/v1/trips/:id/messages.
func (h *MessageHandler) PostMessage(c *gin.Context) {
	tripID, ok := parseID(c, "trip")
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.PostMessage(c.Request.Context(), tripID, userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetTripMessages handles GET /api/v1/trips/:id/messages.
func (h *MessageHandler) GetTripMessages(c *gin.Context) {
	tripID, ok := parseID(c, "trip")
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetTripMessages(c.Request.Context(), tripID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
