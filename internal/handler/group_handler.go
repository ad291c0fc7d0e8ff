package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ridepool/service-trip/internal/application"
	"github.com/ridepool/service-trip/internal/common/auth"
	"github.com/ridepool/service-trip/internal/common/middleware"
	"github.com/ridepool/service-trip/internal/common/response"
)

// GroupHandler handles HTTP requests for carpool group operations.
type GroupHandler struct {
	service *application.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(service *application.GroupService) *GroupHandler {
	return &GroupHandler{service: service}
}

// RegisterRoutes registers all group routes.
func (h *GroupHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	groups := r.Group("/api/v1/groups")
	groups.Use(authMW)
	{
		groups.POST("", h.CreateGroup)
		groups.GET("", h.GetMyGroups)
		groups.GET("/:id", h.GetGroup)
		groups.PUT("/:id", h.UpdateGroup)
		groups.DELETE("/:id", h.ArchiveGroup)
		groups.POST("/:id/join", h.JoinGroup)
		groups.POST("/:id/leave", h.LeaveGroup)
	}
}

// CreateGroup handles POST /api/v1/groups.
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateGroup(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// GetMyGroups handles GET /api/v1/groups.
func (h *GroupHandler) GetMyGroups(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.GetMyGroups(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// GetGroup handles GET /api/v1/groups/:id.
func (h *GroupHandler) GetGroup(c *gin.Context) {
	groupID, ok := parseID(c, "group")
	if !ok {
		return
	}

	result, err := h.service.GetGroup(c.Request.Context(), groupID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// UpdateGroup handles PUT /api/v1/groups/:id.
func (h *GroupHandler) UpdateGroup(c *gin.Context) {
	groupID, ok := parseID(c, "group")
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.UpdateGroup(c.Request.Context(), userID, groupID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// ArchiveGroup handles DELETE /api/v1/groups/:id.
func (h *GroupHandler) ArchiveGroup(c *gin.Context) {
	groupID, ok := parseID(c, "group")
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	if err := h.service.ArchiveGroup(c.Request.Context(), userID, groupID); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"message": "group archived"})
}

// JoinGroup handles POST /api/v1/groups/:id/join.
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	groupID, ok := parseID(c, "group")
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.JoinGroup(c.Request.Context(), userID, groupID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// LeaveGroup handles POST /api/v1/groups/:id/leave.
func (h *GroupHandler) LeaveGroup(c *gin.Context) {
	groupID, ok := parseID(c, "group")
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := h.service.LeaveGroup(c.Request.Context(), userID, groupID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}
