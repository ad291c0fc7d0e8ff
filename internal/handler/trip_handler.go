package handler

import (
	"context"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ridepool/service-trip/internal/application"
	"github.com/ridepool/service-trip/internal/common/auth"
	"github.com/ridepool/service-trip/internal/common/domain"
	"github.com/ridepool/service-trip/internal/common/middleware"
	"github.com/ridepool/service-trip/internal/common/response"
)

// TripHandler handles HTTP requests for trip operations.
type TripHandler struct {
	service *application.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(service *application.TripService) *TripHandler {
	return &TripHandler{service: service}
}

// RegisterRoutes registers all trip routes on the given router group.
func (h *TripHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)
	driverOnly := middleware.RequireRole(auth.RoleDriver)
	riderOnly := middleware.RequireRole(auth.RoleRider)

	trips := r.Group("/api/v1/trips")
	trips.Use(authMW)
	{
		trips.POST("", driverOnly, h.CreateTrip)
		trips.GET("", h.ListTrips)
		trips.GET("/:id", h.GetTrip)
		trips.POST("/:id/join", riderOnly, h.JoinTrip)
		trips.POST("/:id/leave", riderOnly, h.LeaveTrip)
		trips.POST("/:id/depart", driverOnly, h.DepartTrip)
		trips.POST("/:id/complete", driverOnly, h.CompleteTrip)
		trips.POST("/:id/cancel", driverOnly, h.CancelTrip)
	}
}

// CreateTrip handles POST /api/v1/trips.
func (h *TripHandler) CreateTrip(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var req application.CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.service.CreateTrip(c.Request.Context(), userID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, result)
}

// ListTrips handles GET /api/v1/trips. Riders see the trips they joined, everyone else the trips they drive.
func (h *TripHandler) ListTrips(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}
	role, _ := middleware.GetUserRole(c)

	page, limit := parsePagination(c)

	var (
		result *domain.PaginatedResult[application.TripDTO]
		err    error
	)
	switch role {
	case auth.RoleRider:
		result, err = h.service.GetRiderTrips(c.Request.Context(), userID, page, limit)
	default:
		result, err = h.service.GetDriverTrips(c.Request.Context(), userID, page, limit)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Paginated(c, result.Items, result.Total, result.Page, result.Limit)
}

// GetTrip handles GET /api/v1/trips/:id. The id may also be a trip number.
func (h *TripHandler) GetTrip(c *gin.Context) {
	var (
		result *application.TripDTO
		err    error
	)
	if number := c.Param("id"); strings.HasPrefix(strings.ToUpper(number), "TR-") {
		result, err = h.service.GetTripByNumber(c.Request.Context(), number)
	} else {
		tripID, ok := parseID(c, "trip")
		if !ok {
			return
		}
		result, err = h.service.GetTrip(c.Request.Context(), tripID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// JoinTrip handles POST /api/v1/trips/:id/join.
func (h *TripHandler) JoinTrip(c *gin.Context) {
	h.act(c, h.service.JoinTrip)
}

// LeaveTrip handles POST /api/v1/trips/:id/leave.
func (h *TripHandler) LeaveTrip(c *gin.Context) {
	h.act(c, h.service.LeaveTrip)
}

// DepartTrip handles POST /api/v1/trips/:id/depart.
func (h *TripHandler) DepartTrip(c *gin.Context) {
	h.act(c, h.service.DepartTrip)
}

// CompleteTrip handles POST /api/v1/trips/:id/complete.
func (h *TripHandler) CompleteTrip(c *gin.Context) {
	h.act(c, h.service.CompleteTrip)
}

// CancelTrip handles POST /api/v1/trips/:id/cancel.
func (h *TripHandler) CancelTrip(c *gin.Context) {
	tripID, ok := parseID(c, "trip")
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&body)

	result, err := h.service.CancelTrip(c.Request.Context(), tripID, userID, body.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// act runs a trip operation on behalf of the authenticated user.
func (h *TripHandler) act(c *gin.Context, op func(ctx context.Context, tripID, userID uuid.UUID) (*application.TripDTO, error)) {
	tripID, ok := parseID(c, "trip")
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	result, err := op(c.Request.Context(), tripID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, result)
}

// parseID parses the :id path parameter, writing a 400 response when it is not a UUID.
func parseID(c *gin.Context, entity string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.BadRequest(c, "invalid "+entity+" ID")
		return uuid.Nil, false
	}
	return id, true
}

// parsePagination extracts page and limit query parameters with defaults.
func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}

	return page, limit
}
