package handler

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ridepool/service-trip/internal/application"
	"github.com/ridepool/service-trip/internal/common/auth"
	"github.com/ridepool/service-trip/internal/common/middleware"
	"github.com/ridepool/service-trip/internal/common/response"
	"github.com/ridepool/service-trip/internal/domain/route"
	"github.com/ridepool/service-trip/internal/export"
)

// MatchHandler serves trip search, nearby groups and map exports.
type MatchHandler struct {
	matches *application.MatchService
	trips   *application.TripService
}

// NewMatchHandler creates a new MatchHandler.
func NewMatchHandler(matches *application.MatchService, trips *application.TripService) *MatchHandler {
	return &MatchHandler{matches: matches, trips: trips}
}

// RegisterRoutes registers search and export routes.
func (h *MatchHandler) RegisterRoutes(r *gin.RouterGroup, jwtManager *auth.JWTManager) {
	authMW := middleware.AuthMiddleware(jwtManager)

	trips := r.Group("/api/v1/trips")
	trips.Use(authMW)
	{
		trips.GET("/search", h.SearchTrips)
		trips.GET("/search.geojson", h.SearchTripsGeoJSON)
		trips.GET("/:id/groups", h.NearbyGroups)
		trips.GET("/:id/affiliations", h.TripGroups)
		trips.GET("/:id/export.kml", h.ExportKML)
	}

	groups := r.Group("/api/v1/groups")
	groups.Use(authMW)
	{
		groups.GET("/:id/trips", h.GroupTrips)
	}
}

// SearchTrips handles GET /api/v1/trips/search.
func (h *MatchHandler) SearchTrips(c *gin.Context) {
	matches, ok := h.search(c)
	if !ok {
		return
	}
	response.Success(c, matches)
}

// SearchTripsGeoJSON handles GET /api/v1/trips/search.geojson.
func (h *MatchHandler) SearchTripsGeoJSON(c *gin.Context) {
	matches, ok := h.search(c)
	if !ok {
		return
	}

	data, err := export.SearchGeoJSON(matches)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Data(http.StatusOK, export.GeoJSONContentType, data)
}

// NearbyGroups handles GET /api/v1/trips/:id/groups.
func (h *MatchHandler) NearbyGroups(c *gin.Context) {
	tripID, ok := parseID(c, "trip")
	if !ok {
		return
	}
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c, "unauthorized")
		return
	}

	groups, err := h.matches.NearbyGroups(c.Request.Context(), userID, tripID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, groups)
}

// TripGroups handles GET /api/v1/trips/:id/affiliations.
func (h *MatchHandler) TripGroups(c *gin.Context) {
	tripID, ok := parseID(c, "trip")
	if !ok {
		return
	}

	groups, err := h.matches.TripGroups(c.Request.Context(), tripID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, groups)
}

// ExportKML handles GET /api/v1/trips/:id/export.kml.
func (h *MatchHandler) ExportKML(c *gin.Context) {
	tripID, ok := parseID(c, "trip")
	if !ok {
		return
	}

	trip, err := h.trips.GetTrip(c.Request.Context(), tripID)
	if err != nil {
		response.Error(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTripKML(&buf, *trip); err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+trip.TripNumber+`.kml"`)
	c.Data(http.StatusOK, export.KMLContentType, buf.Bytes())
}

// GroupTrips handles GET /api/v1/groups/:id/trips.
func (h *MatchHandler) GroupTrips(c *gin.Context) {
	groupID, ok := parseID(c, "group")
	if !ok {
		return
	}

	trips, err := h.matches.GroupTrips(c.Request.Context(), groupID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, trips)
}

// search parses the query string and runs the search, writing a response on failure.
func (h *MatchHandler) search(c *gin.Context) ([]application.TripMatchDTO, bool) {
	var coords [4]float64
	for i, key := range []string{"src_lat", "src_lng", "dst_lat", "dst_lng"} {
		v, err := strconv.ParseFloat(c.Query(key), 64)
		if err != nil {
			response.BadRequest(c, "invalid or missing "+key)
			return nil, false
		}
		coords[i] = v
	}

	req := application.SearchRequest{
		Source:      route.NewPoint(coords[0], coords[1]),
		Destination: route.NewPoint(coords[2], coords[3]),
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 1 {
			response.BadRequest(c, "invalid limit")
			return nil, false
		}
		req.Limit = limit
	}
	if raw := c.Query("depart_after"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			response.BadRequest(c, "depart_after must be RFC3339")
			return nil, false
		}
		req.DepartAfter = t
	}

	matches, err := h.matches.SearchTrips(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return matches, true
}
