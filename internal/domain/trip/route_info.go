package trip

import (
	"fmt"
	"math"

	"github.com/twpayne/go-polyline"

	"github.com/ridepool/service-trip/internal/domain/route"
)

// averageSpeedKmh is used to estimate the drive time of a straight-line route.
const averageSpeedKmh = 40.0

// RouteInfo is a value object describing the straight-line route between source and destination.
type RouteInfo struct {
	DistanceKm           float64 `json:"distance_km"`
	EstimatedDurationMin int     `json:"estimated_duration_min"`
	Polyline             string  `json:"polyline"`
}

// NewRouteInfo computes distance, duration and an encoded polyline for the two places.
func NewRouteInfo(source, destination route.Place) RouteInfo {
	distanceKm := route.DistanceMeters(source.Point(), destination.Point()) / 1000
	encoded := polyline.EncodeCoords([][]float64{
		{source.Latitude, source.Longitude},
		{destination.Latitude, destination.Longitude},
	})
	return RouteInfo{
		DistanceKm:           math.Round(distanceKm*100) / 100,
		EstimatedDurationMin: int(math.Ceil(distanceKm / averageSpeedKmh * 60)),
		Polyline:             string(encoded),
	}
}

// Points decodes the polyline back into coordinates.
func (r RouteInfo) Points() ([]route.Point, error) {
	coords, _, err := polyline.DecodeCoords([]byte(r.Polyline))
	if err != nil {
		return nil, fmt.Errorf("failed to decode polyline: %w", err)
	}
	points := make([]route.Point, len(coords))
	for i, c := range coords {
		points[i] = route.NewPoint(c[0], c[1])
	}
	return points, nil
}
