package route

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
)

// DefaultNearThreshold is the distance in meters under which two points are considered near.
const DefaultNearThreshold = 100.0

// ErrInvalidGeometry is returned when a coordinate is NaN or infinite.
var ErrInvalidGeometry = errors.New("invalid geometry")

// Point is a coordinate pair. X is the latitude and Y the longitude.
type Point struct {
	X float64 `json:"lat"`
	Y float64 `json:"lng"`
}

// NewPoint creates a Point from latitude and longitude.
func NewPoint(lat, lng float64) Point {
	return Point{X: lat, Y: lng}
}

// Sub returns the vector from b to p.
func (p Point) Sub(b Point) Point {
	return Point{X: p.X - b.X, Y: p.Y - b.Y}
}

// Dot returns the dot product of p and b treated as vectors.
func (p Point) Dot(b Point) float64 {
	return p.X*b.X + p.Y*b.Y
}

// Cross returns the z component of the cross product of p and b.
func (p Point) Cross(b Point) float64 {
	return p.X*b.Y - p.Y*b.X
}

// Norm returns the euclidean length of p treated as a vector.
func (p Point) Norm() float64 {
	return math.Hypot(p.X, p.Y)
}

// IsFinite reports whether both coordinates are finite.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// IsGeographic reports whether p is finite and a valid latitude/longitude pair.
func (p Point) IsGeographic() bool {
	return p.IsFinite() &&
		p.X >= -90 && p.X <= 90 &&
		p.Y >= -180 && p.Y <= 180
}

func (p Point) orb() orb.Point {
	return orb.Point{p.Y, p.X}
}

// Segment is a directed route from Source to Destination.
type Segment struct {
	Source      Point `json:"source"`
	Destination Point `json:"destination"`
}

// NewSegment creates a Segment between two points.
func NewSegment(source, destination Point) Segment {
	return Segment{Source: source, Destination: destination}
}

// Direction returns the vector from the source to the destination.
func (s Segment) Direction() Point {
	return s.Destination.Sub(s.Source)
}

// Validate returns ErrInvalidGeometry if either endpoint is not finite.
func (s Segment) Validate() error {
	if !s.Source.IsFinite() {
		return fmt.Errorf("%w: source (%v, %v)", ErrInvalidGeometry, s.Source.X, s.Source.Y)
	}
	if !s.Destination.IsFinite() {
		return fmt.Errorf("%w: destination (%v, %v)", ErrInvalidGeometry, s.Destination.X, s.Destination.Y)
	}
	return nil
}

// ValidateGeographic returns ErrInvalidGeometry unless both endpoints are valid latitude/longitude pairs.
func (s Segment) ValidateGeographic() error {
	if err := s.Validate(); err != nil {
		return err
	}
	if !s.Source.IsGeographic() {
		return fmt.Errorf("%w: source (%v, %v) out of range", ErrInvalidGeometry, s.Source.X, s.Source.Y)
	}
	if !s.Destination.IsGeographic() {
		return fmt.Errorf("%w: destination (%v, %v) out of range", ErrInvalidGeometry, s.Destination.X, s.Destination.Y)
	}
	return nil
}

// DistanceMeters returns the great-circle distance between a and b in meters.
func DistanceMeters(a, b Point) float64 {
	return geo.DistanceHaversine(a.orb(), b.orb())
}

// IsNear reports whether a and b lie within thresholdMeters of each other.
func IsNear(a, b Point, thresholdMeters float64) bool {
	if thresholdMeters <= 0 {
		// haversine underflows to zero for points a few ulps apart
		return thresholdMeters == 0 && a == b
	}
	return a == b || DistanceMeters(a, b) <= thresholdMeters
}

// Place is a labelled coordinate, as entered by a user.
type Place struct {
	Label     string  `json:"label"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Point returns the place's coordinate.
func (p Place) Point() Point {
	return NewPoint(p.Latitude, p.Longitude)
}

// Validate checks the coordinate is finite and within latitude/longitude bounds.
func (p Place) Validate() error {
	if !p.Point().IsGeographic() {
		return fmt.Errorf("%w: %q (%v, %v)", ErrInvalidGeometry, p.Label, p.Latitude, p.Longitude)
	}
	return nil
}
