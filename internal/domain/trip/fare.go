package trip

import "fmt"

// FareStrategy defines the interface for calculating the per-seat contribution.
type FareStrategy interface {
	// Calculate returns the fare per seat in cents.
	Calculate(params FareParams) (int64, error)
}

// FareParams holds the inputs for fare calculation.
type FareParams struct {
	DistanceKm float64
	Seats      int
}

// StandardFareStrategy splits the trip's running cost evenly between seats.
type StandardFareStrategy struct{}

// NewStandardFareStrategy creates a new StandardFareStrategy.
func NewStandardFareStrategy() *StandardFareStrategy {
	return &StandardFareStrategy{}
}

const (
	baseFareCents    = 300
	perKmCents       = 45
	minimumSeatCents = 100
)

// Calculate computes the per-seat fare in cents (sen for MYR).
//
// Fare formula:
//   - Trip cost: MYR 3.00 base + MYR 0.45/km
//   - Split across seats, rounded up to the next sen
//   - Never below MYR 1.00 per seat
func (s *StandardFareStrategy) Calculate(params FareParams) (int64, error) {
	if params.DistanceKm < 0 {
		return 0, fmt.Errorf("distance cannot be negative")
	}
	if params.Seats <= 0 {
		return 0, fmt.Errorf("seats must be positive")
	}

	total := int64(baseFareCents) + int64(params.DistanceKm*perKmCents)
	seats := int64(params.Seats)
	perSeat := (total + seats - 1) / seats

	if perSeat < minimumSeatCents {
		perSeat = minimumSeatCents
	}
	return perSeat, nil
}
