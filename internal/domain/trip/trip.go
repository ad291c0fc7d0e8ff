package trip

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ridepool/service-trip/internal/common/domain"
	"github.com/ridepool/service-trip/internal/domain/route"
)

const tripNumberChars = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// MaxSeats is the largest number of rider seats a trip may offer.
const MaxSeats = 8

// Trip is the aggregate root for the trip domain.
type Trip struct {
	id          uuid.UUID
	tripNumber  string
	driverID    uuid.UUID
	status      TripStatus
	source      route.Place
	destination route.Place
	routeInfo   RouteInfo
	seatsTotal  int
	riders      []uuid.UUID

	farePerSeatCents int64
	currency         string

	departureAt time.Time
	departedAt  *time.Time
	completedAt *time.Time
	cancelledAt *time.Time
	cancelNote  string
	notes       string

	version   int64
	createdAt time.Time
	updatedAt time.Time
}

// generateTripNumber creates a trip number in the format "TR-XXXXXX".
func generateTripNumber() (string, error) {
	result := make([]byte, 6)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(tripNumberChars))))
		if err != nil {
			return "", fmt.Errorf("failed to generate trip number: %w", err)
		}
		result[i] = tripNumberChars[n.Int64()]
	}
	return "TR-" + string(result), nil
}

// NewTrip creates a new Trip aggregate with status=open.
func NewTrip(
	driverID uuid.UUID,
	source route.Place,
	destination route.Place,
	departureAt time.Time,
	seatsTotal int,
	farePerSeatCents int64,
	currency string,
	notes string,
) (*Trip, error) {
	if driverID == uuid.Nil {
		return nil, domain.NewValidationError("driver ID is required")
	}
	if err := source.Validate(); err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("source: %v", err))
	}
	if err := destination.Validate(); err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("destination: %v", err))
	}
	if seatsTotal < 1 || seatsTotal > MaxSeats {
		return nil, domain.NewValidationError(fmt.Sprintf("seats must be between 1 and %d", MaxSeats))
	}
	if departureAt.IsZero() {
		return nil, domain.NewValidationError("departure time is required")
	}
	if farePerSeatCents < 0 {
		return nil, domain.NewValidationError("fare cannot be negative")
	}

	tripNumber, err := generateTripNumber()
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Trip{
		id:               uuid.New(),
		tripNumber:       tripNumber,
		driverID:         driverID,
		status:           StatusOpen,
		source:           source,
		destination:      destination,
		routeInfo:        NewRouteInfo(source, destination),
		seatsTotal:       seatsTotal,
		riders:           []uuid.UUID{},
		farePerSeatCents: farePerSeatCents,
		currency:         currency,
		departureAt:      departureAt.UTC(),
		notes:            notes,
		version:          1,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// ReconstructTrip rebuilds a Trip from persistence data (no validation).
func ReconstructTrip(
	id uuid.UUID,
	tripNumber string,
	driverID uuid.UUID,
	status TripStatus,
	source route.Place,
	destination route.Place,
	routeInfo RouteInfo,
	seatsTotal int,
	riders []uuid.UUID,
	farePerSeatCents int64,
	currency string,
	departureAt time.Time,
	departedAt *time.Time,
	completedAt *time.Time,
	cancelledAt *time.Time,
	cancelNote string,
	notes string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Trip {
	if riders == nil {
		riders = []uuid.UUID{}
	}
	return &Trip{
		id:               id,
		tripNumber:       tripNumber,
		driverID:         driverID,
		status:           status,
		source:           source,
		destination:      destination,
		routeInfo:        routeInfo,
		seatsTotal:       seatsTotal,
		riders:           riders,
		farePerSeatCents: farePerSeatCents,
		currency:         currency,
		departureAt:      departureAt,
		departedAt:       departedAt,
		completedAt:      completedAt,
		cancelledAt:      cancelledAt,
		cancelNote:       cancelNote,
		notes:            notes,
		version:          version,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}
}

// --- Getters ---

// ID returns the trip's unique identifier.
func (t *Trip) ID() uuid.UUID { return t.id }

// TripNumber returns the human-readable trip number.
func (t *Trip) TripNumber() string { return t.tripNumber }

// DriverID returns the driver's user ID.
func (t *Trip) DriverID() uuid.UUID { return t.driverID }

// Status returns the current trip status.
func (t *Trip) Status() TripStatus { return t.status }

// Source returns where the trip starts.
func (t *Trip) Source() route.Place { return t.source }

// Destination returns where the trip ends.
func (t *Trip) Destination() route.Place { return t.destination }

// RouteInfo returns the straight-line route summary.
func (t *Trip) RouteInfo() RouteInfo { return t.routeInfo }

// SeatsTotal returns the number of rider seats offered.
func (t *Trip) SeatsTotal() int { return t.seatsTotal }

// SeatsAvailable returns the number of seats still free.
func (t *Trip) SeatsAvailable() int { return t.seatsTotal - len(t.riders) }

// Riders returns a copy of the rider IDs.
func (t *Trip) Riders() []uuid.UUID { return slices.Clone(t.riders) }

// FarePerSeatCents returns the per-seat fare in cents.
func (t *Trip) FarePerSeatCents() int64 { return t.farePerSeatCents }

// Currency returns the currency code.
func (t *Trip) Currency() string { return t.currency }

// DepartureAt returns the planned departure time.
func (t *Trip) DepartureAt() time.Time { return t.departureAt }

// DepartedAt returns the actual departure time.
func (t *Trip) DepartedAt() *time.Time { return t.departedAt }

// CompletedAt returns the arrival time.
func (t *Trip) CompletedAt() *time.Time { return t.completedAt }

// CancelledAt returns the time the trip was cancelled.
func (t *Trip) CancelledAt() *time.Time { return t.cancelledAt }

// CancelNote returns the cancellation reason.
func (t *Trip) CancelNote() string { return t.cancelNote }

// Notes returns any additional notes from the driver.
func (t *Trip) Notes() string { return t.notes }

// Version returns the entity version for optimistic locking.
func (t *Trip) Version() int64 { return t.version }

// CreatedAt returns the creation timestamp.
func (t *Trip) CreatedAt() time.Time { return t.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (t *Trip) UpdatedAt() time.Time { return t.updatedAt }

// Segment returns the trip's directed route for scoring.
func (t *Trip) Segment() route.Segment {
	return route.NewSegment(t.source.Point(), t.destination.Point())
}

// HasRider returns true if userID holds a seat.
func (t *Trip) HasRider(userID uuid.UUID) bool {
	return slices.Contains(t.riders, userID)
}

// IsParticipant returns true for the driver and every rider.
func (t *Trip) IsParticipant(userID uuid.UUID) bool {
	return t.driverID == userID || t.HasRider(userID)
}

// --- Behavior ---

// Join gives riderID a seat. The trip becomes full when the last seat is taken.
func (t *Trip) Join(riderID uuid.UUID) error {
	if riderID == uuid.Nil {
		return domain.NewValidationError("rider ID is required")
	}
	if !t.status.AcceptsRiders() {
		return domain.NewInvalidStateError(string(t.status), "joined")
	}
	if riderID == t.driverID {
		return domain.NewValidationError("driver cannot join their own trip")
	}
	if t.HasRider(riderID) {
		return domain.NewConflictError("rider already joined this trip")
	}
	if t.SeatsAvailable() == 0 {
		return domain.NewConflictError("no seats available")
	}

	t.riders = append(t.riders, riderID)
	if t.SeatsAvailable() == 0 {
		t.status = StatusFull
	}
	t.updatedAt = time.Now().UTC()
	return nil
}

// Leave releases riderID's seat and reopens a full trip.
func (t *Trip) Leave(riderID uuid.UUID) error {
	if !t.status.AcceptsRiders() {
		return domain.NewInvalidStateError(string(t.status), "left")
	}
	idx := slices.Index(t.riders, riderID)
	if idx < 0 {
		return domain.NewValidationError("rider is not on this trip")
	}

	t.riders = slices.Delete(t.riders, idx, idx+1)
	if t.status == StatusFull {
		t.status = StatusOpen
	}
	t.updatedAt = time.Now().UTC()
	return nil
}

// Depart transitions an open or full trip to departed.
func (t *Trip) Depart() error {
	if !t.status.CanTransitionTo(StatusDeparted) {
		return domain.NewInvalidStateError(string(t.status), string(StatusDeparted))
	}
	now := time.Now().UTC()
	t.status = StatusDeparted
	t.departedAt = &now
	t.updatedAt = now
	return nil
}

// Complete transitions a departed trip to completed.
func (t *Trip) Complete() error {
	if !t.status.CanTransitionTo(StatusCompleted) {
		return domain.NewInvalidStateError(string(t.status), string(StatusCompleted))
	}
	now := time.Now().UTC()
	t.status = StatusCompleted
	t.completedAt = &now
	t.updatedAt = now
	return nil
}

// Cancel transitions the trip to cancelled if it has not departed yet.
func (t *Trip) Cancel(reason string) error {
	if !t.status.CanTransitionTo(StatusCancelled) {
		return domain.NewInvalidStateError(string(t.status), string(StatusCancelled))
	}
	now := time.Now().UTC()
	t.status = StatusCancelled
	t.cancelNote = reason
	t.cancelledAt = &now
	t.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (t *Trip) IncrementVersion() {
	t.version++
	t.updatedAt = time.Now().UTC()
}
