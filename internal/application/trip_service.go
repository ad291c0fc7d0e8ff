package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ridepool/service-trip/internal/cache"
	"github.com/ridepool/service-trip/internal/common/domain"
	"github.com/ridepool/service-trip/internal/domain/route"
	tripDomain "github.com/ridepool/service-trip/internal/domain/trip"
	"github.com/ridepool/service-trip/internal/proto/events"
)

// CreateTripRequest holds the data needed to offer a new trip.
type CreateTripRequest struct {
	Source           route.Place `json:"source" binding:"required"`
	Destination      route.Place `json:"destination" binding:"required"`
	DepartureAt      time.Time   `json:"departure_at" binding:"required"`
	SeatsTotal       int         `json:"seats_total" binding:"required,min=1"`
	FarePerSeatCents *int64      `json:"fare_per_seat_cents"`
	Notes            string      `json:"notes"`
}

// TripDTO is the response representation of a trip.
type TripDTO struct {
	ID               uuid.UUID            `json:"id"`
	TripNumber       string               `json:"trip_number"`
	DriverID         uuid.UUID            `json:"driver_id"`
	Status           string               `json:"status"`
	Source           route.Place          `json:"source"`
	Destination      route.Place          `json:"destination"`
	RouteInfo        tripDomain.RouteInfo `json:"route_info"`
	SeatsTotal       int                  `json:"seats_total"`
	SeatsAvailable   int                  `json:"seats_available"`
	Riders           []uuid.UUID          `json:"riders"`
	FarePerSeatCents int64                `json:"fare_per_seat_cents"`
	Currency         string               `json:"currency"`
	DepartureAt      time.Time            `json:"departure_at"`
	DepartedAt       *time.Time           `json:"departed_at,omitempty"`
	CompletedAt      *time.Time           `json:"completed_at,omitempty"`
	CancelledAt      *time.Time           `json:"cancelled_at,omitempty"`
	CancelNote       string               `json:"cancel_note,omitempty"`
	Notes            string               `json:"notes,omitempty"`
	Version          int64                `json:"version"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
}

// TripService is the application service orchestrating trip use cases.
type TripService struct {
	repo      tripDomain.TripRepository
	fares     tripDomain.FareStrategy
	nearby    *cache.NearbyGroupsCache
	publisher EventPublisher
	logger    *zap.Logger
}

// NewTripService creates a new TripService. nearby may be nil.
func NewTripService(
	repo tripDomain.TripRepository,
	fares tripDomain.FareStrategy,
	nearby *cache.NearbyGroupsCache,
	publisher EventPublisher,
	logger *zap.Logger,
) *TripService {
	return &TripService{
		repo:      repo,
		fares:     fares,
		nearby:    nearby,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateTrip offers a new trip on behalf of the driver.
func (s *TripService) CreateTrip(ctx context.Context, driverID uuid.UUID, req CreateTripRequest) (*TripDTO, error) {
	if err := validatePlaces(req.Source, req.Destination); err != nil {
		return nil, err
	}
	if !req.DepartureAt.After(time.Now()) {
		return nil, domain.NewValidationError("departure time must be in the future")
	}

	// Fare defaults to the strategy's split of the straight-line distance.
	var fare int64
	if req.FarePerSeatCents != nil {
		fare = *req.FarePerSeatCents
	} else {
		distanceKm := route.DistanceMeters(req.Source.Point(), req.Destination.Point()) / 1000
		f, err := s.fares.Calculate(tripDomain.FareParams{DistanceKm: distanceKm, Seats: req.SeatsTotal})
		if err != nil {
			return nil, domain.NewValidationError(fmt.Sprintf("fare error: %v", err))
		}
		fare = f
	}

	t, err := tripDomain.NewTrip(
		driverID,
		req.Source,
		req.Destination,
		req.DepartureAt,
		req.SeatsTotal,
		fare,
		domain.CurrencyMYR,
		req.Notes,
	)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, t); err != nil {
		return nil, fmt.Errorf("failed to save trip: %w", err)
	}

	evt := events.TripCreatedEvent{
		TripID:           t.ID(),
		TripNumber:       t.TripNumber(),
		DriverID:         t.DriverID(),
		SourceLat:        t.Source().Latitude,
		SourceLng:        t.Source().Longitude,
		DestinationLat:   t.Destination().Latitude,
		DestinationLng:   t.Destination().Longitude,
		SeatsTotal:       t.SeatsTotal(),
		FarePerSeatCents: t.FarePerSeatCents(),
		Currency:         t.Currency(),
		DepartureAt:      t.DepartureAt(),
		OccurredAt:       time.Now().UTC(),
	}
	s.publish(ctx, events.TripCreated, t.ID(), evt)

	s.logger.Info("trip created",
		zap.String("trip_id", t.ID().String()),
		zap.String("trip_number", t.TripNumber()),
		zap.Float64("distance_km", t.RouteInfo().DistanceKm),
	)

	result := toTripDTO(t)
	return &result, nil
}

// GetTrip retrieves a single trip by ID.
func (s *TripService) GetTrip(ctx context.Context, tripID uuid.UUID) (*TripDTO, error) {
	t, err := s.repo.FindByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	result := toTripDTO(t)
	return &result, nil
}

// GetTripByNumber retrieves a trip by its TR- number.
func (s *TripService) GetTripByNumber(ctx context.Context, number string) (*TripDTO, error) {
	t, err := s.repo.FindByNumber(ctx, strings.ToUpper(number))
	if err != nil {
		return nil, err
	}
	result := toTripDTO(t)
	return &result, nil
}

// GetDriverTrips retrieves paginated trips offered by a driver.
func (s *TripService) GetDriverTrips(ctx context.Context, driverID uuid.UUID, page, limit int) (*domain.PaginatedResult[TripDTO], error) {
	trips, total, err := s.repo.FindByDriverID(ctx, driverID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toTripDTOs(trips), total, page, limit)
	return &result, nil
}

// GetRiderTrips retrieves paginated trips a rider holds a seat on.
func (s *TripService) GetRiderTrips(ctx context.Context, riderID uuid.UUID, page, limit int) (*domain.PaginatedResult[TripDTO], error) {
	trips, total, err := s.repo.FindByRiderID(ctx, riderID, page, limit)
	if err != nil {
		return nil, err
	}
	result := domain.NewPaginatedResult(toTripDTOs(trips), total, page, limit)
	return &result, nil
}

// JoinTrip books a seat for the rider.
func (s *TripService) JoinTrip(ctx context.Context, tripID, riderID uuid.UUID) (*TripDTO, error) {
	t, err := s.repo.FindByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if err := t.Join(riderID); err != nil {
		return nil, err
	}

	t.IncrementVersion()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TripJoined, t.ID(), riderEvent(t, riderID))

	result := toTripDTO(t)
	return &result, nil
}

// LeaveTrip releases the rider's seat.
func (s *TripService) LeaveTrip(ctx context.Context, tripID, riderID uuid.UUID) (*TripDTO, error) {
	t, err := s.repo.FindByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if err := t.Leave(riderID); err != nil {
		return nil, err
	}

	t.IncrementVersion()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	s.publish(ctx, events.TripLeft, t.ID(), riderEvent(t, riderID))

	result := toTripDTO(t)
	return &result, nil
}

// DepartTrip marks the trip as under way.
func (s *TripService) DepartTrip(ctx context.Context, tripID, driverID uuid.UUID) (*TripDTO, error) {
	return s.transition(ctx, tripID, driverID, events.TripDeparted, "", func(t *tripDomain.Trip) error {
		return t.Depart()
	})
}

// CompleteTrip marks the trip as finished.
func (s *TripService) CompleteTrip(ctx context.Context, tripID, driverID uuid.UUID) (*TripDTO, error) {
	return s.transition(ctx, tripID, driverID, events.TripCompleted, "", func(t *tripDomain.Trip) error {
		return t.Complete()
	})
}

// CancelTrip cancels a trip that has not departed yet.
// Nearby-groups lookups cached locally are dropped at once; other replicas
// drop theirs on the trip.cancelled event or when the entries expire.
func (s *TripService) CancelTrip(ctx context.Context, tripID, driverID uuid.UUID, reason string) (*TripDTO, error) {
	result, err := s.transition(ctx, tripID, driverID, events.TripCancelled, reason, func(t *tripDomain.Trip) error {
		return t.Cancel(reason)
	})
	if err != nil {
		return nil, err
	}
	if s.nearby != nil {
		s.nearby.InvalidateTrip(tripID)
	}
	return result, nil
}

// transition applies a driver-only state change, persists it and publishes eventType.
func (s *TripService) transition(
	ctx context.Context,
	tripID, driverID uuid.UUID,
	eventType, reason string,
	apply func(t *tripDomain.Trip) error,
) (*TripDTO, error) {
	t, err := s.repo.FindByID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	if t.DriverID() != driverID {
		return nil, domain.NewForbiddenError("trip does not belong to this driver")
	}

	if err := apply(t); err != nil {
		return nil, err
	}

	t.IncrementVersion()
	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	evt := events.TripStatusEvent{
		TripID:     t.ID(),
		TripNumber: t.TripNumber(),
		DriverID:   t.DriverID(),
		Riders:     t.Riders(),
		Status:     string(t.Status()),
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	}
	s.publish(ctx, eventType, t.ID(), evt)

	result := toTripDTO(t)
	return &result, nil
}

// --- Admin methods ---

// TripStatsDTO holds trip statistics for the admin dashboard.
type TripStatsDTO struct {
	TotalTrips int64            `json:"total_trips"`
	ByStatus   map[string]int64 `json:"by_status"`
}

// ListAllTrips returns a paginated list of all trips (admin).
func (s *TripService) ListAllTrips(ctx context.Context, page, limit int) ([]TripDTO, int64, error) {
	trips, total, err := s.repo.ListAll(ctx, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list trips: %w", err)
	}
	return toTripDTOs(trips), total, nil
}

// GetTripStats returns aggregate trip statistics (admin).
func (s *TripService) GetTripStats(ctx context.Context) (*TripStatsDTO, error) {
	counts, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get trip stats: %w", err)
	}

	var total int64
	for _, c := range counts {
		total += c
	}

	return &TripStatsDTO{
		TotalTrips: total,
		ByStatus:   counts,
	}, nil
}

// --- Helpers ---

func (s *TripService) publish(ctx context.Context, eventType string, tripID uuid.UUID, data interface{}) {
	publishEvent(ctx, s.publisher, s.logger, events.TopicTripEvents, eventType, tripID.String(), data)
}

func riderEvent(t *tripDomain.Trip, riderID uuid.UUID) events.TripRiderEvent {
	return events.TripRiderEvent{
		TripID:         t.ID(),
		TripNumber:     t.TripNumber(),
		DriverID:       t.DriverID(),
		RiderID:        riderID,
		SeatsAvailable: t.SeatsAvailable(),
		OccurredAt:     time.Now().UTC(),
	}
}

// validatePlaces rejects coordinates the scorer cannot work with.
func validatePlaces(places ...route.Place) error {
	for _, p := range places {
		if err := p.Validate(); err != nil {
			if errors.Is(err, route.ErrInvalidGeometry) {
				return domain.NewValidationError(err.Error())
			}
			return err
		}
	}
	return nil
}

func toTripDTO(t *tripDomain.Trip) TripDTO {
	return TripDTO{
		ID:               t.ID(),
		TripNumber:       t.TripNumber(),
		DriverID:         t.DriverID(),
		Status:           string(t.Status()),
		Source:           t.Source(),
		Destination:      t.Destination(),
		RouteInfo:        t.RouteInfo(),
		SeatsTotal:       t.SeatsTotal(),
		SeatsAvailable:   t.SeatsAvailable(),
		Riders:           t.Riders(),
		FarePerSeatCents: t.FarePerSeatCents(),
		Currency:         t.Currency(),
		DepartureAt:      t.DepartureAt(),
		DepartedAt:       t.DepartedAt(),
		CompletedAt:      t.CompletedAt(),
		CancelledAt:      t.CancelledAt(),
		CancelNote:       t.CancelNote(),
		Notes:            t.Notes(),
		Version:          t.Version(),
		CreatedAt:        t.CreatedAt(),
		UpdatedAt:        t.UpdatedAt(),
	}
}

func toTripDTOs(trips []*tripDomain.Trip) []TripDTO {
	dtos := make([]TripDTO, len(trips))
	for i, t := range trips {
		dtos[i] = toTripDTO(t)
	}
	return dtos
}
