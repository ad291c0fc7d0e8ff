package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridepool/service-trip/internal/common/domain"
	"github.com/ridepool/service-trip/internal/domain/route"
	tripDomain "github.com/ridepool/service-trip/internal/domain/trip"
)

// TripModel is the GORM model for the trips table.
type TripModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TripNumber       string          `gorm:"uniqueIndex;not null;size:20"`
	DriverID         uuid.UUID       `gorm:"type:uuid;index;not null"`
	Status           string          `gorm:"not null;size:20;index"`
	Source           json.RawMessage `gorm:"type:jsonb;not null"`
	Destination      json.RawMessage `gorm:"type:jsonb;not null"`
	RouteInfo        json.RawMessage `gorm:"type:jsonb;not null"`
	SeatsTotal       int             `gorm:"not null"`
	FarePerSeatCents int64           `gorm:"not null"`
	Currency         string          `gorm:"not null;size:3;default:'MYR'"`
	DepartureAt      time.Time       `gorm:"not null;index"`
	DepartedAt       *time.Time      `gorm:""`
	CompletedAt      *time.Time      `gorm:""`
	CancelledAt      *time.Time      `gorm:""`
	CancelNote       string          `gorm:"size:500"`
	Notes            string          `gorm:"size:1000"`
	Version          int64           `gorm:"not null;default:1"`
	CreatedAt        time.Time       `gorm:"not null"`
	UpdatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (TripModel) TableName() string {
	return "trips"
}

// TripRiderModel is one booked seat on a trip.
type TripRiderModel struct {
	TripID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	RiderID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Position int       `gorm:"not null"`
}

// TableName returns the table name for the GORM model.
func (TripRiderModel) TableName() string {
	return "trip_riders"
}

// GormTripRepository is the GORM-based implementation of TripRepository.
type GormTripRepository struct {
	db *gorm.DB
}

// NewGormTripRepository creates a new GormTripRepository.
func NewGormTripRepository(db *gorm.DB) *GormTripRepository {
	return &GormTripRepository{db: db}
}

// FindByID retrieves a trip by its unique identifier.
func (r *GormTripRepository) FindByID(ctx context.Context, id uuid.UUID) (*tripDomain.Trip, error) {
	var model TripModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Trip", id.String())
		}
		return nil, fmt.Errorf("failed to find trip by ID: %w", err)
	}
	trips, err := r.hydrate(ctx, []TripModel{model})
	if err != nil {
		return nil, err
	}
	return trips[0], nil
}

// FindByIDs retrieves trips by identifier. Unknown identifiers are skipped.
func (r *GormTripRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*tripDomain.Trip, error) {
	if len(ids) == 0 {
		return []*tripDomain.Trip{}, nil
	}
	var models []TripModel
	if err := r.db.WithContext(ctx).
		Where("id IN ?", ids).
		Order("departure_at ASC").
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find trips by IDs: %w", err)
	}
	return r.hydrate(ctx, models)
}

// FindByNumber retrieves a trip by its trip number.
func (r *GormTripRepository) FindByNumber(ctx context.Context, number string) (*tripDomain.Trip, error) {
	var model TripModel
	if err := r.db.WithContext(ctx).Where("trip_number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Trip", number)
		}
		return nil, fmt.Errorf("failed to find trip by number: %w", err)
	}
	trips, err := r.hydrate(ctx, []TripModel{model})
	if err != nil {
		return nil, err
	}
	return trips[0], nil
}

// FindByDriverID retrieves trips offered by a driver with pagination.
func (r *GormTripRepository) FindByDriverID(ctx context.Context, driverID uuid.UUID, page, limit int) ([]*tripDomain.Trip, int64, error) {
	return r.paged(ctx, r.db.WithContext(ctx).Model(&TripModel{}).Where("driver_id = ?", driverID), page, limit)
}

// FindByRiderID retrieves trips a rider holds a seat on with pagination.
func (r *GormTripRepository) FindByRiderID(ctx context.Context, riderID uuid.UUID, page, limit int) ([]*tripDomain.Trip, int64, error) {
	sub := r.db.Model(&TripRiderModel{}).Select("trip_id").Where("rider_id = ?", riderID)
	return r.paged(ctx, r.db.WithContext(ctx).Model(&TripModel{}).Where("id IN (?)", sub), page, limit)
}

// FindJoinable retrieves a window of open trips departing after the cutoff.
// Trips are ordered by creation then ID so that windows do not overlap and
// ties in ranking stay stable between calls.
func (r *GormTripRepository) FindJoinable(ctx context.Context, departAfter time.Time, offset, limit int) ([]*tripDomain.Trip, error) {
	var models []TripModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND departure_at > ?", string(tripDomain.StatusOpen), departAfter).
		Order("created_at ASC").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find joinable trips: %w", err)
	}
	return r.hydrate(ctx, models)
}

// ListAll retrieves all trips with pagination (admin).
func (r *GormTripRepository) ListAll(ctx context.Context, page, limit int) ([]*tripDomain.Trip, int64, error) {
	return r.paged(ctx, r.db.WithContext(ctx).Model(&TripModel{}), page, limit)
}

// CountByStatus returns trip counts grouped by status (admin).
func (r *GormTripRepository) CountByStatus(ctx context.Context) (map[string]int64, error) {
	type statusCount struct {
		Status string
		Count  int64
	}
	var results []statusCount
	if err := r.db.WithContext(ctx).Model(&TripModel{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to count by status: %w", err)
	}

	counts := make(map[string]int64)
	for _, sc := range results {
		counts[sc.Status] = sc.Count
	}
	return counts, nil
}

// Save persists a new trip together with its riders.
func (r *GormTripRepository) Save(ctx context.Context, t *tripDomain.Trip) error {
	model, err := toTripModel(t)
	if err != nil {
		return fmt.Errorf("failed to convert trip to model: %w", err)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return fmt.Errorf("failed to save trip: %w", err)
		}
		return replaceRiders(tx, t)
	})
}

// Update persists changes to an existing trip with optimistic locking.
func (r *GormTripRepository) Update(ctx context.Context, t *tripDomain.Trip) error {
	model, err := toTripModel(t)
	if err != nil {
		return fmt.Errorf("failed to convert trip to model: %w", err)
	}

	// IncrementVersion was called before Update, so the stored row holds the previous version.
	expectedVersion := t.Version() - 1
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&TripModel{}).
			Where("id = ? AND version = ?", model.ID, expectedVersion).
			Updates(map[string]interface{}{
				"status":              model.Status,
				"source":              model.Source,
				"destination":         model.Destination,
				"route_info":          model.RouteInfo,
				"seats_total":         model.SeatsTotal,
				"fare_per_seat_cents": model.FarePerSeatCents,
				"currency":            model.Currency,
				"departure_at":        model.DepartureAt,
				"departed_at":         model.DepartedAt,
				"completed_at":        model.CompletedAt,
				"cancelled_at":        model.CancelledAt,
				"cancel_note":         model.CancelNote,
				"notes":               model.Notes,
				"version":             model.Version,
				"updated_at":          model.UpdatedAt,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update trip: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return domain.NewConflictError("trip was modified by another transaction")
		}
		return replaceRiders(tx, t)
	})
}

func (r *GormTripRepository) paged(ctx context.Context, q *gorm.DB, page, limit int) ([]*tripDomain.Trip, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count trips: %w", err)
	}

	var models []TripModel
	offset := (page - 1) * limit
	if err := q.Session(&gorm.Session{}).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list trips: %w", err)
	}

	trips, err := r.hydrate(ctx, models)
	if err != nil {
		return nil, 0, err
	}
	return trips, total, nil
}

// hydrate loads the riders for the given rows and converts them to aggregates.
func (r *GormTripRepository) hydrate(ctx context.Context, models []TripModel) ([]*tripDomain.Trip, error) {
	trips := make([]*tripDomain.Trip, 0, len(models))
	if len(models) == 0 {
		return trips, nil
	}

	ids := make([]uuid.UUID, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	var riderRows []TripRiderModel
	if err := r.db.WithContext(ctx).
		Where("trip_id IN ?", ids).
		Order("position ASC").
		Find(&riderRows).Error; err != nil {
		return nil, fmt.Errorf("failed to load trip riders: %w", err)
	}
	riders := make(map[uuid.UUID][]uuid.UUID, len(models))
	for _, row := range riderRows {
		riders[row.TripID] = append(riders[row.TripID], row.RiderID)
	}

	for i := range models {
		t, err := toDomainTrip(&models[i], riders[models[i].ID])
		if err != nil {
			return nil, err
		}
		trips = append(trips, t)
	}
	return trips, nil
}

func replaceRiders(tx *gorm.DB, t *tripDomain.Trip) error {
	if err := tx.Where("trip_id = ?", t.ID()).Delete(&TripRiderModel{}).Error; err != nil {
		return fmt.Errorf("failed to clear trip riders: %w", err)
	}
	riders := t.Riders()
	if len(riders) == 0 {
		return nil
	}
	rows := make([]TripRiderModel, len(riders))
	for i, id := range riders {
		rows[i] = TripRiderModel{TripID: t.ID(), RiderID: id, Position: i}
	}
	if err := tx.Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to save trip riders: %w", err)
	}
	return nil
}

// --- Conversion Helpers ---

func toTripModel(t *tripDomain.Trip) (*TripModel, error) {
	sourceJSON, err := json.Marshal(t.Source())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal source: %w", err)
	}
	destinationJSON, err := json.Marshal(t.Destination())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal destination: %w", err)
	}
	routeInfoJSON, err := json.Marshal(t.RouteInfo())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal route info: %w", err)
	}

	return &TripModel{
		ID:               t.ID(),
		TripNumber:       t.TripNumber(),
		DriverID:         t.DriverID(),
		Status:           string(t.Status()),
		Source:           sourceJSON,
		Destination:      destinationJSON,
		RouteInfo:        routeInfoJSON,
		SeatsTotal:       t.SeatsTotal(),
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
	}, nil
}

func toDomainTrip(m *TripModel, riders []uuid.UUID) (*tripDomain.Trip, error) {
	var source, destination route.Place
	if err := json.Unmarshal(m.Source, &source); err != nil {
		return nil, fmt.Errorf("failed to unmarshal source: %w", err)
	}
	if err := json.Unmarshal(m.Destination, &destination); err != nil {
		return nil, fmt.Errorf("failed to unmarshal destination: %w", err)
	}

	var routeInfo tripDomain.RouteInfo
	if len(m.RouteInfo) > 0 {
		if err := json.Unmarshal(m.RouteInfo, &routeInfo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal route info: %w", err)
		}
	}

	status, err := tripDomain.ParseTripStatus(m.Status)
	if err != nil {
		return nil, err
	}

	return tripDomain.ReconstructTrip(
		m.ID,
		m.TripNumber,
		m.DriverID,
		status,
		source,
		destination,
		routeInfo,
		m.SeatsTotal,
		riders,
		m.FarePerSeatCents,
		m.Currency,
		m.DepartureAt,
		m.DepartedAt,
		m.CompletedAt,
		m.CancelledAt,
		m.CancelNote,
		m.Notes,
		m.Version,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
