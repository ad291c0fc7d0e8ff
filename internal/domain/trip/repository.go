package trip

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// TripRepository defines the persistence contract for trip aggregates.
type TripRepository interface {
	// FindByID retrieves a trip by its unique identifier.
	FindByID(ctx context.Context, id uuid.UUID) (*Trip, error)

	// FindByIDs retrieves the trips with the given identifiers, skipping unknown ones.
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Trip, error)

	// FindByNumber retrieves a trip by its human-readable trip number.
	FindByNumber(ctx context.Context, number string) (*Trip, error)

	// FindByDriverID retrieves trips offered by a driver with pagination.
	FindByDriverID(ctx context.Context, driverID uuid.UUID, page, limit int) ([]*Trip, int64, error)

	// FindByRiderID retrieves trips a rider holds a seat on with pagination.
	FindByRiderID(ctx context.Context, riderID uuid.UUID, page, limit int) ([]*Trip, int64, error)

	// FindJoinable retrieves a window of open trips departing after the cutoff,
	// oldest creation first. Callers page with offset until a short window comes back.
	FindJoinable(ctx context.Context, departAfter time.Time, offset, limit int) ([]*Trip, error)

	// ListAll retrieves all trips with pagination (admin).
	ListAll(ctx context.Context, page, limit int) ([]*Trip, int64, error)

	// CountByStatus returns trip counts grouped by status (admin).
	CountByStatus(ctx context.Context) (map[string]int64, error)

	// Save persists a new trip.
	Save(ctx context.Context, trip *Trip) error

	// Update persists changes to an existing trip with optimistic locking.
	Update(ctx context.Context, trip *Trip) error
}
