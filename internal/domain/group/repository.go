package group

import (
	"context"

	"github.com/google/uuid"
)

// GroupRepository defines persistence operations for groups.
type GroupRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Group, error)
	FindByMemberID(ctx context.Context, userID uuid.UUID) ([]*Group, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*Group, error)
	ListActive(ctx context.Context) ([]*Group, error)
	Save(ctx context.Context, group *Group) error
	Update(ctx context.Context, group *Group) error
}

// AffiliationRepository records which groups a trip has been matched to.
type AffiliationRepository interface {
	// Affiliate links the trip to each group. Existing links are kept as is.
	Affiliate(ctx context.Context, tripID uuid.UUID, groupIDs []uuid.UUID) error
	FindGroupIDsByTrip(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error)
	FindTripIDsByGroup(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error)
}
