package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// TripGroupModel is the GORM model for the trip_groups table.
type TripGroupModel struct {
	TripID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	GroupID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName sets the table name.
func (TripGroupModel) TableName() string { return "trip_groups" }

// GormAffiliationRepository implements AffiliationRepository using GORM.
type GormAffiliationRepository struct {
	db *gorm.DB
}

// NewGormAffiliationRepository creates a new GormAffiliationRepository.
func NewGormAffiliationRepository(db *gorm.DB) *GormAffiliationRepository {
	return &GormAffiliationRepository{db: db}
}

// Affiliate inserts the trip/group links, ignoring ones that already exist.
func (r *GormAffiliationRepository) Affiliate(ctx context.Context, tripID uuid.UUID, groupIDs []uuid.UUID) error {
	if len(groupIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([]TripGroupModel, len(groupIDs))
	for i, gid := range groupIDs {
		rows[i] = TripGroupModel{TripID: tripID, GroupID: gid, CreatedAt: now}
	}
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to affiliate trip: %w", err)
	}
	return nil
}

// FindGroupIDsByTrip returns the groups a trip is affiliated with.
func (r *GormAffiliationRepository) FindGroupIDsByTrip(ctx context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&TripGroupModel{}).
		Where("trip_id = ?", tripID).
		Order("created_at ASC").
		Pluck("group_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to find trip groups: %w", err)
	}
	return ids, nil
}

// FindTripIDsByGroup returns the trips affiliated with a group.
func (r *GormAffiliationRepository) FindTripIDsByGroup(ctx context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&TripGroupModel{}).
		Where("group_id = ?", groupID).
		Order("created_at ASC").
		Pluck("trip_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to find group trips: %w", err)
	}
	return ids, nil
}
