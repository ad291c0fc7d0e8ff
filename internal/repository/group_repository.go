package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ridepool/service-trip/internal/common/domain"
	groupDomain "github.com/ridepool/service-trip/internal/domain/group"
	"github.com/ridepool/service-trip/internal/domain/route"
)

// GroupModel is the GORM model for the groups table.
type GroupModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OwnerID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Name        string    `gorm:"type:varchar(100);not null"`
	Description string    `gorm:"type:text"`
	HomeLabel   string    `gorm:"type:varchar(200)"`
	HomeLat     float64   `gorm:"type:double precision;not null"`
	HomeLng     float64   `gorm:"type:double precision;not null"`
	Status      string    `gorm:"type:varchar(20);not null;default:'active';index"`
	Version     int64     `gorm:"not null;default:1"`
	CreatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
	UpdatedAt   time.Time `gorm:"type:timestamptz;not null;default:now()"`
}

func (GroupModel) TableName() string { return "groups" }

// GroupMemberModel links a user to a group.
type GroupMemberModel struct {
	GroupID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID   uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	Position int       `gorm:"not null"`
}

func (GroupMemberModel) TableName() string { return "group_members" }

// GormGroupRepository implements GroupRepository using GORM.
type GormGroupRepository struct {
	db *gorm.DB
}

func NewGormGroupRepository(db *gorm.DB) *GormGroupRepository {
	return &GormGroupRepository{db: db}
}

func (r *GormGroupRepository) FindByID(ctx context.Context, id uuid.UUID) (*groupDomain.Group, error) {
	var model GroupModel
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("Group", id.String())
		}
		return nil, err
	}
	groups, err := r.hydrate(ctx, []GroupModel{model})
	if err != nil {
		return nil, err
	}
	return groups[0], nil
}

func (r *GormGroupRepository) FindByMemberID(ctx context.Context, userID uuid.UUID) ([]*groupDomain.Group, error) {
	sub := r.db.Model(&GroupMemberModel{}).Select("group_id").Where("user_id = ?", userID)
	var models []GroupModel
	if err := r.db.WithContext(ctx).
		Where("id IN (?) AND status = ?", sub, string(groupDomain.GroupStatusActive)).
		Order("created_at DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return r.hydrate(ctx, models)
}

func (r *GormGroupRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*groupDomain.Group, error) {
	if len(ids) == 0 {
		return []*groupDomain.Group{}, nil
	}
	var models []GroupModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}
	return r.hydrate(ctx, models)
}

func (r *GormGroupRepository) ListActive(ctx context.Context) ([]*groupDomain.Group, error) {
	var models []GroupModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(groupDomain.GroupStatusActive)).
		Order("created_at ASC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	return r.hydrate(ctx, models)
}

func (r *GormGroupRepository) Save(ctx context.Context, g *groupDomain.Group) error {
	model := toGroupModel(g)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(model).Error; err != nil {
			return err
		}
		return replaceMembers(tx, g)
	})
}

func (r *GormGroupRepository) Update(ctx context.Context, g *groupDomain.Group) error {
	model := toGroupModel(g)
	previousVersion := g.Version() - 1

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&GroupModel{}).
			Where("id = ? AND version = ?", model.ID, previousVersion).
			Updates(model)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return domain.NewConflictError("group was modified by another transaction")
		}
		return replaceMembers(tx, g)
	})
}

func (r *GormGroupRepository) hydrate(ctx context.Context, models []GroupModel) ([]*groupDomain.Group, error) {
	groups := make([]*groupDomain.Group, 0, len(models))
	if len(models) == 0 {
		return groups, nil
	}

	ids := make([]uuid.UUID, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}
	var rows []GroupMemberModel
	if err := r.db.WithContext(ctx).Where("group_id IN ?", ids).Order("position ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}
	members := make(map[uuid.UUID][]uuid.UUID, len(models))
	for _, row := range rows {
		members[row.GroupID] = append(members[row.GroupID], row.UserID)
	}

	for i := range models {
		groups = append(groups, toGroupDomain(&models[i], members[models[i].ID]))
	}
	return groups, nil
}

func replaceMembers(tx *gorm.DB, g *groupDomain.Group) error {
	if err := tx.Where("group_id = ?", g.ID()).Delete(&GroupMemberModel{}).Error; err != nil {
		return err
	}
	members := g.Members()
	if len(members) == 0 {
		return nil
	}
	rows := make([]GroupMemberModel, len(members))
	for i, id := range members {
		rows[i] = GroupMemberModel{GroupID: g.ID(), UserID: id, Position: i}
	}
	return tx.Create(&rows).Error
}

// --- Conversions ---

func toGroupModel(g *groupDomain.Group) *GroupModel {
	home := g.Home()
	return &GroupModel{
		ID:          g.ID(),
		OwnerID:     g.OwnerID(),
		Name:        g.Name(),
		Description: g.Description(),
		HomeLabel:   home.Label,
		HomeLat:     home.Latitude,
		HomeLng:     home.Longitude,
		Status:      string(g.Status()),
		Version:     g.Version(),
		CreatedAt:   g.CreatedAt(),
		UpdatedAt:   g.UpdatedAt(),
	}
}

func toGroupDomain(m *GroupModel, members []uuid.UUID) *groupDomain.Group {
	return groupDomain.Reconstruct(
		m.ID, m.OwnerID,
		m.Name, m.Description,
		route.Place{Label: m.HomeLabel, Latitude: m.HomeLat, Longitude: m.HomeLng},
		members,
		groupDomain.GroupStatus(m.Status),
		m.Version,
		m.CreatedAt, m.UpdatedAt,
	)
}
