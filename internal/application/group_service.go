package application

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ridepool/service-trip/internal/cache"
	"github.com/ridepool/service-trip/internal/common/domain"
	groupDomain "github.com/ridepool/service-trip/internal/domain/group"
	"github.com/ridepool/service-trip/internal/domain/route"
	"github.com/ridepool/service-trip/internal/proto/events"
)

// CreateGroupRequest is the request DTO for creating a group.
type CreateGroupRequest struct {
	Name        string      `json:"name" binding:"required"`
	Description string      `json:"description"`
	Home        route.Place `json:"home" binding:"required"`
}

// UpdateGroupRequest is the request DTO for updating a group. Empty fields are left unchanged.
type UpdateGroupRequest struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Home        *route.Place `json:"home"`
}

// GroupDTO is the API response representation of a group.
type GroupDTO struct {
	ID          uuid.UUID   `json:"id"`
	OwnerID     uuid.UUID   `json:"owner_id"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Home        route.Place `json:"home"`
	Members     []uuid.UUID `json:"members"`
	Status      string      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// GroupService implements use cases for carpool group management.
type GroupService struct {
	repo      groupDomain.GroupRepository
	nearby    *cache.NearbyGroupsCache
	publisher EventPublisher
	logger    *zap.Logger
}

// NewGroupService creates a new GroupService.
func NewGroupService(
	repo groupDomain.GroupRepository,
	nearby *cache.NearbyGroupsCache,
	publisher EventPublisher,
	logger *zap.Logger,
) *GroupService {
	return &GroupService{repo: repo, nearby: nearby, publisher: publisher, logger: logger}
}

// CreateGroup creates a new group owned by ownerID.
func (s *GroupService) CreateGroup(ctx context.Context, ownerID uuid.UUID, req CreateGroupRequest) (*GroupDTO, error) {
	g, err := groupDomain.NewGroup(ownerID, req.Name, req.Description, req.Home)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, g); err != nil {
		s.logger.Error("failed to create group", zap.Error(err))
		return nil, fmt.Errorf("failed to create group: %w", err)
	}
	s.invalidateNearby()

	s.logger.Info("group created",
		zap.String("group_id", g.ID().String()),
		zap.String("owner_id", ownerID.String()),
	)
	result := toGroupDTO(g)
	return &result, nil
}

// GetMyGroups returns the active groups the user belongs to.
func (s *GroupService) GetMyGroups(ctx context.Context, userID uuid.UUID) ([]GroupDTO, error) {
	groups, err := s.repo.FindByMemberID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get groups: %w", err)
	}
	return toGroupDTOs(groups), nil
}

// GetGroup returns a single group by ID.
func (s *GroupService) GetGroup(ctx context.Context, groupID uuid.UUID) (*GroupDTO, error) {
	g, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	result := toGroupDTO(g)
	return &result, nil
}

// UpdateGroup applies an owner's changes. Moving the home point publishes group.relocated.
func (s *GroupService) UpdateGroup(ctx context.Context, ownerID, groupID uuid.UUID, req UpdateGroupRequest) (*GroupDTO, error) {
	g, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !g.IsOwnedBy(ownerID) {
		return nil, domain.NewForbiddenError("you do not own this group")
	}

	moved, err := g.Update(req.Name, req.Description, req.Home)
	if err != nil {
		return nil, err
	}

	g.IncrementVersion()
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, err
	}

	if moved {
		s.invalidateNearby()
		evt := events.GroupRelocatedEvent{
			GroupID:    g.ID(),
			OwnerID:    g.OwnerID(),
			HomeLat:    g.Home().Latitude,
			HomeLng:    g.Home().Longitude,
			OccurredAt: time.Now().UTC(),
		}
		publishEvent(ctx, s.publisher, s.logger, events.TopicGroupEvents, events.GroupRelocated, g.ID().String(), evt)
		s.logger.Info("group relocated", zap.String("group_id", g.ID().String()))
	}

	result := toGroupDTO(g)
	return &result, nil
}

// JoinGroup adds the user to an active group.
func (s *GroupService) JoinGroup(ctx context.Context, userID, groupID uuid.UUID) (*GroupDTO, error) {
	return s.changeMembership(ctx, groupID, func(g *groupDomain.Group) error {
		return g.AddMember(userID)
	})
}

// LeaveGroup removes the user from the group.
func (s *GroupService) LeaveGroup(ctx context.Context, userID, groupID uuid.UUID) (*GroupDTO, error) {
	return s.changeMembership(ctx, groupID, func(g *groupDomain.Group) error {
		return g.RemoveMember(userID)
	})
}

// ArchiveGroup archives a group. Only the owner may do this.
func (s *GroupService) ArchiveGroup(ctx context.Context, ownerID, groupID uuid.UUID) error {
	g, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return err
	}
	if !g.IsOwnedBy(ownerID) {
		return domain.NewForbiddenError("you do not own this group")
	}

	if err := g.Archive(); err != nil {
		return err
	}
	g.IncrementVersion()
	if err := s.repo.Update(ctx, g); err != nil {
		return err
	}
	s.invalidateNearby()

	s.logger.Info("group archived", zap.String("group_id", groupID.String()))
	return nil
}

func (s *GroupService) changeMembership(ctx context.Context, groupID uuid.UUID, apply func(g *groupDomain.Group) error) (*GroupDTO, error) {
	g, err := s.repo.FindByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if err := apply(g); err != nil {
		return nil, err
	}
	g.IncrementVersion()
	if err := s.repo.Update(ctx, g); err != nil {
		return nil, err
	}
	s.invalidateNearby()

	result := toGroupDTO(g)
	return &result, nil
}

// invalidateNearby drops every cached lookup; any group change can alter any user's result.
func (s *GroupService) invalidateNearby() {
	if s.nearby != nil {
		s.nearby.Purge()
	}
}

func toGroupDTO(g *groupDomain.Group) GroupDTO {
	return GroupDTO{
		ID:          g.ID(),
		OwnerID:     g.OwnerID(),
		Name:        g.Name(),
		Description: g.Description(),
		Home:        g.Home(),
		Members:     g.Members(),
		Status:      string(g.Status()),
		CreatedAt:   g.CreatedAt(),
		UpdatedAt:   g.UpdatedAt(),
	}
}

func toGroupDTOs(groups []*groupDomain.Group) []GroupDTO {
	dtos := make([]GroupDTO, len(groups))
	for i, g := range groups {
		dtos[i] = toGroupDTO(g)
	}
	return dtos
}
