package group

import (
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/ridepool/service-trip/internal/common/domain"
	"github.com/ridepool/service-trip/internal/domain/route"
)

// GroupStatus represents the lifecycle state of a group.
type GroupStatus string

const (
	GroupStatusActive   GroupStatus = "active"
	GroupStatusArchived GroupStatus = "archived"
)

// Group is the aggregate root for a carpooling group anchored at a home point.
type Group struct {
	id          uuid.UUID
	ownerID     uuid.UUID
	name        string
	description string
	home        route.Place
	members     []uuid.UUID
	status      GroupStatus
	version     int64
	createdAt   time.Time
	updatedAt   time.Time
}

// NewGroup creates a new active group whose only member is its owner.
func NewGroup(ownerID uuid.UUID, name, description string, home route.Place) (*Group, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if name == "" {
		return nil, domain.NewValidationError("group name is required")
	}
	if len(name) > 100 {
		return nil, domain.NewValidationError("group name must be at most 100 characters")
	}
	if err := home.Validate(); err != nil {
		return nil, domain.NewValidationError(fmt.Sprintf("home: %v", err))
	}

	now := time.Now().UTC()
	return &Group{
		id:          uuid.New(),
		ownerID:     ownerID,
		name:        name,
		description: description,
		home:        home,
		members:     []uuid.UUID{ownerID},
		status:      GroupStatusActive,
		version:     1,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

// Reconstruct rebuilds a Group from persistence data (no validation).
func Reconstruct(
	id, ownerID uuid.UUID,
	name, description string,
	home route.Place,
	members []uuid.UUID,
	status GroupStatus,
	version int64,
	createdAt, updatedAt time.Time,
) *Group {
	if members == nil {
		members = []uuid.UUID{}
	}
	return &Group{
		id:          id,
		ownerID:     ownerID,
		name:        name,
		description: description,
		home:        home,
		members:     members,
		status:      status,
		version:     version,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// --- Getters ---

func (g *Group) ID() uuid.UUID          { return g.id }
func (g *Group) OwnerID() uuid.UUID     { return g.ownerID }
func (g *Group) Name() string           { return g.name }
func (g *Group) Description() string    { return g.description }
func (g *Group) Home() route.Place      { return g.home }
func (g *Group) Members() []uuid.UUID   { return slices.Clone(g.members) }
func (g *Group) Status() GroupStatus    { return g.status }
func (g *Group) Version() int64         { return g.version }
func (g *Group) CreatedAt() time.Time   { return g.createdAt }
func (g *Group) UpdatedAt() time.Time   { return g.updatedAt }

// --- Behavior ---

// IsOwnedBy checks if the group belongs to the given user.
func (g *Group) IsOwnedBy(userID uuid.UUID) bool {
	return g.ownerID == userID
}

// IsMember checks if the user belongs to the group.
func (g *Group) IsMember(userID uuid.UUID) bool {
	return slices.Contains(g.members, userID)
}

// IsActive returns true if the group is active.
func (g *Group) IsActive() bool {
	return g.status == GroupStatusActive
}

// AddMember adds userID to an active group.
func (g *Group) AddMember(userID uuid.UUID) error {
	if userID == uuid.Nil {
		return domain.NewValidationError("user ID is required")
	}
	if !g.IsActive() {
		return domain.NewInvalidStateError(string(g.status), "joined")
	}
	if g.IsMember(userID) {
		return domain.NewConflictError("user is already a member")
	}
	g.members = append(g.members, userID)
	g.updatedAt = time.Now().UTC()
	return nil
}

// RemoveMember removes userID. The owner cannot leave their own group.
func (g *Group) RemoveMember(userID uuid.UUID) error {
	if g.IsOwnedBy(userID) {
		return domain.NewValidationError("owner cannot leave the group")
	}
	idx := slices.Index(g.members, userID)
	if idx < 0 {
		return domain.NewValidationError("user is not a member")
	}
	g.members = slices.Delete(g.members, idx, idx+1)
	g.updatedAt = time.Now().UTC()
	return nil
}

// Update applies partial updates and reports whether the home point moved.
func (g *Group) Update(name, description string, home *route.Place) (bool, error) {
	moved := false
	if home != nil {
		if err := home.Validate(); err != nil {
			return false, domain.NewValidationError(fmt.Sprintf("home: %v", err))
		}
		moved = home.Point() != g.home.Point()
		g.home = *home
	}
	if name != "" {
		g.name = name
	}
	if description != "" {
		g.description = description
	}
	g.updatedAt = time.Now().UTC()
	return moved, nil
}

// Archive marks the group as archived.
func (g *Group) Archive() error {
	if g.status == GroupStatusArchived {
		return domain.NewInvalidStateError(string(g.status), string(GroupStatusArchived))
	}
	g.status = GroupStatusArchived
	g.updatedAt = time.Now().UTC()
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (g *Group) IncrementVersion() {
	g.version++
	g.updatedAt = time.Now().UTC()
}
