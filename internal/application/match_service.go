package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ridepool/service-trip/internal/cache"
	"github.com/ridepool/service-trip/internal/common/domain"
	groupDomain "github.com/ridepool/service-trip/internal/domain/group"
	"github.com/ridepool/service-trip/internal/domain/route"
	tripDomain "github.com/ridepool/service-trip/internal/domain/trip"
)

const (
	// DefaultSearchLimit is the number of matches returned when the caller does not ask for more.
	DefaultSearchLimit = 5
	// MaxSearchLimit caps the number of matches per search.
	MaxSearchLimit = 50
	// searchBatchSize is how many joinable trips are loaded and scored at a time.
	searchBatchSize = 500
)

// MatchConfig tunes the matching service.
type MatchConfig struct {
	NearThresholdMeters float64
	DefaultLimit        int
}

// SearchRequest describes the journey a rider wants to share.
type SearchRequest struct {
	Source      route.Point
	Destination route.Point
	Limit       int
	DepartAfter time.Time
}

// TripMatchDTO is a trip with its proximity score against the searched journey. Lower is closer.
type TripMatchDTO struct {
	Trip  TripDTO     `json:"trip"`
	Score route.Score `json:"score"`
}

// MatchService connects riders, trips and groups using the route scorer.
type MatchService struct {
	trips        tripDomain.TripRepository
	groups       groupDomain.GroupRepository
	affiliations groupDomain.AffiliationRepository
	nearby       *cache.NearbyGroupsCache
	cfg          MatchConfig
	logger       *zap.Logger
}

// NewMatchService creates a new MatchService.
func NewMatchService(
	trips tripDomain.TripRepository,
	groups groupDomain.GroupRepository,
	affiliations groupDomain.AffiliationRepository,
	nearby *cache.NearbyGroupsCache,
	cfg MatchConfig,
	logger *zap.Logger,
) *MatchService {
	if cfg.NearThresholdMeters <= 0 {
		cfg.NearThresholdMeters = route.DefaultNearThreshold
	}
	if cfg.DefaultLimit <= 0 || cfg.DefaultLimit > MaxSearchLimit {
		cfg.DefaultLimit = DefaultSearchLimit
	}
	return &MatchService{
		trips:        trips,
		groups:       groups,
		affiliations: affiliations,
		nearby:       nearby,
		cfg:          cfg,
		logger:       logger,
	}
}

// SearchTrips ranks joinable trips against the requested journey, best first.
// Trips heading the opposite way are left out.
func (s *MatchService) SearchTrips(ctx context.Context, req SearchRequest) ([]TripMatchDTO, error) {
	query := route.NewSegment(req.Source, req.Destination)
	if err := query.ValidateGeographic(); err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	limit := req.Limit
	if limit <= 0 {
		limit = s.cfg.DefaultLimit
	}
	if limit > MaxSearchLimit {
		limit = MaxSearchLimit
	}
	departAfter := req.DepartAfter
	if departAfter.IsZero() {
		departAfter = time.Now().UTC()
	}

	// Every joinable trip is scored; only the running top-K is kept between batches.
	var ranked []route.Ranked[*tripDomain.Trip]
	scanned := 0
	for offset := 0; ; offset += searchBatchSize {
		batch, err := s.trips.FindJoinable(ctx, departAfter, offset, searchBatchSize)
		if err != nil {
			return nil, fmt.Errorf("failed to load joinable trips: %w", err)
		}
		scanned += len(batch)

		top, err := route.Rank(batch, query, limit)
		if err != nil {
			if errors.Is(err, route.ErrInvalidGeometry) {
				return nil, domain.NewValidationError(err.Error())
			}
			return nil, err
		}
		ranked = route.MergeRanked(ranked, route.ExcludeUnreachable(top), limit)

		if len(batch) < searchBatchSize {
			break
		}
	}

	matches := make([]TripMatchDTO, len(ranked))
	for i, r := range ranked {
		matches[i] = TripMatchDTO{Trip: toTripDTO(r.Candidate), Score: r.Score}
	}

	s.logger.Debug("trip search",
		zap.Int("candidates", scanned),
		zap.Int("matches", len(matches)),
	)
	return matches, nil
}

// NearbyGroups returns the caller's groups whose home point is near either end of the trip.
func (s *MatchService) NearbyGroups(ctx context.Context, userID, tripID uuid.UUID) ([]GroupDTO, error) {
	if ids, ok := s.nearby.Get(userID, tripID); ok {
		groups, err := s.groups.FindByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
		return toGroupDTOs(groups), nil
	}

	t, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	mine, err := s.groups.FindByMemberID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}

	near := s.nearTrip(t, mine)
	ids := make([]uuid.UUID, len(near))
	for i, g := range near {
		ids[i] = g.ID()
	}
	s.nearby.Put(userID, tripID, ids)

	return toGroupDTOs(near), nil
}

// AffiliateTrip records every active group near the trip's endpoints. Repeated calls are harmless.
func (s *MatchService) AffiliateTrip(ctx context.Context, tripID uuid.UUID) ([]GroupDTO, error) {
	t, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		return nil, err
	}
	active, err := s.groups.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}

	near := s.nearTrip(t, active)
	ids := make([]uuid.UUID, len(near))
	for i, g := range near {
		ids[i] = g.ID()
	}
	if err := s.affiliations.Affiliate(ctx, tripID, ids); err != nil {
		return nil, err
	}

	s.logger.Info("trip affiliated",
		zap.String("trip_id", tripID.String()),
		zap.Int("groups", len(ids)),
	)
	return toGroupDTOs(near), nil
}

// GroupTrips returns the trips affiliated with a group.
func (s *MatchService) GroupTrips(ctx context.Context, groupID uuid.UUID) ([]TripDTO, error) {
	if _, err := s.groups.FindByID(ctx, groupID); err != nil {
		return nil, err
	}
	ids, err := s.affiliations.FindTripIDsByGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	trips, err := s.trips.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return toTripDTOs(trips), nil
}

// TripGroups returns the groups a trip has been affiliated with.
func (s *MatchService) TripGroups(ctx context.Context, tripID uuid.UUID) ([]GroupDTO, error) {
	if _, err := s.trips.FindByID(ctx, tripID); err != nil {
		return nil, err
	}
	ids, err := s.affiliations.FindGroupIDsByTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	groups, err := s.groups.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return toGroupDTOs(groups), nil
}

// InvalidateTrip forgets cached nearby-groups lookups for the trip.
func (s *MatchService) InvalidateTrip(tripID uuid.UUID) int {
	return s.nearby.InvalidateTrip(tripID)
}

func (s *MatchService) nearTrip(t *tripDomain.Trip, groups []*groupDomain.Group) []*groupDomain.Group {
	seg := t.Segment()
	near := make([]*groupDomain.Group, 0, len(groups))
	for _, g := range groups {
		home := g.Home().Point()
		if route.IsNear(home, seg.Source, s.cfg.NearThresholdMeters) ||
			route.IsNear(home, seg.Destination, s.cfg.NearThresholdMeters) {
			near = append(near, g)
		}
	}
	return near
}
