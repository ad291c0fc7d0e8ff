package application

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ridepool/service-trip/internal/common/domain"
	"github.com/ridepool/service-trip/internal/common/kafka"
	groupDomain "github.com/ridepool/service-trip/internal/domain/group"
	messageDomain "github.com/ridepool/service-trip/internal/domain/message"
	tripDomain "github.com/ridepool/service-trip/internal/domain/trip"
)

var testLogger = zap.NewNop()

// --- publisher ---

type publishedEvent struct {
	topic string
	key   string
	event kafka.CloudEvent
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, topic, key string, event kafka.CloudEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, publishedEvent{topic: topic, key: key, event: event})
	return nil
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.event.Type
	}
	return out
}

// --- trips ---

type fakeTripRepo struct {
	mu    sync.Mutex
	trips map[uuid.UUID]*tripDomain.Trip
	order []uuid.UUID
}

func newFakeTripRepo() *fakeTripRepo {
	return &fakeTripRepo{trips: map[uuid.UUID]*tripDomain.Trip{}}
}

func (r *fakeTripRepo) FindByID(_ context.Context, id uuid.UUID) (*tripDomain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.trips[id]
	if !ok {
		return nil, domain.NewNotFoundError("Trip", id.String())
	}
	return t, nil
}

func (r *fakeTripRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*tripDomain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*tripDomain.Trip
	for _, id := range ids {
		if t, ok := r.trips[id]; ok {
			out = append(out, t)
		}
	}
	return out, nil
}

func (r *fakeTripRepo) FindByNumber(_ context.Context, number string) (*tripDomain.Trip, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.trips {
		if t.TripNumber() == number {
			return t, nil
		}
	}
	return nil, domain.NewNotFoundError("Trip", number)
}

func (r *fakeTripRepo) filter(keep func(t *tripDomain.Trip) bool) []*tripDomain.Trip {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*tripDomain.Trip
	for _, id := range r.order {
		if t := r.trips[id]; keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func page(trips []*tripDomain.Trip, p, limit int) ([]*tripDomain.Trip, int64, error) {
	total := int64(len(trips))
	start := (p - 1) * limit
	if start >= len(trips) {
		return []*tripDomain.Trip{}, total, nil
	}
	end := min(start+limit, len(trips))
	return trips[start:end], total, nil
}

func (r *fakeTripRepo) FindByDriverID(_ context.Context, driverID uuid.UUID, p, limit int) ([]*tripDomain.Trip, int64, error) {
	return page(r.filter(func(t *tripDomain.Trip) bool { return t.DriverID() == driverID }), p, limit)
}

func (r *fakeTripRepo) FindByRiderID(_ context.Context, riderID uuid.UUID, p, limit int) ([]*tripDomain.Trip, int64, error) {
	return page(r.filter(func(t *tripDomain.Trip) bool { return t.HasRider(riderID) }), p, limit)
}

func (r *fakeTripRepo) FindJoinable(_ context.Context, departAfter time.Time, offset, limit int) ([]*tripDomain.Trip, error) {
	out := r.filter(func(t *tripDomain.Trip) bool {
		return t.Status() == tripDomain.StatusOpen && t.DepartureAt().After(departAfter)
	})
	if offset >= len(out) {
		return []*tripDomain.Trip{}, nil
	}
	return out[offset:min(offset+limit, len(out))], nil
}

func (r *fakeTripRepo) ListAll(_ context.Context, p, limit int) ([]*tripDomain.Trip, int64, error) {
	return page(r.filter(func(*tripDomain.Trip) bool { return true }), p, limit)
}

func (r *fakeTripRepo) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, t := range r.filter(func(*tripDomain.Trip) bool { return true }) {
		counts[string(t.Status())]++
	}
	return counts, nil
}

func (r *fakeTripRepo) Save(_ context.Context, t *tripDomain.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.trips[t.ID()] = t
	r.order = append(r.order, t.ID())
	return nil
}

func (r *fakeTripRepo) Update(_ context.Context, t *tripDomain.Trip) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.trips[t.ID()]; !ok {
		return domain.NewNotFoundError("Trip", t.ID().String())
	}
	r.trips[t.ID()] = t
	return nil
}

// --- groups ---

type fakeGroupRepo struct {
	mu     sync.Mutex
	groups map[uuid.UUID]*groupDomain.Group
	order  []uuid.UUID
	finds  int
}

func newFakeGroupRepo() *fakeGroupRepo {
	return &fakeGroupRepo{groups: map[uuid.UUID]*groupDomain.Group{}}
}

func (r *fakeGroupRepo) FindByID(_ context.Context, id uuid.UUID) (*groupDomain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.groups[id]
	if !ok {
		return nil, domain.NewNotFoundError("Group", id.String())
	}
	return g, nil
}

func (r *fakeGroupRepo) FindByMemberID(_ context.Context, userID uuid.UUID) ([]*groupDomain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finds++
	var out []*groupDomain.Group
	for _, id := range r.order {
		if g := r.groups[id]; g.IsActive() && g.IsMember(userID) {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) FindByIDs(_ context.Context, ids []uuid.UUID) ([]*groupDomain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*groupDomain.Group
	for _, id := range ids {
		if g, ok := r.groups[id]; ok {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) ListActive(_ context.Context) ([]*groupDomain.Group, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*groupDomain.Group
	for _, id := range r.order {
		if g := r.groups[id]; g.IsActive() {
			out = append(out, g)
		}
	}
	return out, nil
}

func (r *fakeGroupRepo) Save(_ context.Context, g *groupDomain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[g.ID()] = g
	r.order = append(r.order, g.ID())
	return nil
}

func (r *fakeGroupRepo) Update(_ context.Context, g *groupDomain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.groups[g.ID()] = g
	return nil
}

// --- affiliations ---

type fakeAffiliationRepo struct {
	mu    sync.Mutex
	links map[uuid.UUID]map[uuid.UUID]bool
}

func newFakeAffiliationRepo() *fakeAffiliationRepo {
	return &fakeAffiliationRepo{links: map[uuid.UUID]map[uuid.UUID]bool{}}
}

func (r *fakeAffiliationRepo) Affiliate(_ context.Context, tripID uuid.UUID, groupIDs []uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.links[tripID] == nil {
		r.links[tripID] = map[uuid.UUID]bool{}
	}
	for _, g := range groupIDs {
		r.links[tripID][g] = true
	}
	return nil
}

func (r *fakeAffiliationRepo) FindGroupIDsByTrip(_ context.Context, tripID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for g := range r.links[tripID] {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

func (r *fakeAffiliationRepo) FindTripIDsByGroup(_ context.Context, groupID uuid.UUID) ([]uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []uuid.UUID
	for tripID, groups := range r.links {
		if groups[groupID] {
			out = append(out, tripID)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out, nil
}

// --- messages ---

type fakeMessageRepo struct {
	mu   sync.Mutex
	msgs []*messageDomain.TripMessage
}

func (r *fakeMessageRepo) Save(_ context.Context, msg *messageDomain.TripMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return nil
}

func (r *fakeMessageRepo) FindByTripID(_ context.Context, tripID uuid.UUID) ([]*messageDomain.TripMessage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*messageDomain.TripMessage
	for _, m := range r.msgs {
		if m.TripID() == tripID {
			out = append(out, m)
		}
	}
	return out, nil
}
