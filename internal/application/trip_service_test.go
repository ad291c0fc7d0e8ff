package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ridepool/service-trip/internal/cache"
	"github.com/ridepool/service-trip/internal/common/domain"
	"github.com/ridepool/service-trip/internal/domain/route"
	tripDomain "github.com/ridepool/service-trip/internal/domain/trip"
	"github.com/ridepool/service-trip/internal/proto/events"
)

var (
	klcc      = route.Place{Label: "KLCC", Latitude: 3.1579, Longitude: 101.7116}
	midValley = route.Place{Label: "Mid Valley", Latitude: 3.1180, Longitude: 101.6767}
)

func newTripService(t *testing.T) (*TripService, *fakeTripRepo, *fakePublisher) {
	t.Helper()
	repo := newFakeTripRepo()
	pub := &fakePublisher{}
	return NewTripService(repo, tripDomain.NewStandardFareStrategy(), nil, pub, testLogger), repo, pub
}

func createReq(seats int) CreateTripRequest {
	return CreateTripRequest{
		Source:      klcc,
		Destination: midValley,
		DepartureAt: time.Now().Add(2 * time.Hour),
		SeatsTotal:  seats,
	}
}

func TestTripService_CreateTrip(t *testing.T) {
	svc, repo, pub := newTripService(t)
	driver := uuid.New()

	dto, err := svc.CreateTrip(context.Background(), driver, createReq(3))
	require.NoError(t, err)

	assert.Equal(t, driver, dto.DriverID)
	assert.Equal(t, "open", dto.Status)
	assert.Equal(t, 3, dto.SeatsAvailable)
	assert.Positive(t, dto.FarePerSeatCents)
	assert.Equal(t, domain.CurrencyMYR, dto.Currency)
	assert.Len(t, repo.trips, 1)

	require.Len(t, pub.events, 1)
	assert.Equal(t, events.TopicTripEvents, pub.events[0].topic)
	assert.Equal(t, dto.ID.String(), pub.events[0].key)
	assert.Equal(t, events.TripCreated, pub.events[0].event.Type)

	var evt events.TripCreatedEvent
	require.NoError(t, pub.events[0].event.ParseData(&evt))
	assert.Equal(t, dto.TripNumber, evt.TripNumber)
}

func TestTripService_CreateTrip_FareOverride(t *testing.T) {
	svc, _, _ := newTripService(t)
	req := createReq(2)
	fare := int64(1234)
	req.FarePerSeatCents = &fare

	dto, err := svc.CreateTrip(context.Background(), uuid.New(), req)
	require.NoError(t, err)
	assert.Equal(t, fare, dto.FarePerSeatCents)
}

func TestTripService_CreateTrip_Rejects(t *testing.T) {
	svc, _, pub := newTripService(t)

	bad := createReq(2)
	bad.Source = route.Place{Latitude: 95, Longitude: 0}
	_, err := svc.CreateTrip(context.Background(), uuid.New(), bad)
	assert.True(t, domain.IsValidation(err))

	past := createReq(2)
	past.DepartureAt = time.Now().Add(-time.Minute)
	_, err = svc.CreateTrip(context.Background(), uuid.New(), past)
	assert.True(t, domain.IsValidation(err))

	assert.Empty(t, pub.events)
}

func TestTripService_CreateTrip_PublishFailureIsNotFatal(t *testing.T) {
	svc, repo, pub := newTripService(t)
	pub.err = errors.New("broker down")

	_, err := svc.CreateTrip(context.Background(), uuid.New(), createReq(2))
	require.NoError(t, err)
	assert.Len(t, repo.trips, 1)
}

func TestTripService_JoinAndLeave(t *testing.T) {
	svc, _, pub := newTripService(t)
	ctx := context.Background()
	created, err := svc.CreateTrip(ctx, uuid.New(), createReq(1))
	require.NoError(t, err)

	rider := uuid.New()
	joined, err := svc.JoinTrip(ctx, created.ID, rider)
	require.NoError(t, err)
	assert.Equal(t, "full", joined.Status)
	assert.Equal(t, []uuid.UUID{rider}, joined.Riders)
	assert.Equal(t, int64(2), joined.Version)

	_, err = svc.JoinTrip(ctx, created.ID, uuid.New())
	assert.Error(t, err)

	left, err := svc.LeaveTrip(ctx, created.ID, rider)
	require.NoError(t, err)
	assert.Equal(t, "open", left.Status)

	assert.Equal(t, []string{events.TripCreated, events.TripJoined, events.TripLeft}, pub.types())

	riderTrips, err := svc.GetRiderTrips(ctx, rider, 1, 10)
	require.NoError(t, err)
	assert.Empty(t, riderTrips.Items)
}

func TestTripService_DriverOnlyTransitions(t *testing.T) {
	svc, _, pub := newTripService(t)
	ctx := context.Background()
	driver := uuid.New()
	created, err := svc.CreateTrip(ctx, driver, createReq(2))
	require.NoError(t, err)

	_, err = svc.DepartTrip(ctx, created.ID, uuid.New())
	assert.True(t, domain.IsForbidden(err))

	departed, err := svc.DepartTrip(ctx, created.ID, driver)
	require.NoError(t, err)
	assert.Equal(t, "departed", departed.Status)

	_, err = svc.CancelTrip(ctx, created.ID, driver, "too late")
	assert.True(t, domain.IsInvalidState(err))

	completed, err := svc.CompleteTrip(ctx, created.ID, driver)
	require.NoError(t, err)
	assert.Equal(t, "completed", completed.Status)

	assert.Equal(t, []string{events.TripCreated, events.TripDeparted, events.TripCompleted}, pub.types())
}

func TestTripService_CancelTrip(t *testing.T) {
	svc, _, pub := newTripService(t)
	ctx := context.Background()
	driver := uuid.New()
	created, err := svc.CreateTrip(ctx, driver, createReq(2))
	require.NoError(t, err)

	cancelled, err := svc.CancelTrip(ctx, created.ID, driver, "flat tyre")
	require.NoError(t, err)
	assert.Equal(t, "cancelled", cancelled.Status)
	assert.Equal(t, "flat tyre", cancelled.CancelNote)

	last := pub.events[len(pub.events)-1]
	assert.Equal(t, events.TripCancelled, last.event.Type)
	var evt events.TripStatusEvent
	require.NoError(t, last.event.ParseData(&evt))
	assert.Equal(t, "flat tyre", evt.Reason)
}

func TestTripService_CancelTrip_DropsCachedNearbyGroups(t *testing.T) {
	nearby := cache.NewNearbyGroupsCache(8, time.Minute)
	svc := NewTripService(newFakeTripRepo(), tripDomain.NewStandardFareStrategy(), nearby, &fakePublisher{}, testLogger)
	ctx := context.Background()
	driver := uuid.New()
	created, err := svc.CreateTrip(ctx, driver, createReq(2))
	require.NoError(t, err)
	kept, err := svc.CreateTrip(ctx, driver, createReq(2))
	require.NoError(t, err)

	rider := uuid.New()
	nearby.Put(rider, created.ID, []uuid.UUID{uuid.New()})
	nearby.Put(rider, kept.ID, []uuid.UUID{uuid.New()})

	_, err = svc.CancelTrip(ctx, uuid.New(), driver, "wrong trip")
	assert.True(t, domain.IsNotFound(err))
	assert.Equal(t, 2, nearby.Len())

	_, err = svc.CancelTrip(ctx, created.ID, driver, "flat tyre")
	require.NoError(t, err)

	_, ok := nearby.Get(rider, created.ID)
	assert.False(t, ok)
	_, ok = nearby.Get(rider, kept.ID)
	assert.True(t, ok)
}

func TestTripService_GetTrip_NotFound(t *testing.T) {
	svc, _, _ := newTripService(t)
	_, err := svc.GetTrip(context.Background(), uuid.New())
	assert.True(t, domain.IsNotFound(err))
}

func TestTripService_AdminStats(t *testing.T) {
	svc, _, _ := newTripService(t)
	ctx := context.Background()
	driver := uuid.New()
	for range 3 {
		_, err := svc.CreateTrip(ctx, driver, createReq(2))
		require.NoError(t, err)
	}
	all, total, err := svc.ListAllTrips(ctx, 1, 2)
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.Equal(t, int64(3), total)

	_, err = svc.CancelTrip(ctx, all[0].ID, driver, "")
	require.NoError(t, err)

	stats, err := svc.GetTripStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.TotalTrips)
	assert.Equal(t, int64(2), stats.ByStatus["open"])
	assert.Equal(t, int64(1), stats.ByStatus["cancelled"])

	mine, err := svc.GetDriverTrips(ctx, driver, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), mine.Total)
}
