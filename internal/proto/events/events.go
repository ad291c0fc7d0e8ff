// Package events defines the topics, CloudEvent types and payloads exchanged on Kafka.
package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics.
const (
	TopicTripEvents  = "trip.events"
	TopicGroupEvents = "group.events"
)

// Trip event types.
const (
	TripCreated   = "trip.created"
	TripJoined    = "trip.joined"
	TripLeft      = "trip.left"
	TripDeparted  = "trip.departed"
	TripCompleted = "trip.completed"
	TripCancelled = "trip.cancelled"
)

// Group event types.
const (
	GroupRelocated = "group.relocated"
)

// TripCreatedEvent is published when a driver offers a new trip.
type TripCreatedEvent struct {
	TripID           uuid.UUID `json:"trip_id"`
	TripNumber       string    `json:"trip_number"`
	DriverID         uuid.UUID `json:"driver_id"`
	SourceLat        float64   `json:"source_lat"`
	SourceLng        float64   `json:"source_lng"`
	DestinationLat   float64   `json:"destination_lat"`
	DestinationLng   float64   `json:"destination_lng"`
	SeatsTotal       int       `json:"seats_total"`
	FarePerSeatCents int64     `json:"fare_per_seat_cents"`
	Currency         string    `json:"currency"`
	DepartureAt      time.Time `json:"departure_at"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// TripRiderEvent is published when a rider joins or leaves a trip.
type TripRiderEvent struct {
	TripID         uuid.UUID `json:"trip_id"`
	TripNumber     string    `json:"trip_number"`
	DriverID       uuid.UUID `json:"driver_id"`
	RiderID        uuid.UUID `json:"rider_id"`
	SeatsAvailable int       `json:"seats_available"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// TripStatusEvent is published when a trip departs, completes or is cancelled.
type TripStatusEvent struct {
	TripID     uuid.UUID   `json:"trip_id"`
	TripNumber string      `json:"trip_number"`
	DriverID   uuid.UUID   `json:"driver_id"`
	Riders     []uuid.UUID `json:"riders"`
	Status     string      `json:"status"`
	Reason     string      `json:"reason,omitempty"`
	OccurredAt time.Time   `json:"occurred_at"`
}

// GroupRelocatedEvent is published when a group's home point moves.
type GroupRelocatedEvent struct {
	GroupID    uuid.UUID `json:"group_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	HomeLat    float64   `json:"home_lat"`
	HomeLng    float64   `json:"home_lng"`
	OccurredAt time.Time `json:"occurred_at"`
}
