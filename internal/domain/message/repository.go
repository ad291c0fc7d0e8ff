package message

import (
	"context"

	"github.com/google/uuid"
)

// MessageRepository defines persistence operations for trip messages.
type MessageRepository interface {
	Save(ctx context.Context, msg *TripMessage) error
	FindByTripID(ctx context.Context, tripID uuid.UUID) ([]*TripMessage, error)
}
