package message

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// MaxBodyLength caps a message body, counted in characters.
const MaxBodyLength = 2000

// TripMessage is a chat line posted by a trip participant.
type TripMessage struct {
	id        uuid.UUID
	tripID    uuid.UUID
	authorID  uuid.UUID
	body      string
	createdAt time.Time
}

// NewTripMessage creates a new trip message.
func NewTripMessage(tripID, authorID uuid.UUID, body string) (*TripMessage, error) {
	if tripID == uuid.Nil || authorID == uuid.Nil {
		return nil, fmt.Errorf("trip and author are required")
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, fmt.Errorf("message body is required")
	}
	if utf8.RuneCountInString(body) > MaxBodyLength {
		return nil, fmt.Errorf("message body exceeds %d characters", MaxBodyLength)
	}

	return &TripMessage{
		id:        uuid.New(),
		tripID:    tripID,
		authorID:  authorID,
		body:      body,
		createdAt: time.Now().UTC(),
	}, nil
}

// Reconstruct rebuilds a TripMessage from persistence.
func Reconstruct(id, tripID, authorID uuid.UUID, body string, createdAt time.Time) *TripMessage {
	return &TripMessage{
		id:        id,
		tripID:    tripID,
		authorID:  authorID,
		body:      body,
		createdAt: createdAt,
	}
}

// Getters.
func (m *TripMessage) ID() uuid.UUID        { return m.id }
func (m *TripMessage) TripID() uuid.UUID    { return m.tripID }
func (m *TripMessage) AuthorID() uuid.UUID  { return m.authorID }
func (m *TripMessage) Body() string         { return m.body }
func (m *TripMessage) CreatedAt() time.Time { return m.createdAt }
