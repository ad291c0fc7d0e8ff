package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ridepool/service-trip/internal/common/domain"
	messageDomain "github.com/ridepool/service-trip/internal/domain/message"
	tripDomain "github.com/ridepool/service-trip/internal/domain/trip"
)

// PostMessageRequest holds the body of a trip message.
type PostMessageRequest struct {
	Body string `json:"body" binding:"required"`
}

// MessageDTO is the API response representation of a trip message.
type MessageDTO struct {
	ID        uuid.UUID `json:"id"`
	TripID    uuid.UUID `json:"trip_id"`
	AuthorID  uuid.UUID `json:"author_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// MessageService handles the per-trip mailbox.
type MessageService struct {
	repo   messageDomain.MessageRepository
	trips  tripDomain.TripRepository
	logger *zap.Logger
}

// NewMessageService creates a new MessageService.
func NewMessageService(repo messageDomain.MessageRepository, trips tripDomain.TripRepository, logger *zap.Logger) *MessageService {
	return &MessageService{repo: repo, trips: trips, logger: logger}
}

// PostMessage appends a message to the trip's mailbox. Only the driver and riders may post.
func (s *MessageService) PostMessage(ctx context.Context, tripID, authorID uuid.UUID, req PostMessageRequest) (*MessageDTO, error) {
	if err := s.checkParticipant(ctx, tripID, authorID); err != nil {
		return nil, err
	}

	msg, err := messageDomain.NewTripMessage(tripID, authorID, req.Body)
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}

	if err := s.repo.Save(ctx, msg); err != nil {
		return nil, err
	}

	s.logger.Info("trip message posted",
		zap.String("trip_id", tripID.String()),
		zap.String("author_id", authorID.String()),
	)

	return toMessageDTO(msg), nil
}

// GetTripMessages returns the trip's messages, oldest first.
func (s *MessageService) GetTripMessages(ctx context.Context, tripID, userID uuid.UUID) ([]*MessageDTO, error) {
	if err := s.checkParticipant(ctx, tripID, userID); err != nil {
		return nil, err
	}

	msgs, err := s.repo.FindByTripID(ctx, tripID)
	if err != nil {
		return nil, err
	}

	dtos := make([]*MessageDTO, len(msgs))
	for i, m := range msgs {
		dtos[i] = toMessageDTO(m)
	}
	return dtos, nil
}

func (s *MessageService) checkParticipant(ctx context.Context, tripID, userID uuid.UUID) error {
	t, err := s.trips.FindByID(ctx, tripID)
	if err != nil {
		return err
	}
	if !t.IsParticipant(userID) {
		return domain.NewForbiddenError("only the driver and riders of this trip can use its messages")
	}
	return nil
}

func toMessageDTO(m *messageDomain.TripMessage) *MessageDTO {
	return &MessageDTO{
		ID:        m.ID(),
		TripID:    m.TripID(),
		AuthorID:  m.AuthorID(),
		Body:      m.Body(),
		CreatedAt: m.CreatedAt(),
	}
}
