package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	messageDomain "github.com/ridepool/service-trip/internal/domain/message"
)

// MessageModel is the GORM model for the trip_messages table.
type MessageModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TripID    uuid.UUID `gorm:"type:uuid;not null;index"`
	AuthorID  uuid.UUID `gorm:"type:uuid;not null"`
	Body      string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"not null;index"`
}

// TableName sets the table name.
func (MessageModel) TableName() string { return "trip_messages" }

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GormMessageRepository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// Save persists a new trip message.
func (r *GormMessageRepository) Save(ctx context.Context, msg *messageDomain.TripMessage) error {
	model := toMessageModel(msg)
	return r.db.WithContext(ctx).Create(&model).Error
}

// FindByTripID returns a trip's messages, oldest first.
func (r *GormMessageRepository) FindByTripID(ctx context.Context, tripID uuid.UUID) ([]*messageDomain.TripMessage, error) {
	var models []MessageModel
	if err := r.db.WithContext(ctx).Where("trip_id = ?", tripID).Order("created_at ASC").Find(&models).Error; err != nil {
		return nil, err
	}

	msgs := make([]*messageDomain.TripMessage, len(models))
	for i, m := range models {
		msgs[i] = toMessageDomain(&m)
	}
	return msgs, nil
}

func toMessageModel(m *messageDomain.TripMessage) MessageModel {
	return MessageModel{
		ID:        m.ID(),
		TripID:    m.TripID(),
		AuthorID:  m.AuthorID(),
		Body:      m.Body(),
		CreatedAt: m.CreatedAt(),
	}
}

func toMessageDomain(m *MessageModel) *messageDomain.TripMessage {
	return messageDomain.Reconstruct(m.ID, m.TripID, m.AuthorID, m.Body, m.CreatedAt)
}
