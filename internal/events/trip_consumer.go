package events

import (
	"context"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/ridepool/service-trip/internal/application"
	"github.com/ridepool/service-trip/internal/common/kafka"
	"github.com/ridepool/service-trip/internal/proto/events"
)

// TripMatcher is the part of the matching service driven by trip events.
// *application.MatchService satisfies it.
type TripMatcher interface {
	AffiliateTrip(ctx context.Context, tripID uuid.UUID) ([]application.GroupDTO, error)
	InvalidateTrip(tripID uuid.UUID) int
}

// TripEventConsumer listens to trip events, affiliating new trips with nearby groups
// and dropping cached lookups for cancelled ones.
type TripEventConsumer struct {
	consumer *kafka.Consumer
	matcher  TripMatcher
	logger   *zap.Logger
}

// NewTripEventConsumer creates a new TripEventConsumer.
func NewTripEventConsumer(
	brokers []string,
	groupID string,
	matcher TripMatcher,
	logger *zap.Logger,
) *TripEventConsumer {
	consumer := kafka.NewConsumer(brokers, groupID, events.TopicTripEvents, logger)
	return &TripEventConsumer{
		consumer: consumer,
		matcher:  matcher,
		logger:   logger,
	}
}

// Start begins consuming trip events. This blocks until the context is cancelled.
func (c *TripEventConsumer) Start(ctx context.Context) error {
	return c.consumer.Consume(ctx, c.handleMessage)
}

// Close closes the underlying Kafka consumer.
func (c *TripEventConsumer) Close() error {
	return c.consumer.Close()
}

func (c *TripEventConsumer) handleMessage(ctx context.Context, msg kafkago.Message) error {
	cloudEvent, err := kafka.ParseCloudEvent(msg.Value)
	if err != nil {
		c.logger.Error("failed to parse cloud event from trip topic",
			zap.Error(err),
			zap.String("raw", string(msg.Value)),
		)
		return nil // Don't retry malformed messages
	}

	switch cloudEvent.Type {
	case events.TripCreated:
		return c.handleTripCreated(ctx, cloudEvent)
	case events.TripCancelled:
		return c.handleTripCancelled(cloudEvent)
	default:
		c.logger.Debug("ignoring unhandled trip event type",
			zap.String("type", cloudEvent.Type),
		)
		return nil
	}
}

func (c *TripEventConsumer) handleTripCreated(ctx context.Context, cloudEvent kafka.CloudEvent) error {
	var evt events.TripCreatedEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse TripCreatedEvent data", zap.Error(err))
		return nil
	}

	groups, err := c.matcher.AffiliateTrip(ctx, evt.TripID)
	if err != nil {
		c.logger.Error("failed to affiliate trip",
			zap.String("trip_id", evt.TripID.String()),
			zap.Error(err),
		)
		return err
	}

	for _, g := range groups {
		c.logger.Info("group to notify of new trip",
			zap.String("trip_id", evt.TripID.String()),
			zap.String("trip_number", evt.TripNumber),
			zap.String("group_id", g.ID.String()),
			zap.Int("members", len(g.Members)),
		)
	}
	return nil
}

func (c *TripEventConsumer) handleTripCancelled(cloudEvent kafka.CloudEvent) error {
	var evt events.TripStatusEvent
	if err := cloudEvent.ParseData(&evt); err != nil {
		c.logger.Error("failed to parse TripStatusEvent data", zap.Error(err))
		return nil
	}

	removed := c.matcher.InvalidateTrip(evt.TripID)
	c.logger.Info("nearby cache invalidated for cancelled trip",
		zap.String("trip_id", evt.TripID.String()),
		zap.Int("entries", removed),
	)
	return nil
}
