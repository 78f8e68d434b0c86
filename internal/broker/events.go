package broker

import (
	"context"
	"fmt"
	"time"

	"equipment-service/internal/models"
	"equipment-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AuditPublisher publishes audit events best-effort: a publish failure is
// logged and counted but never fails the operation that produced it.
type AuditPublisher struct {
	producer *Producer
	logger   *zap.Logger
}

// NewAuditPublisher creates a new audit publisher
func NewAuditPublisher(producer *Producer) *AuditPublisher {
	return &AuditPublisher{
		producer: producer,
		logger:   util.GetLogger(),
	}
}

// Publish emits one audit event keyed by entity
func (ap *AuditPublisher) Publish(ctx context.Context, actorID int64, eventType, entityType string, entityID int64, details string) {
	event := models.AuditEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: eventType,
			Timestamp: time.Now(),
		},
		ActorID:    actorID,
		Action:     eventType,
		EntityType: entityType,
		EntityID:   entityID,
		Details:    details,
	}

	key := fmt.Sprintf("%s-%d", entityType, entityID)
	if err := ap.producer.PublishEvent(ctx, key, &event); err != nil {
		util.AuditEventsPublished.WithLabelValues("error").Inc()
		ap.logger.Error("Failed to publish audit event",
			zap.String("event_type", eventType),
			zap.String("entity_type", entityType),
			zap.Int64("entity_id", entityID),
			zap.Error(err))
		return
	}
	util.AuditEventsPublished.WithLabelValues("ok").Inc()
}
