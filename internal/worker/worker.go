package worker

import (
	"context"
	"encoding/json"

	"equipment-service/internal/broker"
	"equipment-service/internal/models"
	"equipment-service/internal/store"
	"equipment-service/internal/util"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// AuditWorker drains the audit topic into the activity_logs table. Events
// are deduplicated through processed_events so a replayed message never
// produces a second row.
type AuditWorker struct {
	consumer *broker.Consumer
	store    *store.Store
	logger   *zap.Logger
}

// NewAuditWorker creates a new audit worker
func NewAuditWorker(consumer *broker.Consumer, store *store.Store) *AuditWorker {
	return &AuditWorker{
		consumer: consumer,
		store:    store,
		logger:   util.GetLogger(),
	}
}

// Start starts the worker; blocks until ctx is cancelled
func (w *AuditWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting audit worker")
	return w.consumer.StartConsuming(ctx, w.handleMessage)
}

// Stop stops the worker
func (w *AuditWorker) Stop() error {
	w.logger.Info("Stopping audit worker")
	return w.consumer.Close()
}

func (w *AuditWorker) handleMessage(ctx context.Context, msg kafka.Message) error {
	var event models.AuditEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		// malformed payload, drop it so the partition keeps moving
		w.logger.Error("Failed to unmarshal audit event, skipping",
			zap.ByteString("payload", msg.Value),
			zap.Error(err))
		return nil
	}

	processed, err := w.store.IsEventProcessed(ctx, event.EventID)
	if err != nil {
		return err
	}
	if processed {
		w.logger.Debug("Audit event already processed", zap.String("event_id", event.EventID))
		return nil
	}

	if err := w.store.CreateActivityLog(ctx, &models.ActivityLog{
		UserID:     event.ActorID,
		Action:     event.EventType,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		Details:    event.Details,
	}); err != nil {
		return err
	}

	if err := w.store.MarkEventProcessed(ctx, event.EventID, event.EventType); err != nil {
		return err
	}

	w.logger.Debug("Audit event persisted",
		zap.String("event_id", event.EventID),
		zap.String("event_type", event.EventType))
	return nil
}
