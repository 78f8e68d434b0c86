package store

import (
	"context"

	"equipment-service/internal/models"
)

// CreateActivityLog inserts an audit trail row
func (s *Store) CreateActivityLog(ctx context.Context, log *models.ActivityLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO activity_logs (user_id, action, entity_type, entity_id, details)
		VALUES ($1, $2, $3, $4, $5)`,
		log.UserID, log.Action, log.EntityType, log.EntityID, log.Details)
	return err
}

// ListRecentActivity retrieves the latest audit trail rows
func (s *Store) ListRecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := s.db.SelectContext(ctx, &logs,
		"SELECT * FROM activity_logs ORDER BY created_at DESC LIMIT $1", limit)
	return logs, err
}

// IsEventProcessed checks if an audit event has already been persisted
func (s *Store) IsEventProcessed(ctx context.Context, eventID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM processed_events WHERE event_id = $1)", eventID)
	return exists, err
}

// MarkEventProcessed marks an audit event as persisted
func (s *Store) MarkEventProcessed(ctx context.Context, eventID, eventType string) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO processed_events (event_id, event_type) VALUES ($1, $2) ON CONFLICT (event_id) DO NOTHING",
		eventID, eventType)
	return err
}
