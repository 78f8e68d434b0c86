package store

import (
	"context"

	"equipment-service/internal/models"
)

// CreateAnnouncement inserts a new active announcement
func (s *Store) CreateAnnouncement(ctx context.Context, a *models.Announcement) error {
	query := `
		INSERT INTO announcements (title, content, target_role, priority, status, created_by)
		VALUES ($1, $2, $3, $4, 'active', $5)
		RETURNING id, status, created_at`

	return s.db.GetContext(ctx, a, query,
		a.Title, a.Content, a.TargetRole, a.Priority, a.CreatedBy)
}

// ListAnnouncementsForRole retrieves active announcements targeting a role
// or everyone.
func (s *Store) ListAnnouncementsForRole(ctx context.Context, role string) ([]models.Announcement, error) {
	var announcements []models.Announcement
	err := s.db.SelectContext(ctx, &announcements, `
		SELECT * FROM announcements
		WHERE status = 'active' AND (target_role = $1 OR target_role = 'all')
		ORDER BY created_at DESC`, role)
	return announcements, err
}

// DeactivateAnnouncement retires an announcement
func (s *Store) DeactivateAnnouncement(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE announcements SET status = 'inactive' WHERE id = $1 AND status = 'active'", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
