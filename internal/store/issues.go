package store

import (
	"context"

	"equipment-service/internal/models"
)

// CreateIssue inserts a new open issue report
func (s *Store) CreateIssue(ctx context.Context, issue *models.Issue) error {
	query := `
		INSERT INTO issues (item_id, user_id, type, severity, description, date_reported, status)
		VALUES ($1, $2, $3, $4, $5, NOW(), 'open')
		RETURNING id, date_reported, status, created_at`

	return s.db.GetContext(ctx, issue, query,
		issue.ItemID, issue.UserID, issue.Type, issue.Severity, issue.Description)
}

// ListIssues retrieves issues with reporter and item names. userID of 0
// lists for all users (staff view).
func (s *Store) ListIssues(ctx context.Context, userID int64) ([]models.IssueWithDetails, error) {
	query := `
		SELECT iss.*, u.first_name, u.last_name, i.name AS item_name
		FROM issues iss
		JOIN users u ON iss.user_id = u.id
		JOIN inventory i ON iss.item_id = i.id`
	args := []interface{}{}

	if userID != 0 {
		args = append(args, userID)
		query += " WHERE iss.user_id = $1"
	}
	query += " ORDER BY iss.created_at DESC"

	var issues []models.IssueWithDetails
	err := s.db.SelectContext(ctx, &issues, query, args...)
	return issues, err
}

// ResolveIssue marks an open issue as resolved
func (s *Store) ResolveIssue(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE issues SET status = 'resolved' WHERE id = $1 AND status = 'open'", id)
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
