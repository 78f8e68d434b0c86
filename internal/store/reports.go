package store

import (
	"context"

	"equipment-service/internal/models"
)

// GetDashboardStats aggregates counts for the admin dashboard in one round
// trip.
func (s *Store) GetDashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	var stats models.DashboardStats
	err := s.db.GetContext(ctx, &stats, `
		SELECT
			COALESCE((SELECT SUM(quantity) FROM inventory), 0)                                    AS total_items,
			COALESCE((SELECT SUM(quantity) FROM inventory WHERE status = 'available'), 0)         AS available_items,
			(SELECT COUNT(*) FROM inventory)                                                      AS total_equipment_types,
			(SELECT COUNT(*) FROM requests WHERE status = 'pending')                              AS pending_requests,
			(SELECT COUNT(*) FROM requests WHERE status = 'approved')                             AS approved_requests,
			(SELECT COUNT(*) FROM authorization_codes WHERE status = 'active')                    AS active_codes,
			(SELECT COUNT(*) FROM checkouts WHERE status = 'checked_out')                         AS open_checkouts,
			(SELECT COUNT(*) FROM issues WHERE status = 'open')                                   AS open_issues`)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}
