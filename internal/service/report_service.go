package service

import (
	"context"

	"equipment-service/internal/apperr"
	"equipment-service/internal/models"
)

// ReportStore is the persistence surface the report service needs
type ReportStore interface {
	GetDashboardStats(ctx context.Context) (*models.DashboardStats, error)
	ListRecentActivity(ctx context.Context, limit int) ([]models.ActivityLog, error)
}

// ReportService serves the staff dashboard
type ReportService struct {
	store ReportStore
}

// NewReportService creates a new report service
func NewReportService(store ReportStore) *ReportService {
	return &ReportService{store: store}
}

// Dashboard returns the operational counters shown on the staff dashboard
func (s *ReportService) Dashboard(ctx context.Context, actor models.Actor) (*models.DashboardStats, error) {
	if !actor.IsStaff() {
		return nil, apperr.Unauthorized("insufficient permissions")
	}
	stats, err := s.store.GetDashboardStats(ctx)
	if err != nil {
		return nil, apperr.Persistence("failed to load dashboard stats", err)
	}
	return stats, nil
}

// RecentActivity returns the latest audit log entries
func (s *ReportService) RecentActivity(ctx context.Context, actor models.Actor, limit int) ([]models.ActivityLog, error) {
	if !actor.IsStaff() {
		return nil, apperr.Unauthorized("insufficient permissions")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	logs, err := s.store.ListRecentActivity(ctx, limit)
	if err != nil {
		return nil, apperr.Persistence("failed to load recent activity", err)
	}
	return logs, nil
}
