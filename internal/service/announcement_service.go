package service

import (
	"context"
	"errors"

	"equipment-service/internal/apperr"
	"equipment-service/internal/models"
	"equipment-service/internal/redisclient"
	"equipment-service/internal/store"
	"equipment-service/internal/util"

	"go.uber.org/zap"
)

// AnnouncementStore is the persistence surface the announcement service needs
type AnnouncementStore interface {
	CreateAnnouncement(ctx context.Context, a *models.Announcement) error
	ListAnnouncementsForRole(ctx context.Context, role string) ([]models.Announcement, error)
	DeactivateAnnouncement(ctx context.Context, id int64) error
}

// AnnouncementService manages role-targeted announcements. Per-user
// dismissals live in Redis, not the relational store.
type AnnouncementService struct {
	store  AnnouncementStore
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewAnnouncementService creates a new announcement service
func NewAnnouncementService(store AnnouncementStore, redis *redisclient.Client) *AnnouncementService {
	return &AnnouncementService{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// CreateAnnouncementInput carries a new announcement
type CreateAnnouncementInput struct {
	Title      string `json:"title" binding:"required"`
	Content    string `json:"content" binding:"required"`
	TargetRole string `json:"target_role"`
	Priority   string `json:"priority"`
}

func validTargetRole(role string) bool {
	switch role {
	case "all", models.RoleStudent, models.RoleStaff, models.RoleAdmin:
		return true
	}
	return false
}

func validPriority(priority string) bool {
	switch priority {
	case "low", "normal", "high", "urgent":
		return true
	}
	return false
}

// Create publishes a new announcement; staff/admin only
func (s *AnnouncementService) Create(ctx context.Context, actor models.Actor, in CreateAnnouncementInput) (*models.Announcement, error) {
	if !actor.IsStaff() {
		return nil, apperr.Unauthorized("insufficient permissions")
	}
	if in.TargetRole == "" {
		in.TargetRole = "all"
	}
	if !validTargetRole(in.TargetRole) {
		return nil, apperr.Validation("invalid target role")
	}
	if in.Priority == "" {
		in.Priority = "normal"
	}
	if !validPriority(in.Priority) {
		return nil, apperr.Validation("invalid priority")
	}

	a := &models.Announcement{
		Title:      in.Title,
		Content:    in.Content,
		TargetRole: in.TargetRole,
		Priority:   in.Priority,
		CreatedBy:  actor.UserID,
	}
	if err := s.store.CreateAnnouncement(ctx, a); err != nil {
		return nil, apperr.Persistence("failed to create announcement", err)
	}
	return a, nil
}

// List returns active announcements for the caller's role, filtering out
// the ones the caller dismissed. A Redis failure degrades to the unfiltered
// list rather than failing the read.
func (s *AnnouncementService) List(ctx context.Context, actor models.Actor) ([]models.Announcement, error) {
	announcements, err := s.store.ListAnnouncementsForRole(ctx, actor.Role)
	if err != nil {
		return nil, apperr.Persistence("failed to list announcements", err)
	}

	dismissed, err := s.redis.DismissedAnnouncements(ctx, actor.UserID)
	if err != nil {
		s.logger.Warn("Failed to load dismissed announcements", zap.Error(err))
		return announcements, nil
	}

	visible := announcements[:0]
	for _, a := range announcements {
		if !dismissed[a.ID] {
			visible = append(visible, a)
		}
	}
	return visible, nil
}

// Dismiss hides an announcement for the caller
func (s *AnnouncementService) Dismiss(ctx context.Context, actor models.Actor, announcementID int64) error {
	if err := s.redis.DismissAnnouncement(ctx, actor.UserID, announcementID); err != nil {
		return apperr.Persistence("failed to dismiss announcement", err)
	}
	return nil
}

// Deactivate retires an announcement; staff/admin only
func (s *AnnouncementService) Deactivate(ctx context.Context, actor models.Actor, id int64) error {
	if !actor.IsStaff() {
		return apperr.Unauthorized("insufficient permissions")
	}
	err := s.store.DeactivateAnnouncement(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("announcement not found")
	}
	if err != nil {
		return apperr.Persistence("failed to deactivate announcement", err)
	}
	return nil
}
