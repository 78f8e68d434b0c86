package service

import (
	"context"
	"errors"
	"fmt"

	"equipment-service/internal/apperr"
	"equipment-service/internal/models"
	"equipment-service/internal/store"
	"equipment-service/internal/util"

	"go.uber.org/zap"
)

// IssueStore is the persistence surface the issue service needs
type IssueStore interface {
	GetItemByID(ctx context.Context, id int64) (*models.InventoryItem, error)
	CreateIssue(ctx context.Context, issue *models.Issue) error
	ListIssues(ctx context.Context, userID int64) ([]models.IssueWithDetails, error)
	ResolveIssue(ctx context.Context, id int64) error
}

// IssueService manages equipment issue reports
type IssueService struct {
	store  IssueStore
	audit  Audit
	logger *zap.Logger
}

// NewIssueService creates a new issue service
func NewIssueService(store IssueStore, audit Audit) *IssueService {
	return &IssueService{
		store:  store,
		audit:  audit,
		logger: util.GetLogger(),
	}
}

// ReportIssueInput carries a new issue report
type ReportIssueInput struct {
	ItemID      int64  `json:"item_id" binding:"required"`
	Type        string `json:"type"`
	Severity    string `json:"severity"`
	Description string `json:"description" binding:"required"`
}

func validSeverity(severity string) bool {
	switch severity {
	case "low", "medium", "high", "critical":
		return true
	}
	return false
}

// Report files a new open issue; any authenticated user
func (s *IssueService) Report(ctx context.Context, actor models.Actor, in ReportIssueInput) (*models.Issue, error) {
	if in.Type == "" {
		in.Type = "other"
	}
	if in.Severity == "" {
		in.Severity = "low"
	}
	if !validSeverity(in.Severity) {
		return nil, apperr.Validation("invalid severity")
	}
	if in.Description == "" {
		return nil, apperr.Validation("description is required")
	}

	if _, err := s.store.GetItemByID(ctx, in.ItemID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("item not found")
		}
		return nil, apperr.Persistence("failed to load item", err)
	}

	issue := &models.Issue{
		ItemID:      in.ItemID,
		UserID:      actor.UserID,
		Type:        in.Type,
		Severity:    in.Severity,
		Description: in.Description,
	}
	if err := s.store.CreateIssue(ctx, issue); err != nil {
		return nil, apperr.Persistence("failed to report issue", err)
	}

	s.logger.Info("Issue reported",
		zap.Int64("issue_id", issue.ID),
		zap.Int64("item_id", in.ItemID),
		zap.String("severity", in.Severity))

	s.audit.Publish(ctx, actor.UserID, models.EventTypeIssueReported, "issues", issue.ID,
		fmt.Sprintf("Reported %s issue on item #%d", in.Severity, in.ItemID))
	return issue, nil
}

// List returns issues. Staff/admin see all; others only their own reports.
func (s *IssueService) List(ctx context.Context, actor models.Actor) ([]models.IssueWithDetails, error) {
	userID := actor.UserID
	if actor.IsStaff() {
		userID = 0
	}
	issues, err := s.store.ListIssues(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("failed to list issues", err)
	}
	return issues, nil
}

// Resolve marks an open issue resolved; staff/admin only
func (s *IssueService) Resolve(ctx context.Context, actor models.Actor, issueID int64) error {
	if !actor.IsStaff() {
		return apperr.Unauthorized("insufficient permissions")
	}

	err := s.store.ResolveIssue(ctx, issueID)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("issue not found or already resolved")
	}
	if err != nil {
		return apperr.Persistence("failed to resolve issue", err)
	}

	s.audit.Publish(ctx, actor.UserID, models.EventTypeIssueResolved, "issues", issueID, "Issue resolved")
	return nil
}
