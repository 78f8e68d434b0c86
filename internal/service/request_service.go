package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"equipment-service/internal/apperr"
	"equipment-service/internal/models"
	"equipment-service/internal/store"
	"equipment-service/internal/util"

	"go.uber.org/zap"
)

// RequestStore is the persistence surface the request service needs
type RequestStore interface {
	GetItemByID(ctx context.Context, id int64) (*models.InventoryItem, error)
	CreateRequest(ctx context.Context, req *models.Request) error
	GetRequestByID(ctx context.Context, id int64) (*models.Request, error)
	ListActiveRequests(ctx context.Context, userID int64, search string, limit int) ([]models.RequestWithDetails, error)
	UpdateRequestStatus(ctx context.Context, requestID int64, from, to string) error
	CancelRequestTx(ctx context.Context, requestID int64) (int64, error)
	ApproveRequestTx(ctx context.Context, requestID int64, code string, expiresAt time.Time, createdBy int64) (*models.Request, *models.AuthorizationCode, error)
}

// CodeIssuer mints unique authorization code values. Implemented by CodeService.
type CodeIssuer interface {
	GenerateUnique(ctx context.Context) (string, error)
	Expiry() time.Duration
}

// RequestService manages the request lifecycle
type RequestService struct {
	store       RequestStore
	issuer      CodeIssuer
	audit       Audit
	maxQuantity int
	logger      *zap.Logger
}

// NewRequestService creates a new request service
func NewRequestService(store RequestStore, issuer CodeIssuer, audit Audit, maxQuantity int) *RequestService {
	return &RequestService{
		store:       store,
		issuer:      issuer,
		audit:       audit,
		maxQuantity: maxQuantity,
		logger:      util.GetLogger(),
	}
}

// CreateRequestInput carries the fields of a new request
type CreateRequestInput struct {
	ItemID   int64  `json:"item_id" binding:"required"`
	Quantity int    `json:"quantity" binding:"required"`
	NeededBy string `json:"needed_by" binding:"required"`
	Notes    string `json:"notes" binding:"required"`
}

// Create submits a new pending request. Students only; no inventory is
// touched at this point.
func (s *RequestService) Create(ctx context.Context, actor models.Actor, in CreateRequestInput) (*models.Request, error) {
	ctx, span := util.StartSpan(ctx, "RequestService.Create")
	defer span.End()

	if actor.Role != models.RoleStudent {
		return nil, apperr.Unauthorized("only students can make requests")
	}
	if in.Quantity < 1 || in.Quantity > s.maxQuantity {
		return nil, apperr.Validation("quantity must be between 1 and %d", s.maxQuantity)
	}
	if len(in.Notes) < 10 || len(in.Notes) > 500 {
		return nil, apperr.Validation("purpose must be between 10 and 500 characters")
	}

	neededBy, err := time.Parse("2006-01-02", in.NeededBy)
	if err != nil {
		return nil, apperr.Validation("invalid date format")
	}
	today := time.Now().Truncate(24 * time.Hour)
	if neededBy.Before(today) {
		return nil, apperr.Validation("needed by date cannot be in the past")
	}

	item, err := s.store.GetItemByID(ctx, in.ItemID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("item not found")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to load item", err)
	}
	if item.Status != models.ItemStatusAvailable {
		return nil, apperr.StateConflict("item is no longer available")
	}

	req := &models.Request{
		ItemID:   in.ItemID,
		UserID:   actor.UserID,
		Quantity: in.Quantity,
		NeededBy: neededBy,
		Notes:    in.Notes,
	}
	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, apperr.Persistence("failed to submit request", err)
	}

	util.RequestsCreatedTotal.Inc()
	s.logger.Info("Request created",
		zap.Int64("request_id", req.ID),
		zap.Int64("item_id", req.ItemID),
		zap.Int64("user_id", actor.UserID))

	s.audit.Publish(ctx, actor.UserID, models.EventTypeRequestCreated, "requests", req.ID,
		fmt.Sprintf("Requested %d x item #%d, needed by %s", req.Quantity, req.ItemID, in.NeededBy))

	return req, nil
}

// TransitionResult reports the outcome of a status transition. Code is set
// only on approval, so the approver can relay it to the student.
type TransitionResult struct {
	Request *models.Request           `json:"request"`
	Code    *models.AuthorizationCode `json:"authorization_code,omitempty"`
}

// Transition moves a request to a new status. Approval mints the
// authorization code inside the same transaction as the status change, so a
// failure leaves the request pending.
func (s *RequestService) Transition(ctx context.Context, actor models.Actor, requestID int64, newStatus string) (*TransitionResult, error) {
	ctx, span := util.StartSpan(ctx, "RequestService.Transition")
	defer span.End()

	switch newStatus {
	case models.RequestStatusApproved, models.RequestStatusRejected:
		if !actor.IsStaff() {
			return nil, apperr.Unauthorized("unauthorized to update request status")
		}
	case models.RequestStatusCancelled:
	default:
		return nil, apperr.Validation("invalid status")
	}

	if newStatus == models.RequestStatusCancelled {
		return s.cancel(ctx, actor, requestID)
	}
	if newStatus == models.RequestStatusRejected {
		return s.reject(ctx, actor, requestID)
	}
	return s.approve(ctx, actor, requestID)
}

func (s *RequestService) cancel(ctx context.Context, actor models.Actor, requestID int64) (*TransitionResult, error) {
	req, err := s.store.GetRequestByID(ctx, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("request not found")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to load request", err)
	}

	if actor.IsStaff() {
		codeID, err := s.store.CancelRequestTx(ctx, requestID)
		if err != nil {
			if errors.Is(err, store.ErrRequestNotPending) {
				return nil, apperr.StateConflict("request is already in a terminal state")
			}
			return nil, apperr.Persistence("failed to cancel request", err)
		}
		if codeID != 0 {
			util.CodesCancelledTotal.Inc()
			s.audit.Publish(ctx, actor.UserID, models.EventTypeCodeCancelled, "authorization_codes", codeID,
				fmt.Sprintf("Authorization code voided by cancellation of request #%d", requestID))
		}
	} else {
		if req.UserID != actor.UserID {
			return nil, apperr.Unauthorized("unauthorized to cancel this request")
		}
		if req.Status != models.RequestStatusPending {
			return nil, apperr.StateConflict("can only cancel pending requests")
		}
		if err := s.store.UpdateRequestStatus(ctx, requestID, models.RequestStatusPending, models.RequestStatusCancelled); err != nil {
			if errors.Is(err, store.ErrRequestNotPending) {
				return nil, apperr.StateConflict("can only cancel pending requests")
			}
			return nil, apperr.Persistence("failed to cancel request", err)
		}
	}

	util.RequestTransitionsTotal.WithLabelValues(models.RequestStatusCancelled).Inc()
	s.audit.Publish(ctx, actor.UserID, models.EventTypeRequestCancelled, "requests", requestID,
		"Request cancelled")

	req.Status = models.RequestStatusCancelled
	return &TransitionResult{Request: req}, nil
}

func (s *RequestService) reject(ctx context.Context, actor models.Actor, requestID int64) (*TransitionResult, error) {
	err := s.store.UpdateRequestStatus(ctx, requestID, models.RequestStatusPending, models.RequestStatusRejected)
	if errors.Is(err, store.ErrRequestNotPending) {
		return nil, apperr.StateConflict("request is not pending")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to reject request", err)
	}

	util.RequestTransitionsTotal.WithLabelValues(models.RequestStatusRejected).Inc()
	s.audit.Publish(ctx, actor.UserID, models.EventTypeRequestRejected, "requests", requestID,
		"Request rejected")

	req, err := s.store.GetRequestByID(ctx, requestID)
	if err != nil {
		return nil, apperr.Persistence("failed to load request", err)
	}
	return &TransitionResult{Request: req}, nil
}

func (s *RequestService) approve(ctx context.Context, actor models.Actor, requestID int64) (*TransitionResult, error) {
	code, err := s.issuer.GenerateUnique(ctx)
	if err != nil {
		return nil, apperr.Persistence("failed to generate authorization code", err)
	}
	expiresAt := time.Now().Add(s.issuer.Expiry())

	req, authCode, err := s.store.ApproveRequestTx(ctx, requestID, code, expiresAt, actor.UserID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return nil, apperr.NotFound("request not found")
	case errors.Is(err, store.ErrRequestNotPending):
		return nil, apperr.StateConflict("request is not pending")
	case errors.Is(err, store.ErrInsufficientInventory):
		util.InsufficientInventoryTotal.Inc()
		return nil, apperr.StateConflict("insufficient inventory")
	case errors.Is(err, store.ErrCodeAlreadyIssued):
		return nil, apperr.StateConflict("authorization code already exists for this request")
	case err != nil:
		return nil, apperr.Persistence("failed to approve request", err)
	}

	util.RequestTransitionsTotal.WithLabelValues(models.RequestStatusApproved).Inc()
	util.CodesIssuedTotal.Inc()
	s.logger.Info("Request approved",
		zap.Int64("request_id", requestID),
		zap.String("code", authCode.Code),
		zap.Time("expires_at", authCode.ExpiresAt))

	s.audit.Publish(ctx, actor.UserID, models.EventTypeRequestApproved, "requests", requestID,
		"Request approved")
	s.audit.Publish(ctx, actor.UserID, models.EventTypeCodeIssued, "authorization_codes", authCode.ID,
		fmt.Sprintf("Generated authorization code %s for request #%d - expires %s",
			authCode.Code, requestID, expiresAt.Format(time.RFC3339)))

	return &TransitionResult{Request: req, Code: authCode}, nil
}

// Get returns one request; students may only view their own
func (s *RequestService) Get(ctx context.Context, actor models.Actor, requestID int64) (*models.Request, error) {
	req, err := s.store.GetRequestByID(ctx, requestID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("request not found")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to load request", err)
	}
	if actor.Role == models.RoleStudent && req.UserID != actor.UserID {
		return nil, apperr.Unauthorized("unauthorized")
	}
	return req, nil
}

// List returns active requests with joined details. Staff/admin see all
// users; students see their own.
func (s *RequestService) List(ctx context.Context, actor models.Actor, search string, limit int) ([]models.RequestWithDetails, error) {
	userID := actor.UserID
	if actor.IsStaff() {
		userID = 0
	}
	requests, err := s.store.ListActiveRequests(ctx, userID, search, limit)
	if err != nil {
		return nil, apperr.Persistence("failed to list requests", err)
	}
	return requests, nil
}
