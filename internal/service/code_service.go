package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"equipment-service/internal/apperr"
	"equipment-service/internal/models"
	"equipment-service/internal/store"
	"equipment-service/internal/util"

	"go.uber.org/zap"
)

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Audit publishes audit events best-effort. Implemented by broker.AuditPublisher.
type Audit interface {
	Publish(ctx context.Context, actorID int64, eventType, entityType string, entityID int64, details string)
}

// CodeStore is the persistence surface the code service needs
type CodeStore interface {
	GetCodeDetails(ctx context.Context, code string) (*models.CodeWithDetails, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	ExpireCode(ctx context.Context, code string) (bool, error)
	ExpireOverdueCodes(ctx context.Context) (int64, error)
	ListCodes(ctx context.Context) ([]models.CodeWithDetails, error)
	ListCodesByUser(ctx context.Context, userID int64) ([]models.CodeWithDetails, error)
	CancelCode(ctx context.Context, code string) (int64, error)
	RedeemCodeTx(ctx context.Context, code string, notes string, now time.Time) (*models.Checkout, error)
}

// CodeService issues, validates and redeems authorization codes
type CodeService struct {
	store  CodeStore
	audit  Audit
	length int
	expiry time.Duration
	logger *zap.Logger
}

// NewCodeService creates a new code service
func NewCodeService(store CodeStore, audit Audit, length int, expiry time.Duration) *CodeService {
	return &CodeService{
		store:  store,
		audit:  audit,
		length: length,
		expiry: expiry,
		logger: util.GetLogger(),
	}
}

// Expiry returns the configured code lifetime
func (s *CodeService) Expiry() time.Duration {
	return s.expiry
}

// GenerateUnique mints a fresh code value absent from the table. Collisions
// on an 8-char [0-9A-Z] code are astronomically rare; the loop handles them
// anyway.
func (s *CodeService) GenerateUnique(ctx context.Context) (string, error) {
	for {
		code, err := randomCode(s.length)
		if err != nil {
			return "", fmt.Errorf("failed to generate code: %w", err)
		}
		exists, err := s.store.CodeExists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check code uniqueness: %w", err)
		}
		if !exists {
			return code, nil
		}
	}
}

func randomCode(length int) (string, error) {
	max := big.NewInt(int64(len(codeAlphabet)))
	buf := make([]byte, length)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = codeAlphabet[n.Int64()]
	}
	return string(buf), nil
}

// Validate looks up a code and returns the joined preview for checkout
// auto-fill. A code found past its expiry is persisted as expired before the
// error returns, so this nominal read can perform the one-way
// active-to-expired transition.
func (s *CodeService) Validate(ctx context.Context, actor models.Actor, code string) (*models.CodeWithDetails, error) {
	ctx, span := util.StartSpan(ctx, "CodeService.Validate")
	defer span.End()

	if code == "" {
		return nil, apperr.Validation("authorization code is required")
	}

	details, err := s.store.GetCodeDetails(ctx, code)
	if errors.Is(err, store.ErrNotFound) {
		util.CodeValidationsFailed.WithLabelValues("invalid").Inc()
		return nil, apperr.NotFound("invalid authorization code")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to look up authorization code", err)
	}

	// Status precedence comes before the expiry check
	switch details.Status {
	case models.CodeStatusActive:
	case models.CodeStatusUsed:
		util.CodeValidationsFailed.WithLabelValues("used").Inc()
		return nil, apperr.StateConflict("authorization code has already been used")
	case models.CodeStatusCancelled:
		util.CodeValidationsFailed.WithLabelValues("cancelled").Inc()
		return nil, apperr.StateConflict("authorization code has been cancelled")
	case models.CodeStatusExpired:
		util.CodeValidationsFailed.WithLabelValues("expired").Inc()
		return nil, apperr.StateConflict("authorization code has expired")
	default:
		util.CodeValidationsFailed.WithLabelValues("not_active").Inc()
		return nil, apperr.StateConflict("authorization code is not active")
	}

	if time.Now().After(details.ExpiresAt) {
		flipped, err := s.store.ExpireCode(ctx, code)
		if err != nil {
			return nil, apperr.Persistence("failed to expire authorization code", err)
		}
		if flipped {
			util.CodesExpiredTotal.Inc()
			s.audit.Publish(ctx, actor.UserID, models.EventTypeCodeExpired, "authorization_codes", details.ID,
				fmt.Sprintf("Authorization code %s expired at validation", code))
		}
		util.CodeValidationsFailed.WithLabelValues("expired").Inc()
		return nil, apperr.StateConflict("authorization code has expired")
	}

	if actor.Role == models.RoleStudent && details.UserID != actor.UserID {
		util.CodeValidationsFailed.WithLabelValues("unauthorized").Inc()
		return nil, apperr.Unauthorized("you are not authorized to use this code")
	}

	return details, nil
}

// Redeem exchanges an active code for a checkout. Validation is repeated
// inside the store transaction, so a concurrent redemption of the same code
// fails cleanly.
func (s *CodeService) Redeem(ctx context.Context, actor models.Actor, code, notes string) (*models.Checkout, error) {
	ctx, span := util.StartSpan(ctx, "CodeService.Redeem")
	defer span.End()

	start := time.Now()
	defer func() {
		util.RedeemLatency.Observe(time.Since(start).Seconds())
	}()

	details, err := s.Validate(ctx, actor, code)
	if err != nil {
		return nil, err
	}

	checkout, err := s.store.RedeemCodeTx(ctx, code, notes, time.Now())
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrCodeNotActive):
		return nil, apperr.StateConflict("invalid or inactive authorization code")
	case errors.Is(err, store.ErrCodeExpired):
		util.CodesExpiredTotal.Inc()
		return nil, apperr.StateConflict("authorization code has expired")
	case errors.Is(err, store.ErrRequestNotPending):
		return nil, apperr.StateConflict("the request behind this code is no longer approved")
	case errors.Is(err, store.ErrInsufficientInventory):
		util.InsufficientInventoryTotal.Inc()
		return nil, apperr.StateConflict("insufficient inventory available for checkout")
	case err != nil:
		return nil, apperr.Persistence("failed to redeem authorization code", err)
	}

	util.CodesRedeemedTotal.Inc()
	util.CheckoutsTotal.Inc()
	s.logger.Info("Authorization code redeemed",
		zap.String("code", code),
		zap.Int64("checkout_id", checkout.ID),
		zap.Int64("request_id", details.RequestID))

	s.audit.Publish(ctx, actor.UserID, models.EventTypeCodeRedeemed, "checkouts", checkout.ID,
		fmt.Sprintf("Used authorization code %s for checkout - request #%d", code, details.RequestID))

	return checkout, nil
}

// Cancel cancels an active code. Staff/admin only; nothing was physically
// reserved, so inventory is untouched.
func (s *CodeService) Cancel(ctx context.Context, actor models.Actor, code, reason string) error {
	ctx, span := util.StartSpan(ctx, "CodeService.Cancel")
	defer span.End()

	if !actor.IsStaff() {
		return apperr.Unauthorized("insufficient permissions")
	}
	if code == "" {
		return apperr.Validation("authorization code is required")
	}
	if reason == "" {
		reason = "Cancelled by admin"
	}

	codeID, err := s.store.CancelCode(ctx, code)
	if errors.Is(err, store.ErrCodeNotActive) {
		return apperr.StateConflict("authorization code not found or already processed")
	}
	if err != nil {
		return apperr.Persistence("failed to cancel authorization code", err)
	}

	util.CodesCancelledTotal.Inc()
	s.audit.Publish(ctx, actor.UserID, models.EventTypeCodeCancelled, "authorization_codes", codeID,
		fmt.Sprintf("Cancelled authorization code %s - reason: %s", code, reason))
	return nil
}

// List returns all codes with details; staff/admin only. Overdue active
// codes are bulk-expired first so the view never shows a stale status.
func (s *CodeService) List(ctx context.Context, actor models.Actor) ([]models.CodeWithDetails, error) {
	if !actor.IsStaff() {
		return nil, apperr.Unauthorized("insufficient permissions")
	}

	expired, err := s.store.ExpireOverdueCodes(ctx)
	if err != nil {
		return nil, apperr.Persistence("failed to expire overdue codes", err)
	}
	if expired > 0 {
		util.CodesExpiredTotal.Add(float64(expired))
	}

	codes, err := s.store.ListCodes(ctx)
	if err != nil {
		return nil, apperr.Persistence("failed to list authorization codes", err)
	}
	return codes, nil
}

// MyCodes returns the caller's codes with details
func (s *CodeService) MyCodes(ctx context.Context, actor models.Actor) ([]models.CodeWithDetails, error) {
	codes, err := s.store.ListCodesByUser(ctx, actor.UserID)
	if err != nil {
		return nil, apperr.Persistence("failed to list authorization codes", err)
	}
	return codes, nil
}
