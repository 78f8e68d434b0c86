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

// CheckoutStore is the persistence surface the checkout service needs
type CheckoutStore interface {
	GetItemByID(ctx context.Context, id int64) (*models.InventoryItem, error)
	GetCheckoutByID(ctx context.Context, id int64) (*models.Checkout, error)
	ListOpenCheckouts(ctx context.Context, userID int64) ([]models.CheckoutWithDetails, error)
	ListCheckoutsByUser(ctx context.Context, userID int64) ([]models.CheckoutWithDetails, error)
	CreateCheckoutTx(ctx context.Context, checkout *models.Checkout, now time.Time) error
	CheckInTx(ctx context.Context, checkoutID int64, condition, notes string, now time.Time) (*models.Checkout, error)
}

// CheckoutService manages equipment custody outside the code path
type CheckoutService struct {
	store  CheckoutStore
	audit  Audit
	logger *zap.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(store CheckoutStore, audit Audit) *CheckoutService {
	return &CheckoutService{
		store:  store,
		audit:  audit,
		logger: util.GetLogger(),
	}
}

// DirectCheckoutInput carries a non-code checkout
type DirectCheckoutInput struct {
	ItemID   int64  `json:"item_id" binding:"required"`
	UserID   int64  `json:"user_id" binding:"required"`
	Quantity int    `json:"quantity"`
	DueDate  string `json:"due_date" binding:"required"`
	Notes    string `json:"notes"`
}

// DirectCheckout records custody without an authorization code. Staff/admin
// may check out to anyone; students only to themselves.
func (s *CheckoutService) DirectCheckout(ctx context.Context, actor models.Actor, in DirectCheckoutInput) (*models.Checkout, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.DirectCheckout")
	defer span.End()

	if !actor.IsStaff() && in.UserID != actor.UserID {
		return nil, apperr.Unauthorized("students may only check out equipment for themselves")
	}
	if in.Quantity == 0 {
		in.Quantity = 1
	}
	if in.Quantity < 0 {
		return nil, apperr.Validation("quantity must be positive")
	}

	dueDate, err := time.Parse("2006-01-02", in.DueDate)
	if err != nil {
		return nil, apperr.Validation("invalid due date format")
	}

	item, err := s.store.GetItemByID(ctx, in.ItemID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("item not found")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to load item", err)
	}
	if item.Status != models.ItemStatusAvailable {
		return nil, apperr.StateConflict("item is not available")
	}

	checkout := &models.Checkout{
		ItemID:   in.ItemID,
		UserID:   in.UserID,
		Quantity: in.Quantity,
		DueDate:  dueDate,
		Notes:    in.Notes,
	}
	err = s.store.CreateCheckoutTx(ctx, checkout, time.Now())
	if errors.Is(err, store.ErrInsufficientInventory) {
		util.InsufficientInventoryTotal.Inc()
		return nil, apperr.StateConflict("insufficient inventory available")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to check out equipment", err)
	}

	util.CheckoutsTotal.Inc()
	s.logger.Info("Equipment checked out",
		zap.Int64("checkout_id", checkout.ID),
		zap.Int64("item_id", in.ItemID),
		zap.Int64("user_id", in.UserID),
		zap.Int("quantity", in.Quantity))

	s.audit.Publish(ctx, actor.UserID, models.EventTypeCheckoutCreated, "checkouts", checkout.ID,
		fmt.Sprintf("Checked out %d x item #%d to user #%d", in.Quantity, in.ItemID, in.UserID))

	return checkout, nil
}

// CheckInInput carries a return
type CheckInInput struct {
	CheckoutID int64  `json:"checkout_id"`
	Condition  string `json:"condition"`
	Notes      string `json:"notes"`
}

// CheckIn closes an open checkout and restores its quantity to inventory.
// Students may only check in their own equipment.
func (s *CheckoutService) CheckIn(ctx context.Context, actor models.Actor, in CheckInInput) (*models.Checkout, error) {
	ctx, span := util.StartSpan(ctx, "CheckoutService.CheckIn")
	defer span.End()

	existing, err := s.store.GetCheckoutByID(ctx, in.CheckoutID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("checkout not found")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to load checkout", err)
	}
	if !actor.IsStaff() && existing.UserID != actor.UserID {
		return nil, apperr.Unauthorized("students may only check in their own equipment")
	}

	if in.Condition == "" {
		in.Condition = "good"
	}

	checkout, err := s.store.CheckInTx(ctx, in.CheckoutID, in.Condition, in.Notes, time.Now())
	if errors.Is(err, store.ErrCheckoutNotOpen) {
		return nil, apperr.StateConflict("equipment has already been returned")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to check in equipment", err)
	}

	util.CheckinsTotal.Inc()
	s.logger.Info("Equipment checked in",
		zap.Int64("checkout_id", checkout.ID),
		zap.Int64("item_id", checkout.ItemID),
		zap.String("condition", in.Condition))

	s.audit.Publish(ctx, actor.UserID, models.EventTypeCheckoutReturned, "checkouts", checkout.ID,
		fmt.Sprintf("Checked in %d x item #%d, condition: %s", checkout.Quantity, checkout.ItemID, in.Condition))

	return checkout, nil
}

// ListOpen returns currently checked-out equipment. Staff/admin see all
// users; students see their own.
func (s *CheckoutService) ListOpen(ctx context.Context, actor models.Actor) ([]models.CheckoutWithDetails, error) {
	userID := actor.UserID
	if actor.IsStaff() {
		userID = 0
	}
	checkouts, err := s.store.ListOpenCheckouts(ctx, userID)
	if err != nil {
		return nil, apperr.Persistence("failed to list checkouts", err)
	}
	return checkouts, nil
}

// History returns the caller's full checkout history
func (s *CheckoutService) History(ctx context.Context, actor models.Actor) ([]models.CheckoutWithDetails, error) {
	checkouts, err := s.store.ListCheckoutsByUser(ctx, actor.UserID)
	if err != nil {
		return nil, apperr.Persistence("failed to list checkout history", err)
	}
	return checkouts, nil
}
