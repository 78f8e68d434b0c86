package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"equipment-service/internal/models"
)

// GetCheckoutByID retrieves a checkout by ID
func (s *Store) GetCheckoutByID(ctx context.Context, id int64) (*models.Checkout, error) {
	var c models.Checkout
	err := s.db.GetContext(ctx, &c, "SELECT * FROM checkouts WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListOpenCheckouts retrieves currently checked-out equipment with user and
// item names. userID of 0 lists for all users.
func (s *Store) ListOpenCheckouts(ctx context.Context, userID int64) ([]models.CheckoutWithDetails, error) {
	query := `
		SELECT c.*, u.first_name, u.last_name, i.name AS item_name
		FROM checkouts c
		JOIN users u ON c.user_id = u.id
		JOIN inventory i ON c.item_id = i.id
		WHERE c.status = 'checked_out'`
	args := []interface{}{}

	if userID != 0 {
		args = append(args, userID)
		query += " AND c.user_id = $1"
	}
	query += " ORDER BY c.date_out DESC"

	var checkouts []models.CheckoutWithDetails
	err := s.db.SelectContext(ctx, &checkouts, query, args...)
	return checkouts, err
}

// ListCheckoutsByUser retrieves a user's full checkout history
func (s *Store) ListCheckoutsByUser(ctx context.Context, userID int64) ([]models.CheckoutWithDetails, error) {
	var checkouts []models.CheckoutWithDetails
	err := s.db.SelectContext(ctx, &checkouts, `
		SELECT c.*, u.first_name, u.last_name, i.name AS item_name
		FROM checkouts c
		JOIN users u ON c.user_id = u.id
		JOIN inventory i ON c.item_id = i.id
		WHERE c.user_id = $1
		ORDER BY c.date_out DESC`, userID)
	return checkouts, err
}

// CreateCheckoutTx records a direct (non-code) checkout and deducts the
// inventory quantity in one transaction.
func (s *Store) CreateCheckoutTx(ctx context.Context, checkout *models.Checkout, now time.Time) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := deductInventory(ctx, tx, checkout.ItemID, checkout.Quantity); err != nil {
		return err
	}

	err = tx.GetContext(ctx, checkout, `
		INSERT INTO checkouts (item_id, user_id, quantity, date_out, due_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, 'checked_out', $6)
		RETURNING id, date_out, status, created_at`,
		checkout.ItemID, checkout.UserID, checkout.Quantity, now, checkout.DueDate, checkout.Notes)
	if err != nil {
		return fmt.Errorf("failed to create checkout: %w", err)
	}

	return tx.Commit()
}

// CheckInTx closes an open checkout and restores the inventory quantity in
// one transaction. Returns the closed checkout.
func (s *Store) CheckInTx(ctx context.Context, checkoutID int64, condition, notes string, now time.Time) (*models.Checkout, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var c models.Checkout
	err = tx.GetContext(ctx, &c, "SELECT * FROM checkouts WHERE id = $1 FOR UPDATE", checkoutID)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock checkout: %w", err)
	}
	if c.Status != models.CheckoutStatusOut {
		return nil, ErrCheckoutNotOpen
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE checkouts
		SET date_in = $1, condition_in = $2, notes = $3, status = 'returned'
		WHERE id = $4`,
		now, condition, notes, checkoutID)
	if err != nil {
		return nil, fmt.Errorf("failed to close checkout: %w", err)
	}

	if err := restoreInventory(ctx, tx, c.ItemID, c.Quantity); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	c.Status = models.CheckoutStatusReturned
	c.DateIn = sql.NullTime{Time: now, Valid: true}
	c.ConditionIn = sql.NullString{String: condition, Valid: true}
	return &c, nil
}
