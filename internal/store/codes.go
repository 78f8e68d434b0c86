package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"equipment-service/internal/models"
)

const codeDetailsQuery = `
	SELECT ac.*, r.quantity AS request_quantity, r.needed_by AS request_due_date,
	       u.first_name, u.last_name, i.name AS item_name, i.quantity AS available_quantity
	FROM authorization_codes ac
	JOIN requests r ON ac.request_id = r.id
	JOIN users u ON ac.user_id = u.id
	JOIN inventory i ON ac.item_id = i.id`

// GetCodeDetails retrieves an authorization code joined with its request,
// requester and item.
func (s *Store) GetCodeDetails(ctx context.Context, code string) (*models.CodeWithDetails, error) {
	var details models.CodeWithDetails
	err := s.db.GetContext(ctx, &details, codeDetailsQuery+" WHERE ac.code = $1", code)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &details, nil
}

// CodeExists reports whether a code value is already taken
func (s *Store) CodeExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists,
		"SELECT EXISTS(SELECT 1 FROM authorization_codes WHERE code = $1)", code)
	return exists, err
}

// ExpireCode lazily marks a single overdue code as expired. The conditional
// update keeps concurrent readers from double-reporting the transition.
// Returns true if this call performed the transition.
func (s *Store) ExpireCode(ctx context.Context, code string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE authorization_codes SET status = 'expired'
		WHERE code = $1 AND status = 'active' AND expires_at < NOW()`,
		code)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ExpireOverdueCodes bulk-expires all overdue active codes. Called from list
// views, mirroring the lazy-expiry policy.
func (s *Store) ExpireOverdueCodes(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE authorization_codes SET status = 'expired'
		WHERE status = 'active' AND expires_at < NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ListCodes retrieves all authorization codes with details (staff view)
func (s *Store) ListCodes(ctx context.Context) ([]models.CodeWithDetails, error) {
	var codes []models.CodeWithDetails
	err := s.db.SelectContext(ctx, &codes, codeDetailsQuery+" ORDER BY ac.created_at DESC")
	return codes, err
}

// ListCodesByUser retrieves a user's authorization codes with details
func (s *Store) ListCodesByUser(ctx context.Context, userID int64) ([]models.CodeWithDetails, error) {
	var codes []models.CodeWithDetails
	err := s.db.SelectContext(ctx, &codes,
		codeDetailsQuery+" WHERE ac.user_id = $1 ORDER BY ac.created_at DESC", userID)
	return codes, err
}

// CancelCode cancels an active authorization code and returns its id.
// Returns ErrCodeNotActive when the code is absent or already terminal.
func (s *Store) CancelCode(ctx context.Context, code string) (int64, error) {
	var id int64
	err := s.db.GetContext(ctx, &id, `
		UPDATE authorization_codes SET status = 'cancelled'
		WHERE code = $1 AND status = 'active'
		RETURNING id`, code)
	if err == sql.ErrNoRows {
		return 0, ErrCodeNotActive
	}
	if err != nil {
		return 0, err
	}
	return id, nil
}

// RedeemCodeTx exchanges an active authorization code for a checkout. All
// writes commit atomically: the inventory deduction, the checkout row, the
// code transition to used and the request transition to completed. The
// completion update is conditional on the request still being approved, so a
// request cancelled out from under a still-active code never flips to
// completed. An overdue code is persisted as expired before the error
// returns.
func (s *Store) RedeemCodeTx(ctx context.Context, code string, notes string, now time.Time) (*models.Checkout, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var ac models.AuthorizationCode
	err = tx.GetContext(ctx, &ac,
		"SELECT * FROM authorization_codes WHERE code = $1 FOR UPDATE", code)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock authorization code: %w", err)
	}
	if ac.Status != models.CodeStatusActive {
		return nil, ErrCodeNotActive
	}

	if now.After(ac.ExpiresAt) {
		_, err = tx.ExecContext(ctx,
			"UPDATE authorization_codes SET status = 'expired' WHERE id = $1 AND status = 'active'", ac.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to expire authorization code: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return nil, err
		}
		return nil, ErrCodeExpired
	}

	var req models.Request
	err = tx.GetContext(ctx, &req, "SELECT * FROM requests WHERE id = $1", ac.RequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to load request: %w", err)
	}

	if err := deductInventory(ctx, tx, ac.ItemID, req.Quantity); err != nil {
		return nil, err
	}

	checkout := models.Checkout{
		ItemID:   ac.ItemID,
		UserID:   ac.UserID,
		Quantity: req.Quantity,
		DueDate:  req.NeededBy,
		Notes:    notes,
	}
	err = tx.GetContext(ctx, &checkout, `
		INSERT INTO checkouts (item_id, user_id, quantity, date_out, due_date, status, notes, authorization_code, request_id)
		VALUES ($1, $2, $3, $4, $5, 'checked_out', $6, $7, $8)
		RETURNING id, date_out, status, created_at`,
		ac.ItemID, ac.UserID, req.Quantity, now, req.NeededBy, notes, ac.Code, ac.RequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout: %w", err)
	}
	checkout.AuthorizationCode = sql.NullString{String: ac.Code, Valid: true}
	checkout.RequestID = sql.NullInt64{Int64: ac.RequestID, Valid: true}

	_, err = tx.ExecContext(ctx, `
		UPDATE authorization_codes
		SET status = 'used', used_at = $1, checkout_id = $2
		WHERE id = $3`,
		now, checkout.ID, ac.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to mark code used: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"UPDATE requests SET status = 'completed', updated_at = NOW() WHERE id = $1 AND status = 'approved'",
		ac.RequestID)
	if err != nil {
		return nil, fmt.Errorf("failed to complete request: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		// request left the approved state under a concurrent writer;
		// the whole redemption rolls back
		return nil, ErrRequestNotPending
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &checkout, nil
}
