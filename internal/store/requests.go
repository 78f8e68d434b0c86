package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"equipment-service/internal/models"
)

// CreateRequest inserts a new pending request
func (s *Store) CreateRequest(ctx context.Context, req *models.Request) error {
	query := `
		INSERT INTO requests (item_id, user_id, quantity, needed_by, notes, status)
		VALUES ($1, $2, $3, $4, $5, 'pending')
		RETURNING id, status, created_at, updated_at`

	return s.db.GetContext(ctx, req, query,
		req.ItemID, req.UserID, req.Quantity, req.NeededBy, req.Notes)
}

// GetRequestByID retrieves a request by ID
func (s *Store) GetRequestByID(ctx context.Context, id int64) (*models.Request, error) {
	var req models.Request
	err := s.db.GetContext(ctx, &req, "SELECT * FROM requests WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListActiveRequests retrieves pending/approved requests joined with user,
// item and code details. userID of 0 lists for all users (staff view).
func (s *Store) ListActiveRequests(ctx context.Context, userID int64, search string, limit int) ([]models.RequestWithDetails, error) {
	query := `
		SELECT r.*, u.first_name, u.last_name, i.name AS item_name,
		       ac.code, ac.status AS code_status,
		       ac.expires_at AS code_expires_at, ac.used_at AS code_used_at
		FROM requests r
		JOIN users u ON r.user_id = u.id
		JOIN inventory i ON r.item_id = i.id
		LEFT JOIN authorization_codes ac ON r.id = ac.request_id AND ac.status IN ('active', 'used')
		WHERE r.status IN ('pending', 'approved')`
	args := []interface{}{}

	if userID != 0 {
		args = append(args, userID)
		query += fmt.Sprintf(" AND r.user_id = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		query += fmt.Sprintf(" AND (i.name ILIKE $%d OR u.first_name ILIKE $%d OR u.last_name ILIKE $%d OR r.status ILIKE $%d)",
			len(args), len(args), len(args), len(args))
	}

	query += " ORDER BY r.created_at DESC"
	if limit > 0 {
		args = append(args, limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	var requests []models.RequestWithDetails
	err := s.db.SelectContext(ctx, &requests, query, args...)
	return requests, err
}

// UpdateRequestStatus transitions a request from one status to another. The
// conditional WHERE clause makes the transition race-safe; callers get
// ErrRequestNotPending when the request already left the expected state.
func (s *Store) UpdateRequestStatus(ctx context.Context, requestID int64, from, to string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE requests SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, requestID, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRequestNotPending
	}
	return nil
}

// CancelRequestTx cancels a request regardless of its current non-terminal
// status (staff path) and voids its leftover active authorization code in the
// same transaction, so the code cannot later complete a request staff already
// killed. Touches the code row before the request row, matching the lock
// order of RedeemCodeTx. Returns the id of the voided code, 0 when the
// request had none.
func (s *Store) CancelRequestTx(ctx context.Context, requestID int64) (int64, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var codeID int64
	err = tx.GetContext(ctx, &codeID, `
		UPDATE authorization_codes SET status = 'cancelled'
		WHERE request_id = $1 AND status = 'active'
		RETURNING id`, requestID)
	if err != nil && err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to void authorization code: %w", err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE requests SET status = 'cancelled', updated_at = NOW()
		WHERE id = $1 AND status IN ('pending', 'approved')`,
		requestID)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrRequestNotPending
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return codeID, nil
}

// ApproveRequestTx approves a pending request and mints its authorization
// code in one transaction. The inventory row is locked to re-check
// availability, but the quantity is not deducted here; reservation stays
// logical until the code is redeemed.
func (s *Store) ApproveRequestTx(ctx context.Context, requestID int64, code string, expiresAt time.Time, createdBy int64) (*models.Request, *models.AuthorizationCode, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback()

	var req models.Request
	err = tx.GetContext(ctx, &req, "SELECT * FROM requests WHERE id = $1 FOR UPDATE", requestID)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock request: %w", err)
	}
	if req.Status != models.RequestStatusPending {
		return nil, nil, ErrRequestNotPending
	}

	var available int
	err = tx.GetContext(ctx, &available,
		"SELECT quantity FROM inventory WHERE id = $1 FOR UPDATE", req.ItemID)
	if err == sql.ErrNoRows {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to lock inventory: %w", err)
	}
	if available < req.Quantity {
		return nil, nil, ErrInsufficientInventory
	}

	var exists bool
	err = tx.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM authorization_codes
			WHERE request_id = $1 AND status IN ('active', 'used')
		)`, requestID)
	if err != nil {
		return nil, nil, err
	}
	if exists {
		return nil, nil, ErrCodeAlreadyIssued
	}

	authCode := models.AuthorizationCode{
		Code:      code,
		RequestID: requestID,
		UserID:    req.UserID,
		ItemID:    req.ItemID,
		ExpiresAt: expiresAt,
		CreatedBy: createdBy,
	}
	err = tx.GetContext(ctx, &authCode, `
		INSERT INTO authorization_codes (code, request_id, user_id, item_id, status, expires_at, created_by)
		VALUES ($1, $2, $3, $4, 'active', $5, $6)
		RETURNING id, status, created_at`,
		code, requestID, req.UserID, req.ItemID, expiresAt, createdBy)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to insert authorization code: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		"UPDATE requests SET status = 'approved', updated_at = NOW() WHERE id = $1", requestID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update request status: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}

	req.Status = models.RequestStatusApproved
	return &req, &authCode, nil
}
