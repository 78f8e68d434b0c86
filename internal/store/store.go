package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"equipment-service/internal/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Sentinel errors returned by workflow transactions. Services map these to
// the apperr taxonomy.
var (
	ErrNotFound              = errors.New("not found")
	ErrRequestNotPending     = errors.New("request is not pending")
	ErrCodeAlreadyIssued     = errors.New("authorization code already exists for this request")
	ErrInsufficientInventory = errors.New("insufficient inventory")
	ErrCodeNotActive         = errors.New("authorization code is not active")
	ErrCodeExpired           = errors.New("authorization code has expired")
	ErrCheckoutNotOpen       = errors.New("checkout is not open")
)

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// GetDB returns the underlying database connection
func (s *Store) GetDB() *sqlx.DB {
	return s.db
}

// GetItemByID retrieves an inventory item by ID
func (s *Store) GetItemByID(ctx context.Context, id int64) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.GetContext(ctx, &item, "SELECT * FROM inventory WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// ListItems retrieves inventory items with optional search, category and
// status filters, paginated. Returns the page and the total match count.
func (s *Store) ListItems(ctx context.Context, search, category, status string, limit, offset int) ([]models.InventoryItem, int, error) {
	where := "WHERE name ILIKE $1"
	args := []interface{}{"%" + search + "%"}

	if category != "" && category != "all" {
		args = append(args, category)
		where += fmt.Sprintf(" AND category = $%d", len(args))
	}
	if status != "" && status != "all" {
		args = append(args, status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int
	if err := s.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM inventory "+where, args...); err != nil {
		return nil, 0, err
	}

	args = append(args, limit, offset)
	query := fmt.Sprintf("SELECT * FROM inventory %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d",
		where, len(args)-1, len(args))

	var items []models.InventoryItem
	if err := s.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// CreateItem inserts a new inventory item
func (s *Store) CreateItem(ctx context.Context, item *models.InventoryItem) error {
	query := `
		INSERT INTO inventory (name, category, quantity, status, location, description, image)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`

	return s.db.GetContext(ctx, item, query,
		item.Name, item.Category, item.Quantity, item.Status,
		item.Location, item.Description, item.Image)
}

// UpdateItem updates an inventory item's editable fields
func (s *Store) UpdateItem(ctx context.Context, item *models.InventoryItem) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE inventory
		SET name = $1, category = $2, quantity = $3, status = $4,
		    location = $5, description = $6, last_checked = $7
		WHERE id = $8`,
		item.Name, item.Category, item.Quantity, item.Status,
		item.Location, item.Description, item.LastChecked, item.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteItem removes an inventory item
func (s *Store) DeleteItem(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM inventory WHERE id = $1", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// deductInventory decrements an item's quantity within a transaction. The
// conditional WHERE clause is what keeps quantity non-negative under
// concurrent writers; callers must check the returned error.
func deductInventory(ctx context.Context, tx *sqlx.Tx, itemID int64, quantity int) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = quantity - $1,
		    status = CASE WHEN quantity - $1 = 0 THEN 'checked-out' ELSE status END,
		    last_checked = NOW()
		WHERE id = $2 AND quantity >= $1`,
		quantity, itemID)
	if err != nil {
		return fmt.Errorf("failed to deduct inventory: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInsufficientInventory
	}
	return nil
}

// restoreInventory increments an item's quantity within a transaction and
// forces the item back to available.
func restoreInventory(ctx context.Context, tx *sqlx.Tx, itemID int64, quantity int) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE inventory
		SET quantity = quantity + $1, status = 'available', last_checked = NOW()
		WHERE id = $2`,
		quantity, itemID)
	if err != nil {
		return fmt.Errorf("failed to restore inventory: %w", err)
	}
	return nil
}
