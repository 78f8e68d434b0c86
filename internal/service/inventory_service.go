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

// InventoryStore is the persistence surface the inventory service needs
type InventoryStore interface {
	GetItemByID(ctx context.Context, id int64) (*models.InventoryItem, error)
	ListItems(ctx context.Context, search, category, status string, limit, offset int) ([]models.InventoryItem, int, error)
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	UpdateItem(ctx context.Context, item *models.InventoryItem) error
	DeleteItem(ctx context.Context, id int64) error
}

// InventoryService manages the equipment catalog
type InventoryService struct {
	store  InventoryStore
	audit  Audit
	logger *zap.Logger
}

// NewInventoryService creates a new inventory service
func NewInventoryService(store InventoryStore, audit Audit) *InventoryService {
	return &InventoryService{
		store:  store,
		audit:  audit,
		logger: util.GetLogger(),
	}
}

// Pagination describes a catalog page
type Pagination struct {
	CurrentPage  int  `json:"current_page"`
	TotalPages   int  `json:"total_pages"`
	TotalItems   int  `json:"total_items"`
	ItemsPerPage int  `json:"items_per_page"`
	HasNext      bool `json:"has_next"`
	HasPrevious  bool `json:"has_previous"`
}

// List searches the catalog with filters and pagination
func (s *InventoryService) List(ctx context.Context, search, category, status string, page, limit int) ([]models.InventoryItem, *Pagination, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}
	offset := (page - 1) * limit

	items, total, err := s.store.ListItems(ctx, search, category, status, limit, offset)
	if err != nil {
		return nil, nil, apperr.Persistence("failed to list inventory", err)
	}

	totalPages := (total + limit - 1) / limit
	pagination := &Pagination{
		CurrentPage:  page,
		TotalPages:   totalPages,
		TotalItems:   total,
		ItemsPerPage: limit,
		HasNext:      page < totalPages,
		HasPrevious:  page > 1,
	}
	return items, pagination, nil
}

// Get returns one catalog item
func (s *InventoryService) Get(ctx context.Context, id int64) (*models.InventoryItem, error) {
	item, err := s.store.GetItemByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("item not found")
	}
	if err != nil {
		return nil, apperr.Persistence("failed to load item", err)
	}
	return item, nil
}

// ItemInput carries catalog item fields for create and update
type ItemInput struct {
	Name        string `json:"name" binding:"required"`
	Category    string `json:"category" binding:"required"`
	Quantity    int    `json:"quantity"`
	Status      string `json:"status"`
	Location    string `json:"location"`
	Description string `json:"description"`
}

func validItemStatus(status string) bool {
	switch status {
	case models.ItemStatusAvailable, models.ItemStatusCheckedOut,
		models.ItemStatusMaintenance, models.ItemStatusDamaged:
		return true
	}
	return false
}

// Create adds a catalog item; staff/admin only
func (s *InventoryService) Create(ctx context.Context, actor models.Actor, in ItemInput) (*models.InventoryItem, error) {
	if !actor.IsStaff() {
		return nil, apperr.Unauthorized("insufficient permissions")
	}
	if in.Quantity < 0 {
		return nil, apperr.Validation("quantity cannot be negative")
	}
	if in.Status == "" {
		in.Status = models.ItemStatusAvailable
	}
	if !validItemStatus(in.Status) {
		return nil, apperr.Validation("invalid status")
	}

	item := &models.InventoryItem{
		Name:        in.Name,
		Category:    in.Category,
		Quantity:    in.Quantity,
		Status:      in.Status,
		Location:    in.Location,
		Description: in.Description,
	}
	if err := s.store.CreateItem(ctx, item); err != nil {
		return nil, apperr.Persistence("failed to add item", err)
	}

	s.logger.Info("Inventory item added",
		zap.Int64("item_id", item.ID),
		zap.String("name", item.Name))
	s.audit.Publish(ctx, actor.UserID, models.EventTypeItemCreated, "inventory", item.ID,
		fmt.Sprintf("Added item %s (qty %d)", item.Name, item.Quantity))
	return item, nil
}

// Update edits a catalog item; staff/admin only
func (s *InventoryService) Update(ctx context.Context, actor models.Actor, id int64, in ItemInput) (*models.InventoryItem, error) {
	if !actor.IsStaff() {
		return nil, apperr.Unauthorized("insufficient permissions")
	}
	if in.Quantity < 0 {
		return nil, apperr.Validation("quantity cannot be negative")
	}
	if !validItemStatus(in.Status) {
		return nil, apperr.Validation("invalid status")
	}

	item, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	item.Name = in.Name
	item.Category = in.Category
	item.Quantity = in.Quantity
	item.Status = in.Status
	item.Location = in.Location
	item.Description = in.Description

	if err := s.store.UpdateItem(ctx, item); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("item not found")
		}
		return nil, apperr.Persistence("failed to update item", err)
	}

	s.audit.Publish(ctx, actor.UserID, models.EventTypeItemUpdated, "inventory", item.ID,
		fmt.Sprintf("Updated item %s", item.Name))
	return item, nil
}

// Delete removes a catalog item; admin only
func (s *InventoryService) Delete(ctx context.Context, actor models.Actor, id int64) error {
	if actor.Role != models.RoleAdmin {
		return apperr.Unauthorized("insufficient permissions")
	}

	err := s.store.DeleteItem(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return apperr.NotFound("item not found")
	}
	if err != nil {
		return apperr.Persistence("failed to delete item", err)
	}

	s.audit.Publish(ctx, actor.UserID, models.EventTypeItemDeleted, "inventory", id, "Deleted inventory item")
	return nil
}
