package models

import (
	"database/sql"
	"time"
)

// User roles
const (
	RoleStudent = "student"
	RoleStaff   = "staff"
	RoleAdmin   = "admin"
)

// Actor identifies the caller of a service operation. It is resolved from
// the session by the API layer and passed explicitly into every call.
type Actor struct {
	UserID int64
	Role   string
}

// IsStaff reports whether the actor is staff or admin.
func (a Actor) IsStaff() bool {
	return a.Role == RoleStaff || a.Role == RoleAdmin
}

// User represents an account in the system
type User struct {
	ID         int64     `db:"id" json:"id"`
	FirstName  string    `db:"first_name" json:"first_name"`
	LastName   string    `db:"last_name" json:"last_name"`
	Email      string    `db:"email" json:"email"`
	Password   string    `db:"password" json:"-"`
	Role       string    `db:"role" json:"role"`
	Department string    `db:"department" json:"department"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Inventory item statuses
const (
	ItemStatusAvailable   = "available"
	ItemStatusCheckedOut  = "checked-out"
	ItemStatusMaintenance = "maintenance"
	ItemStatusDamaged     = "damaged"
)

// InventoryItem represents one equipment type in the catalog. Quantity is
// the authoritative available count; status is a display convenience.
type InventoryItem struct {
	ID          int64          `db:"id" json:"id"`
	Name        string         `db:"name" json:"name"`
	Category    string         `db:"category" json:"category"`
	Quantity    int            `db:"quantity" json:"quantity"`
	Status      string         `db:"status" json:"status"`
	Location    string         `db:"location" json:"location"`
	Description string         `db:"description" json:"description"`
	Image       sql.NullString `db:"image" json:"image,omitempty"`
	LastChecked sql.NullTime   `db:"last_checked" json:"last_checked,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}

// Request statuses
const (
	RequestStatusPending   = "pending"
	RequestStatusApproved  = "approved"
	RequestStatusRejected  = "rejected"
	RequestStatusCancelled = "cancelled"
	RequestStatusCompleted = "completed"
)

// Request represents a student's equipment request
type Request struct {
	ID        int64     `db:"id" json:"id"`
	ItemID    int64     `db:"item_id" json:"item_id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	Quantity  int       `db:"quantity" json:"quantity"`
	NeededBy  time.Time `db:"needed_by" json:"needed_by"`
	Notes     string    `db:"notes" json:"notes"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Authorization code statuses
const (
	CodeStatusActive    = "active"
	CodeStatusUsed      = "used"
	CodeStatusExpired   = "expired"
	CodeStatusCancelled = "cancelled"
)

// AuthorizationCode is a single-use, time-limited token binding one approved
// request to one future checkout.
type AuthorizationCode struct {
	ID         int64         `db:"id" json:"id"`
	Code       string        `db:"code" json:"code"`
	RequestID  int64         `db:"request_id" json:"request_id"`
	UserID     int64         `db:"user_id" json:"user_id"`
	ItemID     int64         `db:"item_id" json:"item_id"`
	Status     string        `db:"status" json:"status"`
	ExpiresAt  time.Time     `db:"expires_at" json:"expires_at"`
	UsedAt     sql.NullTime  `db:"used_at" json:"used_at,omitempty"`
	CheckoutID sql.NullInt64 `db:"checkout_id" json:"checkout_id,omitempty"`
	CreatedBy  int64         `db:"created_by" json:"created_by"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// Checkout statuses
const (
	CheckoutStatusOut      = "checked_out"
	CheckoutStatusReturned = "returned"
)

// Checkout records equipment custody. Quantity is stored so that check-in
// restores exactly what checkout removed.
type Checkout struct {
	ID                int64          `db:"id" json:"id"`
	ItemID            int64          `db:"item_id" json:"item_id"`
	UserID            int64          `db:"user_id" json:"user_id"`
	Quantity          int            `db:"quantity" json:"quantity"`
	DateOut           time.Time      `db:"date_out" json:"date_out"`
	DueDate           time.Time      `db:"due_date" json:"due_date"`
	DateIn            sql.NullTime   `db:"date_in" json:"date_in,omitempty"`
	ConditionIn       sql.NullString `db:"condition_in" json:"condition_in,omitempty"`
	Status            string         `db:"status" json:"status"`
	Notes             string         `db:"notes" json:"notes"`
	AuthorizationCode sql.NullString `db:"authorization_code" json:"authorization_code,omitempty"`
	RequestID         sql.NullInt64  `db:"request_id" json:"request_id,omitempty"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
}

// Issue statuses
const (
	IssueStatusOpen     = "open"
	IssueStatusResolved = "resolved"
)

// Issue represents a reported equipment problem
type Issue struct {
	ID           int64     `db:"id" json:"id"`
	ItemID       int64     `db:"item_id" json:"item_id"`
	UserID       int64     `db:"user_id" json:"user_id"`
	Type         string    `db:"type" json:"type"`
	Severity     string    `db:"severity" json:"severity"`
	Description  string    `db:"description" json:"description"`
	DateReported time.Time `db:"date_reported" json:"date_reported"`
	Status       string    `db:"status" json:"status"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Announcement represents a broadcast message for a role
type Announcement struct {
	ID         int64     `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	Content    string    `db:"content" json:"content"`
	TargetRole string    `db:"target_role" json:"target_role"`
	Priority   string    `db:"priority" json:"priority"`
	Status     string    `db:"status" json:"status"`
	CreatedBy  int64     `db:"created_by" json:"created_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ActivityLog is an audit trail row, written by the audit worker
type ActivityLog struct {
	ID         int64     `db:"id" json:"id"`
	UserID     int64     `db:"user_id" json:"user_id"`
	Action     string    `db:"action" json:"action"`
	EntityType string    `db:"entity_type" json:"entity_type"`
	EntityID   int64     `db:"entity_id" json:"entity_id"`
	Details    string    `db:"details" json:"details"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ProcessedEvent deduplicates audit events across worker restarts
type ProcessedEvent struct {
	EventID     string    `db:"event_id"`
	EventType   string    `db:"event_type"`
	ProcessedAt time.Time `db:"processed_at"`
}

// RequestWithDetails joins a request with its user, item and code info for
// list views.
type RequestWithDetails struct {
	Request
	FirstName     string         `db:"first_name" json:"first_name"`
	LastName      string         `db:"last_name" json:"last_name"`
	ItemName      string         `db:"item_name" json:"item_name"`
	Code          sql.NullString `db:"code" json:"authorization_code,omitempty"`
	CodeStatus    sql.NullString `db:"code_status" json:"code_status,omitempty"`
	CodeExpiresAt sql.NullTime   `db:"code_expires_at" json:"code_expires_at,omitempty"`
	CodeUsedAt    sql.NullTime   `db:"code_used_at" json:"code_used_at,omitempty"`
}

// CodeWithDetails joins an authorization code with its request context for
// validation previews and list views.
type CodeWithDetails struct {
	AuthorizationCode
	RequestQuantity   int       `db:"request_quantity" json:"request_quantity"`
	RequestDueDate    time.Time `db:"request_due_date" json:"request_due_date"`
	FirstName         string    `db:"first_name" json:"first_name"`
	LastName          string    `db:"last_name" json:"last_name"`
	ItemName          string    `db:"item_name" json:"item_name"`
	AvailableQuantity int       `db:"available_quantity" json:"available_quantity"`
}

// CheckoutWithDetails joins a checkout with user and item names
type CheckoutWithDetails struct {
	Checkout
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	ItemName  string `db:"item_name" json:"item_name"`
}

// IssueWithDetails joins an issue with user and item names
type IssueWithDetails struct {
	Issue
	FirstName string `db:"first_name" json:"first_name"`
	LastName  string `db:"last_name" json:"last_name"`
	ItemName  string `db:"item_name" json:"item_name"`
}

// DashboardStats aggregates counts for the admin dashboard
type DashboardStats struct {
	TotalItems          int `db:"total_items" json:"total_items"`
	AvailableItems      int `db:"available_items" json:"available_items"`
	TotalEquipmentTypes int `db:"total_equipment_types" json:"total_equipment_types"`
	PendingRequests     int `db:"pending_requests" json:"pending_requests"`
	ApprovedRequests    int `db:"approved_requests" json:"approved_requests"`
	ActiveCodes         int `db:"active_codes" json:"active_codes"`
	OpenCheckouts       int `db:"open_checkouts" json:"open_checkouts"`
	OpenIssues          int `db:"open_issues" json:"open_issues"`
}
