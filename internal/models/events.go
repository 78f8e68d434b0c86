package models

import "time"

// Audit event types
const (
	EventTypeRequestCreated   = "REQUEST_CREATED"
	EventTypeRequestApproved  = "REQUEST_APPROVED"
	EventTypeRequestRejected  = "REQUEST_REJECTED"
	EventTypeRequestCancelled = "REQUEST_CANCELLED"
	EventTypeCodeIssued       = "CODE_ISSUED"
	EventTypeCodeRedeemed     = "CODE_REDEEMED"
	EventTypeCodeCancelled    = "CODE_CANCELLED"
	EventTypeCodeExpired      = "CODE_EXPIRED"
	EventTypeCheckoutCreated  = "CHECKOUT_CREATED"
	EventTypeCheckoutReturned = "CHECKOUT_RETURNED"
	EventTypeIssueReported    = "ISSUE_REPORTED"
	EventTypeIssueResolved    = "ISSUE_RESOLVED"
	EventTypeItemCreated      = "ITEM_CREATED"
	EventTypeItemUpdated      = "ITEM_UPDATED"
	EventTypeItemDeleted      = "ITEM_DELETED"
	EventTypeUserCreated      = "USER_CREATED"
)

// BaseEvent contains common fields for all audit events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// AuditEvent is the wire format consumed by the audit worker. ActorID is the
// user who performed the action, not necessarily the owner of the entity.
type AuditEvent struct {
	BaseEvent
	ActorID    int64  `json:"actor_id"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id"`
	Details    string `json:"details"`
}
