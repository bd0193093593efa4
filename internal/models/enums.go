package models

// EntityType identifies a level in the five-level organization hierarchy.
type EntityType string

const (
	EntityDistributor EntityType = "DISTRIBUTOR"
	EntityAgency      EntityType = "AGENCY"
	EntityDealer      EntityType = "DEALER"
	EntitySeller      EntityType = "SELLER"
	EntityVendor      EntityType = "VENDOR"
)

// entityLevels is the explicit ordering table for chain traversal and master
// selection. Level 1 is the top of the hierarchy. Traversal logic uses this
// table, not declaration order.
var entityLevels = map[EntityType]int{
	EntityDistributor: 1,
	EntityAgency:      2,
	EntityDealer:      3,
	EntitySeller:      4,
	EntityVendor:      5,
}

// Level returns the hierarchy level of the entity type (1 = top), or 0 for
// an unknown type.
func (t EntityType) Level() int {
	return entityLevels[t]
}

// Valid reports whether the entity type is one of the five known levels.
func (t EntityType) Valid() bool {
	_, ok := entityLevels[t]
	return ok
}

// IsMaster reports whether this entity type is the designated
// top-of-hierarchy rounding sink.
func (t EntityType) IsMaster() bool {
	return t == EntityDistributor
}

// EntryType is the double-entry direction of a settlement row.
// CREDIT is money in (approval), DEBIT is money out (cancel/refund).
type EntryType string

const (
	EntryCredit EntryType = "CREDIT"
	EntryDebit  EntryType = "DEBIT"
)

// EventType classifies a transaction event from the payment gateway.
type EventType string

const (
	EventApproval      EventType = "APPROVAL"
	EventCancel        EventType = "CANCEL"
	EventPartialCancel EventType = "PARTIAL_CANCEL"
)

// SettlementStatus is the lifecycle state of a settlement row.
//
// PENDING -> PROCESSING -> COMPLETED | FAILED | CANCELLED
//
// PENDING_REVIEW is the escape hatch for batches that fail Zero-Sum
// validation: they are persisted for manual reconciliation instead of being
// discarded.
type SettlementStatus string

const (
	StatusPending       SettlementStatus = "PENDING"
	StatusPendingReview SettlementStatus = "PENDING_REVIEW"
	StatusProcessing    SettlementStatus = "PROCESSING"
	StatusCompleted     SettlementStatus = "COMPLETED"
	StatusFailed        SettlementStatus = "FAILED"
	StatusCancelled     SettlementStatus = "CANCELLED"
)

// WebhookKeyStatus tracks the outcome of a webhook delivery claim. Only a
// COMPLETED key makes a redelivery a duplicate; a PROCESSING or FAILED key
// marks a claimed-but-unsettled delivery that a redelivery may re-drive.
type WebhookKeyStatus string

const (
	WebhookProcessing WebhookKeyStatus = "PROCESSING"
	WebhookCompleted  WebhookKeyStatus = "COMPLETED"
	WebhookFailed     WebhookKeyStatus = "FAILED"
)

// EntityStatus is the activation state of an organization.
type EntityStatus string

const (
	EntityActive   EntityStatus = "ACTIVE"
	EntityInactive EntityStatus = "INACTIVE"
)
