// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence operations of the settlement engine. The
// abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// The sqlite implementation also satisfies calculator.HierarchyAccessor and
// calculator.FeeResolver through AncestorChain and Resolve.
type Store interface {
	// CreateEvent records an immutable transaction event. The event ID
	// and CreatedAt are populated if unset.
	CreateEvent(ctx context.Context, event *models.TransactionEvent) error

	// GetEvent retrieves a transaction event by ID.
	GetEvent(ctx context.Context, eventID string) (*models.TransactionEvent, error)

	// FindApprovalEvent returns the approval event for a transaction, or
	// ErrNotFound if the transaction has none.
	FindApprovalEvent(ctx context.Context, transactionID string) (*models.TransactionEvent, error)

	// CancelledTotal returns the summed absolute amount of all cancel and
	// partial-cancel events already recorded for the transaction.
	CancelledTotal(ctx context.Context, transactionID string) (int64, error)

	// SaveSettlementBatch persists a settlement batch atomically: either
	// every row is written or none are. IDs and timestamps are populated
	// on unset rows.
	SaveSettlementBatch(ctx context.Context, settlements []*models.Settlement) error

	// FindSettlementsByEvent returns the settlement batch owned by an
	// event, in insertion order. An event with no settlements yields an
	// empty slice, not an error.
	FindSettlementsByEvent(ctx context.Context, eventID string) ([]*models.Settlement, error)

	// ListSettlementsByStatus returns up to limit settlements in the
	// given status, oldest first. Used by the manual-review queue.
	ListSettlementsByStatus(ctx context.Context, status models.SettlementStatus, limit int) ([]*models.Settlement, error)

	// UpdateSettlementStatusByEvent moves every settlement of an event
	// from one status to another in a single transaction.
	UpdateSettlementStatusByEvent(ctx context.Context, eventID string, from, to models.SettlementStatus) error

	// AncestorChain resolves a merchant path into its organizations,
	// ordered from the vendor level up to the root.
	AncestorChain(ctx context.Context, merchantPath string) ([]*models.Organization, error)

	// Resolve returns the active fee configuration for an entity and
	// payment method, or *calculator.FeeConfigNotFoundError.
	Resolve(ctx context.Context, entityID string, entityType models.EntityType, paymentMethod string) (*models.FeeConfig, error)

	// GetOrganizationByCode retrieves an organization by its unique code,
	// or ErrNotFound. Used to resolve a webhook merchant ID to its path.
	GetOrganizationByCode(ctx context.Context, code string) (*models.Organization, error)

	// CreateOrganization and CreateFeeConfig seed hierarchy and fee data.
	CreateOrganization(ctx context.Context, org *models.Organization) error
	CreateFeeConfig(ctx context.Context, cfg *models.FeeConfig) error

	// ClaimWebhookKey atomically claims the (pgTid, otid) idempotency
	// pair in PROCESSING status. If the pair was already claimed, claimed
	// is false and status reports the earlier delivery's outcome: only a
	// COMPLETED key makes the redelivery a duplicate, anything else is a
	// claimed-but-unsettled delivery that may be re-driven.
	ClaimWebhookKey(ctx context.Context, pgTID, otid string) (claimed bool, status models.WebhookKeyStatus, err error)

	// MarkWebhookKey records the outcome of a claimed delivery
	// (COMPLETED once its batch persisted, FAILED otherwise).
	MarkWebhookKey(ctx context.Context, pgTID, otid string, status models.WebhookKeyStatus) error

	// FindEventByWebhookKey returns the event recorded for a delivery,
	// or ErrNotFound if the delivery failed before event creation.
	FindEventByWebhookKey(ctx context.Context, pgTID, otid string) (*models.TransactionEvent, error)

	// Operator accounts for the manual-review queue.
	CreateOperator(ctx context.Context, operator *models.Operator) error
	GetOperatorByEmail(ctx context.Context, email string) (*models.Operator, error)
	GetOperatorByID(ctx context.Context, id string) (*models.Operator, error)

	// Close releases any resources held by the store.
	Close() error
}
