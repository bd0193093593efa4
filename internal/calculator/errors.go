package calculator

import (
	"errors"
	"fmt"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
)

var (
	// ErrMasterNotFound is a structural error: a batch needed rounding
	// reconciliation but contained no top-of-hierarchy settlement to
	// absorb the difference. It halts processing of the event.
	ErrMasterNotFound = errors.New("master settlement not found in batch")

	// ErrZeroCancelAmount rejects cancel events with a zero amount before
	// any proportional math runs.
	ErrZeroCancelAmount = errors.New("cancel amount must be non-zero")

	// ErrInvalidApprovalAmount rejects approval events whose amount is not
	// strictly positive; a zero approval would fault the cancel ratio.
	ErrInvalidApprovalAmount = errors.New("approval amount must be positive")
)

// FeeConfigNotFoundError means an entity on the chain has no active fee
// configuration for the event's payment method. Fatal to the whole event:
// no partial allocation is produced.
type FeeConfigNotFoundError struct {
	EntityID      string
	EntityType    models.EntityType
	PaymentMethod string
}

func (e *FeeConfigNotFoundError) Error() string {
	return fmt.Sprintf("fee configuration not found for entity %s (type=%s) and payment method=%s",
		e.EntityID, e.EntityType, e.PaymentMethod)
}

// OriginalSettlementNotFoundError means a cancel event arrived but the
// originating approval has no settlement batch on record. Fatal to the
// cancel: a reversal cannot be computed without its approval lineage.
type OriginalSettlementNotFoundError struct {
	TransactionID string
	CancelEventID string
}

func (e *OriginalSettlementNotFoundError) Error() string {
	return fmt.Sprintf("original approval settlement not found for transaction %s when processing cancel event %s",
		e.TransactionID, e.CancelEventID)
}

// ZeroSumViolationError means the settlement total for an event does not
// exactly reproduce the event's absolute amount. Difference is
// |eventAmount| - settlementTotal (signed).
type ZeroSumViolationError struct {
	EventID         string
	EventAmount     int64
	SettlementTotal int64
	Difference      int64
}

func (e *ZeroSumViolationError) Error() string {
	return fmt.Sprintf("zero-sum validation failed for event %s: event amount=%d, settlement total=%d, difference=%d",
		e.EventID, e.EventAmount, e.SettlementTotal, e.Difference)
}

// ChainError means the merchant's ancestor chain is unusable for
// allocation: empty, containing an inactive entity, not rooted at a
// distributor, or otherwise malformed. Fatal to the event.
type ChainError struct {
	MerchantPath string
	Reason       string
}

func (e *ChainError) Error() string {
	return fmt.Sprintf("invalid entity chain for merchant path %q: %s", e.MerchantPath, e.Reason)
}
