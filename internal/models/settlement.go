package models

import "github.com/shopspring/decimal"

// Settlement is one monetary entry attributed to exactly one organizational
// entity for exactly one transaction event. Settlements are produced in a
// batch (one batch per event) and the batch persists all-or-nothing after
// Zero-Sum validation.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string `json:"id"`

	// TransactionEventID is the owning event.
	TransactionEventID string `json:"transaction_event_id"`

	// TransactionID is the logical payment this entry belongs to.
	TransactionID string `json:"transaction_id"`

	// MerchantID and MerchantPath are copied from the owning event.
	MerchantID   string `json:"merchant_id"`
	MerchantPath string `json:"merchant_path"`

	// EntityID, EntityType and EntityPath identify the organization (or
	// the merchant itself) this entry is attributed to. The entity must
	// lie on the merchant's ancestor path at the time of the event.
	EntityID   string `json:"entity_id"`
	EntityType EntityType `json:"entity_type"`
	EntityPath string `json:"entity_path"`

	// EntryType is CREDIT or DEBIT. Direction lives here, not in Amount.
	EntryType EntryType `json:"entry_type"`

	// Amount is the unsigned settlement magnitude in the smallest
	// currency unit.
	Amount int64 `json:"amount"`

	// FeeAmount is the fee deducted at this entry (total fees across all
	// levels for the merchant row, zero for organization margin rows and
	// cancel rows).
	FeeAmount int64 `json:"fee_amount"`

	// NetAmount is the amount net of fees.
	NetAmount int64 `json:"net_amount"`

	// FeeRate is the rate applied at this level.
	FeeRate decimal.Decimal `json:"fee_rate"`

	// FeeConfigID references the fee configuration the rate came from.
	// Empty for the merchant residual row.
	FeeConfigID string `json:"fee_config_id,omitempty"`

	// Currency is copied from the owning event.
	Currency string `json:"currency"`

	// Status is the lifecycle state. Newly computed batches are PENDING.
	Status SettlementStatus `json:"status"`

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// SumAmounts returns the total of the settlement magnitudes in the batch.
func SumAmounts(settlements []*Settlement) int64 {
	var total int64
	for _, s := range settlements {
		total += s.Amount
	}
	return total
}
