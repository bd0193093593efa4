package calculator

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
)

// FeeBreakdown threads intermediate cascading state through the allocator
// before settlement rows are materialized. Computation-only; never persisted.
type FeeBreakdown struct {
	EntityID         string
	EntityType       models.EntityType
	EntityPath       string
	FeeRate          decimal.Decimal
	RemainingBase    int64
	SettlementAmount int64
	Description      string
}

// logBreakdown records the per-level allocation at debug level so the fee
// cascade can be reconstructed from logs for any event.
func logBreakdown(eventID string, breakdowns []FeeBreakdown, total int64) {
	slog.Debug("fee breakdown", "event_id", eventID, "total", total)
	for _, b := range breakdowns {
		slog.Debug("  level",
			"entity_type", b.EntityType,
			"entity_id", b.EntityID,
			"fee_rate", b.FeeRate,
			"base", b.RemainingBase,
			"amount", b.SettlementAmount,
			"description", b.Description,
		)
	}
}
