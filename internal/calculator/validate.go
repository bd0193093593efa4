package calculator

import (
	"log/slog"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
)

// Validate is the Zero-Sum gate: the settlement total for an event must
// exactly equal the event's absolute amount. Exact integer comparison, no
// tolerance. It is idempotent and side-effect free beyond diagnostic
// logging, so callers may validate defensively more than once.
//
// No settlement batch may be persisted in a posting state unless this
// passes.
func Validate(event *models.TransactionEvent, settlements []*models.Settlement) error {
	eventAbsAmount := event.AbsAmount()
	settlementTotal := models.SumAmounts(settlements)

	if settlementTotal != eventAbsAmount {
		slog.Error("zero-sum validation failed",
			"event_id", event.ID,
			"event_amount", eventAbsAmount,
			"settlement_total", settlementTotal,
			"difference", eventAbsAmount-settlementTotal,
		)
		logSettlementBreakdown(settlements)

		return &ZeroSumViolationError{
			EventID:         event.ID,
			EventAmount:     event.Amount,
			SettlementTotal: settlementTotal,
			Difference:      eventAbsAmount - settlementTotal,
		}
	}

	slog.Debug("zero-sum validation passed", "event_id", event.ID, "amount", eventAbsAmount)
	return nil
}

// logSettlementBreakdown captures the per-entity picture for audit before
// the violation propagates.
func logSettlementBreakdown(settlements []*models.Settlement) {
	for _, s := range settlements {
		slog.Error("  settlement entry",
			"entry_type", s.EntryType,
			"entity_type", s.EntityType,
			"entity_id", s.EntityID,
			"amount", s.Amount,
			"fee_rate", s.FeeRate,
		)
	}
}
