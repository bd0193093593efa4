package calculator

import (
	"log/slog"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
)

// Reconcile absorbs the integer rounding difference between targetAmount
// and the batch total into the single master (top-of-hierarchy) settlement.
// The difference may be negative. This is the only place amounts are
// adjusted after initial computation; it must run exactly once per batch,
// before validation.
//
// A batch that needs adjustment but has no master entry is a structural
// defect and returns ErrMasterNotFound; it is never silently dropped.
func Reconcile(targetAmount int64, settlements []*models.Settlement) error {
	difference := targetAmount - models.SumAmounts(settlements)
	if difference == 0 {
		return nil
	}

	var master *models.Settlement
	for _, s := range settlements {
		if s.EntityType.IsMaster() {
			master = s
			break
		}
	}
	if master == nil {
		return ErrMasterNotFound
	}

	before := master.Amount
	master.Amount += difference
	master.NetAmount += difference

	slog.Info("adjusted rounding difference to master",
		"entity_id", master.EntityID,
		"difference", difference,
		"amount_before", before,
		"amount_after", master.Amount,
	)

	return nil
}
