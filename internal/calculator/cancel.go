package calculator

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
)

// ratioScale is the number of fractional digits carried by the cancel
// ratio.
const ratioScale = 10

// CalculateProportional computes the DEBIT batch reversing a (possibly
// partial) cancel against its originating approval. Each original entity
// receives a reversal of floor(originalAmount * ratio) with the ratio taken
// against the original full approval amount at 10 fractional digits,
// half-up. The flooring biases every row toward under-allocation, so the
// rounding reconciler only ever adds at the master sink.
//
// The originals are never mutated; the returned batch is independent. The
// batch is reconciled and re-validated before it is returned: if it still
// misses the target after reconciliation, the batch is returned together
// with the *ZeroSumViolationError so the caller can quarantine it instead
// of dropping it.
func CalculateProportional(cancelEvent, approvalEvent *models.TransactionEvent, originals []*models.Settlement) ([]*models.Settlement, error) {
	if cancelEvent.Amount == 0 {
		return nil, ErrZeroCancelAmount
	}
	if approvalEvent.Amount <= 0 {
		return nil, ErrInvalidApprovalAmount
	}
	if len(originals) == 0 {
		return nil, &OriginalSettlementNotFoundError{
			TransactionID: cancelEvent.TransactionID,
			CancelEventID: cancelEvent.ID,
		}
	}

	ratio := decimal.NewFromInt(cancelEvent.AbsAmount()).
		DivRound(decimal.NewFromInt(approvalEvent.Amount), ratioScale)

	slog.Info("calculating proportional cancel",
		"cancel_event_id", cancelEvent.ID,
		"approval_event_id", approvalEvent.ID,
		"ratio", ratio,
	)

	settlements := make([]*models.Settlement, 0, len(originals))
	for _, original := range originals {
		amount := floorMul(original.Amount, ratio)

		settlements = append(settlements, &models.Settlement{
			TransactionEventID: cancelEvent.ID,
			TransactionID:      cancelEvent.TransactionID,
			MerchantID:         cancelEvent.MerchantID,
			MerchantPath:       cancelEvent.MerchantPath,
			EntityID:           original.EntityID,
			EntityType:         original.EntityType,
			EntityPath:         original.EntityPath,
			EntryType:          models.EntryDebit,
			Amount:             amount,
			FeeAmount:          0,
			NetAmount:          amount,
			FeeRate:            original.FeeRate,
			FeeConfigID:        original.FeeConfigID,
			Currency:           original.Currency,
			Status:             models.StatusPending,
		})
	}

	target := cancelEvent.AbsAmount()
	if err := Reconcile(target, settlements); err != nil {
		return nil, err
	}
	if err := Validate(cancelEvent, settlements); err != nil {
		return settlements, err
	}

	return settlements, nil
}
