// Package calculator implements the settlement calculation and validation
// engine: cascading fee allocation across the organization hierarchy,
// proportional reversal of partial cancels, rounding reconciliation into the
// master entity, and the Zero-Sum guard that refuses any batch not exactly
// balanced against its event.
//
// All functions are pure with respect to their declared inputs: no hidden
// state, no I/O, and no clock dependency in any computed amount. Identifiers
// and timestamps on produced rows are left zero for the persistence layer to
// assign, so recomputing from identical inputs yields identical output.
package calculator

import (
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
)

// Allocate computes the settlement batch for an approval event: one CREDIT
// entry per fee-taking hierarchy level plus the merchant entry.
//
// The chain must be ordered root first, vendor last (see BuildChain). Each
// level deducts fee = floor(remaining * feeRate) from the base passed down
// by the level above; the merchant receives whatever remains after all
// levels have taken their cut, so the batch sums to the event amount by
// construction.
func Allocate(event *models.TransactionEvent, chain []models.ChainLink) ([]*models.Settlement, error) {
	if event.Amount <= 0 {
		return nil, ErrInvalidApprovalAmount
	}
	if len(chain) == 0 {
		return nil, &ChainError{MerchantPath: event.MerchantPath, Reason: "empty chain"}
	}

	total := event.AbsAmount()
	entry := event.Entry()

	settlements := make([]*models.Settlement, 0, len(chain))
	breakdowns := make([]FeeBreakdown, 0, len(chain))

	remaining := total
	for _, link := range chain {
		org := link.Entity
		if org.OrgType == models.EntityVendor {
			continue
		}
		fee := floorMul(remaining, link.FeeConfig.FeeRate)

		settlements = append(settlements, &models.Settlement{
			TransactionEventID: event.ID,
			TransactionID:      event.TransactionID,
			MerchantID:         event.MerchantID,
			MerchantPath:       event.MerchantPath,
			EntityID:           org.ID,
			EntityType:         org.OrgType,
			EntityPath:         org.Path,
			EntryType:          entry,
			Amount:             fee,
			FeeAmount:          0,
			NetAmount:          fee,
			FeeRate:            link.FeeConfig.FeeRate,
			FeeConfigID:        link.FeeConfig.ID,
			Currency:           event.Currency,
			Status:             models.StatusPending,
		})
		breakdowns = append(breakdowns, FeeBreakdown{
			EntityID:         org.ID,
			EntityType:       org.OrgType,
			EntityPath:       org.Path,
			FeeRate:          link.FeeConfig.FeeRate,
			RemainingBase:    remaining,
			SettlementAmount: fee,
			Description:      string(org.OrgType) + " fee",
		})
		remaining -= fee
	}

	// Merchant entry: the residual after every level's cut.
	vendor := chain[len(chain)-1].Entity
	settlements = append(settlements, &models.Settlement{
		TransactionEventID: event.ID,
		TransactionID:      event.TransactionID,
		MerchantID:         event.MerchantID,
		MerchantPath:       event.MerchantPath,
		EntityID:           event.MerchantID,
		EntityType:         models.EntityVendor,
		EntityPath:         vendor.Path,
		EntryType:          entry,
		Amount:             remaining,
		FeeAmount:          total - remaining,
		NetAmount:          remaining,
		FeeRate:            decimal.Zero,
		Currency:           event.Currency,
		Status:             models.StatusPending,
	})
	breakdowns = append(breakdowns, FeeBreakdown{
		EntityID:         event.MerchantID,
		EntityType:       models.EntityVendor,
		EntityPath:       vendor.Path,
		RemainingBase:    remaining,
		SettlementAmount: remaining,
		Description:      "merchant settlement",
	})

	logBreakdown(event.ID, breakdowns, total)
	slog.Info("allocated settlements",
		"event_id", event.ID,
		"amount", event.Amount,
		"entries", len(settlements),
	)

	return settlements, nil
}

// floorMul computes floor(amount * rate) in decimal, biased toward
// under-allocation.
func floorMul(amount int64, rate decimal.Decimal) int64 {
	return decimal.NewFromInt(amount).Mul(rate).Floor().IntPart()
}
