// Package service orchestrates settlement processing: webhook ingestion,
// event routing into the calculator, batch persistence, the manual-review
// queue, and operator authentication.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/forteleaf/bill-and-pay-sub001/internal/calculator"
	"github.com/forteleaf/bill-and-pay-sub001/internal/middleware"
	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
	"github.com/forteleaf/bill-and-pay-sub001/internal/storage"
)

// OverCancelError is returned when the cumulative cancelled amount of a
// transaction would exceed its original approval amount.
type OverCancelError struct {
	TransactionID  string
	ApprovalAmount int64
	CancelledTotal int64
}

func (e *OverCancelError) Error() string {
	return fmt.Sprintf("transaction %s: cancelled total %d exceeds approval amount %d",
		e.TransactionID, e.CancelledTotal, e.ApprovalAmount)
}

// SettlementService routes transaction events into the calculator and
// persists the resulting batches. Batches that fail balance validation are
// persisted in PENDING_REVIEW instead of being dropped.
type SettlementService struct {
	store storage.Store
}

// NewSettlementService creates a settlement service backed by the given store.
func NewSettlementService(store storage.Store) *SettlementService {
	return &SettlementService{store: store}
}

// ProcessEvent computes and persists the settlement batch for a recorded
// transaction event. The event must already be stored; approval events are
// allocated across the merchant's hierarchy, cancel events are reversed
// proportionally against the original approval's batch.
func (s *SettlementService) ProcessEvent(ctx context.Context, event *models.TransactionEvent) ([]*models.Settlement, error) {
	switch event.EventType {
	case models.EventApproval:
		return s.processApproval(ctx, event)
	case models.EventCancel, models.EventPartialCancel:
		return s.processCancel(ctx, event)
	default:
		return nil, fmt.Errorf("unknown event type %q on event %s", event.EventType, event.ID)
	}
}

func (s *SettlementService) processApproval(ctx context.Context, event *models.TransactionEvent) ([]*models.Settlement, error) {
	chain, err := calculator.BuildChain(ctx, s.store, s.store, event)
	if err != nil {
		return nil, fmt.Errorf("failed to build settlement chain: %w", err)
	}

	batch, err := calculator.Allocate(event, chain)
	if err != nil {
		return nil, err
	}

	if err := calculator.Validate(event, batch); err != nil {
		var violation *calculator.ZeroSumViolationError
		if errors.As(err, &violation) {
			return s.quarantine(ctx, event, batch, violation)
		}
		return nil, err
	}

	return s.persist(ctx, batch)
}

func (s *SettlementService) processCancel(ctx context.Context, event *models.TransactionEvent) ([]*models.Settlement, error) {
	approval, err := s.store.FindApprovalEvent(ctx, event.TransactionID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("cancel for transaction %s has no approval event: %w", event.TransactionID, err)
	}
	if err != nil {
		return nil, err
	}

	cancelled, err := s.store.CancelledTotal(ctx, event.TransactionID)
	if err != nil {
		return nil, err
	}
	// CancelledTotal includes the event being processed, which is already
	// recorded at this point.
	if cancelled > approval.AbsAmount() {
		return nil, &OverCancelError{
			TransactionID:  event.TransactionID,
			ApprovalAmount: approval.AbsAmount(),
			CancelledTotal: cancelled,
		}
	}

	originals, err := s.store.FindSettlementsByEvent(ctx, approval.ID)
	if err != nil {
		return nil, err
	}

	batch, err := calculator.CalculateProportional(event, approval, originals)
	if err != nil {
		var violation *calculator.ZeroSumViolationError
		if errors.As(err, &violation) && batch != nil {
			return s.quarantine(ctx, event, batch, violation)
		}
		return nil, err
	}

	return s.persist(ctx, batch)
}

func (s *SettlementService) persist(ctx context.Context, batch []*models.Settlement) ([]*models.Settlement, error) {
	if err := s.store.SaveSettlementBatch(ctx, batch); err != nil {
		return nil, err
	}
	middleware.SettlementsCreated.WithLabelValues(string(models.StatusPending)).Add(float64(len(batch)))
	return batch, nil
}

// quarantine persists an unbalanced batch in PENDING_REVIEW so an operator
// can reconcile it. The delivery is acknowledged; money is never dropped.
func (s *SettlementService) quarantine(ctx context.Context, event *models.TransactionEvent, batch []*models.Settlement, violation *calculator.ZeroSumViolationError) ([]*models.Settlement, error) {
	for _, settlement := range batch {
		settlement.Status = models.StatusPendingReview
	}
	if err := s.store.SaveSettlementBatch(ctx, batch); err != nil {
		return nil, fmt.Errorf("failed to quarantine unbalanced batch: %w", err)
	}

	middleware.ZeroSumViolations.Inc()
	middleware.SettlementsCreated.WithLabelValues(string(models.StatusPendingReview)).Add(float64(len(batch)))
	slog.Error("settlement batch quarantined for review",
		"event_id", event.ID,
		"transaction_id", event.TransactionID,
		"difference", violation.Difference,
	)
	return batch, nil
}
