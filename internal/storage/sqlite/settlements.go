package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
	"github.com/forteleaf/bill-and-pay-sub001/internal/storage"
)

// SaveSettlementBatch persists a settlement batch in a single transaction:
// either every row is written or none are. Row order within the batch is
// preserved via the seq column.
func (s *SQLiteStore) SaveSettlementBatch(ctx context.Context, settlements []*models.Settlement) error {
	if len(settlements) == 0 {
		return fmt.Errorf("refusing to save an empty settlement batch")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	for i, settlement := range settlements {
		if settlement.ID == "" {
			settlement.ID = uuid.New().String()
		}
		if settlement.CreatedAt == 0 {
			settlement.CreatedAt = now
		}
		settlement.UpdatedAt = now

		_, err = tx.ExecContext(ctx,
			`INSERT INTO settlements
			 (id, transaction_event_id, transaction_id, merchant_id, merchant_path,
			  entity_id, entity_type, entity_path, entry_type,
			  amount, fee_amount, net_amount, fee_rate, fee_config_id, currency, status,
			  seq, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			settlement.ID, settlement.TransactionEventID, settlement.TransactionID,
			settlement.MerchantID, settlement.MerchantPath,
			settlement.EntityID, settlement.EntityType, settlement.EntityPath, settlement.EntryType,
			settlement.Amount, settlement.FeeAmount, settlement.NetAmount,
			settlement.FeeRate.String(), settlement.FeeConfigID, settlement.Currency, settlement.Status,
			i, settlement.CreatedAt, settlement.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert settlement for entity %s: %w", settlement.EntityID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit settlement batch: %w", err)
	}
	return nil
}

const settlementColumns = `id, transaction_event_id, transaction_id, merchant_id, merchant_path,
	entity_id, entity_type, entity_path, entry_type,
	amount, fee_amount, net_amount, fee_rate, fee_config_id, currency, status,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSettlement(row rowScanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var feeRate string
	var feeConfigID *string

	err := row.Scan(&settlement.ID, &settlement.TransactionEventID, &settlement.TransactionID,
		&settlement.MerchantID, &settlement.MerchantPath,
		&settlement.EntityID, &settlement.EntityType, &settlement.EntityPath, &settlement.EntryType,
		&settlement.Amount, &settlement.FeeAmount, &settlement.NetAmount,
		&feeRate, &feeConfigID, &settlement.Currency, &settlement.Status,
		&settlement.CreatedAt, &settlement.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan settlement: %w", err)
	}

	settlement.FeeRate, err = decimal.NewFromString(feeRate)
	if err != nil {
		return nil, fmt.Errorf("corrupt fee rate %q on settlement %s: %w", feeRate, settlement.ID, err)
	}
	if feeConfigID != nil {
		settlement.FeeConfigID = *feeConfigID
	}
	return settlement, nil
}

// FindSettlementsByEvent returns the settlement batch owned by an event.
func (s *SQLiteStore) FindSettlementsByEvent(ctx context.Context, eventID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements
		 WHERE transaction_event_id = ? ORDER BY seq ASC`,
		eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements by event: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// ListSettlementsByStatus returns up to limit settlements in the given
// status, oldest first.
func (s *SQLiteStore) ListSettlementsByStatus(ctx context.Context, status models.SettlementStatus, limit int) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+settlementColumns+` FROM settlements
		 WHERE status = ? ORDER BY created_at ASC, seq ASC LIMIT ?`,
		status, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query settlements by status: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, err
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// UpdateSettlementStatusByEvent moves every settlement of an event from one
// status to another.
func (s *SQLiteStore) UpdateSettlementStatusByEvent(ctx context.Context, eventID string, from, to models.SettlementStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE settlements SET status = ?, updated_at = ?
		 WHERE transaction_event_id = ? AND status = ?`,
		to, time.Now().Unix(), eventID, from)
	if err != nil {
		return fmt.Errorf("failed to update settlement status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("no settlements for event %s in status %s: %w", eventID, from, storage.ErrNotFound)
	}
	return nil
}
