package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
	"github.com/forteleaf/bill-and-pay-sub001/internal/storage"
)

// CreateEvent records a transaction event. Events are immutable: there is no
// corresponding update operation.
func (s *SQLiteStore) CreateEvent(ctx context.Context, event *models.TransactionEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.CreatedAt == 0 {
		event.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transaction_events
		 (id, transaction_id, event_type, merchant_id, merchant_path, payment_method, amount, currency, pg_tid, otid, occurred_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		event.ID, event.TransactionID, event.EventType, event.MerchantID, event.MerchantPath,
		event.PaymentMethod, event.Amount, event.Currency, event.PgTID, event.OTID,
		event.OccurredAt, event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction event: %w", err)
	}
	return nil
}

const eventColumns = `id, transaction_id, event_type, merchant_id, merchant_path, payment_method, amount, currency, pg_tid, otid, occurred_at, created_at`

func scanEvent(row *sql.Row) (*models.TransactionEvent, error) {
	event := &models.TransactionEvent{}
	err := row.Scan(&event.ID, &event.TransactionID, &event.EventType, &event.MerchantID,
		&event.MerchantPath, &event.PaymentMethod, &event.Amount, &event.Currency,
		&event.PgTID, &event.OTID, &event.OccurredAt, &event.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan transaction event: %w", err)
	}
	return event, nil
}

// GetEvent retrieves a transaction event by ID.
func (s *SQLiteStore) GetEvent(ctx context.Context, eventID string) (*models.TransactionEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM transaction_events WHERE id = ?`, eventID)
	return scanEvent(row)
}

// FindApprovalEvent returns the approval event for a transaction.
func (s *SQLiteStore) FindApprovalEvent(ctx context.Context, transactionID string) (*models.TransactionEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM transaction_events
		 WHERE transaction_id = ? AND event_type = ?
		 ORDER BY occurred_at ASC LIMIT 1`,
		transactionID, models.EventApproval)
	return scanEvent(row)
}

// CancelledTotal sums the absolute amounts of cancel events already
// recorded for the transaction.
func (s *SQLiteStore) CancelledTotal(ctx context.Context, transactionID string) (int64, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(ABS(amount)), 0) FROM transaction_events
		 WHERE transaction_id = ? AND event_type IN (?, ?)`,
		transactionID, models.EventCancel, models.EventPartialCancel,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum cancelled amounts: %w", err)
	}
	return total, nil
}
