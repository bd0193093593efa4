package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
	"github.com/forteleaf/bill-and-pay-sub001/internal/storage"
)

// ClaimWebhookKey atomically claims the (pgTid, otid) idempotency pair in
// PROCESSING status. If the pair was already claimed by an earlier
// delivery, claimed is false and status reports how far that delivery got.
func (s *SQLiteStore) ClaimWebhookKey(ctx context.Context, pgTID, otid string) (bool, models.WebhookKeyStatus, error) {
	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO webhook_idempotency_keys (pg_tid, otid, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		pgTID, otid, models.WebhookProcessing, now, now)
	if err != nil {
		return false, "", fmt.Errorf("failed to claim webhook key: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, "", fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected > 0 {
		return true, models.WebhookProcessing, nil
	}

	var status models.WebhookKeyStatus
	err = s.db.QueryRowContext(ctx,
		`SELECT status FROM webhook_idempotency_keys WHERE pg_tid = ? AND otid = ?`,
		pgTID, otid,
	).Scan(&status)
	if err != nil {
		return false, "", fmt.Errorf("failed to read webhook key status: %w", err)
	}
	return false, status, nil
}

// MarkWebhookKey records the outcome of a claimed delivery.
func (s *SQLiteStore) MarkWebhookKey(ctx context.Context, pgTID, otid string, status models.WebhookKeyStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE webhook_idempotency_keys SET status = ?, updated_at = ?
		 WHERE pg_tid = ? AND otid = ?`,
		status, time.Now().Unix(), pgTID, otid)
	if err != nil {
		return fmt.Errorf("failed to mark webhook key: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("webhook key (%s, %s) not claimed: %w", pgTID, otid, storage.ErrNotFound)
	}
	return nil
}

// FindEventByWebhookKey returns the event recorded for a delivery, or
// ErrNotFound if the claimed delivery failed before its event was created.
func (s *SQLiteStore) FindEventByWebhookKey(ctx context.Context, pgTID, otid string) (*models.TransactionEvent, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM transaction_events WHERE pg_tid = ? AND otid = ?`,
		pgTID, otid)
	return scanEvent(row)
}
