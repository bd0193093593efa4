package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
	"github.com/forteleaf/bill-and-pay-sub001/internal/storage"
)

// CreateOperator inserts a new operator account.
func (s *SQLiteStore) CreateOperator(ctx context.Context, operator *models.Operator) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO operators (id, email, display_name, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		operator.ID, operator.Email, operator.DisplayName, operator.PasswordHash,
		operator.CreatedAt, operator.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}
	return nil
}

func (s *SQLiteStore) getOperator(ctx context.Context, where string, arg any) (*models.Operator, error) {
	operator := &models.Operator{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, display_name, password_hash, created_at, updated_at
		 FROM operators WHERE `+where, arg,
	).Scan(&operator.ID, &operator.Email, &operator.DisplayName, &operator.PasswordHash,
		&operator.CreatedAt, &operator.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get operator: %w", err)
	}
	return operator, nil
}

// GetOperatorByEmail retrieves an operator by login email.
func (s *SQLiteStore) GetOperatorByEmail(ctx context.Context, email string) (*models.Operator, error) {
	return s.getOperator(ctx, "email = ?", email)
}

// GetOperatorByID retrieves an operator by ID.
func (s *SQLiteStore) GetOperatorByID(ctx context.Context, id string) (*models.Operator, error) {
	return s.getOperator(ctx, "id = ?", id)
}
