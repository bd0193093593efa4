package models

import (
	"time"

	"github.com/google/uuid"
)

// Operator is a back-office account allowed to work the manual-review queue
// (settlement batches parked in PENDING_REVIEW after a Zero-Sum failure).
type Operator struct {
	// ID is the unique identifier for the operator (UUID format).
	ID string

	// Email is the operator's login email (unique).
	Email string

	// DisplayName is the operator's display name.
	DisplayName string

	// PasswordHash is the bcrypt hash of the operator's password.
	PasswordHash string

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NewOperator creates an operator with a fresh ID and timestamps.
func NewOperator(email, displayName, passwordHash string) *Operator {
	now := time.Now().Unix()
	return &Operator{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
