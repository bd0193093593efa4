package auth

import (
	"context"

	"github.com/forteleaf/bill-and-pay-sub001/internal/models"
)

// Authenticator defines the interface for operator authentication.
// This abstraction allows swapping between different auth methods (password, SSO, etc.)
// without changing the service layer code.
type Authenticator interface {
	// Register creates a new operator account with the given email and credential.
	// The credential format depends on the implementation.
	// Returns the created operator or an error if registration fails.
	Register(ctx context.Context, email, displayName, credential string) (*models.Operator, error)

	// Authenticate verifies the operator's credentials and returns the operator if successful.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, email, credential string) (*models.Operator, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
