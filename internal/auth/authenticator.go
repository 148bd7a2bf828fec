package auth

import (
	"context"

	"github.com/mmynk/billplanner/internal/models"
)

// Authenticator verifies user credentials. The service layer depends on this
// interface only, so password login can sit next to other methods later.
type Authenticator interface {
	// Register creates a new user account with the given email and credential.
	Register(ctx context.Context, email, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credential and returns the matching user.
	Authenticate(ctx context.Context, email, credential string) (*models.User, error)

	// ValidateCredential checks the credential against the method's rules
	// (length for passwords) without touching storage.
	ValidateCredential(credential string) error
}
