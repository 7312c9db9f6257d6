package auth

import (
	"context"

	"github.com/mmynk/billpay/internal/models"
)

// Authenticator verifies cashier credentials. The payment service only sees
// this interface, so the password scheme can be replaced without touching it.
type Authenticator interface {
	// Register creates a cashier account with the given username and credential.
	Register(ctx context.Context, username, displayName, credential string) (*models.Cashier, error)

	// Authenticate verifies the credential and returns the cashier.
	Authenticate(ctx context.Context, username, credential string) (*models.Cashier, error)

	// ValidateCredential checks a credential before it is stored.
	ValidateCredential(credential string) error

	// Lookup returns the cashier with the given ID, or nil when unknown.
	Lookup(ctx context.Context, id string) (*models.Cashier, error)
}
