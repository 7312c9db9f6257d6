package auth

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/billpay/internal/models"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrUsernameExists     = errors.New("username already registered")
)

// CashierStorage is the cashier persistence needed by PasswordAuthenticator.
// Lookups return (nil, nil) for unknown cashiers.
type CashierStorage interface {
	CreateCashier(ctx context.Context, cashier *models.Cashier) error
	GetCashierByUsername(ctx context.Context, username string) (*models.Cashier, error)
	GetCashierByID(ctx context.Context, id string) (*models.Cashier, error)
}

// Ensure PasswordAuthenticator implements Authenticator
var _ Authenticator = (*PasswordAuthenticator)(nil)

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage CashierStorage
}

// NewPasswordAuthenticator creates a new password-based authenticator.
func NewPasswordAuthenticator(storage CashierStorage) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new cashier account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, username, displayName, credential string) (*models.Cashier, error) {
	if err := a.ValidateCredential(credential); err != nil {
		return nil, err
	}

	existing, err := a.storage.GetCashierByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up cashier: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(credential), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	cashier := models.NewCashier(username, displayName, string(hashedPassword))
	if err := a.storage.CreateCashier(ctx, cashier); err != nil {
		return nil, fmt.Errorf("failed to create cashier: %w", err)
	}

	return cashier, nil
}

// Authenticate verifies the username and password, returning the cashier if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, username, credential string) (*models.Cashier, error) {
	cashier, err := a.storage.GetCashierByUsername(ctx, username)
	if err != nil || cashier == nil {
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cashier.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return cashier, nil
}

// Lookup returns a cashier by ID, or nil when unknown.
func (a *PasswordAuthenticator) Lookup(ctx context.Context, id string) (*models.Cashier, error) {
	cashier, err := a.storage.GetCashierByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get cashier: %w", err)
	}
	return cashier, nil
}
