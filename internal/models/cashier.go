package models

import (
	"time"

	"github.com/google/uuid"
)

// Cashier is a staff account allowed to collect payments.
type Cashier struct {
	// ID is the unique identifier for the cashier (UUID format).
	// It is recorded as the collector of every payment.
	ID string

	// Username is the login name (unique).
	Username string

	// DisplayName is printed on receipts.
	DisplayName string

	// PasswordHash is the bcrypt hash of the cashier's password.
	PasswordHash string

	CreatedAt int64
	UpdatedAt int64
}

// NewCashier creates a cashier with a fresh ID and timestamps.
func NewCashier(username, displayName, passwordHash string) *Cashier {
	now := time.Now().Unix()
	return &Cashier{
		ID:           uuid.New().String(),
		Username:     username,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
