// Package storage provides abstractions for the key/value tiers behind the
// payment cache and for local persistence of cashiers and payment attempts.
package storage

import (
	"context"

	"github.com/mmynk/billpay/internal/models"
)

// KV is a string-keyed, string-valued store. Values are opaque to the store;
// the payment cache writes JSON.
//
// Implementations must be safe for concurrent use.
type KV interface {
	// Get returns the value stored under key. ok is false when the key is
	// absent; err is reserved for backend failures.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every key starting with prefix, in no particular order.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// PaymentLog records every payment request submitted to the billing API.
type PaymentLog interface {
	// RecordPaymentAttempt persists an attempt. ID and CreatedAt are filled
	// in when empty.
	RecordPaymentAttempt(ctx context.Context, attempt *models.PaymentAttempt) error

	// ListPaymentAttempts returns the attempts for a consommation, newest first.
	ListPaymentAttempts(ctx context.Context, consommationID string) ([]*models.PaymentAttempt, error)
}
