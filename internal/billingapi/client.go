// Package billingapi talks to the EMR billing REST API: it submits payment
// requests and fetches consommations and their bill items.
package billingapi

import (
	"context"

	"github.com/mmynk/billpay/internal/models"
)

// Submission is one payment request together with how it was collected.
type Submission struct {
	Request     models.PaymentRequest
	Method      models.PaymentMethod
	CollectorID string
}

// Client is the billing API as seen by the payment service.
type Client interface {
	// SubmitPayment posts one payment request for a single consommation.
	SubmitPayment(ctx context.Context, submission Submission) (models.PaymentReceipt, error)

	// FetchItemsForConsommation returns the bill items of a consommation.
	FetchItemsForConsommation(ctx context.Context, consommationID string) ([]models.BillItem, error)

	// FetchConsommation returns a consommation with its items.
	FetchConsommation(ctx context.Context, consommationID string) (models.Consommation, error)

	// FetchConsommationsByGlobalBill returns every consommation of a global bill.
	FetchConsommationsByGlobalBill(ctx context.Context, globalBillID string) ([]models.Consommation, error)
}
