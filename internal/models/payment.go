package models

import "github.com/shopspring/decimal"

// PaymentStatus is the display status of a bill item.
type PaymentStatus string

const (
	StatusUnpaid        PaymentStatus = "UNPAID"
	StatusPartiallyPaid PaymentStatus = "PARTIALLY_PAID"
	StatusPaid          PaymentStatus = "PAID"
)

// PaymentMethod is how the cashier collected the money.
type PaymentMethod string

const (
	MethodCash    PaymentMethod = "CASH"
	MethodDeposit PaymentMethod = "DEPOSIT"
)

// Selection is one bill item chosen by the cashier for payment.
type Selection struct {
	ConsommationID string `json:"consommation_id" validate:"required"`
	ItemID         string `json:"item_id" validate:"required"`
}

// PaidItem is the per-item part of a payment request.
type PaidItem struct {
	// ItemID is the bill item being paid.
	ItemID string `json:"item_id"`

	// PaidQuantity is the number of whole units paid. The billing API only
	// accepts whole units.
	PaidQuantity int `json:"paid_quantity"`

	// AppliedAmount is the part of the entered amount consumed by this item.
	// Used for receipts and the local cache; never sent to the billing API.
	AppliedAmount decimal.Decimal `json:"applied_amount"`
}

// PaymentRequest is the allocation for a single consommation.
type PaymentRequest struct {
	// ConsommationID is the consommation the payment is submitted against.
	ConsommationID string `json:"consommation_id"`

	// Amount is the entered money applied to this consommation.
	Amount decimal.Decimal `json:"amount"`

	// Items are the paid quantities per bill item.
	Items []PaidItem `json:"items"`
}

// PaymentReceipt is the billing API's answer to a successful submission.
type PaymentReceipt struct {
	BillPaymentID string          `json:"bill_payment_id"`
	AmountPaid    decimal.Decimal `json:"amount_paid"`
	Status        string          `json:"status"`
}

// AttemptStatus is the outcome of one submitted payment request.
type AttemptStatus string

const (
	AttemptSucceeded AttemptStatus = "SUCCEEDED"
	AttemptFailed    AttemptStatus = "FAILED"
)

// PaymentAttempt is the local audit record of one submitted payment request.
type PaymentAttempt struct {
	// ID is the unique identifier for the attempt (UUID format).
	ID string `json:"id"`

	ConsommationID string          `json:"consommation_id"`
	Amount         decimal.Decimal `json:"amount"`
	Items          []PaidItem      `json:"items"`
	Method         PaymentMethod   `json:"method"`

	// CollectorID is the cashier who took the payment.
	CollectorID string `json:"collector_id"`

	Status AttemptStatus `json:"status"`

	// BillPaymentID is set when the billing API accepted the payment.
	BillPaymentID string `json:"bill_payment_id,omitempty"`

	// Error holds the failure message when Status is FAILED.
	Error string `json:"error,omitempty"`

	// CreatedAt is the Unix timestamp when the attempt finished.
	CreatedAt int64 `json:"created_at"`
}
