package billingrpc

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/billpay/internal/models"
)

// SubmitOutcome summarizes a multi-consommation payment.
type SubmitOutcome string

const (
	OutcomeSucceeded          SubmitOutcome = "SUCCEEDED"
	OutcomePartiallySucceeded SubmitOutcome = "PARTIALLY_SUCCEEDED"
)

type AllocatePaymentRequest struct {
	Amount     decimal.Decimal    `json:"amount"`
	Selections []models.Selection `json:"selections" validate:"required,min=1,dive"`
}

type AllocatePaymentResponse struct {
	Requests       []models.PaymentRequest `json:"requests"`
	TotalAllocated decimal.Decimal         `json:"total_allocated"`
}

type SubmitPaymentRequest struct {
	Amount     decimal.Decimal      `json:"amount"`
	Selections []models.Selection   `json:"selections" validate:"required,min=1,dive"`
	Method     models.PaymentMethod `json:"method,omitempty" validate:"omitempty,oneof=CASH DEPOSIT"`
}

// SubmissionResult is the outcome of one consommation's payment request.
type SubmissionResult struct {
	Request   models.PaymentRequest  `json:"request"`
	Succeeded bool                   `json:"succeeded"`
	Receipt   *models.PaymentReceipt `json:"receipt,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

type SubmitPaymentResponse struct {
	Outcome SubmitOutcome      `json:"outcome"`
	Results []SubmissionResult `json:"results"`
}

// ItemStatus is a bill item as seen through the local cache.
type ItemStatus struct {
	Item   models.BillItem      `json:"item"`
	Status models.PaymentStatus `json:"status"`
	// Cached is true when a local cache entry contributed to the view.
	Cached bool `json:"cached"`
}

// ConsommationStatus lists the item statuses of one consommation.
type ConsommationStatus struct {
	ConsommationID string          `json:"consommation_id"`
	GlobalBillID   string          `json:"global_bill_id,omitempty"`
	Items          []ItemStatus    `json:"items"`
	TotalDue       decimal.Decimal `json:"total_due"`
}

type ClassifyItemsRequest struct {
	ConsommationID string `json:"consommation_id" validate:"required"`
}

type ClassifyItemsResponse struct {
	Consommation ConsommationStatus `json:"consommation"`
}

type ReconcileConsommationRequest struct {
	ConsommationID string `json:"consommation_id" validate:"required"`
}

type ReconcileConsommationResponse struct {
	Corrected    int                `json:"corrected"`
	Consommation ConsommationStatus `json:"consommation"`
}

type ReconcileGlobalBillRequest struct {
	GlobalBillID string `json:"global_bill_id" validate:"required"`
}

type ReconcileGlobalBillResponse struct {
	Corrected     int                  `json:"corrected"`
	Consommations []ConsommationStatus `json:"consommations"`
}

type PruneCacheRequest struct {
	// MaxAge overrides the configured retention, as a Go duration ("72h").
	MaxAge string `json:"max_age,omitempty"`
}

type PruneCacheResponse struct {
	Removed int `json:"removed"`
}

type ListPaymentsRequest struct {
	ConsommationID string `json:"consommation_id" validate:"required"`
}

type ListPaymentsResponse struct {
	Attempts []*models.PaymentAttempt `json:"attempts"`
}

// CashierInfo is the public part of a cashier account.
type CashierInfo struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	CreatedAt   int64  `json:"created_at,omitempty"`
}

type RegisterRequest struct {
	Username    string `json:"username" validate:"required,min=3,max=64"`
	DisplayName string `json:"display_name" validate:"required"`
	Password    string `json:"password" validate:"required"`
}

type RegisterResponse struct {
	Cashier CashierInfo `json:"cashier"`
	Token   string      `json:"token"`
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Cashier CashierInfo `json:"cashier"`
	Token   string      `json:"token"`
}

type GetCurrentCashierRequest struct{}

type GetCurrentCashierResponse struct {
	Cashier CashierInfo `json:"cashier"`
}
