package models

import "github.com/shopspring/decimal"

// BillItem is a single billable line (a service or drug) within a consommation.
type BillItem struct {
	// ID is the server identifier of the item; it is also the cache key.
	ID string `json:"id"`

	// ConsommationID is the consommation the item belongs to.
	ConsommationID string `json:"consommation_id"`

	// Description is the service or drug name shown on receipts.
	Description string `json:"description,omitempty"`

	// Quantity is the number of units billed. Always positive.
	Quantity int `json:"quantity"`

	// UnitPrice is the price of one unit.
	UnitPrice decimal.Decimal `json:"unit_price"`

	// PaidAmount is the amount already credited against this item.
	PaidAmount decimal.Decimal `json:"paid_amount"`

	// PaidQuantity is the number of whole units the server reports as paid.
	PaidQuantity int `json:"paid_quantity"`

	// Paid is the explicit paid flag reported by the server, if any.
	Paid bool `json:"paid"`
}

// ItemTotal returns quantity × unit price.
func (i BillItem) ItemTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Remaining returns what is still owed on the item, never negative.
func (i BillItem) Remaining() decimal.Decimal {
	remaining := i.ItemTotal().Sub(i.PaidAmount)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// Consommation groups one department's bill items under a global bill.
type Consommation struct {
	// ID is the server identifier of the consommation.
	ID string `json:"id"`

	// GlobalBillID is the parent global bill.
	GlobalBillID string `json:"global_bill_id,omitempty"`

	// Department is the service or department that produced the items.
	Department string `json:"department,omitempty"`

	// Items are the bill items of this consommation, in server order.
	Items []BillItem `json:"items"`
}

// TotalDue returns the sum of Remaining over all items.
func (c Consommation) TotalDue() decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		total = total.Add(item.Remaining())
	}
	return total
}

// GlobalBill is the top-level bill of an admission.
type GlobalBill struct {
	ID              string   `json:"id"`
	AdmissionID     string   `json:"admission_id,omitempty"`
	ConsommationIDs []string `json:"consommation_ids"`
}
