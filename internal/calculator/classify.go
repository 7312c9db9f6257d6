package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/billpay/internal/models"
)

// Classify derives the payment status of a bill item.
//
// Rules, first match wins:
//   - cached entry marked paid → PAID
//   - paid amount covers the item total (total > 0) → PAID
//   - server paid flag → PAID
//   - some but not all money or units paid → PARTIALLY_PAID
//   - otherwise → UNPAID
//
// The cached entry is consulted first because it reflects the latest payment
// made from this side, which the server may not have echoed back yet. A cached
// paid amount larger than the server's is used as an override.
func Classify(item models.BillItem, entry *models.CacheEntry) models.PaymentStatus {
	if entry != nil && entry.Paid {
		return models.StatusPaid
	}

	total := item.ItemTotal()
	paid := effectivePaidAmount(item, entry)

	if total.IsPositive() && paid.GreaterThanOrEqual(total) {
		return models.StatusPaid
	}
	if item.Paid {
		return models.StatusPaid
	}
	if paid.IsPositive() && paid.LessThan(total) {
		return models.StatusPartiallyPaid
	}
	if item.PaidQuantity > 0 && item.PaidQuantity < item.Quantity {
		return models.StatusPartiallyPaid
	}
	return models.StatusUnpaid
}

// Merge returns the item as seen through its cached entry. The result
// classifies the same way as Classify(item, entry) and its Remaining reflects
// payments the server has not reported yet.
func Merge(item models.BillItem, entry *models.CacheEntry) models.BillItem {
	if entry == nil {
		return item
	}

	merged := item
	if entry.Paid {
		merged.Paid = true
		merged.PaidAmount = decimal.Max(item.PaidAmount, item.ItemTotal())
		merged.PaidQuantity = item.Quantity
		return merged
	}
	merged.PaidAmount = effectivePaidAmount(item, entry)
	return merged
}

// eligible reports whether an item can still receive money.
func eligible(item models.BillItem) bool {
	return Classify(item, nil) != models.StatusPaid && item.Remaining().IsPositive()
}

func effectivePaidAmount(item models.BillItem, entry *models.CacheEntry) decimal.Decimal {
	if entry == nil {
		return item.PaidAmount
	}
	return decimal.Max(item.PaidAmount, entry.PaidAmount)
}
