// Package models defines the core domain models for billpay.
//
// # Billing records
//
// The external EMR billing API owns the authoritative records:
//   - GlobalBill: the top-level bill of an admission, grouping consommations
//   - Consommation: one department's sub-bill with its bill items
//   - BillItem: a billable service or drug line (quantity × unit price)
//
// # Payment flow
//
// A cashier picks Selections, the allocator turns an amount into one
// PaymentRequest per consommation, and each request yields a PaymentReceipt
// (or a failure) recorded as a PaymentAttempt.
//
// # Local cache
//
// CacheEntry is the optimistic, per-item payment state kept between a
// successful submission and the next server reload. It is never a source of
// truth; the server records win on reconciliation.
//
// All money fields use decimal.Decimal. Relationships are expressed with ID
// strings rather than pointers.
package models
