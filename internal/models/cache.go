package models

import "github.com/shopspring/decimal"

// CacheEntry is the locally known payment state of one bill item.
type CacheEntry struct {
	Paid       bool            `json:"paid"`
	PaidAmount decimal.Decimal `json:"paid_amount"`

	// Timestamp is the Unix time in milliseconds when the entry was written.
	Timestamp int64 `json:"timestamp"`
}
