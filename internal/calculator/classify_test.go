package calculator

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billpay/internal/models"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(id string, qty int, price, paid string) models.BillItem {
	return models.BillItem{
		ID:             id,
		ConsommationID: "c1",
		Quantity:       qty,
		UnitPrice:      dec(price),
		PaidAmount:     dec(paid),
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		item  models.BillItem
		entry *models.CacheEntry
		want  models.PaymentStatus
	}{
		{
			name: "nothing paid",
			item: item("i1", 2, "10", "0"),
			want: models.StatusUnpaid,
		},
		{
			name: "fully paid by amount",
			item: item("i1", 2, "10", "20"),
			want: models.StatusPaid,
		},
		{
			name: "overpaid still paid",
			item: item("i1", 1, "10", "25"),
			want: models.StatusPaid,
		},
		{
			name: "partially paid by amount",
			item: item("i1", 2, "10", "5"),
			want: models.StatusPartiallyPaid,
		},
		{
			name: "partially paid by quantity",
			item: models.BillItem{ID: "i1", Quantity: 3, UnitPrice: dec("10"), PaidQuantity: 1},
			want: models.StatusPartiallyPaid,
		},
		{
			name: "server paid flag",
			item: models.BillItem{ID: "i1", Quantity: 1, UnitPrice: dec("10"), Paid: true},
			want: models.StatusPaid,
		},
		{
			name: "free item with nothing paid",
			item: item("i1", 1, "0", "0"),
			want: models.StatusUnpaid,
		},
		{
			name:  "cache paid overrides server amounts",
			item:  item("i1", 1, "100", "0"),
			entry: &models.CacheEntry{Paid: true},
			want:  models.StatusPaid,
		},
		{
			name:  "cached partial amount overrides stale server amount",
			item:  item("i1", 2, "50", "0"),
			entry: &models.CacheEntry{PaidAmount: dec("50")},
			want:  models.StatusPartiallyPaid,
		},
		{
			name:  "cached amount covering total",
			item:  item("i1", 2, "50", "0"),
			entry: &models.CacheEntry{PaidAmount: dec("100")},
			want:  models.StatusPaid,
		},
		{
			name:  "unpaid cache entry does not hide server payment",
			item:  item("i1", 1, "40", "40"),
			entry: &models.CacheEntry{Paid: false, PaidAmount: dec("0")},
			want:  models.StatusPaid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.item, tt.entry); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := item("i1", 2, "50", "0")

	t.Run("nil entry returns item unchanged", func(t *testing.T) {
		got := Merge(base, nil)
		if !got.PaidAmount.Equal(base.PaidAmount) || got.Paid {
			t.Errorf("Merge(nil) = %+v, want %+v", got, base)
		}
	})

	t.Run("paid entry clears remaining", func(t *testing.T) {
		got := Merge(base, &models.CacheEntry{Paid: true})
		if !got.Remaining().IsZero() {
			t.Errorf("remaining = %s, want 0", got.Remaining())
		}
		if got.PaidQuantity != 2 {
			t.Errorf("paid quantity = %d, want 2", got.PaidQuantity)
		}
	})

	t.Run("partial entry lowers remaining", func(t *testing.T) {
		got := Merge(base, &models.CacheEntry{PaidAmount: dec("30")})
		if !got.Remaining().Equal(dec("70")) {
			t.Errorf("remaining = %s, want 70", got.Remaining())
		}
	})

	t.Run("merged view classifies like cached classification", func(t *testing.T) {
		entries := []*models.CacheEntry{
			nil,
			{Paid: true},
			{PaidAmount: dec("30")},
			{PaidAmount: dec("100")},
		}
		for _, e := range entries {
			if Classify(Merge(base, e), nil) != Classify(base, e) {
				t.Errorf("merged classification differs for entry %+v", e)
			}
		}
	})
}
