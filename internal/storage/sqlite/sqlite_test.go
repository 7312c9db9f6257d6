package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/billpay/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "billpay-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := New(filepath.Join(tempDir, "nested", "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func TestSQLiteStore_KV(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("Get returns not found for missing key", func(t *testing.T) {
		_, ok, err := store.Get(ctx, "missing")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if ok {
			t.Error("Expected missing key to be reported as absent")
		}
	})

	t.Run("Set overwrites existing value", func(t *testing.T) {
		if err := store.Set(ctx, "billpay:item-payment:1", `{"paid":false}`); err != nil {
			t.Fatalf("Set failed: %v", err)
		}
		if err := store.Set(ctx, "billpay:item-payment:1", `{"paid":true}`); err != nil {
			t.Fatalf("Set failed: %v", err)
		}

		value, ok, err := store.Get(ctx, "billpay:item-payment:1")
		if err != nil || !ok {
			t.Fatalf("Get failed: ok=%v err=%v", ok, err)
		}
		if value != `{"paid":true}` {
			t.Errorf("value = %s, want overwritten value", value)
		}
	})

	t.Run("Keys matches prefix literally", func(t *testing.T) {
		store.Set(ctx, "billpay:item-payment:2", "{}")
		store.Set(ctx, "billpay:item-paymentX", "{}")
		store.Set(ctx, "other:1", "{}")

		keys, err := store.Keys(ctx, "billpay:item-payment:")
		if err != nil {
			t.Fatalf("Keys failed: %v", err)
		}
		sort.Strings(keys)
		want := []string{"billpay:item-payment:1", "billpay:item-payment:2"}
		if len(keys) != len(want) || keys[0] != want[0] || keys[1] != want[1] {
			t.Errorf("Keys = %v, want %v", keys, want)
		}
	})

	t.Run("Delete removes key", func(t *testing.T) {
		if err := store.Delete(ctx, "billpay:item-payment:2"); err != nil {
			t.Fatalf("Delete failed: %v", err)
		}
		if _, ok, _ := store.Get(ctx, "billpay:item-payment:2"); ok {
			t.Error("Expected key to be deleted")
		}
		if err := store.Delete(ctx, "billpay:item-payment:2"); err != nil {
			t.Errorf("Deleting a missing key should not fail: %v", err)
		}
	})
}

func TestSQLiteStore_PaymentAttempts(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := &models.PaymentAttempt{
		ConsommationID: "c1",
		Amount:         decimal.RequireFromString("40.50"),
		Items: []models.PaidItem{
			{ItemID: "i1", PaidQuantity: 1, AppliedAmount: decimal.RequireFromString("40.50")},
		},
		Method:        models.MethodCash,
		CollectorID:   "cashier-1",
		Status:        models.AttemptSucceeded,
		BillPaymentID: "bp-1",
		CreatedAt:     100,
	}
	second := &models.PaymentAttempt{
		ConsommationID: "c1",
		Amount:         decimal.RequireFromString("10"),
		Method:         models.MethodDeposit,
		CollectorID:    "cashier-1",
		Status:         models.AttemptFailed,
		Error:          "billing API returned 502",
		CreatedAt:      200,
	}
	other := &models.PaymentAttempt{ConsommationID: "c2", Amount: decimal.NewFromInt(1), Status: models.AttemptSucceeded}

	for _, a := range []*models.PaymentAttempt{first, second, other} {
		if err := store.RecordPaymentAttempt(ctx, a); err != nil {
			t.Fatalf("RecordPaymentAttempt failed: %v", err)
		}
	}

	if other.ID == "" || other.CreatedAt == 0 {
		t.Error("Expected ID and CreatedAt to be generated")
	}

	attempts, err := store.ListPaymentAttempts(ctx, "c1")
	if err != nil {
		t.Fatalf("ListPaymentAttempts failed: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("Expected 2 attempts, got %d", len(attempts))
	}

	if attempts[0].ID != second.ID {
		t.Errorf("Expected newest attempt first, got %s", attempts[0].ID)
	}
	if attempts[0].Error != second.Error || attempts[0].BillPaymentID != "" {
		t.Errorf("Failed attempt not round-tripped: %+v", attempts[0])
	}

	got := attempts[1]
	if !got.Amount.Equal(first.Amount) {
		t.Errorf("Amount = %s, want %s", got.Amount, first.Amount)
	}
	if got.Method != models.MethodCash || got.Status != models.AttemptSucceeded || got.BillPaymentID != "bp-1" {
		t.Errorf("Attempt fields mismatch: %+v", got)
	}
	if len(got.Items) != 1 || got.Items[0].ItemID != "i1" || !got.Items[0].AppliedAmount.Equal(first.Amount) {
		t.Errorf("Items mismatch: %+v", got.Items)
	}
}

func TestSQLiteStore_Cashiers(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cashier := models.NewCashier("amina", "Amina K.", "hash")
	if err := store.CreateCashier(ctx, cashier); err != nil {
		t.Fatalf("CreateCashier failed: %v", err)
	}

	byName, err := store.GetCashierByUsername(ctx, "amina")
	if err != nil || byName == nil {
		t.Fatalf("GetCashierByUsername failed: %v", err)
	}
	if byName.ID != cashier.ID || byName.DisplayName != "Amina K." {
		t.Errorf("Cashier mismatch: %+v", byName)
	}

	byID, err := store.GetCashierByID(ctx, cashier.ID)
	if err != nil || byID == nil || byID.Username != "amina" {
		t.Fatalf("GetCashierByID failed: %+v, %v", byID, err)
	}

	missing, err := store.GetCashierByUsername(ctx, "nobody")
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for unknown cashier, got %+v, %v", missing, err)
	}

	if err := store.CreateCashier(ctx, models.NewCashier("amina", "Other", "hash")); err == nil {
		t.Error("Expected duplicate username to fail")
	}
}
