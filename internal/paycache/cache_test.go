package paycache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/billpay/internal/calculator"
	"github.com/mmynk/billpay/internal/models"
	"github.com/mmynk/billpay/internal/storage/memory"
)

var errBackendDown = errors.New("backend down")

// failingKV fails every operation.
type failingKV struct{}

func (failingKV) Get(context.Context, string) (string, bool, error) { return "", false, errBackendDown }
func (failingKV) Set(context.Context, string, string) error         { return errBackendDown }
func (failingKV) Delete(context.Context, string) error              { return errBackendDown }
func (failingKV) Keys(context.Context, string) ([]string, error)    { return nil, errBackendDown }

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newCache(durable, session *memory.Store, clock *fakeClock) *ReconciliationCache {
	return New(durable, session,
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestRecordAndRead(t *testing.T) {
	ctx := context.Background()
	durable, session := memory.New(), memory.New()
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	cache := newCache(durable, session, clock)

	cache.Record(ctx, "item-1", true, dec("150"))

	entry, ok := cache.Read(ctx, "item-1")
	require.True(t, ok)
	assert.True(t, entry.Paid)
	assert.True(t, entry.PaidAmount.Equal(dec("150")))
	assert.Equal(t, int64(1_700_000_000_000), entry.Timestamp)

	assert.Equal(t, 1, durable.Len())
	assert.Equal(t, 1, session.Len())

	raw, ok, err := durable.Get(ctx, KeyPrefix+"item-1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"paid":true,"paid_amount":"150","timestamp":1700000000000}`, raw)
}

func TestRead_Missing(t *testing.T) {
	cache := newCache(memory.New(), memory.New(), &fakeClock{now: time.Now()})

	entry, ok := cache.Read(context.Background(), "nope")
	assert.False(t, ok)
	assert.Nil(t, entry)
}

func TestRead_DurableTakesPrecedence(t *testing.T) {
	ctx := context.Background()
	durable, session := memory.New(), memory.New()
	cache := newCache(durable, session, &fakeClock{now: time.UnixMilli(1000)})

	require.NoError(t, durable.Set(ctx, KeyPrefix+"item-1", `{"paid":true,"paid_amount":"10","timestamp":1000}`))
	require.NoError(t, session.Set(ctx, KeyPrefix+"item-1", `{"paid":false,"paid_amount":"2","timestamp":2000}`))

	entry, ok := cache.Read(ctx, "item-1")
	require.True(t, ok)
	assert.True(t, entry.Paid)
	assert.True(t, entry.PaidAmount.Equal(dec("10")))
}

func TestRead_FallsBackToSession(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		durable string
	}{
		{name: "missing in durable"},
		{name: "corrupt durable value", durable: "{not json"},
		{name: "durable value without timestamp", durable: `{"paid":true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			durable, session := memory.New(), memory.New()
			cache := newCache(durable, session, &fakeClock{now: time.UnixMilli(1000)})

			if tt.durable != "" {
				require.NoError(t, durable.Set(ctx, KeyPrefix+"item-1", tt.durable))
			}
			require.NoError(t, session.Set(ctx, KeyPrefix+"item-1", `{"paid":false,"paid_amount":"4","timestamp":1000}`))

			entry, ok := cache.Read(ctx, "item-1")
			require.True(t, ok)
			assert.False(t, entry.Paid)
			assert.True(t, entry.PaidAmount.Equal(dec("4")))
		})
	}
}

func TestRead_BothTiersCorrupt(t *testing.T) {
	ctx := context.Background()
	durable, session := memory.New(), memory.New()
	cache := newCache(durable, session, &fakeClock{now: time.UnixMilli(1000)})

	require.NoError(t, durable.Set(ctx, KeyPrefix+"item-1", "garbage"))
	require.NoError(t, session.Set(ctx, KeyPrefix+"item-1", "[]"))

	_, ok := cache.Read(ctx, "item-1")
	assert.False(t, ok)
}

func TestFailingDurableTierDegrades(t *testing.T) {
	ctx := context.Background()
	session := memory.New()
	clock := &fakeClock{now: time.UnixMilli(1000)}
	cache := New(failingKV{}, session,
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	assert.NotPanics(t, func() {
		cache.Record(ctx, "item-1", true, dec("20"))
	})

	entry, ok := cache.Read(ctx, "item-1")
	require.True(t, ok)
	assert.True(t, entry.Paid)

	clock.now = clock.now.Add(time.Hour)
	assert.Equal(t, 1, cache.Prune(ctx, time.Minute))
}

func TestAllTiersFailing(t *testing.T) {
	ctx := context.Background()
	cache := New(failingKV{}, failingKV{},
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	cache.Record(ctx, "item-1", true, dec("20"))
	_, ok := cache.Read(ctx, "item-1")
	assert.False(t, ok)
	assert.Equal(t, 0, cache.Reconcile(ctx, []models.BillItem{{ID: "item-1", Quantity: 1, UnitPrice: dec("20")}}))
	assert.Equal(t, 0, cache.Prune(ctx, time.Hour))
}

func TestReconcile(t *testing.T) {
	ctx := context.Background()
	durable, session := memory.New(), memory.New()
	clock := &fakeClock{now: time.UnixMilli(5000)}
	cache := newCache(durable, session, clock)

	// Optimistically marked paid, but the server never recorded it.
	cache.Record(ctx, "stale", true, dec("30"))
	// Matches the server.
	cache.Record(ctx, "agrees", true, dec("10"))
	// Cached unpaid, server now reports it paid.
	cache.Record(ctx, "behind", false, dec("5"))

	serverItems := []models.BillItem{
		{ID: "stale", Quantity: 1, UnitPrice: dec("30")},
		{ID: "agrees", Quantity: 1, UnitPrice: dec("10"), PaidAmount: dec("10")},
		{ID: "behind", Quantity: 2, UnitPrice: dec("5"), PaidAmount: dec("10"), PaidQuantity: 2},
		{ID: "uncached", Quantity: 1, UnitPrice: dec("1")},
	}

	assert.Equal(t, 2, cache.Reconcile(ctx, serverItems))

	stale, ok := cache.Read(ctx, "stale")
	require.True(t, ok)
	assert.False(t, stale.Paid)
	assert.True(t, stale.PaidAmount.IsZero())

	behind, ok := cache.Read(ctx, "behind")
	require.True(t, ok)
	assert.True(t, behind.Paid)
	assert.True(t, behind.PaidAmount.Equal(dec("10")))

	_, ok = cache.Read(ctx, "uncached")
	assert.False(t, ok)

	// Idempotent.
	assert.Equal(t, 0, cache.Reconcile(ctx, serverItems))
}

func TestReconcile_CorrectsStaleSessionTier(t *testing.T) {
	ctx := context.Background()
	durable, session := memory.New(), memory.New()
	cache := newCache(durable, session, &fakeClock{now: time.UnixMilli(5000)})

	// The durable tier agrees with the server; the session tier still
	// holds an optimistic paid flag.
	cache.Record(ctx, "X1", false, dec("0"))
	require.NoError(t, session.Set(ctx, KeyPrefix+"X1", `{"paid":true,"paid_amount":"30","timestamp":4000}`))

	serverItems := []models.BillItem{{ID: "X1", Quantity: 1, UnitPrice: dec("30")}}
	assert.Equal(t, 1, cache.Reconcile(ctx, serverItems))

	value, ok, err := session.Get(ctx, KeyPrefix+"X1")
	require.NoError(t, err)
	require.True(t, ok)
	entry, err := decode(value)
	require.NoError(t, err)
	assert.False(t, entry.Paid)
	assert.Equal(t, int64(5000), entry.Timestamp)

	assert.Equal(t, 0, cache.Reconcile(ctx, serverItems))
}

func TestPrune(t *testing.T) {
	ctx := context.Background()
	durable, session := memory.New(), memory.New()
	clock := &fakeClock{now: time.UnixMilli(0).Add(30 * 24 * time.Hour)}
	cache := newCache(durable, session, clock)

	cache.Record(ctx, "fresh", true, dec("1"))

	clock.now = clock.now.Add(-8 * 24 * time.Hour)
	cache.Record(ctx, "old", true, dec("1"))
	clock.now = clock.now.Add(8 * 24 * time.Hour)

	require.NoError(t, durable.Set(ctx, KeyPrefix+"corrupt", "???"))
	require.NoError(t, durable.Set(ctx, "other:key", "kept"))

	// old in both tiers plus the corrupt durable key.
	assert.Equal(t, 3, cache.Prune(ctx, DefaultRetention))

	_, ok := cache.Read(ctx, "fresh")
	assert.True(t, ok)
	_, ok = cache.Read(ctx, "old")
	assert.False(t, ok)

	_, ok, err := durable.Get(ctx, "other:key")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, durable.Len())
	assert.Equal(t, 1, session.Len())
}

// A successful submission is reflected by the classifier before the server
// echoes it back.
func TestRecordedPaymentClassifiesAsPaid(t *testing.T) {
	ctx := context.Background()
	cache := newCache(memory.New(), memory.New(), &fakeClock{now: time.UnixMilli(1000)})

	item := models.BillItem{ID: "A1", ConsommationID: "C1", Quantity: 1, UnitPrice: dec("50")}
	entry, _ := cache.Read(ctx, item.ID)
	require.Equal(t, models.StatusUnpaid, calculator.Classify(item, entry))

	cache.Record(ctx, item.ID, true, dec("50"))

	entry, ok := cache.Read(ctx, item.ID)
	require.True(t, ok)
	assert.Equal(t, models.StatusPaid, calculator.Classify(item, entry))
}

func TestNilTiersAreSkipped(t *testing.T) {
	ctx := context.Background()
	session := memory.New()
	cache := New(nil, session, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	cache.Record(ctx, "item-1", false, dec("3"))
	entry, ok := cache.Read(ctx, "item-1")
	require.True(t, ok)
	assert.True(t, entry.PaidAmount.Equal(dec("3")))
}
