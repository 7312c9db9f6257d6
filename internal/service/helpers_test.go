package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/billpay/internal/billingapi"
	"github.com/mmynk/billpay/internal/middleware"
	"github.com/mmynk/billpay/internal/models"
	"github.com/mmynk/billpay/internal/paycache"
	"github.com/mmynk/billpay/internal/storage/memory"
	"github.com/mmynk/billpay/internal/storage/sqlite"
	"github.com/mmynk/billpay/pkg/billingrpc"
)

const testCashierID = "cashier-1"

// stubBilling is an in-memory billing API.
type stubBilling struct {
	mu          sync.Mutex
	items       map[string][]models.BillItem
	globalBills map[string][]string
	submitErrs  map[string]error
	submissions []billingapi.Submission
	fetches     int

	// When set, SubmitPayment announces itself on started and then waits
	// for gate to close.
	started chan string
	gate    chan struct{}

	// Fetches of a held consommation announce themselves on fetchStarted
	// and wait for the matching gate to close.
	fetchStarted chan string
	fetchGates   map[string]chan struct{}
}

func newStubBilling() *stubBilling {
	return &stubBilling{
		items:       make(map[string][]models.BillItem),
		globalBills: make(map[string][]string),
		submitErrs:  make(map[string]error),
	}
}

func (b *stubBilling) addConsommation(id string, items ...models.BillItem) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i := range items {
		items[i].ConsommationID = id
	}
	b.items[id] = items
}

func (b *stubBilling) block() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.started = make(chan string, 10)
	b.gate = make(chan struct{})
}

// holdFetch blocks item fetches of consommationID until the returned channel
// is closed.
func (b *stubBilling) holdFetch(consommationID string) chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.fetchGates == nil {
		b.fetchGates = make(map[string]chan struct{})
		b.fetchStarted = make(chan string, 10)
	}
	gate := make(chan struct{})
	b.fetchGates[consommationID] = gate
	return gate
}

func (b *stubBilling) SubmitPayment(ctx context.Context, sub billingapi.Submission) (models.PaymentReceipt, error) {
	b.mu.Lock()
	b.submissions = append(b.submissions, sub)
	n := len(b.submissions)
	err := b.submitErrs[sub.Request.ConsommationID]
	started, gate := b.started, b.gate
	b.mu.Unlock()

	if started != nil {
		started <- sub.Request.ConsommationID
	}
	if gate != nil {
		<-gate
	}
	if err != nil {
		return models.PaymentReceipt{}, err
	}
	return models.PaymentReceipt{
		BillPaymentID: fmt.Sprintf("bp-%d", n),
		AmountPaid:    sub.Request.Amount,
		Status:        "PAID",
	}, nil
}

func (b *stubBilling) FetchItemsForConsommation(ctx context.Context, consommationID string) ([]models.BillItem, error) {
	b.mu.Lock()
	gate, started := b.fetchGates[consommationID], b.fetchStarted
	b.mu.Unlock()
	if gate != nil {
		started <- consommationID
		<-gate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.fetches++

	items, ok := b.items[consommationID]
	if !ok {
		return nil, &billingapi.Error{Kind: billingapi.KindHTTPStatus, Op: "fetch bill items", StatusCode: http.StatusNotFound}
	}
	return append([]models.BillItem(nil), items...), nil
}

func (b *stubBilling) FetchConsommation(ctx context.Context, consommationID string) (models.Consommation, error) {
	items, err := b.FetchItemsForConsommation(ctx, consommationID)
	if err != nil {
		return models.Consommation{}, err
	}
	cons := models.Consommation{ID: consommationID, Items: items}

	b.mu.Lock()
	defer b.mu.Unlock()
	for globalBillID, ids := range b.globalBills {
		for _, id := range ids {
			if id == consommationID {
				cons.GlobalBillID = globalBillID
			}
		}
	}
	return cons, nil
}

func (b *stubBilling) FetchConsommationsByGlobalBill(ctx context.Context, globalBillID string) ([]models.Consommation, error) {
	b.mu.Lock()
	ids, ok := b.globalBills[globalBillID]
	b.mu.Unlock()
	if !ok {
		return nil, &billingapi.Error{Kind: billingapi.KindHTTPStatus, Op: "fetch global bill consommations", StatusCode: http.StatusNotFound}
	}

	out := make([]models.Consommation, 0, len(ids))
	for _, id := range ids {
		c, err := b.FetchConsommation(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (b *stubBilling) submissionCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.submissions)
}

func (b *stubBilling) submitted() []billingapi.Submission {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]billingapi.Submission(nil), b.submissions...)
}

func (b *stubBilling) fetchCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.fetches
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// testAuthInterceptor returns a Connect interceptor that sets a test cashier in the context.
func testAuthInterceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			return next(middleware.WithCashier(ctx, testCashierID, "amina"), req)
		}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

type paymentFixture struct {
	client  billingrpc.PaymentServiceClient
	svc     *PaymentService
	cache   *paycache.ReconciliationCache
	billing *stubBilling
	clock   *fakeClock
}

// setupPaymentServer serves a PaymentService backed by billing, memory cache
// tiers and a SQLite payment log.
func setupPaymentServer(t *testing.T, billing *stubBilling) *paymentFixture {
	t.Helper()

	store := newTestStore(t)
	clock := &fakeClock{now: time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC)}
	cache := paycache.New(memory.New(), memory.New(),
		paycache.WithClock(clock.Now),
		paycache.WithLogger(discardLogger()),
	)
	svc := NewPaymentService(billing, cache, store, WithLogger(discardLogger()))

	path, handler := billingrpc.NewPaymentServiceHandler(svc, connect.WithInterceptors(
		testAuthInterceptor(),
		middleware.ValidateInterceptor(validator.New()),
	))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &paymentFixture{
		client:  billingrpc.NewPaymentServiceClient(http.DefaultClient, server.URL),
		svc:     svc,
		cache:   cache,
		billing: billing,
		clock:   clock,
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(id string, qty int, price string) models.BillItem {
	return models.BillItem{ID: id, Description: "service " + id, Quantity: qty, UnitPrice: dec(price)}
}

func sel(consommationID, itemID string) models.Selection {
	return models.Selection{ConsommationID: consommationID, ItemID: itemID}
}
