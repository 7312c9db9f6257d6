package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/billpay/internal/auth"
	"github.com/mmynk/billpay/internal/billingapi"
	"github.com/mmynk/billpay/internal/calculator"
	"github.com/mmynk/billpay/internal/metrics"
	"github.com/mmynk/billpay/internal/middleware"
	"github.com/mmynk/billpay/internal/models"
	"github.com/mmynk/billpay/internal/paycache"
	"github.com/mmynk/billpay/internal/storage"
	"github.com/mmynk/billpay/pkg/billingrpc"
)

var (
	ErrSubmissionInProgress = errors.New("a payment for some of these items is already in progress")
	ErrAllSubmissionsFailed = errors.New("no payment request was accepted by the billing API")
)

// PaymentService implements the Connect PaymentService.
type PaymentService struct {
	billingrpc.UnimplementedPaymentServiceHandler
	billing   billingapi.Client
	cache     *paycache.ReconciliationCache
	payments  storage.PaymentLog
	retention time.Duration
	logger    *slog.Logger

	mu sync.Mutex
	// inFlight holds the item IDs of submissions not yet finished.
	inFlight map[string]bool
	// generations counts reloads per consommation. A submission only updates
	// the cache if the generation it started with is still current.
	generations map[string]uint64
}

// PaymentOption configures a PaymentService.
type PaymentOption func(*PaymentService)

// WithRetention sets the default PruneCache age.
func WithRetention(d time.Duration) PaymentOption {
	return func(s *PaymentService) {
		s.retention = d
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) PaymentOption {
	return func(s *PaymentService) {
		s.logger = logger
	}
}

// NewPaymentService creates a PaymentService. payments may be nil, in which
// case attempts are not logged.
func NewPaymentService(billing billingapi.Client, cache *paycache.ReconciliationCache, payments storage.PaymentLog, opts ...PaymentOption) *PaymentService {
	s := &PaymentService{
		billing:     billing,
		cache:       cache,
		payments:    payments,
		retention:   paycache.DefaultRetention,
		logger:      slog.Default(),
		inFlight:    make(map[string]bool),
		generations: make(map[string]uint64),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AllocatePayment previews how an amount would be split. Nothing is submitted.
func (s *PaymentService) AllocatePayment(ctx context.Context, req *connect.Request[billingrpc.AllocatePaymentRequest]) (*connect.Response[billingrpc.AllocatePaymentResponse], error) {
	requests, _, err := s.prepare(ctx, req.Msg.Amount, req.Msg.Selections)
	if err != nil {
		return nil, err
	}

	return connect.NewResponse(&billingrpc.AllocatePaymentResponse{
		Requests:       requests,
		TotalAllocated: calculator.SumAmounts(requests),
	}), nil
}

// SubmitPayment allocates the amount and submits one payment request per
// consommation concurrently. A failed request does not stop the others and is
// not retried. Items of accepted requests are recorded in the payment cache.
func (s *PaymentService) SubmitPayment(ctx context.Context, req *connect.Request[billingrpc.SubmitPaymentRequest]) (*connect.Response[billingrpc.SubmitPaymentResponse], error) {
	cashierID := middleware.GetCashierID(ctx)
	if cashierID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	method := req.Msg.Method
	if method == "" {
		method = models.MethodCash
	}

	// Selected items stay claimed from the cache read until the cache is
	// updated, so a concurrent submission cannot allocate from a stale view.
	itemIDs := selectedItemIDs(req.Msg.Selections)
	if !s.acquire(itemIDs) {
		return nil, connect.NewError(connect.CodeAborted, ErrSubmissionInProgress)
	}
	defer s.release(itemIDs)

	requests, itemsByID, err := s.prepare(ctx, req.Msg.Amount, req.Msg.Selections)
	if err != nil {
		return nil, err
	}

	generations := s.currentGenerations(requests)

	// Submissions finish even if the caller goes away.
	detached := context.WithoutCancel(ctx)
	results := s.submitAll(detached, requests, method, cashierID)

	succeeded := 0
	var failures []string
	for _, result := range results {
		if !result.Succeeded {
			failures = append(failures, fmt.Sprintf("consommation %s: %s", result.Request.ConsommationID, result.Error))
			continue
		}
		succeeded++
		s.applyToCache(detached, result.Request, itemsByID, generations[result.Request.ConsommationID])
	}

	resp := &billingrpc.SubmitPaymentResponse{Results: results}
	switch {
	case succeeded == len(results):
		resp.Outcome = billingrpc.OutcomeSucceeded
		s.logger.Info("Payment completed",
			"cashier_id", cashierID,
			"amount", req.Msg.Amount.String(),
			"requests", len(results),
		)
	case succeeded > 0:
		resp.Outcome = billingrpc.OutcomePartiallySucceeded
		s.logger.Warn("Payment partially completed",
			"cashier_id", cashierID,
			"succeeded", succeeded,
			"failed", len(failures),
			"failures", strings.Join(failures, "; "),
		)
	default:
		s.logger.Error("Payment failed", "cashier_id", cashierID, "failures", strings.Join(failures, "; "))
		return nil, connect.NewError(connect.CodeUnavailable,
			fmt.Errorf("%w: %s", ErrAllSubmissionsFailed, strings.Join(failures, "; ")))
	}

	return connect.NewResponse(resp), nil
}

// ClassifyItems returns every item of a consommation with its status as seen
// through the payment cache.
func (s *PaymentService) ClassifyItems(ctx context.Context, req *connect.Request[billingrpc.ClassifyItemsRequest]) (*connect.Response[billingrpc.ClassifyItemsResponse], error) {
	items, err := s.billing.FetchItemsForConsommation(ctx, req.Msg.ConsommationID)
	if err != nil {
		return nil, billingError(err)
	}

	return connect.NewResponse(&billingrpc.ClassifyItemsResponse{
		Consommation: s.consommationStatus(ctx, req.Msg.ConsommationID, items),
	}), nil
}

// ReconcileConsommation reloads a consommation from the billing API and
// corrects cache entries that disagree with it.
func (s *PaymentService) ReconcileConsommation(ctx context.Context, req *connect.Request[billingrpc.ReconcileConsommationRequest]) (*connect.Response[billingrpc.ReconcileConsommationResponse], error) {
	cons, err := s.billing.FetchConsommation(ctx, req.Msg.ConsommationID)
	if err != nil {
		return nil, billingError(err)
	}

	corrected := s.reconcile(ctx, cons.ID, cons.Items)
	status := s.consommationStatus(ctx, cons.ID, cons.Items)
	status.GlobalBillID = cons.GlobalBillID
	return connect.NewResponse(&billingrpc.ReconcileConsommationResponse{
		Corrected:    corrected,
		Consommation: status,
	}), nil
}

// ReconcileGlobalBill reconciles every consommation of a global bill.
func (s *PaymentService) ReconcileGlobalBill(ctx context.Context, req *connect.Request[billingrpc.ReconcileGlobalBillRequest]) (*connect.Response[billingrpc.ReconcileGlobalBillResponse], error) {
	consommations, err := s.billing.FetchConsommationsByGlobalBill(ctx, req.Msg.GlobalBillID)
	if err != nil {
		return nil, billingError(err)
	}

	resp := &billingrpc.ReconcileGlobalBillResponse{
		Consommations: make([]billingrpc.ConsommationStatus, 0, len(consommations)),
	}
	for _, c := range consommations {
		resp.Corrected += s.reconcile(ctx, c.ID, c.Items)
		status := s.consommationStatus(ctx, c.ID, c.Items)
		status.GlobalBillID = c.GlobalBillID
		resp.Consommations = append(resp.Consommations, status)
	}

	s.logger.Info("Global bill reconciled",
		"global_bill_id", req.Msg.GlobalBillID,
		"consommations", len(consommations),
		"corrected", resp.Corrected,
	)
	return connect.NewResponse(resp), nil
}

// PruneCache removes cache entries older than the retention window, or than
// the requested max age.
func (s *PaymentService) PruneCache(ctx context.Context, req *connect.Request[billingrpc.PruneCacheRequest]) (*connect.Response[billingrpc.PruneCacheResponse], error) {
	maxAge := s.retention
	if req.Msg.MaxAge != "" {
		d, err := time.ParseDuration(req.Msg.MaxAge)
		if err != nil {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("invalid max_age: %w", err))
		}
		if d <= 0 {
			return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("max_age must be positive, got %s", d))
		}
		maxAge = d
	}

	return connect.NewResponse(&billingrpc.PruneCacheResponse{
		Removed: s.cache.Prune(ctx, maxAge),
	}), nil
}

// ListPayments returns the local payment log of a consommation, newest first.
func (s *PaymentService) ListPayments(ctx context.Context, req *connect.Request[billingrpc.ListPaymentsRequest]) (*connect.Response[billingrpc.ListPaymentsResponse], error) {
	resp := &billingrpc.ListPaymentsResponse{Attempts: []*models.PaymentAttempt{}}
	if s.payments == nil {
		return connect.NewResponse(resp), nil
	}

	attempts, err := s.payments.ListPaymentAttempts(ctx, req.Msg.ConsommationID)
	if err != nil {
		s.logger.Error("Failed to list payments", "consommation_id", req.Msg.ConsommationID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if attempts != nil {
		resp.Attempts = attempts
	}
	return connect.NewResponse(resp), nil
}

// prepare validates the input, loads the selected consommations through the
// cache and runs the allocator. Input errors are reported before any call to
// the billing API.
func (s *PaymentService) prepare(ctx context.Context, amount decimal.Decimal, selections []models.Selection) ([]models.PaymentRequest, map[string]models.BillItem, error) {
	if err := precheck(amount, selections); err != nil {
		metrics.Allocations.WithLabelValues(allocationOutcome(err)).Inc()
		return nil, nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	itemsByID, err := s.loadSelection(ctx, selections)
	if err != nil {
		return nil, nil, err
	}

	requests, err := calculator.Allocate(amount, selections, itemsByID)
	metrics.Allocations.WithLabelValues(allocationOutcome(err)).Inc()
	if err != nil {
		return nil, nil, allocationError(err)
	}
	return requests, itemsByID, nil
}

// loadSelection fetches each selected consommation once and returns the
// merged server and cache view of its items by item ID.
func (s *PaymentService) loadSelection(ctx context.Context, selections []models.Selection) (map[string]models.BillItem, error) {
	itemsByID := make(map[string]models.BillItem)
	fetched := make(map[string]bool)

	for _, sel := range selections {
		if fetched[sel.ConsommationID] {
			continue
		}
		fetched[sel.ConsommationID] = true

		items, err := s.billing.FetchItemsForConsommation(ctx, sel.ConsommationID)
		if err != nil {
			s.logger.Error("Failed to fetch bill items", "consommation_id", sel.ConsommationID, "error", err)
			return nil, billingError(err)
		}
		for _, item := range items {
			entry, _ := s.cache.Read(ctx, item.ID)
			itemsByID[item.ID] = calculator.Merge(item, entry)
		}
	}

	for _, sel := range selections {
		item, ok := itemsByID[sel.ItemID]
		if ok && item.ConsommationID != sel.ConsommationID {
			err := fmt.Errorf("%w: %s is not part of consommation %s", calculator.ErrUnknownItem, sel.ItemID, sel.ConsommationID)
			metrics.Allocations.WithLabelValues(allocationOutcome(err)).Inc()
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
	}

	return itemsByID, nil
}

func (s *PaymentService) submitAll(ctx context.Context, requests []models.PaymentRequest, method models.PaymentMethod, collectorID string) []billingrpc.SubmissionResult {
	results := make([]billingrpc.SubmissionResult, len(requests))

	var wg sync.WaitGroup
	for i, request := range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = s.submitOne(ctx, request, method, collectorID)
		}()
	}
	wg.Wait()

	return results
}

func (s *PaymentService) submitOne(ctx context.Context, request models.PaymentRequest, method models.PaymentMethod, collectorID string) billingrpc.SubmissionResult {
	attempt := &models.PaymentAttempt{
		ConsommationID: request.ConsommationID,
		Amount:         request.Amount,
		Items:          request.Items,
		Method:         method,
		CollectorID:    collectorID,
	}

	start := time.Now()
	receipt, err := s.billing.SubmitPayment(ctx, billingapi.Submission{
		Request:     request,
		Method:      method,
		CollectorID: collectorID,
	})
	metrics.SubmissionDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.Submissions.WithLabelValues("failed").Inc()
		s.logger.Error("Payment submission failed",
			"consommation_id", request.ConsommationID,
			"amount", request.Amount.String(),
			"error", err,
		)
		attempt.Status = models.AttemptFailed
		attempt.Error = err.Error()
		s.recordAttempt(ctx, attempt)
		return billingrpc.SubmissionResult{Request: request, Error: err.Error()}
	}

	metrics.Submissions.WithLabelValues("succeeded").Inc()
	s.logger.Info("Payment submitted",
		"consommation_id", request.ConsommationID,
		"amount", request.Amount.String(),
		"bill_payment_id", receipt.BillPaymentID,
	)
	attempt.Status = models.AttemptSucceeded
	attempt.BillPaymentID = receipt.BillPaymentID
	s.recordAttempt(ctx, attempt)
	return billingrpc.SubmissionResult{Request: request, Succeeded: true, Receipt: &receipt}
}

func (s *PaymentService) recordAttempt(ctx context.Context, attempt *models.PaymentAttempt) {
	if s.payments == nil {
		return
	}
	if err := s.payments.RecordPaymentAttempt(ctx, attempt); err != nil {
		s.logger.Warn("Failed to record payment attempt",
			"consommation_id", attempt.ConsommationID,
			"status", attempt.Status,
			"error", err,
		)
	}
}

// applyToCache records the items of an accepted request, unless the
// consommation was reloaded since the request was dispatched.
func (s *PaymentService) applyToCache(ctx context.Context, request models.PaymentRequest, itemsByID map[string]models.BillItem, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generations[request.ConsommationID] != generation {
		metrics.LateResultsDiscarded.Inc()
		s.logger.Info("Discarding payment result for reloaded consommation",
			"consommation_id", request.ConsommationID,
		)
		return
	}

	for _, paid := range request.Items {
		item, ok := itemsByID[paid.ItemID]
		if !ok {
			continue
		}
		paidAmount := decimal.Min(item.PaidAmount.Add(paid.AppliedAmount), item.ItemTotal())
		fullyPaid := paid.PaidQuantity >= item.Quantity || paidAmount.GreaterThanOrEqual(item.ItemTotal())
		s.cache.Record(ctx, item.ID, fullyPaid, paidAmount)
	}
}

// reconcile bumps the consommation's generation and corrects its cache
// entries from the server items.
func (s *PaymentService) reconcile(ctx context.Context, consommationID string, items []models.BillItem) int {
	s.mu.Lock()
	s.generations[consommationID]++
	s.mu.Unlock()

	corrected := s.cache.Reconcile(ctx, items)
	if corrected > 0 {
		s.logger.Info("Payment cache reconciled", "consommation_id", consommationID, "corrected", corrected)
	}
	return corrected
}

func (s *PaymentService) consommationStatus(ctx context.Context, consommationID string, items []models.BillItem) billingrpc.ConsommationStatus {
	status := billingrpc.ConsommationStatus{
		ConsommationID: consommationID,
		Items:          make([]billingrpc.ItemStatus, 0, len(items)),
		TotalDue:       decimal.Zero,
	}

	for _, item := range items {
		entry, cached := s.cache.Read(ctx, item.ID)
		itemStatus := calculator.Classify(item, entry)
		merged := calculator.Merge(item, entry)
		if itemStatus != models.StatusPaid {
			status.TotalDue = status.TotalDue.Add(merged.Remaining())
		}
		status.Items = append(status.Items, billingrpc.ItemStatus{
			Item:   merged,
			Status: itemStatus,
			Cached: cached,
		})
	}
	return status
}

func (s *PaymentService) acquire(itemIDs []string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range itemIDs {
		if s.inFlight[id] {
			return false
		}
	}
	for _, id := range itemIDs {
		s.inFlight[id] = true
	}
	return true
}

func (s *PaymentService) release(itemIDs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range itemIDs {
		delete(s.inFlight, id)
	}
}

func (s *PaymentService) currentGenerations(requests []models.PaymentRequest) map[string]uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	gens := make(map[string]uint64, len(requests))
	for _, r := range requests {
		gens[r.ConsommationID] = s.generations[r.ConsommationID]
	}
	return gens
}

func selectedItemIDs(selections []models.Selection) []string {
	ids := make([]string, 0, len(selections))
	for _, sel := range selections {
		ids = append(ids, sel.ItemID)
	}
	return ids
}

// precheck rejects input that cannot allocate, without loading anything.
func precheck(amount decimal.Decimal, selections []models.Selection) error {
	if len(selections) == 0 {
		return calculator.ErrInsufficientSelection
	}
	if !amount.IsPositive() {
		return calculator.ErrInvalidAmount
	}
	return nil
}

func allocationOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, calculator.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, calculator.ErrInsufficientSelection):
		return "insufficient_selection"
	case errors.Is(err, calculator.ErrUnknownItem):
		return "unknown_item"
	case errors.Is(err, calculator.ErrAmountExceedsDue):
		return "exceeds_due"
	default:
		return "error"
	}
}

func allocationError(err error) error {
	if allocationOutcome(err) == "error" {
		return connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewError(connect.CodeInvalidArgument, err)
}

// billingError maps a billing API failure to a Connect error.
func billingError(err error) error {
	switch {
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	}

	var apiErr *billingapi.Error
	if !errors.As(err, &apiErr) {
		return connect.NewError(connect.CodeInternal, err)
	}
	switch apiErr.Kind {
	case billingapi.KindHTTPStatus:
		if apiErr.StatusCode == http.StatusNotFound {
			return connect.NewError(connect.CodeNotFound, err)
		}
		return connect.NewError(connect.CodeUnavailable, err)
	case billingapi.KindNetwork:
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
