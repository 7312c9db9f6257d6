package billingrpc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// PaymentServiceName is the fully-qualified name of the PaymentService service.
const PaymentServiceName = "billpay.v1.PaymentService"

// These constants are the fully-qualified names of the RPCs defined in
// PaymentService. They are also the HTTP routes of the handlers.
const (
	PaymentServiceAllocatePaymentProcedure       = "/billpay.v1.PaymentService/AllocatePayment"
	PaymentServiceSubmitPaymentProcedure         = "/billpay.v1.PaymentService/SubmitPayment"
	PaymentServiceClassifyItemsProcedure         = "/billpay.v1.PaymentService/ClassifyItems"
	PaymentServiceReconcileConsommationProcedure = "/billpay.v1.PaymentService/ReconcileConsommation"
	PaymentServiceReconcileGlobalBillProcedure   = "/billpay.v1.PaymentService/ReconcileGlobalBill"
	PaymentServicePruneCacheProcedure            = "/billpay.v1.PaymentService/PruneCache"
	PaymentServiceListPaymentsProcedure          = "/billpay.v1.PaymentService/ListPayments"
)

// PaymentServiceClient is a client for the billpay.v1.PaymentService service.
type PaymentServiceClient interface {
	AllocatePayment(context.Context, *connect.Request[AllocatePaymentRequest]) (*connect.Response[AllocatePaymentResponse], error)
	SubmitPayment(context.Context, *connect.Request[SubmitPaymentRequest]) (*connect.Response[SubmitPaymentResponse], error)
	ClassifyItems(context.Context, *connect.Request[ClassifyItemsRequest]) (*connect.Response[ClassifyItemsResponse], error)
	ReconcileConsommation(context.Context, *connect.Request[ReconcileConsommationRequest]) (*connect.Response[ReconcileConsommationResponse], error)
	ReconcileGlobalBill(context.Context, *connect.Request[ReconcileGlobalBillRequest]) (*connect.Response[ReconcileGlobalBillResponse], error)
	PruneCache(context.Context, *connect.Request[PruneCacheRequest]) (*connect.Response[PruneCacheResponse], error)
	ListPayments(context.Context, *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error)
}

// NewPaymentServiceClient constructs a client for the
// billpay.v1.PaymentService service using the JSON codec.
//
// The URL supplied here should be the base URL for the Connect server (for
// example, http://api.acme.com or https://acme.com/grpc).
func NewPaymentServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) PaymentServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &paymentServiceClient{
		allocatePayment: connect.NewClient[AllocatePaymentRequest, AllocatePaymentResponse](
			httpClient, baseURL+PaymentServiceAllocatePaymentProcedure, opts...,
		),
		submitPayment: connect.NewClient[SubmitPaymentRequest, SubmitPaymentResponse](
			httpClient, baseURL+PaymentServiceSubmitPaymentProcedure, opts...,
		),
		classifyItems: connect.NewClient[ClassifyItemsRequest, ClassifyItemsResponse](
			httpClient, baseURL+PaymentServiceClassifyItemsProcedure, opts...,
		),
		reconcileConsommation: connect.NewClient[ReconcileConsommationRequest, ReconcileConsommationResponse](
			httpClient, baseURL+PaymentServiceReconcileConsommationProcedure, opts...,
		),
		reconcileGlobalBill: connect.NewClient[ReconcileGlobalBillRequest, ReconcileGlobalBillResponse](
			httpClient, baseURL+PaymentServiceReconcileGlobalBillProcedure, opts...,
		),
		pruneCache: connect.NewClient[PruneCacheRequest, PruneCacheResponse](
			httpClient, baseURL+PaymentServicePruneCacheProcedure, opts...,
		),
		listPayments: connect.NewClient[ListPaymentsRequest, ListPaymentsResponse](
			httpClient, baseURL+PaymentServiceListPaymentsProcedure, opts...,
		),
	}
}

type paymentServiceClient struct {
	allocatePayment       *connect.Client[AllocatePaymentRequest, AllocatePaymentResponse]
	submitPayment         *connect.Client[SubmitPaymentRequest, SubmitPaymentResponse]
	classifyItems         *connect.Client[ClassifyItemsRequest, ClassifyItemsResponse]
	reconcileConsommation *connect.Client[ReconcileConsommationRequest, ReconcileConsommationResponse]
	reconcileGlobalBill   *connect.Client[ReconcileGlobalBillRequest, ReconcileGlobalBillResponse]
	pruneCache            *connect.Client[PruneCacheRequest, PruneCacheResponse]
	listPayments          *connect.Client[ListPaymentsRequest, ListPaymentsResponse]
}

func (c *paymentServiceClient) AllocatePayment(ctx context.Context, req *connect.Request[AllocatePaymentRequest]) (*connect.Response[AllocatePaymentResponse], error) {
	return c.allocatePayment.CallUnary(ctx, req)
}

func (c *paymentServiceClient) SubmitPayment(ctx context.Context, req *connect.Request[SubmitPaymentRequest]) (*connect.Response[SubmitPaymentResponse], error) {
	return c.submitPayment.CallUnary(ctx, req)
}

func (c *paymentServiceClient) ClassifyItems(ctx context.Context, req *connect.Request[ClassifyItemsRequest]) (*connect.Response[ClassifyItemsResponse], error) {
	return c.classifyItems.CallUnary(ctx, req)
}

func (c *paymentServiceClient) ReconcileConsommation(ctx context.Context, req *connect.Request[ReconcileConsommationRequest]) (*connect.Response[ReconcileConsommationResponse], error) {
	return c.reconcileConsommation.CallUnary(ctx, req)
}

func (c *paymentServiceClient) ReconcileGlobalBill(ctx context.Context, req *connect.Request[ReconcileGlobalBillRequest]) (*connect.Response[ReconcileGlobalBillResponse], error) {
	return c.reconcileGlobalBill.CallUnary(ctx, req)
}

func (c *paymentServiceClient) PruneCache(ctx context.Context, req *connect.Request[PruneCacheRequest]) (*connect.Response[PruneCacheResponse], error) {
	return c.pruneCache.CallUnary(ctx, req)
}

func (c *paymentServiceClient) ListPayments(ctx context.Context, req *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error) {
	return c.listPayments.CallUnary(ctx, req)
}

// PaymentServiceHandler is an implementation of the billpay.v1.PaymentService
// service.
type PaymentServiceHandler interface {
	AllocatePayment(context.Context, *connect.Request[AllocatePaymentRequest]) (*connect.Response[AllocatePaymentResponse], error)
	SubmitPayment(context.Context, *connect.Request[SubmitPaymentRequest]) (*connect.Response[SubmitPaymentResponse], error)
	ClassifyItems(context.Context, *connect.Request[ClassifyItemsRequest]) (*connect.Response[ClassifyItemsResponse], error)
	ReconcileConsommation(context.Context, *connect.Request[ReconcileConsommationRequest]) (*connect.Response[ReconcileConsommationResponse], error)
	ReconcileGlobalBill(context.Context, *connect.Request[ReconcileGlobalBillRequest]) (*connect.Response[ReconcileGlobalBillResponse], error)
	PruneCache(context.Context, *connect.Request[PruneCacheRequest]) (*connect.Response[PruneCacheResponse], error)
	ListPayments(context.Context, *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error)
}

// NewPaymentServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewPaymentServiceHandler(svc PaymentServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	allocatePayment := connect.NewUnaryHandler(
		PaymentServiceAllocatePaymentProcedure, svc.AllocatePayment,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	)
	submitPayment := connect.NewUnaryHandler(
		PaymentServiceSubmitPaymentProcedure, svc.SubmitPayment, opts...,
	)
	classifyItems := connect.NewUnaryHandler(
		PaymentServiceClassifyItemsProcedure, svc.ClassifyItems,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	)
	reconcileConsommation := connect.NewUnaryHandler(
		PaymentServiceReconcileConsommationProcedure, svc.ReconcileConsommation,
		append(opts, connect.WithIdempotency(connect.IdempotencyIdempotent))...,
	)
	reconcileGlobalBill := connect.NewUnaryHandler(
		PaymentServiceReconcileGlobalBillProcedure, svc.ReconcileGlobalBill,
		append(opts, connect.WithIdempotency(connect.IdempotencyIdempotent))...,
	)
	pruneCache := connect.NewUnaryHandler(
		PaymentServicePruneCacheProcedure, svc.PruneCache,
		append(opts, connect.WithIdempotency(connect.IdempotencyIdempotent))...,
	)
	listPayments := connect.NewUnaryHandler(
		PaymentServiceListPaymentsProcedure, svc.ListPayments,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	)
	return "/billpay.v1.PaymentService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case PaymentServiceAllocatePaymentProcedure:
			allocatePayment.ServeHTTP(w, r)
		case PaymentServiceSubmitPaymentProcedure:
			submitPayment.ServeHTTP(w, r)
		case PaymentServiceClassifyItemsProcedure:
			classifyItems.ServeHTTP(w, r)
		case PaymentServiceReconcileConsommationProcedure:
			reconcileConsommation.ServeHTTP(w, r)
		case PaymentServiceReconcileGlobalBillProcedure:
			reconcileGlobalBill.ServeHTTP(w, r)
		case PaymentServicePruneCacheProcedure:
			pruneCache.ServeHTTP(w, r)
		case PaymentServiceListPaymentsProcedure:
			listPayments.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedPaymentServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedPaymentServiceHandler struct{}

func (UnimplementedPaymentServiceHandler) AllocatePayment(context.Context, *connect.Request[AllocatePaymentRequest]) (*connect.Response[AllocatePaymentResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("billpay.v1.PaymentService.AllocatePayment is not implemented"))
}

func (UnimplementedPaymentServiceHandler) SubmitPayment(context.Context, *connect.Request[SubmitPaymentRequest]) (*connect.Response[SubmitPaymentResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("billpay.v1.PaymentService.SubmitPayment is not implemented"))
}

func (UnimplementedPaymentServiceHandler) ClassifyItems(context.Context, *connect.Request[ClassifyItemsRequest]) (*connect.Response[ClassifyItemsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("billpay.v1.PaymentService.ClassifyItems is not implemented"))
}

func (UnimplementedPaymentServiceHandler) ReconcileConsommation(context.Context, *connect.Request[ReconcileConsommationRequest]) (*connect.Response[ReconcileConsommationResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("billpay.v1.PaymentService.ReconcileConsommation is not implemented"))
}

func (UnimplementedPaymentServiceHandler) ReconcileGlobalBill(context.Context, *connect.Request[ReconcileGlobalBillRequest]) (*connect.Response[ReconcileGlobalBillResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("billpay.v1.PaymentService.ReconcileGlobalBill is not implemented"))
}

func (UnimplementedPaymentServiceHandler) PruneCache(context.Context, *connect.Request[PruneCacheRequest]) (*connect.Response[PruneCacheResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("billpay.v1.PaymentService.PruneCache is not implemented"))
}

func (UnimplementedPaymentServiceHandler) ListPayments(context.Context, *connect.Request[ListPaymentsRequest]) (*connect.Response[ListPaymentsResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("billpay.v1.PaymentService.ListPayments is not implemented"))
}
