package billingrpc

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"connectrpc.com/connect"
)

// AuthServiceName is the fully-qualified name of the AuthService service.
const AuthServiceName = "billpay.v1.AuthService"

const (
	AuthServiceRegisterProcedure          = "/billpay.v1.AuthService/Register"
	AuthServiceLoginProcedure             = "/billpay.v1.AuthService/Login"
	AuthServiceGetCurrentCashierProcedure = "/billpay.v1.AuthService/GetCurrentCashier"
)

// AuthServiceClient is a client for the billpay.v1.AuthService service.
type AuthServiceClient interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	GetCurrentCashier(context.Context, *connect.Request[GetCurrentCashierRequest]) (*connect.Response[GetCurrentCashierResponse], error)
}

// NewAuthServiceClient constructs a client for the billpay.v1.AuthService
// service using the JSON codec.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) AuthServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(JSONCodec{})}, opts...)
	return &authServiceClient{
		register: connect.NewClient[RegisterRequest, RegisterResponse](
			httpClient, baseURL+AuthServiceRegisterProcedure, opts...,
		),
		login: connect.NewClient[LoginRequest, LoginResponse](
			httpClient, baseURL+AuthServiceLoginProcedure, opts...,
		),
		getCurrentCashier: connect.NewClient[GetCurrentCashierRequest, GetCurrentCashierResponse](
			httpClient, baseURL+AuthServiceGetCurrentCashierProcedure, opts...,
		),
	}
}

type authServiceClient struct {
	register          *connect.Client[RegisterRequest, RegisterResponse]
	login             *connect.Client[LoginRequest, LoginResponse]
	getCurrentCashier *connect.Client[GetCurrentCashierRequest, GetCurrentCashierResponse]
}

func (c *authServiceClient) Register(ctx context.Context, req *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return c.register.CallUnary(ctx, req)
}

func (c *authServiceClient) Login(ctx context.Context, req *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return c.login.CallUnary(ctx, req)
}

func (c *authServiceClient) GetCurrentCashier(ctx context.Context, req *connect.Request[GetCurrentCashierRequest]) (*connect.Response[GetCurrentCashierResponse], error) {
	return c.getCurrentCashier.CallUnary(ctx, req)
}

// AuthServiceHandler is an implementation of the billpay.v1.AuthService service.
type AuthServiceHandler interface {
	Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error)
	Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error)
	GetCurrentCashier(context.Context, *connect.Request[GetCurrentCashierRequest]) (*connect.Response[GetCurrentCashierResponse], error)
}

// NewAuthServiceHandler builds an HTTP handler from the service
// implementation. It returns the path on which to mount the handler and the
// handler itself.
func NewAuthServiceHandler(svc AuthServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(JSONCodec{})}, opts...)
	register := connect.NewUnaryHandler(AuthServiceRegisterProcedure, svc.Register, opts...)
	login := connect.NewUnaryHandler(AuthServiceLoginProcedure, svc.Login, opts...)
	getCurrentCashier := connect.NewUnaryHandler(
		AuthServiceGetCurrentCashierProcedure, svc.GetCurrentCashier,
		append(opts, connect.WithIdempotency(connect.IdempotencyNoSideEffects))...,
	)
	return "/billpay.v1.AuthService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case AuthServiceRegisterProcedure:
			register.ServeHTTP(w, r)
		case AuthServiceLoginProcedure:
			login.ServeHTTP(w, r)
		case AuthServiceGetCurrentCashierProcedure:
			getCurrentCashier.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}

// UnimplementedAuthServiceHandler returns CodeUnimplemented from all methods.
type UnimplementedAuthServiceHandler struct{}

func (UnimplementedAuthServiceHandler) Register(context.Context, *connect.Request[RegisterRequest]) (*connect.Response[RegisterResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("billpay.v1.AuthService.Register is not implemented"))
}

func (UnimplementedAuthServiceHandler) Login(context.Context, *connect.Request[LoginRequest]) (*connect.Response[LoginResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("billpay.v1.AuthService.Login is not implemented"))
}

func (UnimplementedAuthServiceHandler) GetCurrentCashier(context.Context, *connect.Request[GetCurrentCashierRequest]) (*connect.Response[GetCurrentCashierResponse], error) {
	return nil, connect.NewError(connect.CodeUnimplemented, errors.New("billpay.v1.AuthService.GetCurrentCashier is not implemented"))
}
