package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/billpay/internal/auth"
	"github.com/mmynk/billpay/internal/middleware"
	"github.com/mmynk/billpay/internal/models"
	"github.com/mmynk/billpay/pkg/billingrpc"
)

// AuthService implements the AuthService RPC interface.
type AuthService struct {
	billingrpc.UnimplementedAuthServiceHandler
	authenticator auth.Authenticator
	jwtManager    *auth.JWTManager
	logger        *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(authenticator auth.Authenticator, jwtManager *auth.JWTManager, logger *slog.Logger) *AuthService {
	return &AuthService{
		authenticator: authenticator,
		jwtManager:    jwtManager,
		logger:        logger,
	}
}

// Register creates a new cashier account.
func (s *AuthService) Register(ctx context.Context, req *connect.Request[billingrpc.RegisterRequest]) (*connect.Response[billingrpc.RegisterResponse], error) {
	s.logger.Info("Register request", "username", req.Msg.Username)

	cashier, err := s.authenticator.Register(ctx, req.Msg.Username, req.Msg.DisplayName, req.Msg.Password)
	if err != nil {
		s.logger.Error("Registration failed", "username", req.Msg.Username, "error", err)
		if errors.Is(err, auth.ErrUsernameExists) {
			return nil, connect.NewError(connect.CodeAlreadyExists, err)
		}
		if errors.Is(err, auth.ErrWeakPassword) {
			return nil, connect.NewError(connect.CodeInvalidArgument, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	token, err := s.jwtManager.Generate(cashier)
	if err != nil {
		s.logger.Error("Failed to generate token", "cashier_id", cashier.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Cashier registered successfully", "cashier_id", cashier.ID, "username", cashier.Username)
	return connect.NewResponse(&billingrpc.RegisterResponse{
		Cashier: cashierInfo(cashier),
		Token:   token,
	}), nil
}

// Login authenticates a cashier and returns a JWT token.
func (s *AuthService) Login(ctx context.Context, req *connect.Request[billingrpc.LoginRequest]) (*connect.Response[billingrpc.LoginResponse], error) {
	s.logger.Info("Login request", "username", req.Msg.Username)

	cashier, err := s.authenticator.Authenticate(ctx, req.Msg.Username, req.Msg.Password)
	if err != nil {
		s.logger.Warn("Login failed", "username", req.Msg.Username, "error", err)
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidCredentials)
	}

	token, err := s.jwtManager.Generate(cashier)
	if err != nil {
		s.logger.Error("Failed to generate token", "cashier_id", cashier.ID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	s.logger.Info("Cashier logged in successfully", "cashier_id", cashier.ID, "username", cashier.Username)
	return connect.NewResponse(&billingrpc.LoginResponse{
		Cashier: cashierInfo(cashier),
		Token:   token,
	}), nil
}

// GetCurrentCashier returns the authenticated cashier's account.
func (s *AuthService) GetCurrentCashier(ctx context.Context, req *connect.Request[billingrpc.GetCurrentCashierRequest]) (*connect.Response[billingrpc.GetCurrentCashierResponse], error) {
	cashierID := middleware.GetCashierID(ctx)
	if cashierID == "" {
		return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}

	cashier, err := s.authenticator.Lookup(ctx, cashierID)
	if err != nil {
		s.logger.Error("Failed to get cashier", "cashier_id", cashierID, "error", err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if cashier == nil {
		return nil, connect.NewError(connect.CodeNotFound, errors.New("cashier not found"))
	}

	return connect.NewResponse(&billingrpc.GetCurrentCashierResponse{
		Cashier: cashierInfo(cashier),
	}), nil
}

func cashierInfo(c *models.Cashier) billingrpc.CashierInfo {
	return billingrpc.CashierInfo{
		ID:          c.ID,
		Username:    c.Username,
		DisplayName: c.DisplayName,
		CreatedAt:   c.CreatedAt,
	}
}
