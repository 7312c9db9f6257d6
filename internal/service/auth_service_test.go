package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/billpay/internal/auth"
	"github.com/mmynk/billpay/internal/middleware"
	"github.com/mmynk/billpay/pkg/billingrpc"
)

func setupAuthServer(t *testing.T) billingrpc.AuthServiceClient {
	t.Helper()

	store := newTestStore(t)
	jwtManager := auth.NewJWTManager("test-secret-key-123", time.Hour)
	svc := NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, discardLogger())

	path, handler := billingrpc.NewAuthServiceHandler(svc, connect.WithInterceptors(
		middleware.OptionalAuth(jwtManager),
		middleware.ValidateInterceptor(validator.New()),
	))
	mux := http.NewServeMux()
	mux.Handle(path, handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return billingrpc.NewAuthServiceClient(http.DefaultClient, server.URL)
}

func TestAuthService_RegisterLoginCurrentCashier(t *testing.T) {
	client := setupAuthServer(t)
	ctx := context.Background()

	registered, err := client.Register(ctx, connect.NewRequest(&billingrpc.RegisterRequest{
		Username:    "amina",
		DisplayName: "Amina K.",
		Password:    "correct horse",
	}))
	require.NoError(t, err)
	assert.NotEmpty(t, registered.Msg.Token)
	assert.Equal(t, "amina", registered.Msg.Cashier.Username)

	loggedIn, err := client.Login(ctx, connect.NewRequest(&billingrpc.LoginRequest{
		Username: "amina",
		Password: "correct horse",
	}))
	require.NoError(t, err)
	assert.Equal(t, registered.Msg.Cashier.ID, loggedIn.Msg.Cashier.ID)

	req := connect.NewRequest(&billingrpc.GetCurrentCashierRequest{})
	req.Header().Set("Authorization", "Bearer "+loggedIn.Msg.Token)
	current, err := client.GetCurrentCashier(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "Amina K.", current.Msg.Cashier.DisplayName)
	assert.NotZero(t, current.Msg.Cashier.CreatedAt)
}

func TestAuthService_Errors(t *testing.T) {
	client := setupAuthServer(t)
	ctx := context.Background()

	_, err := client.Register(ctx, connect.NewRequest(&billingrpc.RegisterRequest{
		Username: "amina", DisplayName: "Amina", Password: "short",
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.Register(ctx, connect.NewRequest(&billingrpc.RegisterRequest{
		Username: "amina", Password: "long enough",
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = client.Register(ctx, connect.NewRequest(&billingrpc.RegisterRequest{
		Username: "amina", DisplayName: "Amina", Password: "long enough",
	}))
	require.NoError(t, err)

	_, err = client.Register(ctx, connect.NewRequest(&billingrpc.RegisterRequest{
		Username: "amina", DisplayName: "Other", Password: "long enough",
	}))
	assert.Equal(t, connect.CodeAlreadyExists, connect.CodeOf(err))

	_, err = client.Login(ctx, connect.NewRequest(&billingrpc.LoginRequest{
		Username: "amina", Password: "wrong password",
	}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))

	_, err = client.GetCurrentCashier(ctx, connect.NewRequest(&billingrpc.GetCurrentCashierRequest{}))
	assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
}
