package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/billplanner/internal/api"
	"github.com/mmynk/billplanner/internal/auth"
	"github.com/mmynk/billplanner/internal/middleware"
	"github.com/mmynk/billplanner/internal/models"
)

type mockAuthenticator struct {
	mock.Mock
}

func (m *mockAuthenticator) Register(ctx context.Context, email, displayName, credential string) (*models.User, error) {
	args := m.Called(ctx, email, displayName, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	args := m.Called(ctx, email, credential)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockAuthenticator) ValidateCredential(credential string) error {
	return m.Called(credential).Error(0)
}

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) CreateUser(ctx context.Context, user *models.User) error {
	return m.Called(ctx, user).Error(0)
}

func (m *mockUsers) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUsers) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func newMockedAuthService() (*AuthService, *mockAuthenticator, *mockUsers) {
	authn := &mockAuthenticator{}
	users := &mockUsers{}
	return NewAuthService(authn, users, auth.NewJWTManager("secret", time.Hour), nil), authn, users
}

func TestAuthService_RegisterMapsErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code connect.Code
	}{
		{"email taken", auth.ErrEmailExists, connect.CodeAlreadyExists},
		{"weak password", auth.ErrWeakPassword, connect.CodeInvalidArgument},
		{"long password", auth.ErrPasswordTooLong, connect.CodeInvalidArgument},
		{"storage down", errors.New("disk full"), connect.CodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, authn, _ := newMockedAuthService()
			authn.On("Register", mock.Anything, "dana@example.com", "Dana", "pw-pw-pw-pw").Return(nil, tt.err)

			_, err := svc.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{
				Email:       " Dana@Example.com",
				DisplayName: "Dana",
				Password:    "pw-pw-pw-pw",
			}))
			requireCode(t, err, tt.code)
			authn.AssertExpectations(t)
		})
	}
}

func TestAuthService_RegisterRequiresFields(t *testing.T) {
	svc, authn, _ := newMockedAuthService()

	_, err := svc.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{DisplayName: "Nobody"}))
	requireCode(t, err, connect.CodeInvalidArgument)

	_, err = svc.Register(context.Background(), connect.NewRequest(&api.RegisterRequest{Email: "x@example.com"}))
	requireCode(t, err, connect.CodeInvalidArgument)
	assert.Contains(t, err.Error(), "display_name required")

	authn.AssertNotCalled(t, "Register", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_LoginFailures(t *testing.T) {
	svc, authn, _ := newMockedAuthService()
	authn.On("Authenticate", mock.Anything, "eve@example.com", "guess").Return(nil, auth.ErrInvalidCredentials)
	authn.On("Authenticate", mock.Anything, "gus@example.com", "guess").Return(nil, fmt.Errorf("failed to look up user: %w", errors.New("db exploded")))

	_, err := svc.Login(context.Background(), connect.NewRequest(&api.LoginRequest{Email: "eve@example.com", Password: "guess"}))
	requireCode(t, err, connect.CodeUnauthenticated)

	_, err = svc.Login(context.Background(), connect.NewRequest(&api.LoginRequest{Email: "gus@example.com", Password: "guess"}))
	requireCode(t, err, connect.CodeInternal)
	assert.NotContains(t, err.Error(), "db exploded")
	authn.AssertExpectations(t)
}

func TestAuthService_GetCurrentUser(t *testing.T) {
	svc, _, users := newMockedAuthService()
	user := &models.User{ID: "u1", Email: "fay@example.com", DisplayName: "Fay", CreatedAt: 100}
	users.On("GetUserByID", mock.Anything, "u1").Return(user, nil)
	users.On("GetUserByID", mock.Anything, "deleted").Return(nil, nil)
	users.On("GetUserByID", mock.Anything, "broken").Return(nil, errors.New("io error"))

	resp, err := svc.GetCurrentUser(middleware.WithUser(context.Background(), "u1", "fay@example.com"),
		connect.NewRequest(&api.GetCurrentUserRequest{}))
	require.NoError(t, err)
	assert.Equal(t, "Fay", resp.Msg.User.DisplayName)
	assert.Equal(t, int64(100), resp.Msg.User.CreatedAt)

	_, err = svc.GetCurrentUser(middleware.WithUser(context.Background(), "deleted", ""),
		connect.NewRequest(&api.GetCurrentUserRequest{}))
	requireCode(t, err, connect.CodeUnauthenticated)

	_, err = svc.GetCurrentUser(middleware.WithUser(context.Background(), "broken", ""),
		connect.NewRequest(&api.GetCurrentUserRequest{}))
	requireCode(t, err, connect.CodeInternal)

	users.AssertNumberOfCalls(t, "GetUserByID", 3)
}
