package service

import (
	"context"
	"testing"

	"marketplace-api/internal/auth"
	"marketplace-api/internal/config"
	"marketplace-api/internal/dto"
	"marketplace-api/internal/model"
	"marketplace-api/internal/repository"
	"marketplace-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUserService(t *testing.T) (UserService, *config.JWT) {
	t.Helper()

	db := testutil.NewDB(t)
	jwtCfg := &config.JWT{Secret: "test-secret", ExpiryHour: 1}
	return NewUserService(db, jwtCfg, repository.NewUserRepository(db), repository.NewAddressRepository(db)), jwtCfg
}

func TestRegisterAndLogin(t *testing.T) {
	svc, jwtCfg := newUserService(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, &dto.RegisterRequest{
		Email:    "alice@example.com",
		Password: "hunter22",
		Name:     "Alice",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, user.Role)
	assert.NotEqual(t, "hunter22", user.PasswordHash)

	claims, err := auth.ParseToken(jwtCfg, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	loggedIn, _, err := svc.Login(ctx, &dto.LoginRequest{
		Email:    "alice@example.com",
		Password: "hunter22",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, _, err := svc.Register(ctx, &dto.RegisterRequest{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, &dto.RegisterRequest{Email: "alice@example.com", Password: "other"})
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _ := newUserService(t)
	ctx := context.Background()

	_, _, err := svc.Login(ctx, &dto.LoginRequest{Email: "nobody@example.com", Password: "x"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Register(ctx, &dto.RegisterRequest{Email: "alice@example.com", Password: "hunter22"})
	require.NoError(t, err)

	_, _, err = svc.Login(ctx, &dto.LoginRequest{Email: "alice@example.com", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)
}
