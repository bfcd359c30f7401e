package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/learnflow/learnflow-backend/internal/config"
	"github.com/learnflow/learnflow-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthFixture(t *testing.T) (*AuthService, *fakeUserStore) {
	t.Helper()
	_, rdb := newTestRedis(t)
	cfg := testConfig()

	hash, err := HashPassword("123456", cfg.BcryptCost)
	require.NoError(t, err)

	users := &fakeUserStore{users: map[string]*model.User{
		"student@test.com": {ID: 1, Email: "student@test.com", Name: "John Student", Role: model.RoleStudent, PasswordHash: hash},
		"teacher@test.com": {ID: 2, Email: "teacher@test.com", Name: "Jane Teacher", Role: model.RoleTeacher, PasswordHash: hash},
		"admin@test.com":   {ID: 3, Email: "admin@test.com", Name: "Admin User", Role: model.RoleAdmin, PasswordHash: hash},
	}}
	return NewAuthService(cfg, rdb, users, nopLog), users
}

func TestLogin_RedirectsToRoleDashboard(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	cases := map[string]string{
		"student@test.com": "/student/dashboard",
		"teacher@test.com": "/teacher/dashboard",
		"admin@test.com":   "/admin/dashboard",
	}
	for email, redirect := range cases {
		t.Run(email, func(t *testing.T) {
			resp, err := svc.Login(ctx, email, "123456")
			require.NoError(t, err)
			assert.Equal(t, redirect, resp.Redirect)
			assert.Equal(t, email, resp.User.Email)
			assert.NotEmpty(t, resp.Token)

			claims, err := svc.ValidateToken(resp.Token)
			require.NoError(t, err)
			assert.Equal(t, resp.User.ID, claims.UserID)
			assert.Equal(t, resp.User.Role, claims.Role)
			assert.Equal(t, resp.User.Name, claims.Name)
			assert.NoError(t, svc.ValidateSession(ctx, claims.UserID, claims.ID))
		})
	}
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, "student@test.com", "wrong-pass")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody@test.com", "123456")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_NewLoginInvalidatesPrevious(t *testing.T) {
	svc, _ := newAuthFixture(t)
	ctx := context.Background()

	first, err := svc.Login(ctx, "student@test.com", "123456")
	require.NoError(t, err)
	second, err := svc.Login(ctx, "student@test.com", "123456")
	require.NoError(t, err)

	firstClaims, err := svc.ValidateToken(first.Token)
	require.NoError(t, err)
	secondClaims, err := svc.ValidateToken(second.Token)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ValidateSession(ctx, 1, firstClaims.ID), ErrSessionInvalidated)
	assert.NoError(t, svc.ValidateSession(ctx, 1, secondClaims.ID))

	// Logging out the stale token leaves the current login alone.
	require.NoError(t, svc.Logout(ctx, 1, firstClaims.ID))
	assert.NoError(t, svc.ValidateSession(ctx, 1, secondClaims.ID))

	require.NoError(t, svc.Logout(ctx, 1, secondClaims.ID))
	assert.ErrorIs(t, svc.ValidateSession(ctx, 1, secondClaims.ID), ErrSessionInvalidated)
}

func TestValidateToken_RejectsForeignSignature(t *testing.T) {
	svc, _ := newAuthFixture(t)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		UserID: 1,
		Role:   model.RoleAdmin,
	}
	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("other-secret"))
	require.NoError(t, err)

	_, err = svc.ValidateToken(forged)
	assert.Error(t, err)
}

func TestValidateToken_RejectsExpired(t *testing.T) {
	svc, _ := newAuthFixture(t)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := svc.GenerateToken(context.Background(), &model.User{ID: 1, Role: model.RoleStudent})
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestLogin_StoresSessionWithExpiry(t *testing.T) {
	mr, rdb := newTestRedis(t)
	cfg := testConfig()
	hash, err := HashPassword("123456", cfg.BcryptCost)
	require.NoError(t, err)
	users := &fakeUserStore{users: map[string]*model.User{
		"student@test.com": {ID: 1, Email: "student@test.com", Role: model.RoleStudent, PasswordHash: hash},
	}}
	svc := NewAuthService(cfg, rdb, users, nopLog)

	_, err = svc.Login(context.Background(), "student@test.com", "123456")
	require.NoError(t, err)

	key := config.CacheKey.LoginSessionKey(1)
	assert.True(t, mr.Exists(key))
	assert.Equal(t, time.Hour, mr.TTL(key))
}

func TestMe(t *testing.T) {
	svc, _ := newAuthFixture(t)

	u, err := svc.Me(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "teacher@test.com", u.Email)

	_, err = svc.Me(context.Background(), 99)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
