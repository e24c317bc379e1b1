package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsecurity/access-register/internal/apperr"
	"github.com/smartsecurity/access-register/internal/config"
	"github.com/smartsecurity/access-register/internal/identity"
	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage/memory"
)

func testJWT() *JWTManager {
	return NewJWTManager(&config.JWTConfig{
		Secret:          "test-secret",
		Issuer:          "access-register",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	})
}

func TestTokenRoundTripCarriesIdentity(t *testing.T) {
	m := testJWT()
	tenantID := uuid.New()
	user := &models.User{ID: uuid.New(), Email: "admin@acme.test", Role: models.RoleTenantAdmin, TenantID: &tenantID}

	pair, err := m.GenerateTokenPair(user)
	require.NoError(t, err)

	claims, err := m.ValidateToken(pair.AccessToken)
	require.NoError(t, err)

	id := claims.Identity()
	assert.Equal(t, user.ID, id.SubjectID)
	assert.Equal(t, models.RoleTenantAdmin, id.Role)
	require.NotNil(t, id.TenantID)
	assert.Equal(t, tenantID, *id.TenantID)

	userID, err := m.ParseRefreshToken(pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, userID)
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	m := testJWT()
	pair, err := m.GenerateTokenPair(&models.User{ID: uuid.New(), Role: models.RoleSuperAdmin})
	require.NoError(t, err)

	_, err = m.ParseRefreshToken(pair.AccessToken)
	assert.Error(t, err, "access token used as refresh token")

	_, err = m.ValidateToken(pair.RefreshToken)
	assert.Error(t, err, "refresh token used as access token")
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	seedUser(t, store, "guard@site.test", "hunter22", models.AccountActive)

	pair, err := svc.Login(ctx, "guard@site.test", "hunter22")
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, pair.AccessToken)
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestValidateTokenRejectsForeignSecret(t *testing.T) {
	pair, err := testJWT().GenerateTokenPair(&models.User{ID: uuid.New(), Role: models.RoleSecurityUser})
	require.NoError(t, err)

	other := NewJWTManager(&config.JWTConfig{Secret: "other", AccessTokenTTL: time.Hour, RefreshTokenTTL: time.Hour})
	_, err = other.ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	m := testJWT()
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	pair, err := m.GenerateTokenPair(&models.User{ID: uuid.New(), Role: models.RoleSecurityUser})
	require.NoError(t, err)

	_, err = testJWT().ValidateToken(pair.AccessToken)
	assert.Error(t, err)
}

func newService(t *testing.T) (*Service, *memory.Store) {
	t.Helper()
	store := memory.New()
	return NewService(store, testJWT()), store
}

func seedUser(t *testing.T, store *memory.Store, email, password string, status models.AccountStatus) *models.User {
	t.Helper()
	u, err := NewUser(NewAccount{Email: email, Password: password, FullName: "Gate Keeper"}, models.RoleSecurityUser, nil)
	require.NoError(t, err)
	u.Status = status
	require.NoError(t, store.CreateUser(context.Background(), u))
	return u
}

func TestLogin(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	seedUser(t, store, "guard@site.test", "hunter22", models.AccountActive)
	seedUser(t, store, "old@site.test", "hunter22", models.AccountInactive)

	pair, err := svc.Login(ctx, "GUARD@site.test", "hunter22")
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.Equal(t, "guard@site.test", pair.User.Email)

	_, err = svc.Login(ctx, "guard@site.test", "wrong")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = svc.Login(ctx, "nobody@site.test", "hunter22")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	_, err = svc.Login(ctx, "old@site.test", "hunter22")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestRefresh(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	seedUser(t, store, "guard@site.test", "hunter22", models.AccountActive)

	pair, err := svc.Login(ctx, "guard@site.test", "hunter22")
	require.NoError(t, err)

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, pair.User.ID, next.User.ID)

	_, err = svc.Refresh(ctx, "garbage")
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))
}

func TestSaveFCMToken(t *testing.T) {
	svc, store := newService(t)
	ctx := context.Background()
	u := seedUser(t, store, "guard@site.test", "hunter22", models.AccountActive)

	caller := identity.FromUser(u)
	require.NoError(t, svc.SaveFCMToken(ctx, caller, "  device-token "))

	got, err := store.GetUser(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "device-token", got.FCMToken)

	assert.True(t, errors.Is(svc.SaveFCMToken(ctx, caller, " "), apperr.ErrValidation))
	ghost := identity.New(uuid.New(), models.RoleSecurityUser, nil)
	assert.True(t, errors.Is(svc.SaveFCMToken(ctx, ghost, "x"), apperr.ErrNotFound))
}

func TestCreateSecurityUser(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	super := identity.New(uuid.New(), models.RoleSuperAdmin, nil)
	req := NewAccount{Email: "new@site.test", Password: "secret1", FullName: "New Guard"}

	u, err := svc.CreateSecurityUser(ctx, super, req)
	require.NoError(t, err)
	assert.Equal(t, models.RoleSecurityUser, u.Role)
	assert.Equal(t, models.AccountActive, u.Status)

	_, err = svc.CreateSecurityUser(ctx, super, req)
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	guard := identity.New(uuid.New(), models.RoleSecurityUser, nil)
	_, err = svc.CreateSecurityUser(ctx, guard, NewAccount{Email: "x@site.test", Password: "secret1", FullName: "X"})
	assert.True(t, errors.Is(err, apperr.ErrUnauthorized))

	users, err := svc.ListSecurityUsers(ctx, super)
	require.NoError(t, err)
	assert.Len(t, users, 1)
}
