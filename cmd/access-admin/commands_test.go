package main

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsecurity/access-register/internal/apperr"
	"github.com/smartsecurity/access-register/internal/auth"
	"github.com/smartsecurity/access-register/internal/models"
	"github.com/smartsecurity/access-register/internal/storage/memory"
	"github.com/smartsecurity/access-register/pkg/crypto"
)

func TestSeedSuperAdmin(t *testing.T) {
	ctx := context.Background()
	store := memory.New()

	user, err := seedSuperAdmin(ctx, store, auth.NewAccount{Email: "Root@Example.test", Password: "secret1", FullName: "Root"})
	require.NoError(t, err)
	assert.Equal(t, models.RoleSuperAdmin, user.Role)
	assert.Nil(t, user.TenantID)

	stored, err := store.GetUserByEmail(ctx, "root@example.test")
	require.NoError(t, err)
	assert.True(t, crypto.VerifyPassword("secret1", stored.PasswordHash))

	_, err = seedSuperAdmin(ctx, store, auth.NewAccount{Email: "root@example.test", Password: "other12", FullName: "Again"})
	assert.ErrorContains(t, err, "already exists")

	_, err = seedSuperAdmin(ctx, store, auth.NewAccount{Email: "bad", Password: "1", FullName: "X"})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
