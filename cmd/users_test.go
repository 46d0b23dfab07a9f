package main

import (
	"context"
	"testing"

	"github.com/boskojeremic/iflowx/internal/model"
	"github.com/boskojeremic/iflowx/internal/store/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestEnsureSuperAdmin(t *testing.T) {
	s, err := memstore.New()
	require.NoError(t, err)
	ctx := context.Background()

	_, err = ensureSuperAdmin(ctx, s, "root@example.com", "", "short")
	assert.Error(t, err)

	u, err := ensureSuperAdmin(ctx, s, " Root@Example.com ", "Root", "first-pass")
	require.NoError(t, err)
	assert.Equal(t, "root@example.com", u.Email)
	assert.True(t, u.IsSuperAdmin)

	require.NoError(t, s.CreateUser(ctx, &model.User{Email: "plain@example.com"}))
	promoted, err := ensureSuperAdmin(ctx, s, "plain@example.com", "", "second-pass")
	require.NoError(t, err)

	stored, err := s.GetUser(ctx, promoted.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSuperAdmin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("second-pass")))

	again, err := ensureSuperAdmin(ctx, s, "root@example.com", "", "third-pass")
	require.NoError(t, err)
	assert.Equal(t, u.ID, again.ID)
	assert.Equal(t, "Root", again.Name)
}
