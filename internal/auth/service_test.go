package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

func TestLogin(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	ident := activeIdentity(7)
	ident.PasswordHash = string(hash)
	svc := NewService(&fakeIdentities{byID: map[int64]*Identity{7: ident}})

	got, err := svc.Login(context.Background(), "user@example.com", "correct horse")
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)

	_, err = svc.Login(context.Background(), "user@example.com", "wrong")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@example.com", "correct horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginInactiveIdentity(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	ident := activeIdentity(7)
	ident.PasswordHash = string(hash)
	ident.IsActive = false
	svc := NewService(&fakeIdentities{byID: map[int64]*Identity{7: ident}})

	_, err = svc.Login(context.Background(), "user@example.com", "correct horse")
	assert.ErrorIs(t, err, shared.ErrInvalidCredentials)
}
