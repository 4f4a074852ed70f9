package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultValidator(t *testing.T) *CredentialValidator {
	t.Helper()
	dir, err := NewDirectory(DefaultAccounts()...)
	require.NoError(t, err)
	v, err := NewCredentialValidator(dir)
	require.NoError(t, err)
	return v
}

func TestValidateKnownAccount(t *testing.T) {
	v := newDefaultValidator(t)

	p, err := v.Validate(context.Background(), "GalKadi", "Test123!")
	require.NoError(t, err)
	assert.Equal(t, Principal{ID: 1, Username: "galkadi", Roles: []string{RoleAdmin}}, p)
}

func TestValidateRejectsWithoutEnumeration(t *testing.T) {
	v := newDefaultValidator(t)
	ctx := context.Background()

	_, wrongPassword := v.Validate(ctx, "bob", "wrongpass")
	_, unknownUser := v.Validate(ctx, "mallory", "Test123!")
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword, unknownUser)
}

func TestValidatePasswordIsCaseSensitive(t *testing.T) {
	v := newDefaultValidator(t)
	_, err := v.Validate(context.Background(), "sue", "test123!")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestNewDirectoryRejectsDuplicateIDs(t *testing.T) {
	_, err := NewDirectory(
		Account{ID: 1, Username: "a", Password: "pw"},
		Account{ID: 1, Username: "b", Password: "pw"},
	)
	assert.ErrorIs(t, err, ErrInvalidAccount)
}

func TestSeedAccountsOnlyWhenEmpty(t *testing.T) {
	ctx := context.Background()
	dir, err := NewDirectory()
	require.NoError(t, err)

	n, err := SeedAccounts(ctx, dir, DefaultAccounts())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = SeedAccounts(ctx, dir, []Account{{ID: 9, Username: "late", Password: "pw"}})
	require.NoError(t, err)
	assert.Zero(t, n)

	ok, err := dir.AccountExists(ctx, 9)
	require.NoError(t, err)
	assert.False(t, ok)
}
