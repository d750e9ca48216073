// ABOUTME: Tests for the account service
// ABOUTME: Covers register/login round trips, credential errors, and admin bootstrap

package account

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/appsecdash/appsec-gateway/internal/auth"
	"github.com/appsecdash/appsec-gateway/internal/store"
)

func newTestService() (*Service, *store.MockUserStore, *auth.TokenService) {
	userStore := store.NewMockUserStore()
	hasher := auth.NewPasswordHasher(bcrypt.MinCost)
	tokens := auth.NewTokenService([]byte("account-service-test-secret"), time.Hour)
	return NewService(userStore, hasher, tokens, slog.Default()), userStore, tokens
}

func TestRegisterThenLogin(t *testing.T) {
	svc, _, tokens := newTestService()
	ctx := context.Background()

	user, token, err := svc.Register(ctx, "alice", "alice@x.com", "secret1")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@x.com", user.Email)
	assert.Empty(t, user.PasswordHash, "hash must not leave the store boundary")
	assert.False(t, user.CredentialIsDefault)

	// The registration token identifies the new user
	identity, err := tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, identity.UserID)
	assert.Equal(t, "alice", identity.Username)

	// Same credentials log in
	logged, loginToken, err := svc.Login(ctx, "alice", "secret1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, loginToken)
}

func TestRegister_PasswordTooShort(t *testing.T) {
	svc, userStore, _ := newTestService()

	_, _, err := svc.Register(context.Background(), "alice", "alice@x.com", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	count, _ := userStore.CountUsers(context.Background())
	assert.Equal(t, 0, count, "no record written on validation failure")
}

func TestRegister_Conflicts(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "alice", "alice@x.com", "secret1")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "alice", "other@x.com", "secret1")
	assert.ErrorIs(t, err, store.ErrUsernameExists)

	_, _, err = svc.Register(ctx, "bob", "alice@x.com", "secret1")
	assert.ErrorIs(t, err, store.ErrEmailExists)
}

func TestLogin_ByEmail(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	registered, _, err := svc.Register(ctx, "alice", "alice@x.com", "secret1")
	require.NoError(t, err)

	user, token, err := svc.Login(ctx, "alice@x.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)
	assert.NotEmpty(t, token)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "alice", "alice@x.com", "secret1")
	require.NoError(t, err)

	// Wrong password for an existing user and a login for a user that does
	// not exist must be indistinguishable
	_, _, errWrongPass := svc.Login(ctx, "alice", "wrong")
	_, _, errNoUser := svc.Login(ctx, "mallory", "whatever")

	assert.ErrorIs(t, errWrongPass, ErrInvalidCredentials)
	assert.ErrorIs(t, errNoUser, ErrInvalidCredentials)
	assert.Equal(t, errWrongPass.Error(), errNoUser.Error())
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "alice", "alice@x.com", "secret1")
	require.NoError(t, err)

	updated, err := svc.ChangePassword(ctx, user.ID, "secret1", "newsecret")
	require.NoError(t, err)
	assert.False(t, updated.CredentialIsDefault)

	// Old password no longer works, new one does
	_, _, err = svc.Login(ctx, "alice", "secret1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = svc.Login(ctx, "alice", "newsecret")
	assert.NoError(t, err)
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "alice", "alice@x.com", "secret1")
	require.NoError(t, err)

	_, err = svc.ChangePassword(ctx, user.ID, "wrong", "newsecret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Password unchanged
	_, _, err = svc.Login(ctx, "alice", "secret1")
	assert.NoError(t, err)
}

func TestChangePassword_TooShort(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	user, _, err := svc.Register(ctx, "alice", "alice@x.com", "secret1")
	require.NoError(t, err)

	_, err = svc.ChangePassword(ctx, user.ID, "secret1", "tiny")
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

func TestChangePassword_UnknownUser(t *testing.T) {
	svc, _, _ := newTestService()

	_, err := svc.ChangePassword(context.Background(), 404, "a", "newsecret")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestEnsureDefaultAdmin(t *testing.T) {
	svc, userStore, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultAdmin(ctx))

	admin, err := userStore.GetUserByUsername(ctx, DefaultAdminUsername)
	require.NoError(t, err)
	require.NotNil(t, admin)
	assert.Equal(t, DefaultAdminEmail, admin.Email)
	assert.True(t, admin.CredentialIsDefault, "bootstrap admin carries the default-credential flag")

	// Default credential works until changed
	_, _, err = svc.Login(ctx, DefaultAdminUsername, DefaultAdminPassword)
	assert.NoError(t, err)

	// Idempotent
	require.NoError(t, svc.EnsureDefaultAdmin(ctx))
	count, _ := userStore.CountUsers(ctx)
	assert.Equal(t, 1, count)
}

func TestEnsureDefaultAdmin_FlagClearsOnChange(t *testing.T) {
	svc, _, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.EnsureDefaultAdmin(ctx))

	admin, _, err := svc.Login(ctx, DefaultAdminUsername, DefaultAdminPassword)
	require.NoError(t, err)
	require.True(t, admin.CredentialIsDefault)

	updated, err := svc.ChangePassword(ctx, admin.ID, DefaultAdminPassword, "hardened-password")
	require.NoError(t, err)
	assert.False(t, updated.CredentialIsDefault)
}
