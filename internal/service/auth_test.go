package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonggak/milestones/internal/service"
	"github.com/tonggak/milestones/internal/testutil"
)

func TestUserByEmail_NormalizesAddress(t *testing.T) {
	stack := newTestStack(t)
	user := testutil.NewTestUser(t, stack.DB, "pat@example.com")

	got, err := stack.Auth.UserByEmail("  Pat@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestUserByEmail_UnknownMeansSignupDisabled(t *testing.T) {
	stack := newTestStack(t)

	_, err := stack.Auth.UserByEmail("stranger@example.com")
	assert.ErrorIs(t, err, service.ErrSignupDisabled)
}

func TestUserByEmail_Invalid(t *testing.T) {
	stack := newTestStack(t)

	_, err := stack.Auth.UserByEmail("not-an-email")
	assert.ErrorIs(t, err, service.ErrInvalidEmail)
}

func TestAuthenticateOAuth_ClosedSignup(t *testing.T) {
	stack := newTestStack(t)

	_, err := stack.Auth.AuthenticateOAuth("stranger@example.com", "google")
	assert.ErrorIs(t, err, service.ErrSignupDisabled)
}

func TestAuthenticateOAuth_ExistingUser(t *testing.T) {
	stack := newTestStack(t)
	user := testutil.NewTestUser(t, stack.DB, "pat@example.com")

	got, err := stack.Auth.AuthenticateOAuth("pat@example.com", "google")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
}

func TestJWT_RoundTrip(t *testing.T) {
	stack := newTestStack(t)
	user := testutil.NewTestUser(t, stack.DB, "pat@example.com")

	token, err := stack.Auth.GenerateJWT(user)
	require.NoError(t, err)

	claims, err := stack.Auth.VerifyJWT(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims["user_id"])
	assert.Equal(t, user.Email, claims["email"])
}

func TestVerifyJWT_Garbage(t *testing.T) {
	stack := newTestStack(t)

	_, err := stack.Auth.VerifyJWT("not.a.token")
	assert.Error(t, err)
}

func TestIsAdmin_LiveLookup(t *testing.T) {
	stack := newTestStack(t)
	admin := testutil.NewTestAdmin(t, stack.DB, "admin@example.com")
	user := testutil.NewTestUser(t, stack.DB, "pat@example.com")

	got, err := stack.Auth.IsAdmin(admin.ID)
	require.NoError(t, err)
	assert.True(t, got)

	got, err = stack.Auth.IsAdmin(user.ID)
	require.NoError(t, err)
	assert.False(t, got)

	got, err = stack.Auth.IsAdmin("")
	require.NoError(t, err)
	assert.False(t, got)
}
