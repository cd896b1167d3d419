package repository_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tonggak/milestones/internal/model"
	"github.com/tonggak/milestones/internal/repository"
	"github.com/tonggak/milestones/internal/testutil"
)

func TestTokenCreateAndActive(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewTokenRepository(database)
	user := testutil.NewTestUser(t, database, "otp@example.com")

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeOTP,
		CodeHash:  "hash",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, repo.Create(token))
	assert.NotEmpty(t, token.ID)

	got, err := repo.ActiveByUserAndType(user.ID, model.TokenTypeOTP)
	require.NoError(t, err)
	assert.Equal(t, token.ID, got.ID)
	assert.True(t, got.IsValid())
}

func TestTokenActive_ExpiredNotReturned(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewTokenRepository(database)
	user := testutil.NewTestUser(t, database, "otp@example.com")

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeOTP,
		CodeHash:  "hash",
		ExpiresAt: time.Now().Add(-1 * time.Minute),
	}
	require.NoError(t, repo.Create(token))

	_, err := repo.ActiveByUserAndType(user.ID, model.TokenTypeOTP)
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestTokenActive_NewestWins(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewTokenRepository(database)
	user := testutil.NewTestUser(t, database, "otp@example.com")

	old := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeOTP,
		CodeHash:  "old",
		ExpiresAt: time.Now().Add(10 * time.Minute),
		CreatedAt: time.Now().Add(-1 * time.Minute),
	}
	require.NoError(t, repo.Create(old))

	fresh := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeOTP,
		CodeHash:  "fresh",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, repo.Create(fresh))

	got, err := repo.ActiveByUserAndType(user.ID, model.TokenTypeOTP)
	require.NoError(t, err)
	assert.Equal(t, "fresh", got.CodeHash)
}

func TestTokenConsume_OnlyOnce(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewTokenRepository(database)
	user := testutil.NewTestUser(t, database, "otp@example.com")

	token := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeOTP,
		CodeHash:  "hash",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, repo.Create(token))

	require.NoError(t, repo.Consume(token.ID))

	// Second consume loses the race
	assert.ErrorIs(t, repo.Consume(token.ID), repository.ErrTokenNotFound)

	// A consumed token is no longer active
	_, err := repo.ActiveByUserAndType(user.ID, model.TokenTypeOTP)
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)
}

func TestTokenDeleteByUserAndType_SparesUsed(t *testing.T) {
	database := testutil.NewTestDB(t)
	repo := repository.NewTokenRepository(database)
	user := testutil.NewTestUser(t, database, "otp@example.com")

	used := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeOTP,
		CodeHash:  "used",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, repo.Create(used))
	require.NoError(t, repo.Consume(used.ID))

	pending := &model.Token{
		UserID:    user.ID,
		Type:      model.TokenTypeOTP,
		CodeHash:  "pending",
		ExpiresAt: time.Now().Add(10 * time.Minute),
	}
	require.NoError(t, repo.Create(pending))

	require.NoError(t, repo.DeleteByUserAndType(user.ID, model.TokenTypeOTP))

	// The unused token is gone, the consumed one stays for the audit trail
	_, err := repo.ActiveByUserAndType(user.ID, model.TokenTypeOTP)
	assert.ErrorIs(t, err, repository.ErrTokenNotFound)

	var count int
	err = database.Get(&count, `SELECT COUNT(*) FROM tokens WHERE user_id = $1`, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
