package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stores-api/internal/domain"
	"stores-api/internal/repository"
)

func testConfirmation(id string, userID int64) *domain.Confirmation {
	now := time.Now().UTC().Truncate(time.Second)
	return &domain.Confirmation{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpireAt:  now.Add(time.Hour),
	}
}

func TestConfirmationRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	users, confirmations := newTestRepos(t)

	userID, err := users.Create(ctx, testUser("alice", "alice@example.com"))
	require.NoError(t, err)

	confirmation := testConfirmation("c-1", userID)
	require.NoError(t, confirmations.Create(ctx, confirmation))

	got, err := confirmations.GetByID(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)
	assert.False(t, got.Confirmed)
	assert.WithinDuration(t, confirmation.ExpireAt, got.ExpireAt, time.Second)
}

func TestConfirmationRepository_GetMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	_, confirmations := newTestRepos(t)

	_, err := confirmations.GetByID(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestConfirmationRepository_Update(t *testing.T) {
	ctx := context.Background()
	users, confirmations := newTestRepos(t)

	userID, err := users.Create(ctx, testUser("alice", "alice@example.com"))
	require.NoError(t, err)

	confirmation := testConfirmation("c-1", userID)
	require.NoError(t, confirmations.Create(ctx, confirmation))

	confirmation.Confirmed = true
	require.NoError(t, confirmations.Update(ctx, confirmation))

	got, err := confirmations.GetByID(ctx, "c-1")
	require.NoError(t, err)
	assert.True(t, got.Confirmed)
}

func TestConfirmationRepository_MostRecentByUserID(t *testing.T) {
	ctx := context.Background()
	users, confirmations := newTestRepos(t)

	userID, err := users.Create(ctx, testUser("alice", "alice@example.com"))
	require.NoError(t, err)

	got, err := confirmations.MostRecentByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, got)

	old := testConfirmation("c-old", userID)
	old.CreatedAt = old.CreatedAt.Add(-2 * time.Hour)
	old.ExpireAt = old.CreatedAt.Add(time.Hour)
	require.NoError(t, confirmations.Create(ctx, old))

	latest := testConfirmation("c-new", userID)
	require.NoError(t, confirmations.Create(ctx, latest))

	got, err = confirmations.MostRecentByUserID(ctx, userID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "c-new", got.ID)
}

func TestConfirmationRepository_ListByUserIDOrderedByExpiry(t *testing.T) {
	ctx := context.Background()
	users, confirmations := newTestRepos(t)

	userID, err := users.Create(ctx, testUser("alice", "alice@example.com"))
	require.NoError(t, err)

	later := testConfirmation("c-later", userID)
	later.ExpireAt = later.CreatedAt.Add(3 * time.Hour)
	require.NoError(t, confirmations.Create(ctx, later))

	sooner := testConfirmation("c-sooner", userID)
	require.NoError(t, confirmations.Create(ctx, sooner))

	list, err := confirmations.ListByUserID(ctx, userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "c-sooner", list[0].ID)
	assert.Equal(t, "c-later", list[1].ID)
}

func TestConfirmationRepository_ListScopedToUser(t *testing.T) {
	ctx := context.Background()
	users, confirmations := newTestRepos(t)

	aliceID, err := users.Create(ctx, testUser("alice", "alice@example.com"))
	require.NoError(t, err)
	bobID, err := users.Create(ctx, testUser("bob", "bob@example.com"))
	require.NoError(t, err)

	require.NoError(t, confirmations.Create(ctx, testConfirmation("c-alice", aliceID)))
	require.NoError(t, confirmations.Create(ctx, testConfirmation("c-bob", bobID)))

	list, err := confirmations.ListByUserID(ctx, aliceID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "c-alice", list[0].ID)
}
