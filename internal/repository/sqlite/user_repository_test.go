package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stores-api/internal/domain"
	"stores-api/internal/repository"
)

func newTestRepos(t *testing.T) (repository.UserRepository, repository.ConfirmationRepository) {
	t.Helper()
	db, err := OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	users := NewUserRepository(db)
	confirmations := NewConfirmationRepository(db)
	require.NoError(t, users.Init(context.Background()))
	require.NoError(t, confirmations.Init(context.Background()))
	return users, confirmations
}

func testUser(username, email string) *domain.User {
	return &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: "$2a$10$fakefakefakefakefakefake",
	}
}

func TestUserRepository_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	users, _ := newTestRepos(t)

	id, err := users.Create(ctx, testUser("alice", "alice@example.com"))
	require.NoError(t, err)
	assert.Greater(t, id, int64(0))

	byUsername, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, byUsername.ID)
	assert.Equal(t, "alice@example.com", byUsername.Email)

	byEmail, err := users.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)

	byID, err := users.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
}

func TestUserRepository_GetMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	users, _ := newTestRepos(t)

	_, err := users.GetByUsername(ctx, "ghost")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = users.GetByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_DuplicateUsernameConflicts(t *testing.T) {
	ctx := context.Background()
	users, _ := newTestRepos(t)

	_, err := users.Create(ctx, testUser("alice", "alice@example.com"))
	require.NoError(t, err)

	_, err = users.Create(ctx, testUser("alice", "other@example.com"))
	assert.ErrorIs(t, err, repository.ErrConflict)

	_, err = users.Create(ctx, testUser("other", "alice@example.com"))
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestUserRepository_DeleteCascadesConfirmations(t *testing.T) {
	ctx := context.Background()
	users, confirmations := newTestRepos(t)

	id, err := users.Create(ctx, testUser("alice", "alice@example.com"))
	require.NoError(t, err)

	confirmation := testConfirmation("c-1", id)
	require.NoError(t, confirmations.Create(ctx, confirmation))

	require.NoError(t, users.Delete(ctx, id))

	_, err = users.GetByID(ctx, id)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = confirmations.GetByID(ctx, "c-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUserRepository_DeleteMissingReturnsNotFound(t *testing.T) {
	ctx := context.Background()
	users, _ := newTestRepos(t)

	assert.ErrorIs(t, users.Delete(ctx, 123), repository.ErrNotFound)
}
