package user

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetCurrentUser(t *testing.T) {
	repo := NewRepositoryStub()
	service := NewService(repo)

	created, err := repo.CreateUser(context.Background(), User{Id: "user-1", DisplayName: "Test User"})
	require.NoError(t, err)

	t.Run("returns the user from the request context", func(t *testing.T) {
		ctx := WithUser(context.Background(), created)
		got, err := service.GetCurrentUser(ctx)
		require.NoError(t, err)
		assert.Equal(t, "user-1", got.Id)
	})

	t.Run("fails without a user in context", func(t *testing.T) {
		_, err := service.GetCurrentUser(context.Background())
		assert.ErrorIs(t, err, ErrNoUser)
	})
}

func TestUpdateCurrentUser(t *testing.T) {
	repo := NewRepositoryStub()
	service := NewService(repo)

	created, err := repo.CreateUser(context.Background(), User{Id: "user-1", DisplayName: "Before"})
	require.NoError(t, err)
	ctx := WithUser(context.Background(), created)

	// The id always comes from the context, never from the payload.
	updated, err := service.UpdateCurrentUser(ctx, User{Id: "someone-else", DisplayName: "After"})
	require.NoError(t, err)
	assert.Equal(t, "user-1", updated.Id)
	assert.Equal(t, "After", updated.DisplayName)
}
