package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barkwolwol/tictactoe-server/internal/apperror"
	"github.com/barkwolwol/tictactoe-server/internal/entity"
	"github.com/barkwolwol/tictactoe-server/testing/suite"
)

func TestUserRepository_CreateOrUpdate(t *testing.T) {
	ctx, st := suite.New(t)

	userRepo := NewUserRepository(st.Storage)

	// Given: a user with a nickname
	user := &entity.User{ID: "conn-a", Name: "alice"}

	// When: CreateOrUpdate is called
	err := userRepo.CreateOrUpdate(ctx, user)

	// Then: no error should be returned
	require.NoError(t, err)
}

func TestUserRepository_GetByID(t *testing.T) {
	t.Run("GetByID_Success", func(t *testing.T) {
		ctx, st := suite.New(t)

		userRepo := NewUserRepository(st.Storage)

		// Given: a stored user bound to a room
		user := &entity.User{ID: "conn-a", Name: "alice", RoomID: "r1"}
		require.NoError(t, userRepo.CreateOrUpdate(ctx, user))

		// When: GetByID is called with an existing ID
		retrievedUser, err := userRepo.GetByID(ctx, user.ID)

		// Then: the retrieved user should match the saved one
		require.NoError(t, err)
		assert.Equal(t, user, retrievedUser)
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		ctx, st := suite.New(t)

		userRepo := NewUserRepository(st.Storage)

		// When: GetByID is called with a non-existent ID
		retrievedUser, err := userRepo.GetByID(ctx, "ghost")

		// Then: an ErrUserNotFound error should be returned
		require.Error(t, err)
		assert.ErrorIs(t, err, apperror.ErrUserNotFound)
		assert.Nil(t, retrievedUser)
	})
}

func TestUserRepository_DeleteByID(t *testing.T) {
	ctx, st := suite.New(t)

	userRepo := NewUserRepository(st.Storage)

	// Given: a stored user
	user := &entity.User{ID: "conn-a", Name: "alice"}
	require.NoError(t, userRepo.CreateOrUpdate(ctx, user))

	// When: DeleteByID is called
	err := userRepo.DeleteByID(ctx, user.ID)

	// Then: the user is gone
	require.NoError(t, err)

	_, err = userRepo.GetByID(ctx, user.ID)
	assert.ErrorIs(t, err, apperror.ErrUserNotFound)
}

func TestUserRepository_ListNames(t *testing.T) {
	ctx, st := suite.New(t)

	userRepo := NewUserRepository(st.Storage)

	// Given: two named users and one connection without a nickname
	require.NoError(t, userRepo.CreateOrUpdate(ctx, &entity.User{ID: "conn-a", Name: "bob"}))
	require.NoError(t, userRepo.CreateOrUpdate(ctx, &entity.User{ID: "conn-b", Name: "alice"}))
	require.NoError(t, userRepo.CreateOrUpdate(ctx, &entity.User{ID: "conn-c", RoomID: "r1"}))

	// When: ListNames is called
	names, err := userRepo.ListNames(ctx)

	// Then: only named users appear, sorted
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, names)
}
