package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendit/internal/models"
)

func TestUserCRUD(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	user := seedUser(t, db, "alice", "alice@example.com")
	assert.NotZero(t, user.ID)

	got, err := db.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, "alice@example.com", got.Email)

	exists, err := db.UserExists(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = db.UserExists(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, exists)

	got.Name = "alice2"
	got.Email = "alice2@example.com"
	require.NoError(t, db.UpdateUser(ctx, got))
	got, err = db.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice2", got.Name)

	require.NoError(t, db.DeleteUser(ctx, user.ID))
	_, err = db.GetUser(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, db.DeleteUser(ctx, user.ID), ErrNotFound)
}

func TestUserEmailUnique(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	seedUser(t, db, "alice", "alice@example.com")

	err := db.CreateUser(ctx, &models.User{Name: "imposter", Email: "alice@example.com"})
	assert.ErrorIs(t, err, ErrEmailTaken)

	bob := seedUser(t, db, "bob", "bob@example.com")
	bob.Email = "alice@example.com"
	assert.ErrorIs(t, db.UpdateUser(ctx, bob), ErrEmailTaken)
}

func TestListUsers(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	users, err := db.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	a := seedUser(t, db, "a", "a@example.com")
	b := seedUser(t, db, "b", "b@example.com")

	users, err = db.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, a.ID, users[0].ID)
	assert.Equal(t, b.ID, users[1].ID)
}

func TestDeleteUserCascades(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	owner := seedUser(t, db, "owner", "owner@example.com")
	item := seedItem(t, db, owner.ID, "drill", true)

	require.NoError(t, db.DeleteUser(ctx, owner.ID))
	_, err := db.GetItem(ctx, item.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
