package user_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NGxID18/CureCart/internal/db/dbtest"
	"github.com/NGxID18/CureCart/internal/user"
)

func TestUserRepository_CreateAndGet(t *testing.T) {
	pool := dbtest.Connect(t)
	repo := user.NewRepository(pool)
	ctx := context.Background()

	u := &user.User{Name: "Test User", Email: "test.create@example.com", PasswordHash: "hashed_password"}
	id, err := repo.Create(ctx, u)
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	byEmail, err := repo.GetByEmail(ctx, "Test.Create@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)
	assert.Equal(t, "hashed_password", byEmail.PasswordHash)
	assert.False(t, byEmail.IsAdmin)
	assert.Nil(t, byEmail.BirthDate)

	_, err = repo.Create(ctx, &user.User{Name: "Other", Email: "test.create@example.com", PasswordHash: "x"})
	require.ErrorIs(t, err, user.ErrEmailExists)
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	pool := dbtest.Connect(t)
	repo := user.NewRepository(pool)
	ctx := context.Background()

	u := &user.User{Name: "Before", Email: "profile@example.com", PasswordHash: "x"}
	_, err := repo.Create(ctx, u)
	require.NoError(t, err)

	birth := time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC)
	err = repo.UpdateProfile(ctx, u.ID, user.Profile{Name: "After", Address: "Bandung", Phone: "0812", BirthDate: &birth})
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "After", got.Name)
	assert.Equal(t, "Bandung", got.Address)
	require.NotNil(t, got.BirthDate)
	assert.Equal(t, "2000-01-02", got.BirthDate.Format("2006-01-02"))

	err = repo.UpdateProfile(ctx, uuid.Must(uuid.NewV4()), user.Profile{Name: "Nobody"})
	require.ErrorIs(t, err, user.ErrNotFound)
}
