package users

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/alaya/internal/database"
)

func setupTestDB(t *testing.T) *Repository {
	t.Helper()
	db, err := database.NewDatabase(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepository(db.DB)
}

func TestRepository_Create(t *testing.T) {
	repo := setupTestDB(t)

	user, err := repo.Create("testuser", "hash")

	require.NoError(t, err)
	assert.Len(t, user.ID, 36)
	assert.Equal(t, "testuser", user.Username)
	assert.Equal(t, "hash", user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestRepository_CreateDuplicate(t *testing.T) {
	repo := setupTestDB(t)

	_, err := repo.Create("testuser", "hash")
	require.NoError(t, err)

	_, err = repo.Create("testuser", "other")
	assert.ErrorIs(t, err, ErrUsernameTaken)
}

func TestRepository_GetByID(t *testing.T) {
	repo := setupTestDB(t)

	created, err := repo.Create("testuser", "hash")
	require.NoError(t, err)

	user, err := repo.GetByID(created.ID)
	require.NoError(t, err)
	assert.Equal(t, "testuser", user.Username)

	_, err = repo.GetByID("missing")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_GetByUsername(t *testing.T) {
	repo := setupTestDB(t)

	created, err := repo.Create("testuser", "hash")
	require.NoError(t, err)

	user, err := repo.GetByUsername("testuser")
	require.NoError(t, err)
	assert.Equal(t, created.ID, user.ID)

	_, err = repo.GetByUsername("nobody")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_Count(t *testing.T) {
	repo := setupTestDB(t)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repo.Create("a", "hash")
	require.NoError(t, err)
	_, err = repo.Create("b", "hash")
	require.NoError(t, err)

	count, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
