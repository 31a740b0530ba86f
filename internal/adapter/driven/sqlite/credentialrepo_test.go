package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reposhare/reposhare/internal/domain/model"
)

func TestCredentialRepo_UpsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	err := repo.Upsert(ctx, model.Credential{
		OwnerID:    "user-1",
		Host:       model.HostGitHub,
		IV:         "00112233445566778899aabbccddeeff",
		Ciphertext: "deadbeef",
	})
	require.NoError(t, err)

	cred, err := repo.Get(ctx, "user-1", model.HostGitHub)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "00112233445566778899aabbccddeeff", cred.IV)
	assert.Equal(t, "deadbeef", cred.Ciphertext)
	assert.False(t, cred.UpdatedAt.IsZero())
}

func TestCredentialRepo_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)

	cred, err := repo.Get(context.Background(), "user-1", model.HostGitHub)
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestCredentialRepo_UpsertOverwrites(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	err := repo.Upsert(ctx, model.Credential{
		OwnerID: "user-1", Host: model.HostGitHub, IV: "aa", Ciphertext: "old",
	})
	require.NoError(t, err)

	err = repo.Upsert(ctx, model.Credential{
		OwnerID: "user-1", Host: model.HostGitHub, IV: "bb", Ciphertext: "new",
	})
	require.NoError(t, err)

	cred, err := repo.Get(ctx, "user-1", model.HostGitHub)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "bb", cred.IV)
	assert.Equal(t, "new", cred.Ciphertext)
}

func TestCredentialRepo_IsolatedPerOwnerAndHost(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.Credential{
		OwnerID: "user-1", Host: model.HostGitHub, IV: "aa", Ciphertext: "one",
	}))
	require.NoError(t, repo.Upsert(ctx, model.Credential{
		OwnerID: "user-2", Host: model.HostGitHub, IV: "bb", Ciphertext: "two",
	}))

	cred, err := repo.Get(ctx, "user-2", model.HostGitHub)
	require.NoError(t, err)
	require.NotNil(t, cred)
	assert.Equal(t, "two", cred.Ciphertext)

	cred, err = repo.Get(ctx, "user-1", "gitlab")
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestCredentialRepo_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Upsert(ctx, model.Credential{
		OwnerID: "user-1", Host: model.HostGitHub, IV: "aa", Ciphertext: "one",
	}))

	require.NoError(t, repo.Delete(ctx, "user-1", model.HostGitHub))

	cred, err := repo.Get(ctx, "user-1", model.HostGitHub)
	require.NoError(t, err)
	assert.Nil(t, cred)
}

func TestCredentialRepo_DeleteNonexistent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewCredentialRepo(db)

	err := repo.Delete(context.Background(), "user-1", model.HostGitHub)
	assert.NoError(t, err, "deleting nonexistent credential should not error")
}
