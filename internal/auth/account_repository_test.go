package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerrad567/vidhub-core/internal/apperr"
	"github.com/nerrad567/vidhub-core/internal/testutil"
)

func TestSQLiteAccountRepository_CreateAndGet(t *testing.T) {
	repo := NewSQLiteAccountRepository(testutil.NewDB(t).DB)
	ctx := context.Background()

	a := &Account{Username: "alice", Email: "alice@example.com", FullName: "Alice", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, a))
	assert.NotEmpty(t, a.ID)
	assert.False(t, a.CreatedAt.IsZero())

	byID, err := repo.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)
	assert.Equal(t, "h", byID.PasswordHash)

	for _, ident := range []string{"alice", "ALICE", "alice@example.com", " Alice@Example.com "} {
		got, err := repo.GetByIdentifier(ctx, ident)
		require.NoError(t, err, ident)
		assert.Equal(t, a.ID, got.ID)
	}

	_, err = repo.GetByID(ctx, "acc-missing")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestSQLiteAccountRepository_Conflicts(t *testing.T) {
	repo := NewSQLiteAccountRepository(testutil.NewDB(t).DB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Account{Username: "alice", Email: "alice@example.com", FullName: "A", PasswordHash: "h"}))

	err := repo.Create(ctx, &Account{Username: "alice", Email: "other@example.com", FullName: "A", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrUsernameExists)

	err = repo.Create(ctx, &Account{Username: "bob", Email: "alice@example.com", FullName: "B", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrEmailExists)

	bob := &Account{Username: "bob", Email: "bob@example.com", FullName: "B", PasswordHash: "h"}
	require.NoError(t, repo.Create(ctx, bob))
	bob.Email = "alice@example.com"
	assert.ErrorIs(t, repo.UpdateProfile(ctx, bob), ErrEmailExists)
}

func TestSQLiteAccountRepository_IDCollisionIsNotConflict(t *testing.T) {
	repo := NewSQLiteAccountRepository(testutil.NewDB(t).DB)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &Account{ID: "acc-deadbeef", Username: "first", Email: "first@example.com", FullName: "F", PasswordHash: "h"}))

	err := repo.Create(ctx, &Account{ID: "acc-deadbeef", Username: "second", Email: "second@example.com", FullName: "S", PasswordHash: "h"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUsernameExists)
	assert.NotErrorIs(t, err, ErrEmailExists)
	assert.Equal(t, apperr.KindInternal, apperr.KindOf(err))
}

func TestGeneratedIDsCarryFullUUID(t *testing.T) {
	repo := NewSQLiteAccountRepository(testutil.NewDB(t).DB)

	a := &Account{Username: "alice", Email: "alice@example.com", FullName: "A", PasswordHash: "h"}
	require.NoError(t, repo.Create(context.Background(), a))

	id, ok := strings.CutPrefix(a.ID, "acc-")
	require.True(t, ok, a.ID)
	_, err := uuid.Parse(id)
	assert.NoError(t, err, "account ID %q should end in a full UUID", a.ID)
}

func TestSQLiteAccountRepository_Updates(t *testing.T) {
	repo := NewSQLiteAccountRepository(testutil.NewDB(t).DB)
	ctx := context.Background()

	a := &Account{Username: "alice", Email: "alice@example.com", FullName: "Alice", PasswordHash: "old"}
	require.NoError(t, repo.Create(ctx, a))

	require.NoError(t, repo.UpdatePassword(ctx, a.ID, "new"))
	a.FullName = "Alice Liddell"
	a.Avatar = "https://cdn.example.com/a.png"
	require.NoError(t, repo.UpdateProfile(ctx, a))

	got, err := repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "new", got.PasswordHash)
	assert.Equal(t, "Alice Liddell", got.FullName)
	assert.Equal(t, "https://cdn.example.com/a.png", got.Avatar)

	assert.ErrorIs(t, repo.UpdatePassword(ctx, "acc-missing", "x"), ErrAccountNotFound)
}
