package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/nerrad567/vidhub-core/internal/apperr"
)

func TestPasswordHasher_HashVerify(t *testing.T) {
	h := NewPasswordHasher(fastParams)

	hash, err := h.Hash(testPassword)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=64,t=1,p=1$"), hash)
	assert.NotContains(t, hash, testPassword)
	assert.True(t, h.Verify(testPassword, hash))
	assert.False(t, h.Verify("wrong password", hash))
	assert.False(t, h.Verify("", hash))
}

func TestPasswordHasher_FreshSalt(t *testing.T) {
	h := NewPasswordHasher(fastParams)

	a, err := h.Hash(testPassword)
	require.NoError(t, err)
	b, err := h.Hash(testPassword)
	require.NoError(t, err)

	assert.NotEqual(t, a, b, "two hashes of the same password must differ")
}

func TestPasswordHasher_EmptyPassword(t *testing.T) {
	_, err := NewPasswordHasher(fastParams).Hash("")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPasswordHasher_MalformedHash(t *testing.T) {
	h := NewPasswordHasher(fastParams)

	for _, stored := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=18$m=64,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=0,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$!!!$aGFzaA",
		"$argon2id$v=19$m=64,t=1,p=1$c2FsdA$",
	} {
		assert.False(t, h.Verify(testPassword, stored), "stored=%q", stored)
		assert.True(t, h.NeedsRehash(stored), "stored=%q", stored)
	}
}

func TestPasswordHasher_LegacyBcrypt(t *testing.T) {
	legacy, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)

	h := NewPasswordHasher(fastParams)
	assert.True(t, h.Verify(testPassword, string(legacy)))
	assert.False(t, h.Verify("wrong password", string(legacy)))
	assert.True(t, h.NeedsRehash(string(legacy)))
}

func TestPasswordHasher_NeedsRehash(t *testing.T) {
	weak := NewPasswordHasher(fastParams)
	strong := NewPasswordHasher(PasswordParams{Time: 2, MemoryKiB: 128, Threads: 1})

	weakHash, err := weak.Hash(testPassword)
	require.NoError(t, err)
	strongHash, err := strong.Hash(testPassword)
	require.NoError(t, err)

	assert.False(t, weak.NeedsRehash(weakHash))
	assert.True(t, strong.NeedsRehash(weakHash))
	assert.False(t, strong.NeedsRehash(strongHash))
	assert.False(t, weak.NeedsRehash(strongHash), "stronger hashes are kept")

	// Verification uses the embedded parameters, not the hasher's.
	assert.True(t, strong.Verify(testPassword, weakHash))
}
