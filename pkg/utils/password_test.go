package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cheapParams = Argon2Params{Time: 1, Memory: 1024, Threads: 1, KeyLength: 32, SaltLength: 16}

func TestArgon2Hasher_RoundTrip(t *testing.T) {
	t.Parallel()
	h := NewArgon2Hasher(cheapParams)

	hash, err := h.Hash("pw123")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"), hash)
	assert.NotContains(t, hash, "pw123")

	ok, err := h.Verify("pw123", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArgon2Hasher_WrongPasswordIsNotAnError(t *testing.T) {
	t.Parallel()
	h := NewArgon2Hasher(cheapParams)

	hash, err := h.Hash("pw123")
	require.NoError(t, err)

	for _, candidate := range []string{"", "wrong", "pw1234", "PW123", "pw12"} {
		ok, err := h.Verify(candidate, hash)
		require.NoError(t, err, candidate)
		assert.False(t, ok, candidate)
	}
}

func TestArgon2Hasher_SaltPerCall(t *testing.T) {
	t.Parallel()
	h := NewArgon2Hasher(cheapParams)

	a, err := h.Hash("same")
	require.NoError(t, err)
	b, err := h.Hash("same")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestArgon2Hasher_VerifiesWithEmbeddedParams(t *testing.T) {
	t.Parallel()

	hash, err := NewArgon2Hasher(cheapParams).Hash("pw123")
	require.NoError(t, err)

	// A hasher configured differently still verifies old hashes.
	ok, err := NewArgon2Hasher(Argon2Params{Time: 2, Memory: 2048, Threads: 2, KeyLength: 16, SaltLength: 8}).Verify("pw123", hash)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVerifyPassword_InvalidHash(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{
		"",
		"plaintext",
		"$2a$10$abcdefghijklmnopqrstuv",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$abc",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$garbage$c2FsdA$aGFzaA",
	} {
		ok, err := VerifyPassword("pw", bad)
		assert.ErrorIs(t, err, ErrInvalidHash, bad)
		assert.False(t, ok)
	}
}
