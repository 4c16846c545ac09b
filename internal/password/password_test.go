package password

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasher_RoundTrip(t *testing.T) {
	h := NewHasher()

	hash, err := h.Hash("Passw0rd!")
	require.NoError(t, err, "failed to hash password")
	assert.NotEqual(t, "Passw0rd!", hash, "hash must not equal plaintext")

	assert.True(t, h.Verify("Passw0rd!", hash), "correct password should verify")
	assert.False(t, h.Verify("wrong-password", hash), "wrong password should not verify")
}

func TestHasher_SaltPerCall(t *testing.T) {
	h := NewHasher()

	first, err := h.Hash("Passw0rd!")
	require.NoError(t, err)
	second, err := h.Hash("Passw0rd!")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "each hash should carry a fresh salt")
	assert.True(t, h.Verify("Passw0rd!", first))
	assert.True(t, h.Verify("Passw0rd!", second))
}

func TestHasher_MalformedHash(t *testing.T) {
	h := NewHasher()

	assert.False(t, h.Verify("anything", ""), "empty hash must not verify")
	assert.False(t, h.Verify("anything", "not-a-bcrypt-hash"), "garbage hash must not verify")
}
