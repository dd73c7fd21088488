package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testParams = Argon2Params{Memory: 1024, Time: 1, Threads: 1, SaltLen: 16, KeyLen: 32}

func TestPasswordHasher_HashAndVerify(t *testing.T) {
	h := NewPasswordHasher(testParams)

	hash, err := h.Hash("SecurePassword123")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$"))
	assert.NotContains(t, hash, "SecurePassword123")
	assert.True(t, h.Verify("SecurePassword123", hash))
	assert.False(t, h.Verify("securepassword123", hash))
	assert.False(t, h.Verify("", hash))
}

func TestPasswordHasher_SaltsEachHash(t *testing.T) {
	h := NewPasswordHasher(testParams)

	a, err := h.Hash("same-password")
	require.NoError(t, err)
	b, err := h.Hash("same-password")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.True(t, h.Verify("same-password", a))
	assert.True(t, h.Verify("same-password", b))
}

func TestPasswordHasher_VerifyUsesEncodedParams(t *testing.T) {
	strong := NewPasswordHasher(Argon2Params{Memory: 2048, Time: 2, Threads: 2, SaltLen: 8, KeyLen: 16})
	hash, err := strong.Hash("p@ss w0rd!")
	require.NoError(t, err)

	weak := NewPasswordHasher(testParams)
	assert.True(t, weak.Verify("p@ss w0rd!", hash))
}

func TestPasswordHasher_MalformedHashIsMismatch(t *testing.T) {
	h := NewPasswordHasher(testParams)

	for _, encoded := range []string{
		"",
		"plaintext",
		"$2a$10$abcdefghijklmnopqrstuv",
		"$argon2id$v=19$m=1024,t=1,p=1$$",
		"$argon2id$v=18$m=1024,t=1,p=1$c2FsdA$a2V5",
		"$argon2id$v=19$m=0,t=0,p=0$c2FsdA$a2V5",
		"$argon2id$v=19$m=1024,t=1,p=1$!!!$a2V5",
		"$argon2i$v=19$m=1024,t=1,p=1$c2FsdA$a2V5",
	} {
		assert.NotPanics(t, func() {
			assert.False(t, h.Verify("anything", encoded), encoded)
		})
	}
}

func TestPasswordHasher_LengthLimit(t *testing.T) {
	h := NewPasswordHasher(testParams)

	_, err := h.Hash(strings.Repeat("x", MaxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	hash, err := h.Hash(strings.Repeat("x", MaxPasswordLength))
	require.NoError(t, err)
	assert.True(t, h.Verify(strings.Repeat("x", MaxPasswordLength), hash))
}
