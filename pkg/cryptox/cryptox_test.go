package cryptox

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashAndVerify(t *testing.T) {
	h := NewHasher([]byte("unit-test-pepper"))

	encoded, err := h.Hash("correct horse battery staple")
	require.NoError(t, err)
	require.Contains(t, encoded, "$argon2id$")

	require.NoError(t, h.Verify("correct horse battery staple", encoded))
	require.ErrorIs(t, h.Verify("wrong password", encoded), ErrHashMismatch)
}

func TestVerifyRejectsDifferentPepper(t *testing.T) {
	a := NewHasher([]byte("pepper-a"))
	b := NewHasher([]byte("pepper-b"))

	encoded, err := a.Hash("secret")
	require.NoError(t, err)

	require.ErrorIs(t, b.Verify("secret", encoded), ErrHashMismatch)
}

func TestVerifyMalformedHash(t *testing.T) {
	h := NewHasher(nil)

	for _, bad := range []string{
		"",
		"plaintext",
		"$argon2i$v=19$m=65536,t=3,p=2$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=65536,t=3,p=2$!!!$aGFzaA",
	} {
		require.ErrorIs(t, h.Verify("x", bad), ErrMalformedHash, "input %q", bad)
	}
}

func TestHashIsSalted(t *testing.T) {
	h := NewHasher(nil)

	first, err := h.Hash("same password")
	require.NoError(t, err)
	second, err := h.Hash("same password")
	require.NoError(t, err)
	require.NotEqual(t, first, second)
}

func TestFingerprintToken(t *testing.T) {
	fp := FingerprintToken("some-signed-token")
	require.NotEqual(t, "some-signed-token", fp)
	require.Equal(t, fp, FingerprintToken("some-signed-token"), "fingerprint must be deterministic")
	require.NotEqual(t, fp, FingerprintToken("another-token"))
}

func TestLoadOrCreatePepper(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys", "pepper")

	created, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Len(t, created, pepperLen)

	loaded, err := LoadOrCreatePepper(path)
	require.NoError(t, err)
	require.Equal(t, created, loaded)
}
